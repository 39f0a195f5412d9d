package server

import (
	"encoding/binary"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/handfield/internal/field"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Frame wire format, little-endian:
//
//	uint32   particle count
//	float32  expansion (smoothed)
//	float32  rotation (smoothed, radians)
//	uint8 x4 display color r, g, b, reserved
//	float32  x, y, z per particle
//
// The client applies rotation as a whole-set transform; positions are
// untransformed simulation coordinates.
const frameHeaderSize = 16

// FramesHandler broadcasts binary particle frames via WebSocket.
type FramesHandler struct {
	field   *field.Field
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex

	// Reused between frames to avoid a large allocation per broadcast.
	positions []float32
	buf       []byte
}

// NewFramesHandler creates a new FramesHandler broadcasting the given field.
func NewFramesHandler(f *field.Field) *FramesHandler {
	h := &FramesHandler{
		field:   f,
		clients: make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast sends a frame to all connected clients at display rate.
func (h *FramesHandler) broadcast() {
	ticker := time.NewTicker(33 * time.Millisecond) // ~30 FPS
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		idle := len(h.clients) == 0
		h.mu.RUnlock()
		if idle {
			continue
		}

		frame := h.encodeFrame()

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.BinaryMessage, frame)
		}
		h.mu.RUnlock()
	}
}

// encodeFrame serializes the current field state into the binary wire
// format. Only the broadcast goroutine calls this, so the scratch
// buffers are reused without locking.
func (h *FramesHandler) encodeFrame() []byte {
	positions, rotation := h.field.Snapshot(h.positions)
	h.positions = positions

	expansion, _ := h.field.Expansion()
	red, green, blue, err := field.ParseHexColor(h.field.Color())
	if err != nil {
		red, green, blue = 255, 255, 255
	}

	need := frameHeaderSize + len(positions)*4
	if cap(h.buf) < need {
		h.buf = make([]byte, need)
	}
	buf := h.buf[:need]

	binary.LittleEndian.PutUint32(buf[0:], uint32(len(positions)/3))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(expansion)))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(rotation)))
	buf[12], buf[13], buf[14], buf[15] = red, green, blue, 0

	for i, v := range positions {
		binary.LittleEndian.PutUint32(buf[frameHeaderSize+i*4:], math.Float32bits(v))
	}

	return buf
}
