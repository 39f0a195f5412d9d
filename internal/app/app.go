// Package app wires the Handfield pipeline together: camera frames go
// through motion gating and hand detection, gesture signals drive the
// particle field, and a display-rate loop keeps the field advancing
// whether or not a hand is in view.
package app

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/ayusman/handfield/internal/capture"
	"github.com/ayusman/handfield/internal/detector"
	"github.com/ayusman/handfield/internal/field"
	"github.com/ayusman/handfield/internal/gesture"
)

// Pipeline timing constants.
const (
	// IdleFPS is the detection rate when no motion is present.
	IdleFPS = 5
	// ActiveFPS is the detection rate while motion is detected.
	ActiveFPS = 15
	// IdleTimeoutMs is how long without motion before dropping back to
	// idle detection.
	IdleTimeoutMs = 2000
	// StepFPS is the display-rate at which the field simulation
	// advances, independent of detection cadence.
	StepFPS = 60
)

// Default gesture-to-field mapping. Openness maps linearly onto the
// expansion range; the palm's horizontal position maps onto a rotation
// span centered on zero.
const (
	DefaultExpansionMin = 0.1
	DefaultExpansionMax = 4.0
	DefaultRotationSpan = 2 * math.Pi
)

// Config holds configuration options for the application.
type Config struct {
	CameraID     int
	MotionThresh float64
	// Particles overrides the field's particle count. Zero means the
	// field default.
	Particles int
	// ExpansionMin/Max bound the expansion target derived from
	// openness. Zero values mean the defaults.
	ExpansionMin float64
	ExpansionMax float64
	// RotationSpan is the full rotation range in radians covered as
	// the hand sweeps across the frame. Zero means the default.
	RotationSpan float64
	// Calibration overrides the openness ratio bounds. The zero value
	// means the measured defaults.
	Calibration gesture.Calibration
}

// App orchestrates gesture detection and the particle field simulation.
type App struct {
	config    Config
	camera    capture.Camera
	motion    *capture.MotionDetector
	detector  detector.Detector
	extractor *gesture.Extractor
	field     *field.Field

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}

	expansionMin float64
	expansionMax float64
	rotationSpan float64
}

// New creates a new App instance with the given configuration.
func New(config Config) (*App, error) {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // 1% pixel change
	}

	cal := config.Calibration
	if cal == (gesture.Calibration{}) {
		cal = gesture.DefaultCalibration()
	}
	extractor, err := gesture.NewExtractor(cal)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	f, err := field.New(field.Config{Particles: config.Particles})
	if err != nil {
		return nil, fmt.Errorf("create field: %w", err)
	}

	a := &App{
		config:       config,
		camera:       capture.NewCamera(config.CameraID),
		motion:       capture.NewMotionDetector(motionThreshold),
		extractor:    extractor,
		field:        f,
		enabled:      true,
		expansionMin: config.ExpansionMin,
		expansionMax: config.ExpansionMax,
		rotationSpan: config.RotationSpan,
	}
	if a.expansionMax <= a.expansionMin {
		a.expansionMin = DefaultExpansionMin
		a.expansionMax = DefaultExpansionMax
	}
	if a.rotationSpan == 0 {
		a.rotationSpan = DefaultRotationSpan
	}

	// Try MediaPipe first, fall back to the mock detector so the
	// visualizer still runs (static field) without the Python service.
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a, nil
}

// SetEnabled enables or disables gesture tracking. The field keeps
// stepping either way; only detection input pauses.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether gesture tracking is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetExpansionRange updates the openness-to-expansion mapping bounds.
func (a *App) SetExpansionRange(min, max float64) error {
	if min < 0 || max <= min {
		return fmt.Errorf("invalid expansion range [%f, %f]", min, max)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.expansionMin = min
	a.expansionMax = max
	return nil
}

// ExpansionRange returns the current openness-to-expansion bounds.
func (a *App) ExpansionRange() (min, max float64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.expansionMin, a.expansionMax
}

// Start begins the detection and simulation loops.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runDetection(a.stopCh)
	go a.runField(a.stopCh)

	log.Println("Handfield pipeline started")
	return nil
}

// Stop halts both loops and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Handfield pipeline stopped")
}

// Field returns the particle field driven by this app.
func (a *App) Field() *field.Field {
	return a.field
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}
