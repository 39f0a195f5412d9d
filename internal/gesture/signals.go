// Package gesture derives scalar control signals from detected hand
// landmarks. A single frame's landmarks yield two values: how open the
// hand is and where it sits horizontally in the camera frame. Both are
// stateless per-frame computations; smoothing happens downstream in the
// particle field.
package gesture

import (
	"errors"
	"fmt"

	"github.com/ayusman/handfield/internal/detector"
)

// ErrNoHand is returned when Extract is called without landmarks.
var ErrNoHand = errors.New("no hand landmarks")

// ErrDegenerateHand is returned when the wrist and middle finger MCP
// coincide, making the palm-relative ratio undefined. Callers should
// treat the frame as carrying no signal.
var ErrDegenerateHand = errors.New("degenerate hand: zero palm size")

// minPalmSize is the smallest palm size treated as non-degenerate.
const minPalmSize = 1e-9

// Calibration holds the empirical openness ratio bounds. A closed fist
// measures about 0.8 fingertip-to-palm ratio, a fully open hand about
// 2.2. These are calibration constants; do not change them without new
// measurement data.
type Calibration struct {
	ClosedRatio float64
	OpenRatio   float64
}

// DefaultCalibration returns the calibrated fist/open ratio bounds.
func DefaultCalibration() Calibration {
	return Calibration{
		ClosedRatio: 0.8,
		OpenRatio:   2.2,
	}
}

// Signals are the per-frame control values derived from one hand.
type Signals struct {
	// Openness is 0 for a closed fist, 1 for a fully open hand.
	Openness float64 `json:"openness"`
	// HandX is the horizontal position of the palm in [0,1],
	// 0 at the left edge of the camera frame.
	HandX float64 `json:"hand_x"`
}

// Extractor converts hand landmarks into control signals using a fixed
// calibration. It keeps no state between frames.
type Extractor struct {
	cal Calibration
}

// NewExtractor creates an Extractor with the given calibration.
// The open ratio must be strictly greater than the closed ratio.
func NewExtractor(cal Calibration) (*Extractor, error) {
	if cal.OpenRatio <= cal.ClosedRatio {
		return nil, fmt.Errorf("invalid calibration: open ratio %f must exceed closed ratio %f",
			cal.OpenRatio, cal.ClosedRatio)
	}
	return &Extractor{cal: cal}, nil
}

// Calibration returns the extractor's ratio bounds.
func (e *Extractor) Calibration() Calibration {
	return e.cal
}

// Extract computes both control signals from one frame's landmarks.
func (e *Extractor) Extract(hand *detector.HandLandmarks) (Signals, error) {
	openness, err := e.Openness(hand)
	if err != nil {
		return Signals{}, err
	}

	handX, err := HandX(hand)
	if err != nil {
		return Signals{}, err
	}

	return Signals{Openness: openness, HandX: handX}, nil
}

// Openness returns how open the hand is in [0,1].
//
// The raw measure is the average fingertip-to-wrist distance divided by
// the palm size (wrist to middle finger MCP). The ratio is normalized
// against the calibration bounds and clamped, which absorbs measurement
// noise beyond the calibrated range. The ratio is translation and scale
// invariant because it divides two distances within the same hand.
func (e *Extractor) Openness(hand *detector.HandLandmarks) (float64, error) {
	if hand == nil {
		return 0, ErrNoHand
	}

	wrist := hand.Points[detector.Wrist]
	palmSize := detector.Distance(wrist, hand.Points[detector.MiddleMCP])
	if palmSize < minPalmSize {
		return 0, ErrDegenerateHand
	}

	var total float64
	for _, tip := range detector.FingertipIndices {
		total += detector.Distance(wrist, hand.Points[tip])
	}
	avgTipDist := total / float64(len(detector.FingertipIndices))

	ratio := avgTipDist / palmSize
	openness := (ratio - e.cal.ClosedRatio) / (e.cal.OpenRatio - e.cal.ClosedRatio)

	return clamp01(openness), nil
}

// HandX returns the horizontal position of the palm in [0,1]. It reads
// the middle finger MCP directly; the upstream detector already
// normalizes x to the frame width. No smoothing is applied here.
func HandX(hand *detector.HandLandmarks) (float64, error) {
	if hand == nil {
		return 0, ErrNoHand
	}
	return hand.Points[detector.MiddleMCP].X, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
