package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// tipDirections are unit vectors used to place the five fingertips
// around the wrist in the preset hands below.
var tipDirections = [5]Point3D{
	{X: 1, Y: 0, Z: 0},
	{X: 0.6, Y: -0.8, Z: 0},
	{X: 0, Y: -1, Z: 0},
	{X: -0.6, Y: -0.8, Z: 0},
	{X: -1, Y: 0, Z: 0},
}

// presetHand builds a hand with the wrist at (0.5, 0.8, 0), the middle
// finger MCP a palm length of 0.1 above it, and every fingertip at
// exactly tipRatio palm lengths from the wrist. Intermediate joints are
// placed along the same rays at shorter fractions; they do not affect
// the openness signal.
func presetHand(tipRatio float64) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	const palm = 0.1
	wrist := Point3D{X: 0.5, Y: 0.8, Z: 0}

	h.Points[Wrist] = wrist
	h.Points[MiddleMCP] = Point3D{X: wrist.X, Y: wrist.Y - palm, Z: 0}

	at := func(dir Point3D, frac float64) Point3D {
		r := tipRatio * palm * frac
		return Point3D{X: wrist.X + dir.X*r, Y: wrist.Y + dir.Y*r, Z: wrist.Z + dir.Z*r}
	}

	joints := [5][4]int{
		{ThumbCMC, ThumbMCP, ThumbIP, ThumbTip},
		{IndexMCP, IndexPIP, IndexDIP, IndexTip},
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
		{RingMCP, RingPIP, RingDIP, RingTip},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
	}
	fracs := [4]float64{0.25, 0.5, 0.75, 1.0}

	for f, dir := range tipDirections {
		for j, idx := range joints[f] {
			// MiddleMCP keeps its fixed palm-anchor position.
			if idx == MiddleMCP {
				continue
			}
			h.Points[idx] = at(dir, fracs[j])
		}
	}

	return h
}

// OpenPalmLandmarks returns a preset hand with all fingers extended.
// Fingertip distances are exactly 2.2 palm lengths from the wrist, the
// calibrated fully-open ratio.
func OpenPalmLandmarks() HandLandmarks {
	return presetHand(2.2)
}

// ClosedFistLandmarks returns a preset hand curled into a fist.
// Fingertip distances are exactly 0.8 palm lengths from the wrist, the
// calibrated fully-closed ratio.
func ClosedFistLandmarks() HandLandmarks {
	return presetHand(0.8)
}

// HalfOpenLandmarks returns a preset hand halfway between fist and
// open palm (ratio 1.5).
func HalfOpenLandmarks() HandLandmarks {
	return presetHand(1.5)
}
