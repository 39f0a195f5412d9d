package gesture

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/handfield/internal/detector"
)

const epsilon = 1e-9

// handWithRatio builds a hand whose average fingertip-to-wrist distance
// is exactly ratio palm lengths.
func handWithRatio(ratio float64) detector.HandLandmarks {
	h := detector.HandLandmarks{Handedness: "Right", Score: 0.9}

	const palm = 0.1
	wrist := detector.Point3D{X: 0.4, Y: 0.6, Z: 0}
	h.Points[detector.Wrist] = wrist
	h.Points[detector.MiddleMCP] = detector.Point3D{X: wrist.X, Y: wrist.Y - palm, Z: 0}

	// Spread fingertips along distinct unit directions, each at the
	// same distance so the average equals the individual ratio.
	dirs := [5]detector.Point3D{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: -1, Z: 0},
		{X: -1, Y: 0, Z: 0},
		{X: 0.6, Y: -0.8, Z: 0},
		{X: 0, Y: 0, Z: 1},
	}
	for i, tip := range detector.FingertipIndices {
		d := dirs[i]
		r := ratio * palm
		h.Points[tip] = detector.Point3D{
			X: wrist.X + d.X*r,
			Y: wrist.Y + d.Y*r,
			Z: wrist.Z + d.Z*r,
		}
	}

	return h
}

func mustExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultCalibration())
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	return e
}

func TestNewExtractor(t *testing.T) {
	t.Run("rejects inverted calibration", func(t *testing.T) {
		_, err := NewExtractor(Calibration{ClosedRatio: 2.0, OpenRatio: 1.0})
		if err == nil {
			t.Error("expected error for open ratio below closed ratio")
		}
	})

	t.Run("rejects equal bounds", func(t *testing.T) {
		_, err := NewExtractor(Calibration{ClosedRatio: 1.0, OpenRatio: 1.0})
		if err == nil {
			t.Error("expected error for equal ratio bounds")
		}
	})
}

func TestExtractor_Openness(t *testing.T) {
	e := mustExtractor(t)

	tests := []struct {
		name  string
		ratio float64
		want  float64
	}{
		{"closed fist at lower bound", 0.8, 0.0},
		{"open hand at upper bound", 2.2, 1.0},
		{"midpoint", 1.5, 0.5},
		{"below range clamps to zero", 0.5, 0.0},
		{"above range clamps to one", 3.0, 1.0},
		{"quarter open", 1.15, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := handWithRatio(tt.ratio)
			got, err := e.Openness(&hand)
			if err != nil {
				t.Fatalf("Openness() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Openness() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestExtractor_Openness_Invariance(t *testing.T) {
	e := mustExtractor(t)

	t.Run("invariant under translation", func(t *testing.T) {
		hand := handWithRatio(1.5)
		base, err := e.Openness(&hand)
		if err != nil {
			t.Fatalf("Openness() error = %v", err)
		}

		moved := hand.Translate(detector.Point3D{X: 0.2, Y: -0.3, Z: 0.1})
		got, err := e.Openness(&moved)
		if err != nil {
			t.Fatalf("Openness() error = %v", err)
		}

		if math.Abs(got-base) > epsilon {
			t.Errorf("translated openness = %f, want %f", got, base)
		}
	})

	t.Run("invariant under uniform scaling about the wrist", func(t *testing.T) {
		hand := handWithRatio(1.5)
		base, err := e.Openness(&hand)
		if err != nil {
			t.Fatalf("Openness() error = %v", err)
		}

		// Double every palm-relative offset; the ratio of two
		// distances is unchanged.
		scaled := hand
		wrist := hand.Points[detector.Wrist]
		for i := range scaled.Points {
			scaled.Points[i] = detector.Point3D{
				X: wrist.X + 2*(hand.Points[i].X-wrist.X),
				Y: wrist.Y + 2*(hand.Points[i].Y-wrist.Y),
				Z: wrist.Z + 2*(hand.Points[i].Z-wrist.Z),
			}
		}

		got, err := e.Openness(&scaled)
		if err != nil {
			t.Fatalf("Openness() error = %v", err)
		}

		if math.Abs(got-base) > epsilon {
			t.Errorf("scaled openness = %f, want %f", got, base)
		}
	})
}

func TestExtractor_Openness_Degenerate(t *testing.T) {
	e := mustExtractor(t)

	t.Run("zero palm size", func(t *testing.T) {
		// All landmarks collapsed onto one point.
		var hand detector.HandLandmarks
		for i := range hand.Points {
			hand.Points[i] = detector.Point3D{X: 0.5, Y: 0.5, Z: 0}
		}

		_, err := e.Openness(&hand)
		if !errors.Is(err, ErrDegenerateHand) {
			t.Errorf("error = %v, want ErrDegenerateHand", err)
		}
	})

	t.Run("nil hand", func(t *testing.T) {
		_, err := e.Openness(nil)
		if !errors.Is(err, ErrNoHand) {
			t.Errorf("error = %v, want ErrNoHand", err)
		}
	})
}

func TestHandX(t *testing.T) {
	t.Run("passes through the palm x coordinate", func(t *testing.T) {
		hand := handWithRatio(1.5)
		hand.Points[detector.MiddleMCP].X = 0.73

		got, err := HandX(&hand)
		if err != nil {
			t.Fatalf("HandX() error = %v", err)
		}
		if math.Abs(got-0.73) > epsilon {
			t.Errorf("HandX() = %f, want 0.73", got)
		}
	})

	t.Run("nil hand", func(t *testing.T) {
		_, err := HandX(nil)
		if !errors.Is(err, ErrNoHand) {
			t.Errorf("error = %v, want ErrNoHand", err)
		}
	})
}

func TestExtractor_Extract(t *testing.T) {
	e := mustExtractor(t)

	t.Run("combines both signals", func(t *testing.T) {
		hand := handWithRatio(2.2)

		sig, err := e.Extract(&hand)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}

		if math.Abs(sig.Openness-1.0) > 1e-6 {
			t.Errorf("Openness = %f, want 1.0", sig.Openness)
		}
		if math.Abs(sig.HandX-hand.Points[detector.MiddleMCP].X) > epsilon {
			t.Errorf("HandX = %f, want %f", sig.HandX, hand.Points[detector.MiddleMCP].X)
		}
	})

	t.Run("preset fixtures hit the calibration bounds", func(t *testing.T) {
		fist := detector.ClosedFistLandmarks()
		sig, err := e.Extract(&fist)
		if err != nil {
			t.Fatalf("Extract(fist) error = %v", err)
		}
		if sig.Openness > 1e-6 {
			t.Errorf("fist openness = %f, want 0", sig.Openness)
		}

		open := detector.OpenPalmLandmarks()
		sig, err = e.Extract(&open)
		if err != nil {
			t.Fatalf("Extract(open) error = %v", err)
		}
		if math.Abs(sig.Openness-1.0) > 1e-6 {
			t.Errorf("open palm openness = %f, want 1", sig.Openness)
		}
	})
}
