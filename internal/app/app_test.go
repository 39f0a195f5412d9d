package app

import (
	"math"
	"testing"
	"time"

	"github.com/ayusman/handfield/internal/capture"
	"github.com/ayusman/handfield/internal/detector"
	"github.com/ayusman/handfield/internal/gesture"
	"gocv.io/x/gocv"
)

func testApp(t *testing.T) *App {
	t.Helper()

	a, err := New(Config{
		CameraID:     -1,
		MotionThresh: 0.05,
		Particles:    100,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if d := a.Detector(); d != nil {
			d.Close()
		}
		a.motion.Close()
	})

	return a
}

func TestNew_Defaults(t *testing.T) {
	a := testApp(t)

	if !a.IsEnabled() {
		t.Error("new app should start with tracking enabled")
	}

	min, max := a.ExpansionRange()
	if min != DefaultExpansionMin || max != DefaultExpansionMax {
		t.Errorf("ExpansionRange() = [%f, %f], want [%f, %f]",
			min, max, DefaultExpansionMin, DefaultExpansionMax)
	}

	if a.Field().Particles() != 100 {
		t.Errorf("Particles() = %d, want 100", a.Field().Particles())
	}
}

func TestNew_InvalidCalibration(t *testing.T) {
	_, err := New(Config{
		Calibration: gesture.Calibration{ClosedRatio: 2.0, OpenRatio: 1.0},
	})
	if err == nil {
		t.Error("expected error for inverted calibration")
	}
}

func TestApp_SetEnabled(t *testing.T) {
	a := testApp(t)

	a.SetEnabled(false)
	if a.IsEnabled() {
		t.Error("IsEnabled() = true after SetEnabled(false)")
	}

	a.SetEnabled(true)
	if !a.IsEnabled() {
		t.Error("IsEnabled() = false after SetEnabled(true)")
	}
}

func TestApp_SetExpansionRange(t *testing.T) {
	a := testApp(t)

	if err := a.SetExpansionRange(0.5, 2.0); err != nil {
		t.Fatalf("SetExpansionRange() error = %v", err)
	}

	min, max := a.ExpansionRange()
	if min != 0.5 || max != 2.0 {
		t.Errorf("ExpansionRange() = [%f, %f], want [0.5, 2.0]", min, max)
	}

	if err := a.SetExpansionRange(2.0, 1.0); err == nil {
		t.Error("expected error for inverted range")
	}
	if err := a.SetExpansionRange(-1.0, 2.0); err == nil {
		t.Error("expected error for negative minimum")
	}
}

func TestApp_ApplySignals(t *testing.T) {
	a := testApp(t)

	tests := []struct {
		name          string
		signals       gesture.Signals
		wantExpansion float64
		wantRotation  float64
	}{
		{
			name:          "closed fist at center",
			signals:       gesture.Signals{Openness: 0, HandX: 0.5},
			wantExpansion: DefaultExpansionMin,
			wantRotation:  0,
		},
		{
			name:          "open palm at center",
			signals:       gesture.Signals{Openness: 1, HandX: 0.5},
			wantExpansion: DefaultExpansionMax,
			wantRotation:  0,
		},
		{
			name:          "half open at left edge",
			signals:       gesture.Signals{Openness: 0.5, HandX: 0},
			wantExpansion: (DefaultExpansionMin + DefaultExpansionMax) / 2,
			wantRotation:  -math.Pi,
		},
		{
			name:          "half open at right edge",
			signals:       gesture.Signals{Openness: 0.5, HandX: 1},
			wantExpansion: (DefaultExpansionMin + DefaultExpansionMax) / 2,
			wantRotation:  math.Pi,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a.applySignals(tt.signals)

			_, targetExp := a.Field().Expansion()
			if math.Abs(targetExp-tt.wantExpansion) > 1e-9 {
				t.Errorf("target expansion = %f, want %f", targetExp, tt.wantExpansion)
			}

			_, targetRot := a.Field().Rotation()
			if math.Abs(targetRot-tt.wantRotation) > 1e-9 {
				t.Errorf("target rotation = %f, want %f", targetRot, tt.wantRotation)
			}
		})
	}
}

func TestApp_ApplySignals_CustomRange(t *testing.T) {
	a := testApp(t)

	if err := a.SetExpansionRange(1.0, 3.0); err != nil {
		t.Fatalf("SetExpansionRange() error = %v", err)
	}

	a.applySignals(gesture.Signals{Openness: 0.5, HandX: 0.5})

	_, targetExp := a.Field().Expansion()
	if math.Abs(targetExp-2.0) > 1e-9 {
		t.Errorf("target expansion = %f, want 2.0", targetExp)
	}
}

func TestApp_SetDetector(t *testing.T) {
	a := testApp(t)

	if old := a.Detector(); old != nil {
		old.Close()
	}

	mock := detector.NewMockDetector()
	a.SetDetector(mock)

	if a.Detector() != detector.Detector(mock) {
		t.Error("Detector() did not return the injected mock")
	}
}

func TestApp_DetectionDrivesField(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a := testApp(t)

	// Two identical dark frames, then bright frames: the second bright
	// frame trips motion detection and switches the pipeline to active
	// mode, after which the mock detector's open palm drives the field.
	dark := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer dark.Close()
	bright := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer bright.Close()
	bright.SetTo(gocv.NewScalar(255, 255, 255, 0))

	frames := []*gocv.Mat{&dark, &bright, &bright, &bright}
	a.camera = capture.NewMockCamera(frames, true)

	if old := a.Detector(); old != nil {
		old.Close()
	}
	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	a.SetDetector(mock)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_, targetExp := a.Field().Expansion()
		if math.Abs(targetExp-DefaultExpansionMax) < 1e-9 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}

	_, targetExp := a.Field().Expansion()
	t.Errorf("target expansion = %f, want %f after open palm detection",
		targetExp, DefaultExpansionMax)
}

func TestApp_FieldStepsWhileIdle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a := testApp(t)

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	a.camera = capture.NewMockCamera([]*gocv.Mat{&frame}, true)

	if err := a.Field().SetExpansion(2.0); err != nil {
		t.Fatalf("SetExpansion() error = %v", err)
	}

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	// Identical frames mean no motion and no detection, but the field
	// loop still eases expansion toward its target.
	time.Sleep(200 * time.Millisecond)

	current, _ := a.Field().Expansion()
	if current <= 1.0 {
		t.Errorf("expansion = %f, want > 1.0 after field steps", current)
	}
}

func TestApp_StartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	a := testApp(t)

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	a.camera = capture.NewMockCamera([]*gocv.Mat{&frame}, true)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !a.Camera().IsOpen() {
		t.Error("camera should be open after Start()")
	}

	// Second Start is a no-op.
	if err := a.Start(); err != nil {
		t.Errorf("second Start() error = %v", err)
	}

	a.Stop()

	if a.Camera().IsOpen() {
		t.Error("camera should be closed after Stop()")
	}
}
