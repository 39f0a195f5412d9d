package app

import (
	"log"
	"time"

	"github.com/ayusman/handfield/internal/gesture"
)

// runDetection is the detection loop that turns camera frames into field
// targets. It manages the state transitions between idle and active
// detection rates based on motion.
//
// Loop logic:
// 1. Start in idle mode (IdleFPS=5)
// 2. On motion detected, switch to active mode (ActiveFPS=15)
// 3. Run hand detection on the frame
// 4. Extract openness and horizontal position from the first hand
// 5. Map the signals onto field expansion and rotation targets
// 6. After 2s without motion, switch back to idle mode
//
// Frames with no detected hand are a normal idle state, not an error:
// the field keeps easing toward its last targets.
func (a *App) runDetection(stopCh chan struct{}) {
	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			d := a.Detector()
			if !activeMode || d == nil {
				frame.Close()
				continue
			}

			hands, err := d.Detect(frame)
			frame.Close()

			if err != nil {
				log.Printf("Error detecting hands: %v", err)
				continue
			}

			if len(hands) == 0 {
				continue
			}

			// Only the first hand drives the field.
			signals, err := a.extractor.Extract(&hands[0])
			if err != nil {
				log.Printf("Error extracting gesture signals: %v", err)
				continue
			}

			a.applySignals(signals)
		}
	}
}

// runField advances the particle simulation at display rate, independent
// of how often detection produces new targets.
func (a *App) runField(stopCh chan struct{}) {
	ticker := time.NewTicker(time.Second / StepFPS)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			a.field.Step()
		}
	}
}

// applySignals maps gesture signals onto field targets: openness drives
// the expansion range linearly, and the palm's horizontal position maps
// onto a rotation span centered on the middle of the frame.
func (a *App) applySignals(signals gesture.Signals) {
	a.mu.RLock()
	expMin, expMax := a.expansionMin, a.expansionMax
	span := a.rotationSpan
	a.mu.RUnlock()

	expansion := expMin + signals.Openness*(expMax-expMin)
	if err := a.field.SetExpansion(expansion); err != nil {
		log.Printf("Error setting expansion: %v", err)
	}

	a.field.SetRotation((signals.HandX - 0.5) * span)
}
