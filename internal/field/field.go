// Package field implements the particle field simulation that drives
// the Handfield visualizer. A Field owns a fixed set of particle
// positions that converge toward a scaled target shape, with expansion
// and rotation targets fed in from gesture signals. Rendering is left
// to the browser client; the field only produces position snapshots and
// a rotation transform parameter.
package field

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"sync"
	"time"
)

// Default simulation parameters.
const (
	// DefaultParticles is the particle count used when the config
	// leaves it unset.
	DefaultParticles = 15000
	// DefaultExpansionAlpha is the fraction of the expansion gap
	// closed per step.
	DefaultExpansionAlpha = 0.1
	// DefaultRotationAlpha is the fraction of the rotation gap closed
	// per step.
	DefaultRotationAlpha = 0.1
	// DefaultPositionBeta is the fraction of each particle's distance
	// to its target closed per step.
	DefaultPositionBeta = 0.1
	// DefaultColor is the initial display color.
	DefaultColor = "#4fc3f7"
	// DefaultPattern is the initial target shape.
	DefaultPattern = PatternSphere
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Vec3 is a position in particle space.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Config holds construction parameters for a Field.
//
// The smoothing constants are fixed per-step fractions, not
// framerate-independent time constants: the simulation advances one
// tick per Step call and converges 10% of the remaining gap each tick
// at the defaults, matching the calibrated feel at display rate.
type Config struct {
	// Particles is the fixed particle count N. Zero means DefaultParticles.
	Particles int
	// ExpansionAlpha, RotationAlpha and PositionBeta override the
	// per-step smoothing constants. Zero means the default 0.1.
	ExpansionAlpha float64
	RotationAlpha  float64
	PositionBeta   float64
	// Seed seeds the pattern sampler. Zero means time-based.
	Seed int64
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Particles:      DefaultParticles,
		ExpansionAlpha: DefaultExpansionAlpha,
		RotationAlpha:  DefaultRotationAlpha,
		PositionBeta:   DefaultPositionBeta,
	}
}

// State is a read-only snapshot of the field's control values.
type State struct {
	Pattern         string  `json:"pattern"`
	Color           string  `json:"color"`
	Particles       int     `json:"particles"`
	Expansion       float64 `json:"expansion"`
	TargetExpansion float64 `json:"target_expansion"`
	Rotation        float64 `json:"rotation"`
	TargetRotation  float64 `json:"target_rotation"`
}

// Field owns and evolves N particle positions toward a morphing target
// shape. Setters write target values; Step advances the simulation one
// display frame. All methods are safe for concurrent use: the detection
// pipeline writes targets while the step loop and the frame broadcaster
// read and advance.
type Field struct {
	mu  sync.RWMutex
	rng *rand.Rand

	particles      int
	expansionAlpha float64
	rotationAlpha  float64
	positionBeta   float64

	pattern   string
	color     string
	targets   []Vec3
	positions []Vec3

	expansion       float64
	targetExpansion float64
	rotation        float64
	targetRotation  float64
}

// New creates a Field with the given configuration. Particles start on
// the default pattern at expansion 1 and rotation 0.
func New(cfg Config) (*Field, error) {
	if cfg.Particles < 0 {
		return nil, fmt.Errorf("particle count must be positive, got %d", cfg.Particles)
	}
	if cfg.Particles == 0 {
		cfg.Particles = DefaultParticles
	}

	if cfg.ExpansionAlpha == 0 {
		cfg.ExpansionAlpha = DefaultExpansionAlpha
	}
	if cfg.RotationAlpha == 0 {
		cfg.RotationAlpha = DefaultRotationAlpha
	}
	if cfg.PositionBeta == 0 {
		cfg.PositionBeta = DefaultPositionBeta
	}
	for _, alpha := range []float64{cfg.ExpansionAlpha, cfg.RotationAlpha, cfg.PositionBeta} {
		if alpha < 0 || alpha > 1 {
			return nil, fmt.Errorf("smoothing constants must be in (0,1], got %f", alpha)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	f := &Field{
		rng:             rand.New(rand.NewSource(seed)),
		particles:       cfg.Particles,
		expansionAlpha:  cfg.ExpansionAlpha,
		rotationAlpha:   cfg.RotationAlpha,
		positionBeta:    cfg.PositionBeta,
		pattern:         DefaultPattern,
		color:           DefaultColor,
		expansion:       1,
		targetExpansion: 1,
	}

	targets, err := generateTargets(f.pattern, f.rng, f.particles)
	if err != nil {
		return nil, err
	}
	f.targets = targets

	f.positions = make([]Vec3, f.particles)
	copy(f.positions, f.targets)

	return f, nil
}

// SetPattern replaces the active pattern and regenerates all target
// positions. The swap is atomic: the next Step sees either the old
// complete target set or the new one, never a mix. An unknown name
// returns ErrUnknownPattern and leaves the field unchanged.
func (f *Field) SetPattern(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	targets, err := generateTargets(name, f.rng, f.particles)
	if err != nil {
		return err
	}

	f.pattern = name
	f.targets = targets
	return nil
}

// SetColor updates the display color. The value must be a "#rrggbb"
// hex string. Color has no effect on particle positions.
func (f *Field) SetColor(color string) error {
	if !hexColorRe.MatchString(color) {
		return fmt.Errorf("invalid color %q: want #rrggbb", color)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.color = color
	return nil
}

// SetExpansion sets the target expansion factor. The current expansion
// converges toward it over subsequent steps; there is no instantaneous
// jump. Negative factors are rejected. The field does not otherwise
// clamp the value; mapping gesture openness into a sensible range is
// the caller's concern.
func (f *Field) SetExpansion(factor float64) error {
	if factor < 0 {
		return fmt.Errorf("expansion factor must be non-negative, got %f", factor)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.targetExpansion = factor
	return nil
}

// SetRotation sets the target rotation angle in radians about the
// vertical axis. The angle accumulates freely and is not wrapped.
func (f *Field) SetRotation(angle float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targetRotation = angle
}

// Step advances the simulation by one display frame. It is independent
// of detection cadence: with no new gesture input the field keeps
// converging toward the last-set targets.
//
// Expansion and rotation close a fixed fraction of their gap, then each
// particle moves a fixed fraction toward its scaled pattern target.
// This is a first-order low-pass filter per axis, not a physical
// velocity model. Rotation is not baked into positions; it is exposed
// to the renderer as a whole-set transform parameter.
func (f *Field) Step() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.expansion += (f.targetExpansion - f.expansion) * f.expansionAlpha
	f.rotation += (f.targetRotation - f.rotation) * f.rotationAlpha

	beta := f.positionBeta
	for i := range f.positions {
		tx := f.targets[i].X * f.expansion
		ty := f.targets[i].Y * f.expansion
		tz := f.targets[i].Z * f.expansion

		f.positions[i].X += (tx - f.positions[i].X) * beta
		f.positions[i].Y += (ty - f.positions[i].Y) * beta
		f.positions[i].Z += (tz - f.positions[i].Z) * beta
	}
}

// Snapshot appends the current positions to dst as interleaved xyz
// float32 triplets and returns the filled slice together with the
// smoothed rotation angle. Passing a previous return value as dst
// reuses its backing array, so a broadcaster can snapshot every frame
// without reallocating.
func (f *Field) Snapshot(dst []float32) ([]float32, float64) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	need := f.particles * 3
	if cap(dst) < need {
		dst = make([]float32, need)
	}
	dst = dst[:need]

	for i, p := range f.positions {
		dst[i*3] = float32(p.X)
		dst[i*3+1] = float32(p.Y)
		dst[i*3+2] = float32(p.Z)
	}

	return dst, f.rotation
}

// State returns the current control values.
func (f *Field) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return State{
		Pattern:         f.pattern,
		Color:           f.color,
		Particles:       f.particles,
		Expansion:       f.expansion,
		TargetExpansion: f.targetExpansion,
		Rotation:        f.rotation,
		TargetRotation:  f.targetRotation,
	}
}

// Pattern returns the active pattern name.
func (f *Field) Pattern() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pattern
}

// Color returns the current display color as a "#rrggbb" string.
func (f *Field) Color() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.color
}

// Particles returns the fixed particle count N.
func (f *Field) Particles() int {
	return f.particles
}

// Expansion returns the current smoothed and target expansion factors.
func (f *Field) Expansion() (current, target float64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.expansion, f.targetExpansion
}

// Rotation returns the current smoothed and target rotation angles.
func (f *Field) Rotation() (current, target float64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rotation, f.targetRotation
}

// ParseHexColor converts a "#rrggbb" string to its RGB components.
func ParseHexColor(color string) (r, g, b uint8, err error) {
	if !hexColorRe.MatchString(color) {
		return 0, 0, 0, fmt.Errorf("invalid color %q: want #rrggbb", color)
	}

	var rv, gv, bv uint8
	if _, err := fmt.Sscanf(color[1:], "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return 0, 0, 0, fmt.Errorf("parse color %q: %w", color, err)
	}
	return rv, gv, bv, nil
}

// maxRadius reports the largest distance from the origin among the
// current pattern targets, used by tests and sanity checks.
func (f *Field) maxRadius() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var m float64
	for _, t := range f.targets {
		r := math.Sqrt(t.X*t.X + t.Y*t.Y + t.Z*t.Z)
		if r > m {
			m = r
		}
	}
	return m
}
