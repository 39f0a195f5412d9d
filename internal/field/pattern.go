package field

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
)

// Built-in pattern names.
const (
	PatternSphere = "sphere"
	PatternCube   = "cube"
	PatternHeart  = "heart"
)

// Shape geometry constants.
const (
	// sphereRadius is the radius of the sphere pattern.
	sphereRadius = 10.0
	// cubeHalfSide is half the side length of the cube pattern.
	cubeHalfSide = 6.0
	// heartScale scales the parametric heart curve.
	heartScale = 0.5
	// heartDepth is the half-range of the random depth jitter applied
	// to the flat heart curve.
	heartDepth = 2.5
)

// ErrUnknownPattern is returned when a pattern name has no registered
// generator.
var ErrUnknownPattern = errors.New("unknown pattern")

// Generator produces n target positions, one per particle index.
// Generators sample stochastically: every invocation yields a fresh set.
type Generator func(rng *rand.Rand, n int) []Vec3

var (
	genMu      sync.RWMutex
	generators = map[string]Generator{
		PatternSphere: generateSphere,
		PatternCube:   generateCube,
		PatternHeart:  generateHeart,
	}
)

// RegisterPattern adds a custom target-shape generator under the given
// name. Registering an existing name is an error; built-in patterns
// cannot be replaced.
func RegisterPattern(name string, g Generator) error {
	if name == "" || g == nil {
		return fmt.Errorf("pattern registration requires a name and a generator")
	}

	genMu.Lock()
	defer genMu.Unlock()

	if _, exists := generators[name]; exists {
		return fmt.Errorf("pattern %q already registered", name)
	}
	generators[name] = g
	return nil
}

// Patterns returns the registered pattern names in sorted order.
func Patterns() []string {
	genMu.RLock()
	defer genMu.RUnlock()

	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// generateTargets runs the named generator, producing exactly n points.
func generateTargets(name string, rng *rand.Rand, n int) ([]Vec3, error) {
	genMu.RLock()
	g, ok := generators[name]
	genMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
	}

	targets := g(rng, n)
	if len(targets) != n {
		return nil, fmt.Errorf("pattern %q generated %d targets, want %d", name, len(targets), n)
	}
	return targets, nil
}

// generateSphere samples n points uniformly on a sphere of radius 10
// using the inverse-CDF method: theta uniform on [0,2pi), phi =
// acos(U(-1,1)). Sampling phi uniformly instead would cluster points at
// the poles.
func generateSphere(rng *rand.Rand, n int) []Vec3 {
	out := make([]Vec3, n)
	for i := range out {
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(rng.Float64()*2 - 1)

		sinPhi := math.Sin(phi)
		out[i] = Vec3{
			X: sphereRadius * sinPhi * math.Cos(theta),
			Y: sphereRadius * sinPhi * math.Sin(theta),
			Z: sphereRadius * math.Cos(phi),
		}
	}
	return out
}

// generateCube samples n points uniformly inside an axis-aligned cube
// of side 12 centered at the origin.
func generateCube(rng *rand.Rand, n int) []Vec3 {
	out := make([]Vec3, n)
	for i := range out {
		out[i] = Vec3{
			X: rng.Float64()*2*cubeHalfSide - cubeHalfSide,
			Y: rng.Float64()*2*cubeHalfSide - cubeHalfSide,
			Z: rng.Float64()*2*cubeHalfSide - cubeHalfSide,
		}
	}
	return out
}

// generateHeart samples the classic parametric heart curve with random
// depth jitter. Each particle draws an independent t, so the point
// density follows the parameterization rather than arc length; the
// visual clustering near the lobes is intentional.
func generateHeart(rng *rand.Rand, n int) []Vec3 {
	out := make([]Vec3, n)
	for i := range out {
		t := rng.Float64() * 2 * math.Pi

		sinT := math.Sin(t)
		out[i] = Vec3{
			X: heartScale * 16 * sinT * sinT * sinT,
			Y: heartScale * (13*math.Cos(t) - 5*math.Cos(2*t) - 2*math.Cos(3*t) - math.Cos(4*t)),
			Z: rng.Float64()*2*heartDepth - heartDepth,
		}
	}
	return out
}
