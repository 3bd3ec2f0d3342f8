// Package sampling draws the random values used to perturb per-copy
// transforms.
//
// All draws go through a [Source], normally a seeded PCG generator from
// math/rand/v2, so a fixed seed reproduces a plan exactly.
package sampling

import (
	"math/rand/v2"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/errors"
)

// DefaultMaxAttempts caps the rejection loop in [UnitBall]. Each attempt is
// accepted with probability pi/6, so the cap is never reached by a working
// source.
const DefaultMaxAttempts = 10000

// Source yields uniformly distributed values in [0, 1).
type Source interface {
	Float64() float64
}

// NewSource returns a PCG generator seeded from seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Uniform returns a value drawn uniformly from [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// UnitBall returns a point drawn uniformly from the unit ball by rejection:
// each coordinate is drawn from [-1, 1) and the triple is redrawn while it
// lies outside the ball. The point is not normalized; callers that need a
// direction rely on the rotation constructor to normalize it.
//
// After maxAttempts rejections UnitBall fails with [errors.ErrCodeSampling].
// A non-positive maxAttempts uses [DefaultMaxAttempts].
func UnitBall(src Source, maxAttempts int) (affine.Vec3, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for range maxAttempts {
		v := affine.Vec3{
			X: Uniform(src, -1, 1),
			Y: Uniform(src, -1, 1),
			Z: Uniform(src, -1, 1),
		}
		if v.LenSq() <= 1 {
			return v, nil
		}
	}
	return affine.Vec3{}, errors.New(errors.ErrCodeSampling,
		"no point inside the unit ball after %d attempts", maxAttempts)
}
