// Package compound raises per-stage base transforms to the copy index.
//
// [Power] handles the general case by repeated composition and [Sequence]
// walks the same powers copy by copy. [TranslationScale]
// handles a translation whose step shrinks or grows with a parallel scale
// stage, using the closed-form geometric series instead of iterating.
package compound

import (
	"math"

	"github.com/goutamreddy/fractal/pkg/affine"
)

// Power returns base composed with itself n times. Power(base, 0) is the
// identity; a negative n is treated as 0.
//
// The product is built by sequential multiplication, matching the
// floating-point behavior of applying base once per preceding copy.
func Power(base affine.Transform, n int) affine.Transform {
	seq := NewSequence(base)
	for range max(n, 0) {
		seq.Next()
	}
	return seq.Current()
}

// Sequence yields base^1, base^2, ... one multiplication at a time. The
// k-th call to Next returns exactly Power(base, k).
type Sequence struct {
	base affine.Transform
	cur  affine.Transform
}

// NewSequence starts a sequence at base^0.
func NewSequence(base affine.Transform) *Sequence {
	return &Sequence{base: base, cur: affine.Identity()}
}

// Next advances to the next power and returns it.
func (s *Sequence) Next() affine.Transform {
	s.cur = affine.Compose(s.base, s.cur)
	return s.cur
}

// Current returns the power reached so far.
func (s *Sequence) Current() affine.Transform { return s.cur }

// TranslationScale returns a pure translation whose component on each axis a
// is the sum of n translation steps, step i scaled by r^i where r is the
// scale factor of that axis:
//
//	t_a * n                    if r == 1
//	t_a * (r^n - 1) / (r - 1)  otherwise
//
// t_a is translation.Cell(a, 3) and r is scale.Cell(a, a). Only the
// translation column of the result is set.
func TranslationScale(translation, scale affine.Transform, n int) affine.Transform {
	n = max(n, 0)
	out := affine.Identity()
	for a := 0; a < 3; a++ {
		out.SetCell(a, 3, seriesSum(translation.Cell(a, 3), scale.Cell(a, a), n))
	}
	return out
}

func seriesSum(step, ratio float64, n int) float64 {
	if ratio == 1 {
		return step * float64(n)
	}
	return step * (math.Pow(ratio, float64(n)) - 1) / (ratio - 1)
}
