package affine

import (
	"fmt"
	"math"
	"strings"
)

// Epsilon is the absolute per-cell tolerance used by [IsIdentity].
const Epsilon = 1e-9

// Vec3 is a point or direction in 3D space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LenSq returns the squared length of v.
func (v Vec3) LenSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Axis returns component i (0=X, 1=Y, 2=Z).
func (v Vec3) Axis(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic(fmt.Sprintf("affine: axis %d out of range", i))
}

// Transform is a 4x4 homogeneous transformation matrix in row-major order.
type Transform struct {
	M [4][4]float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{M: [4][4]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}}
}

// Scaling returns a non-uniform scale about the origin.
func Scaling(sx, sy, sz float64) Transform {
	t := Identity()
	t.M[0][0] = sx
	t.M[1][1] = sy
	t.M[2][2] = sz
	return t
}

// Translation returns a translation by (x, y, z).
func Translation(x, y, z float64) Transform {
	t := Identity()
	t.M[0][3] = x
	t.M[1][3] = y
	t.M[2][3] = z
	return t
}

// Rotation returns a rotation of angle radians about the line through origin
// with direction axis. The axis does not need to be normalized. A zero axis
// yields the identity.
//
// Positive angles rotate counter-clockwise when looking down the axis
// towards origin.
func Rotation(angle float64, axis, origin Vec3) Transform {
	l := axis.Len()
	if l == 0 {
		return Identity()
	}
	x, y, z := axis.X/l, axis.Y/l, axis.Z/l
	c, s := math.Cos(angle), math.Sin(angle)
	k := 1 - c

	r := Identity()
	r.M[0][0] = c + x*x*k
	r.M[0][1] = x*y*k - z*s
	r.M[0][2] = x*z*k + y*s
	r.M[1][0] = y*x*k + z*s
	r.M[1][1] = c + y*y*k
	r.M[1][2] = y*z*k - x*s
	r.M[2][0] = z*x*k - y*s
	r.M[2][1] = z*y*k + x*s
	r.M[2][2] = c + z*z*k

	if origin == (Vec3{}) {
		return r
	}
	// T(origin) · R · T(-origin)
	return Compose(Translation(origin.X, origin.Y, origin.Z),
		Compose(r, Translation(-origin.X, -origin.Y, -origin.Z)))
}

// FromArray builds a transform from 16 row-major values.
func FromArray(a [16]float64) Transform {
	var t Transform
	for i := range 16 {
		t.M[i/4][i%4] = a[i]
	}
	return t
}

// Array returns the 16 row-major values of t.
func (t Transform) Array() [16]float64 {
	var a [16]float64
	for i := range 16 {
		a[i] = t.M[i/4][i%4]
	}
	return a
}

// Compose returns a·b. The result applies b first, then a.
func Compose(a, b Transform) Transform {
	var out Transform
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += a.M[r][k] * b.M[k][c]
			}
			out.M[r][c] = sum
		}
	}
	return out
}

// Then returns the transform that applies t, then u.
func (t Transform) Then(u Transform) Transform {
	return Compose(u, t)
}

// Cell returns the value at (row, col). Both must be in [0, 3].
func (t Transform) Cell(row, col int) float64 {
	return t.M[row][col]
}

// WithCell returns a copy of t with (row, col) set to v.
func (t Transform) WithCell(row, col int, v float64) Transform {
	t.M[row][col] = v
	return t
}

// SetCell sets (row, col) to v in place.
func (t *Transform) SetCell(row, col int, v float64) {
	t.M[row][col] = v
}

// TranslationPart returns column 3, rows 0-2.
func (t Transform) TranslationPart() Vec3 {
	return Vec3{t.M[0][3], t.M[1][3], t.M[2][3]}
}

// Diagonal returns the first three diagonal cells, which are the per-axis
// scale factors of a pure scale transform.
func (t Transform) Diagonal() Vec3 {
	return Vec3{t.M[0][0], t.M[1][1], t.M[2][2]}
}

// Apply transforms the point p.
func (t Transform) Apply(p Vec3) Vec3 {
	return Vec3{
		X: t.M[0][0]*p.X + t.M[0][1]*p.Y + t.M[0][2]*p.Z + t.M[0][3],
		Y: t.M[1][0]*p.X + t.M[1][1]*p.Y + t.M[1][2]*p.Z + t.M[1][3],
		Z: t.M[2][0]*p.X + t.M[2][1]*p.Y + t.M[2][2]*p.Z + t.M[2][3],
	}
}

// Equal reports whether every cell of t and u differs by at most eps.
func (t Transform) Equal(u Transform, eps float64) bool {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if math.Abs(t.M[r][c]-u.M[r][c]) > eps {
				return false
			}
		}
	}
	return true
}

// IsIdentity reports whether t is within [Epsilon] of the identity.
func IsIdentity(t Transform) bool {
	return t.Equal(Identity(), Epsilon)
}

// IsIdentity reports whether t is within [Epsilon] of the identity.
func (t Transform) IsIdentity() bool {
	return IsIdentity(t)
}

// String formats t as four bracketed rows.
func (t Transform) String() string {
	var b strings.Builder
	for r := 0; r < 4; r++ {
		if r > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "[%g %g %g %g]", t.M[r][0], t.M[r][1], t.M[r][2], t.M[r][3])
	}
	return b.String()
}
