package planner

import (
	"fmt"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/errors"
)

// DefaultSeed is used when a Spec leaves Seed at zero.
const DefaultSeed uint64 = 42

// Stage names one of the four per-copy transform stages.
type Stage string

const (
	StageScale            Stage = "scale"
	StageInternalRotation Stage = "internal-rotation"
	StageTranslation      Stage = "translation"
	StageExternalRotation Stage = "external-rotation"
)

// Stages lists every stage in application order.
var Stages = []Stage{StageScale, StageInternalRotation, StageTranslation, StageExternalRotation}

// ParseStage converts a stage name into a Stage.
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages {
		if string(s) == name {
			return s, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown stage %q (want scale, internal-rotation, translation or external-rotation)", name)
}

// Mode selects how a stage's base transform grows with the copy index.
type Mode string

const (
	// ModeConstant applies the base unchanged to every copy. The empty Mode
	// means constant.
	ModeConstant Mode = "constant"
	// ModeCompound applies the base k times to copy k.
	ModeCompound Mode = "compound"
	// ModeCompoundWithScale sums k translation steps, each scaled by the
	// scale stage factor. Only valid for the translation stage.
	ModeCompoundWithScale Mode = "compound-with-scale"
)

func (m Mode) valid(allowWithScale bool) bool {
	switch m {
	case "", ModeConstant, ModeCompound:
		return true
	case ModeCompoundWithScale:
		return allowWithScale
	}
	return false
}

// CopyMode is the shorthand for how the original bodies are treated.
type CopyMode string

const (
	// CopyAndRemove keeps a copy of the originals as copy 0 and removes them.
	CopyAndRemove CopyMode = "copy-and-remove"
	// CopyAndKeep keeps a copy of the originals as copy 0 and the originals.
	CopyAndKeep CopyMode = "copy-and-keep"
	// Keep leaves the originals alone and does not copy them.
	Keep CopyMode = "keep"
	// Remove removes the originals without copying them.
	Remove CopyMode = "remove"
)

// Flags returns the CopyOriginals and RemoveOriginals settings for m.
// The empty CopyMode is CopyAndRemove.
func (m CopyMode) Flags() (copyOriginals, removeOriginals bool, err error) {
	switch m {
	case "", CopyAndRemove:
		return true, true, nil
	case CopyAndKeep:
		return true, false, nil
	case Keep:
		return false, false, nil
	case Remove:
		return false, true, nil
	}
	return false, false, errors.New(errors.ErrCodeInvalidConfig, "unknown copy mode %q", string(m))
}

// ScaleSpec holds scale factors. Uniform uses Value on all axes; otherwise
// X, Y and Z are used.
type ScaleSpec struct {
	Uniform bool    `json:"uniform"`
	Value   float64 `json:"value,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Z       float64 `json:"z,omitempty"`
}

// Factors returns the per-axis scale factors in use.
func (s ScaleSpec) Factors() affine.Vec3 {
	if s.Uniform {
		return affine.Vec3{X: s.Value, Y: s.Value, Z: s.Value}
	}
	return affine.Vec3{X: s.X, Y: s.Y, Z: s.Z}
}

// Transform returns the scaling transform. A zero factor is reported as
// ErrCodeInvalidScale.
func (s ScaleSpec) Transform() (affine.Transform, error) {
	f := s.Factors()
	if f.X == 0 || f.Y == 0 || f.Z == 0 {
		return affine.Identity(), errors.New(errors.ErrCodeInvalidScale,
			"cannot scale by (%v, %v, %v)", f.X, f.Y, f.Z)
	}
	return affine.Scaling(f.X, f.Y, f.Z), nil
}

// ScaleRandomization holds scale jitter percentages. Uniform applies to a
// uniform ScaleSpec, X, Y and Z to a non-uniform one.
type ScaleRandomization struct {
	Uniform float64 `json:"uniform,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Z       float64 `json:"z,omitempty"`
}

// ScaleStage configures the scale stage.
type ScaleStage struct {
	Enabled       bool               `json:"enabled"`
	Mode          Mode               `json:"mode,omitempty"`
	Scale         ScaleSpec          `json:"scale"`
	Randomization ScaleRandomization `json:"randomization"`
}

// RotationStage configures the internal or external rotation stage.
// Randomization is the maximum random extra rotation in degrees.
type RotationStage struct {
	Enabled       bool             `json:"enabled"`
	Mode          Mode             `json:"mode,omitempty"`
	Base          affine.Transform `json:"base"`
	Randomization float64          `json:"randomization,omitempty"`
}

// TranslationStage configures the translation stage. Randomization holds
// per-axis percentages of the base step.
type TranslationStage struct {
	Enabled       bool             `json:"enabled"`
	Mode          Mode             `json:"mode,omitempty"`
	Base          affine.Transform `json:"base"`
	Randomization affine.Vec3      `json:"randomization"`
}

// Spec is the full description of a pattern.
//
// A zero-valued Base is read as the identity, so stages can be left out of
// JSON input.
type Spec struct {
	NumCopies        int    `json:"copies"`
	ApplyRecursively bool   `json:"apply_recursively"`
	CopyOriginals    bool   `json:"copy_originals"`
	RemoveOriginals  bool   `json:"remove_originals"`
	CreateComponents bool   `json:"create_components"`
	Seed             uint64 `json:"seed,omitempty"`

	Scale            ScaleStage       `json:"scale"`
	InternalRotation RotationStage    `json:"internal_rotation"`
	Translation      TranslationStage `json:"translation"`
	ExternalRotation RotationStage    `json:"external_rotation"`
}

// DefaultSpec returns the settings of a freshly opened pattern dialog:
// one copy, compound uniform scale of 1, constant identity rotations, a zero
// translation compounded with scale, copies kept as components, originals
// copied and removed, transforms applied recursively.
func DefaultSpec() Spec {
	return Spec{
		NumCopies:        1,
		ApplyRecursively: true,
		CopyOriginals:    true,
		RemoveOriginals:  true,
		CreateComponents: true,
		Scale: ScaleStage{
			Mode:  ModeCompound,
			Scale: ScaleSpec{Uniform: true, Value: 1, X: 1, Y: 1, Z: 1},
		},
		InternalRotation: RotationStage{Mode: ModeConstant, Base: affine.Identity()},
		Translation:      TranslationStage{Mode: ModeCompoundWithScale, Base: affine.Identity()},
		ExternalRotation: RotationStage{Mode: ModeConstant, Base: affine.Identity()},
	}
}

// Validate reports the first configuration error in s. Zero scale factors
// are not configuration errors; they disable the scale stage with a warning.
func (s Spec) Validate() error {
	if err := errors.ValidateNumCopies(s.NumCopies); err != nil {
		return err
	}

	if !s.Scale.Mode.valid(false) {
		return modeError(StageScale, s.Scale.Mode)
	}
	sc := s.Scale.Scale
	if err := errors.ValidateFinite("scale", sc.Value, sc.X, sc.Y, sc.Z); err != nil {
		return err
	}
	r := s.Scale.Randomization
	for _, p := range []struct {
		field string
		v     float64
	}{
		{"scale randomization", r.Uniform},
		{"scale x randomization", r.X},
		{"scale y randomization", r.Y},
		{"scale z randomization", r.Z},
	} {
		if err := errors.ValidatePercent(p.field, p.v); err != nil {
			return err
		}
	}

	for _, rs := range []struct {
		stage Stage
		cfg   RotationStage
	}{
		{StageInternalRotation, s.InternalRotation},
		{StageExternalRotation, s.ExternalRotation},
	} {
		if !rs.cfg.Mode.valid(false) {
			return modeError(rs.stage, rs.cfg.Mode)
		}
		if err := validateBase(rs.stage, rs.cfg.Base); err != nil {
			return err
		}
		if err := errors.ValidateDegrees(string(rs.stage)+" randomization", rs.cfg.Randomization); err != nil {
			return err
		}
	}

	if !s.Translation.Mode.valid(true) {
		return modeError(StageTranslation, s.Translation.Mode)
	}
	if err := validateBase(StageTranslation, s.Translation.Base); err != nil {
		return err
	}
	for i, axis := range []string{"x", "y", "z"} {
		field := fmt.Sprintf("translation %s randomization", axis)
		if err := errors.ValidatePercent(field, s.Translation.Randomization.Axis(i)); err != nil {
			return err
		}
	}
	return nil
}

func modeError(stage Stage, m Mode) error {
	if m == ModeCompoundWithScale {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: mode %q is only valid for translation", stage, string(m))
	}
	return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown mode %q", stage, string(m))
}

func validateBase(stage Stage, t affine.Transform) error {
	a := t.Array()
	if err := errors.ValidateFinite(string(stage)+" base", a[:]...); err != nil {
		return err
	}
	if t == (affine.Transform{}) {
		return nil
	}
	if t.Cell(3, 0) != 0 || t.Cell(3, 1) != 0 || t.Cell(3, 2) != 0 || t.Cell(3, 3) != 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s base: last row must be (0, 0, 0, 1), got %v", stage, t.M[3])
	}
	return nil
}

// normalized returns s with zero bases replaced by the identity and empty
// modes made explicit.
func (s Spec) normalized() Spec {
	for _, b := range []*affine.Transform{&s.InternalRotation.Base, &s.Translation.Base, &s.ExternalRotation.Base} {
		if *b == (affine.Transform{}) {
			*b = affine.Identity()
		}
	}
	for _, m := range []*Mode{&s.Scale.Mode, &s.InternalRotation.Mode, &s.Translation.Mode, &s.ExternalRotation.Mode} {
		if *m == "" {
			*m = ModeConstant
		}
	}
	if s.Seed == 0 {
		s.Seed = DefaultSeed
	}
	return s
}
