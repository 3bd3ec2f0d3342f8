// Package config reads and writes pattern configuration files.
//
// A configuration file is TOML with one table per stage:
//
//	copies = 3
//	copy_mode = "copy-and-remove"
//
//	[scale]
//	enabled = true
//	mode = "compound"
//	value = 0.8
//
//	[translation]
//	enabled = true
//	mode = "compound-with-scale"
//	offset = [1, 0, 0]
//
// Keys that are left out keep the values of [Default]. Angles are in
// degrees. Unknown keys are rejected so typos do not pass silently.
package config

import (
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/planner"
)

// DefaultFileName is the file looked for when no path is given.
const DefaultFileName = "fractal.toml"

//go:embed sample.toml
var sample string

// Sample returns an annotated example configuration.
func Sample() string { return sample }

// File mirrors the TOML layout of a configuration file.
type File struct {
	Copies           int    `toml:"copies"`
	CopyMode         string `toml:"copy_mode"`
	ApplyRecursively bool   `toml:"apply_recursively"`
	CreateComponents bool   `toml:"create_components"`
	Seed             uint64 `toml:"seed,omitempty"`

	Scale            ScaleSection       `toml:"scale"`
	InternalRotation RotationSection    `toml:"internal_rotation"`
	Translation      TranslationSection `toml:"translation"`
	ExternalRotation RotationSection    `toml:"external_rotation"`
}

// ScaleSection is the [scale] table.
type ScaleSection struct {
	Enabled bool    `toml:"enabled"`
	Mode    string  `toml:"mode"`
	Uniform bool    `toml:"uniform"`
	Value   float64 `toml:"value"`
	X       float64 `toml:"x"`
	Y       float64 `toml:"y"`
	Z       float64 `toml:"z"`

	Randomization  float64 `toml:"randomization"`
	XRandomization float64 `toml:"x_randomization"`
	YRandomization float64 `toml:"y_randomization"`
	ZRandomization float64 `toml:"z_randomization"`
}

// RotationSection is the [internal_rotation] or [external_rotation] table.
// Matrix, when set, takes precedence over axis, origin and angle.
type RotationSection struct {
	Enabled       bool      `toml:"enabled"`
	Mode          string    `toml:"mode"`
	Axis          []float64 `toml:"axis"`
	Origin        []float64 `toml:"origin,omitempty"`
	Angle         float64   `toml:"angle"`
	Matrix        []float64 `toml:"matrix,omitempty"`
	Randomization float64   `toml:"randomization"`
}

// TranslationSection is the [translation] table. Matrix, when set, takes
// precedence over offset.
type TranslationSection struct {
	Enabled       bool      `toml:"enabled"`
	Mode          string    `toml:"mode"`
	Offset        []float64 `toml:"offset"`
	Matrix        []float64 `toml:"matrix,omitempty"`
	Randomization []float64 `toml:"randomization"`
}

// Default returns the configuration used for keys a file leaves out.
func Default() *File {
	return &File{
		Copies:           1,
		CopyMode:         string(planner.CopyAndRemove),
		ApplyRecursively: true,
		CreateComponents: true,
		Scale: ScaleSection{
			Mode:    string(planner.ModeCompound),
			Uniform: true,
			Value:   1,
			X:       1,
			Y:       1,
			Z:       1,
		},
		InternalRotation: RotationSection{Mode: string(planner.ModeConstant), Axis: []float64{0, 0, 1}},
		Translation: TranslationSection{
			Mode:          string(planner.ModeCompoundWithScale),
			Offset:        []float64{0, 0, 0},
			Randomization: []float64{0, 0, 0},
		},
		ExternalRotation: RotationSection{Mode: string(planner.ModeConstant), Axis: []float64{0, 0, 1}},
	}
}

// Load reads the configuration file at path.
func Load(path string) (*File, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, err
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a configuration from r on top of [Default].
func Decode(r io.Reader) (*File, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Encode writes f as TOML.
func Encode(w io.Writer, f *File) error {
	return toml.NewEncoder(w).Encode(f)
}

// Spec converts the file into a planner spec. It checks the shape of the
// file; range checks are left to [planner.Configure].
func (f *File) Spec() (planner.Spec, error) {
	copyOriginals, removeOriginals, err := planner.CopyMode(f.CopyMode).Flags()
	if err != nil {
		return planner.Spec{}, err
	}
	spec := planner.Spec{
		NumCopies:        f.Copies,
		ApplyRecursively: f.ApplyRecursively,
		CopyOriginals:    copyOriginals,
		RemoveOriginals:  removeOriginals,
		CreateComponents: f.CreateComponents,
		Seed:             f.Seed,
		Scale: planner.ScaleStage{
			Enabled: f.Scale.Enabled,
			Mode:    planner.Mode(f.Scale.Mode),
			Scale: planner.ScaleSpec{
				Uniform: f.Scale.Uniform,
				Value:   f.Scale.Value,
				X:       f.Scale.X,
				Y:       f.Scale.Y,
				Z:       f.Scale.Z,
			},
			Randomization: planner.ScaleRandomization{
				Uniform: f.Scale.Randomization,
				X:       f.Scale.XRandomization,
				Y:       f.Scale.YRandomization,
				Z:       f.Scale.ZRandomization,
			},
		},
	}

	if spec.InternalRotation, err = f.InternalRotation.stage("internal_rotation"); err != nil {
		return planner.Spec{}, err
	}
	if spec.ExternalRotation, err = f.ExternalRotation.stage("external_rotation"); err != nil {
		return planner.Spec{}, err
	}

	tr := planner.TranslationStage{Enabled: f.Translation.Enabled, Mode: planner.Mode(f.Translation.Mode)}
	if len(f.Translation.Matrix) > 0 {
		if tr.Base, err = matrix("translation.matrix", f.Translation.Matrix); err != nil {
			return planner.Spec{}, err
		}
	} else {
		off, err := vec3("translation.offset", f.Translation.Offset)
		if err != nil {
			return planner.Spec{}, err
		}
		tr.Base = affine.Translation(off.X, off.Y, off.Z)
	}
	if tr.Randomization, err = vec3("translation.randomization", f.Translation.Randomization); err != nil {
		return planner.Spec{}, err
	}
	spec.Translation = tr
	return spec, nil
}

func (r RotationSection) stage(table string) (planner.RotationStage, error) {
	st := planner.RotationStage{
		Enabled:       r.Enabled,
		Mode:          planner.Mode(r.Mode),
		Randomization: r.Randomization,
	}
	if len(r.Matrix) > 0 {
		m, err := matrix(table+".matrix", r.Matrix)
		st.Base = m
		return st, err
	}
	axis, err := vec3(table+".axis", r.Axis)
	if err != nil {
		return st, err
	}
	origin, err := vec3(table+".origin", r.Origin)
	if err != nil {
		return st, err
	}
	if r.Angle != 0 && axis == (affine.Vec3{}) {
		return st, errors.New(errors.ErrCodeInvalidConfig, "%s.axis must not be zero", table)
	}
	st.Base = affine.Rotation(r.Angle*math.Pi/180, axis, origin)
	return st, nil
}

// vec3 reads a three element array. An absent array is the zero vector.
func vec3(key string, v []float64) (affine.Vec3, error) {
	switch len(v) {
	case 0:
		return affine.Vec3{}, nil
	case 3:
		return affine.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
	}
	return affine.Vec3{}, errors.New(errors.ErrCodeInvalidConfig, "%s must have 3 elements, got %d", key, len(v))
}

func matrix(key string, v []float64) (affine.Transform, error) {
	if len(v) != 16 {
		return affine.Transform{}, errors.New(errors.ErrCodeInvalidConfig, "%s must have 16 elements, got %d", key, len(v))
	}
	return affine.FromArray([16]float64(v)), nil
}

// FromSpec converts a planner spec back into file form. Rotation and
// translation bases are written as matrices unless they are pure
// translations.
func FromSpec(s planner.Spec) *File {
	f := &File{
		Copies:           s.NumCopies,
		CopyMode:         string(copyMode(s.CopyOriginals, s.RemoveOriginals)),
		ApplyRecursively: s.ApplyRecursively,
		CreateComponents: s.CreateComponents,
		Seed:             s.Seed,
		Scale: ScaleSection{
			Enabled:        s.Scale.Enabled,
			Mode:           string(s.Scale.Mode),
			Uniform:        s.Scale.Scale.Uniform,
			Value:          s.Scale.Scale.Value,
			X:              s.Scale.Scale.X,
			Y:              s.Scale.Scale.Y,
			Z:              s.Scale.Scale.Z,
			Randomization:  s.Scale.Randomization.Uniform,
			XRandomization: s.Scale.Randomization.X,
			YRandomization: s.Scale.Randomization.Y,
			ZRandomization: s.Scale.Randomization.Z,
		},
		InternalRotation: rotationSection(s.InternalRotation),
		ExternalRotation: rotationSection(s.ExternalRotation),
	}

	r := s.Translation.Randomization
	f.Translation = TranslationSection{
		Enabled:       s.Translation.Enabled,
		Mode:          string(s.Translation.Mode),
		Randomization: []float64{r.X, r.Y, r.Z},
	}
	base := s.Translation.Base
	if base == (affine.Transform{}) {
		base = affine.Identity()
	}
	tp := base.TranslationPart()
	if affine.Compose(affine.Translation(-tp.X, -tp.Y, -tp.Z), base).IsIdentity() {
		f.Translation.Offset = []float64{tp.X, tp.Y, tp.Z}
	} else {
		a := base.Array()
		f.Translation.Matrix = a[:]
	}
	return f
}

func rotationSection(st planner.RotationStage) RotationSection {
	r := RotationSection{
		Enabled:       st.Enabled,
		Mode:          string(st.Mode),
		Axis:          []float64{0, 0, 1},
		Randomization: st.Randomization,
	}
	if st.Base != (affine.Transform{}) && !st.Base.IsIdentity() {
		a := st.Base.Array()
		r.Matrix = a[:]
	}
	return r
}

func copyMode(copyOriginals, removeOriginals bool) planner.CopyMode {
	switch {
	case copyOriginals && removeOriginals:
		return planner.CopyAndRemove
	case copyOriginals:
		return planner.CopyAndKeep
	case removeOriginals:
		return planner.Remove
	}
	return planner.Keep
}
