package config

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/planner"
)

func decodeSpec(t *testing.T, src string) planner.Spec {
	t.Helper()
	f, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	spec, err := f.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	return spec
}

func TestSample_Plans(t *testing.T) {
	spec := decodeSpec(t, Sample())
	s, err := planner.Configure(spec)
	if err != nil {
		t.Fatalf("sample config rejected: %v", err)
	}
	steps, err := s.Plan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 6*4 {
		t.Errorf("sample plan has %d steps, want 24", len(steps))
	}
}

func TestDecode_Defaults(t *testing.T) {
	spec := decodeSpec(t, "")
	want := planner.DefaultSpec()
	if spec.NumCopies != want.NumCopies || spec.ApplyRecursively != want.ApplyRecursively ||
		spec.CopyOriginals != want.CopyOriginals || spec.RemoveOriginals != want.RemoveOriginals ||
		spec.CreateComponents != want.CreateComponents {
		t.Errorf("top level defaults = %+v", spec)
	}
	if spec.Scale.Mode != planner.ModeCompound || spec.Translation.Mode != planner.ModeCompoundWithScale {
		t.Errorf("modes = %q, %q", spec.Scale.Mode, spec.Translation.Mode)
	}
	for _, base := range []affine.Transform{spec.InternalRotation.Base, spec.Translation.Base, spec.ExternalRotation.Base} {
		if base != affine.Identity() {
			t.Errorf("default base = %v, want identity", base)
		}
	}
}

func TestDecode_Stages(t *testing.T) {
	spec := decodeSpec(t, `
copies = 4
copy_mode = "keep"

[scale]
enabled = true
uniform = false
x = 2.0
y = 1.0
z = 0.5
y_randomization = 5

[internal_rotation]
enabled = true
axis = [0, 0, 2]
angle = 90

[translation]
enabled = true
mode = "compound"
offset = [1, 2, 3]
randomization = [10, 0, 0]
`)
	if spec.NumCopies != 4 || spec.CopyOriginals || spec.RemoveOriginals {
		t.Errorf("top level = %+v", spec)
	}
	if got := spec.Scale.Scale.Factors(); got != (affine.Vec3{X: 2, Y: 1, Z: 0.5}) {
		t.Errorf("scale factors = %+v", got)
	}
	if spec.Scale.Randomization.Y != 5 {
		t.Errorf("y randomization = %v", spec.Scale.Randomization.Y)
	}
	want := affine.Rotation(math.Pi/2, affine.Vec3{Z: 1}, affine.Vec3{})
	if !spec.InternalRotation.Base.Equal(want, 1e-12) {
		t.Errorf("rotation = %v, want %v", spec.InternalRotation.Base, want)
	}
	if spec.Translation.Base != affine.Translation(1, 2, 3) || spec.Translation.Randomization != (affine.Vec3{X: 10}) {
		t.Errorf("translation = %+v", spec.Translation)
	}
}

func TestDecode_Matrix(t *testing.T) {
	spec := decodeSpec(t, `
[external_rotation]
enabled = true
matrix = [0, -1, 0, 5, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]
`)
	if got := spec.ExternalRotation.Base.Cell(0, 3); got != 5 {
		t.Errorf("matrix cell (0,3) = %v, want 5", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "copies = = 3", "parse config"},
		{"unknown key", "copies = 2\nrotation = 5", "unknown config keys: rotation"},
		{"unknown nested key", "[scale]\nfactor = 2", "scale.factor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("err = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSpec_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"offset length", "[translation]\noffset = [1, 2]", "translation.offset must have 3 elements"},
		{"matrix length", "[internal_rotation]\nmatrix = [1, 0, 0]", "internal_rotation.matrix must have 16 elements"},
		{"zero axis", "[external_rotation]\naxis = [0, 0, 0]\nangle = 10", "external_rotation.axis must not be zero"},
		{"copy mode", `copy_mode = "duplicate"`, "unknown copy mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Decode(strings.NewReader(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			_, err = f.Spec()
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("err = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	if err := os.WriteFile(path, []byte("copies = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Copies != 9 {
		t.Errorf("copies = %d, want 9", f.Copies)
	}

	_, err = Load(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file err = %v, want FILE_NOT_FOUND", err)
	}
	if _, err := Load(""); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("empty path err = %v, want INVALID_PATH", err)
	}
}

func TestFromSpec_RoundTrip(t *testing.T) {
	orig := decodeSpec(t, Sample())
	orig.Translation.Randomization = affine.Vec3{Y: 12}

	var buf bytes.Buffer
	if err := Encode(&buf, FromSpec(orig)); err != nil {
		t.Fatal(err)
	}
	got := decodeSpec(t, buf.String())

	if got.NumCopies != orig.NumCopies || got.Seed != orig.Seed || got.CopyOriginals != orig.CopyOriginals {
		t.Errorf("top level differs: %+v vs %+v", got, orig)
	}
	pairs := []struct {
		name string
		a, b affine.Transform
	}{
		{"internal rotation", got.InternalRotation.Base, orig.InternalRotation.Base},
		{"translation", got.Translation.Base, orig.Translation.Base},
		{"external rotation", got.ExternalRotation.Base, orig.ExternalRotation.Base},
	}
	for _, p := range pairs {
		if !p.a.Equal(p.b, 1e-12) {
			t.Errorf("%s differs:\n got  %v\n want %v", p.name, p.a, p.b)
		}
	}
	if got.Translation.Randomization != orig.Translation.Randomization {
		t.Errorf("randomization = %+v", got.Translation.Randomization)
	}
}

func ExampleDecode() {
	f, err := Decode(strings.NewReader(`
copies = 3

[scale]
enabled = true
mode = "compound"
value = 2.0
`))
	if err != nil {
		fmt.Println(err)
		return
	}
	spec, _ := f.Spec()
	s, _ := planner.Configure(spec)
	steps, _ := s.Plan(context.Background())
	for _, st := range steps {
		fmt.Println(st.Copy, st.Stage, st.Transform.Diagonal().X)
	}
	// Output:
	// 1 scale 2
	// 2 scale 4
	// 3 scale 8
}
