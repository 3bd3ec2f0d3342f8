package io

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/geometry"
	"github.com/goutamreddy/fractal/pkg/planner"
)

func samplePlan(t *testing.T) []planner.Step {
	t.Helper()
	spec := planner.DefaultSpec()
	spec.NumCopies = 3
	spec.Scale = planner.ScaleStage{Enabled: true, Mode: planner.ModeCompound, Scale: planner.ScaleSpec{Uniform: true, Value: 0.75}}
	spec.InternalRotation = planner.RotationStage{Enabled: true, Mode: planner.ModeCompound, Base: affine.Rotation(0.4, affine.Vec3{X: 1, Y: 1}, affine.Vec3{})}
	spec.Translation = planner.TranslationStage{Enabled: true, Mode: planner.ModeCompoundWithScale, Base: affine.Translation(1, 0, 0.5)}
	s, err := planner.Configure(spec)
	if err != nil {
		t.Fatal(err)
	}
	steps, err := s.Plan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return steps
}

func TestPlanJSON_RoundTrip(t *testing.T) {
	steps := samplePlan(t)
	var buf bytes.Buffer
	if err := WritePlanJSON(&buf, steps); err != nil {
		t.Fatal(err)
	}
	got, err := ReadPlanJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(steps, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWritePlanJSON_Shape(t *testing.T) {
	var buf bytes.Buffer
	steps := []planner.Step{{Stage: planner.StageScale, Copy: 1, Transform: affine.Scaling(2, 2, 2)}}
	if err := WritePlanJSON(&buf, steps); err != nil {
		t.Fatal(err)
	}
	var raw struct {
		Steps []map[string]any `json:"steps"`
	}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw.Steps) != 1 {
		t.Fatalf("got %d steps", len(raw.Steps))
	}
	for _, key := range []string{"stage", "copy", "cumulative", "matrix"} {
		if _, ok := raw.Steps[0][key]; !ok {
			t.Errorf("step is missing %q: %v", key, raw.Steps[0])
		}
	}
	if m := raw.Steps[0]["matrix"].([]any); len(m) != 16 {
		t.Errorf("matrix has %d values", len(m))
	}
}

func TestWritePlanJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePlanJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{
  "steps": []
}` {
		t.Errorf("empty plan = %s", got)
	}
}

func TestReadPlanJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"malformed", `{"steps": [`},
		{"short matrix", `{"steps":[{"stage":"scale","copy":1,"matrix":[1,0,0]}]}`},
		{"unknown stage", `{"steps":[{"stage":"shear","copy":1,"matrix":[1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1]}]}`},
		{"out of order", `{"steps":[
			{"stage":"scale","copy":2,"matrix":[1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1]},
			{"stage":"scale","copy":1,"matrix":[1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPlanJSON(strings.NewReader(tt.src))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("err = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestExportImportPlanJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	steps := samplePlan(t)
	if err := ExportPlanJSON(steps, path); err != nil {
		t.Fatal(err)
	}
	got, err := ImportPlanJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(steps) {
		t.Errorf("imported %d steps, want %d", len(got), len(steps))
	}
	if _, err := ImportPlanJSON(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteDocumentJSON(t *testing.T) {
	doc := geometry.New()
	b := doc.Add("Body1", []affine.Vec3{{X: 1, Y: 2, Z: 3}})
	if err := doc.CreateComponentFor(b); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteDocumentJSON(&buf, doc); err != nil {
		t.Fatal(err)
	}
	var got struct {
		Bodies []struct {
			Name      string        `json:"name"`
			Component string        `json:"component"`
			Vertices  []affine.Vec3 `json:"vertices"`
		} `json:"bodies"`
		Components []geometry.Component `json:"components"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Bodies) != 1 || got.Bodies[0].Name != "Body1" || got.Bodies[0].Component != "Body1" {
		t.Errorf("bodies = %+v", got.Bodies)
	}
	if got.Bodies[0].Vertices[0] != (affine.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("vertex = %+v", got.Bodies[0].Vertices[0])
	}
	if len(got.Components) != 1 || got.Components[0].Body != b.ID {
		t.Errorf("components = %+v", got.Components)
	}
}
