package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/geometry"
	"github.com/goutamreddy/fractal/pkg/planner"
)

type plan struct {
	Steps []planner.Step `json:"steps"`
}

type document struct {
	Bodies     []*geometry.Body     `json:"bodies"`
	Components []geometry.Component `json:"components"`
}

// WritePlanJSON encodes steps as JSON and writes it to w.
func WritePlanJSON(w io.Writer, steps []planner.Step) error {
	out := plan{Steps: steps}
	if out.Steps == nil {
		out.Steps = []planner.Step{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadPlanJSON decodes a plan written by [WritePlanJSON].
//
// Every step must name a known stage, have a non-negative copy index and
// carry exactly 16 matrix values. Steps must be ordered by copy.
func ReadPlanJSON(r io.Reader) ([]planner.Step, error) {
	var data plan
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode plan")
	}
	last := 0
	for i, s := range data.Steps {
		if _, err := planner.ParseStage(string(s.Stage)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "step %d", i)
		}
		if s.Copy < last {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "step %d: copy %d after copy %d", i, s.Copy, last)
		}
		last = s.Copy
	}
	return data.Steps, nil
}

// ExportPlanJSON writes steps to a JSON file at path.
func ExportPlanJSON(steps []planner.Step, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WritePlanJSON(f, steps)
}

// ImportPlanJSON reads a plan from the JSON file at path.
func ImportPlanJSON(path string) ([]planner.Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPlanJSON(f)
}

// WriteDocumentJSON encodes the bodies and components of doc.
func WriteDocumentJSON(w io.Writer, doc *geometry.Document) error {
	out := document{Bodies: doc.Bodies(), Components: doc.Components()}
	if out.Bodies == nil {
		out.Bodies = []*geometry.Body{}
	}
	if out.Components == nil {
		out.Components = []geometry.Component{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
