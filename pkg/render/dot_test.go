package render

import (
	"math"
	"strings"
	"testing"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/planner"
)

func testSteps() []planner.Step {
	return []planner.Step{
		{Stage: planner.StageScale, Copy: 1, Transform: affine.Scaling(2, 2, 2)},
		{Stage: planner.StageTranslation, Copy: 1, Transform: affine.Translation(1, 0, 0)},
		{Stage: planner.StageScale, Copy: 2, Cumulative: true, Transform: affine.Scaling(4, 4, 4)},
		{Stage: planner.StageExternalRotation, Copy: 2, Cumulative: true,
			Transform: affine.Rotation(math.Pi/6, affine.Vec3{Z: 1}, affine.Vec3{})},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testSteps(), Options{})

	for _, want := range []string{
		"digraph plan {",
		"subgraph cluster_1 {",
		"subgraph cluster_2 {",
		`label="copy 2"`,
		`"1/scale" -> "1/translation";`,
		`"1/translation" -> "2/scale";`,
		`"2/scale" -> "2/external-rotation";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if n := strings.Count(dot, "->"); n != 3 {
		t.Errorf("got %d edges, want 3", n)
	}
	if n := strings.Count(dot, "penwidth=2"); n != 2 {
		t.Errorf("got %d cumulative nodes, want 2", n)
	}
}

func TestToDOT_Empty(t *testing.T) {
	dot := ToDOT(nil, Options{})
	if strings.Contains(dot, "cluster") || strings.Contains(dot, "->") {
		t.Errorf("empty plan produced nodes:\n%s", dot)
	}
}

func TestSummary(t *testing.T) {
	steps := testSteps()
	tests := []struct {
		step planner.Step
		want string
	}{
		{steps[0], "x(2, 2, 2)"},
		{steps[1], "+(1, 0, 0)"},
		{steps[3], "30.0°"},
	}
	for _, tt := range tests {
		if got := Summary(tt.step); got != tt.want {
			t.Errorf("Summary(%s) = %q, want %q", tt.step.Stage, got, tt.want)
		}
	}
}

func TestLabel_Detailed(t *testing.T) {
	got := Label(testSteps()[1], true)
	want := "translation\n+(1, 0, 0)\n1 0 0 1\n0 1 0 0\n0 0 1 0\n0 0 0 1"
	if got != want {
		t.Errorf("Label = %q, want %q", got, want)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("svg without viewBox changed: %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(ToDOT(testSteps(), Options{Detailed: true}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), `viewBox="0 0 `) {
		t.Errorf("SVG viewBox not normalized: %.200s", svg)
	}
}
