package render

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/planner"
)

// Options configures plan diagrams.
type Options struct {
	Detailed bool // add the matrix rows to every node label
}

const dotHeader = `digraph plan {
  rankdir=LR;
  bgcolor="transparent";
  ranksep=0.4;
  nodesep=0.3;
  node [shape=box, style="rounded,filled", fillcolor=white, fontsize=14, margin="0.2,0.1"];
`

// ToDOT writes steps as Graphviz source with one cluster per copy.
// Cumulative steps get a bold outline.
func ToDOT(steps []planner.Step, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString(dotHeader)

	var ids []string
	for i := 0; i < len(steps); {
		k := steps[i].Copy
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", k)
		fmt.Fprintf(&buf, "    label=%q;\n", "copy "+strconv.Itoa(k))
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for ; i < len(steps) && steps[i].Copy == k; i++ {
			id := nodeID(steps[i])
			attrs := []string{fmt.Sprintf("label=%q", Label(steps[i], opts.Detailed))}
			if steps[i].Cumulative {
				attrs = append(attrs, "penwidth=2")
			}
			fmt.Fprintf(&buf, "    %q [%s];\n", id, strings.Join(attrs, ", "))
			ids = append(ids, id)
		}
		buf.WriteString("  }\n")
	}

	if len(ids) > 1 {
		buf.WriteString("\n")
		for i := 1; i < len(ids); i++ {
			fmt.Fprintf(&buf, "  %q -> %q;\n", ids[i-1], ids[i])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(s planner.Step) string {
	return fmt.Sprintf("%d/%s", s.Copy, s.Stage)
}

// Label summarizes a step for display: scale factors, translation offset or
// rotation angle. Detailed labels add the matrix rows.
func Label(s planner.Step, detailed bool) string {
	label := string(s.Stage) + "\n" + Summary(s)
	if !detailed {
		return label
	}
	rows := make([]string, 4)
	for r := 0; r < 4; r++ {
		cells := make([]string, 4)
		for c := 0; c < 4; c++ {
			cells[c] = strconv.FormatFloat(s.Transform.Cell(r, c), 'g', 4, 64)
		}
		rows[r] = strings.Join(cells, " ")
	}
	return label + "\n" + strings.Join(rows, "\n")
}

// Summary returns a one-line description of the step transform.
func Summary(s planner.Step) string {
	t := s.Transform
	switch s.Stage {
	case planner.StageScale:
		return "x" + fmtVec(t.Diagonal())
	case planner.StageTranslation:
		return "+" + fmtVec(t.TranslationPart())
	}
	tr := t.Cell(0, 0) + t.Cell(1, 1) + t.Cell(2, 2)
	angle := math.Acos(math.Max(-1, math.Min(1, (tr-1)/2))) * 180 / math.Pi
	return strconv.FormatFloat(angle, 'f', 1, 64) + "°"
}

func fmtVec(v affine.Vec3) string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', 4, 64) }
	return "(" + f(v.X) + ", " + f(v.Y) + ", " + f(v.Z) + ")"
}

// RenderSVG lays out dot with the embedded Graphviz and returns SVG.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("start graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse plan diagram: %w", err)
	}
	defer graph.Close()

	var out bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.SVG, &out); err != nil {
		return nil, fmt.Errorf("render plan diagram: %w", err)
	}
	return normalizeViewBox(out.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the viewBox starts at the
// origin and width and height match it.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
