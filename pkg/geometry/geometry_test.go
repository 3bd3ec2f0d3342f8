package geometry

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/planner"
)

func TestCube(t *testing.T) {
	c := Cube(SampleSize)
	if len(c) != 8 {
		t.Fatalf("got %d vertices, want 8", len(c))
	}
	box, ok := Bounds([]*Body{{Vertices: c}})
	if !ok {
		t.Fatal("no bounds")
	}
	want := Box{Max: affine.Vec3{X: 0.5, Y: 0.5, Z: 0.5}}
	if box != want {
		t.Errorf("bounds = %+v, want %+v", box, want)
	}
}

func TestSphere(t *testing.T) {
	s := Sphere(SampleSize, 6, 8)
	if want := 2 + 5*8; len(s) != want {
		t.Fatalf("got %d vertices, want %d", len(s), want)
	}
	for _, v := range s {
		if math.Abs(v.Len()-SampleSize) > 1e-12 {
			t.Fatalf("vertex %+v not on sphere", v)
		}
	}
	if got := len(Sphere(1, 0, 0)); got != 2+1*3 {
		t.Errorf("minimum sphere has %d vertices", got)
	}
}

func TestBounds_Empty(t *testing.T) {
	if _, ok := Bounds(nil); ok {
		t.Error("empty bounds reported ok")
	}
}

func TestDocument_CopyIsIndependent(t *testing.T) {
	d := New()
	orig := d.Add("Body1", Cube(1))
	c, err := d.CopyBody(orig, "Body1_1")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.ApplyTransform([]planner.Body{c}, affine.Translation(10, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if orig.Vertices[0] != (affine.Vec3{}) {
		t.Errorf("original moved: %+v", orig.Vertices[0])
	}
	if got := c.(*Body).Vertices[0]; got != (affine.Vec3{X: 10}) {
		t.Errorf("copy vertex = %+v", got)
	}
	if got := c.Name(); got != "Body1_1" {
		t.Errorf("copy name = %q", got)
	}
}

func TestDocument_ForeignBody(t *testing.T) {
	a, b := New(), New()
	body := a.Add("x", nil)
	if _, err := b.CopyBody(body, "y"); err == nil {
		t.Error("CopyBody accepted a foreign body")
	}
	if err := b.RemoveBody(body); err == nil {
		t.Error("RemoveBody accepted a foreign body")
	}
}

func TestDocument_ApplyIsAllOrNothing(t *testing.T) {
	d := New()
	body := d.Add("a", []affine.Vec3{{X: 1}})
	foreign := New().Add("b", nil)
	if err := d.ApplyTransform([]planner.Body{body, foreign}, affine.Translation(1, 0, 0)); err == nil {
		t.Fatal("expected error")
	}
	if body.Vertices[0] != (affine.Vec3{X: 1}) {
		t.Errorf("body moved despite error: %+v", body.Vertices[0])
	}
}

func TestDocument_RemoveAndComponents(t *testing.T) {
	d := New()
	a := d.Add("a", nil)
	b := d.Add("b", nil)
	if err := d.RemoveBody(a); err != nil {
		t.Fatal(err)
	}
	if err := d.CreateComponentFor(b); err != nil {
		t.Fatal(err)
	}
	if err := d.CreateComponentFor(b); err == nil {
		t.Error("second component for the same body accepted")
	}
	if _, ok := d.Find("a"); ok {
		t.Error("removed body still found")
	}
	if diff := cmp.Diff([]Component{{Name: "b", Body: b.ID}}, d.Components()); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_GeometricGrowth(t *testing.T) {
	spec := planner.DefaultSpec()
	spec.NumCopies = 3
	spec.ApplyRecursively = false
	spec.CopyOriginals = false
	spec.CreateComponents = false
	spec.Scale = planner.ScaleStage{Enabled: true, Mode: planner.ModeCompound, Scale: planner.ScaleSpec{Uniform: true, Value: 0.5}}
	spec.Translation = planner.TranslationStage{Enabled: true, Mode: planner.ModeCompoundWithScale, Base: affine.Translation(1, 0, 0)}

	s, err := planner.Configure(spec)
	if err != nil {
		t.Fatal(err)
	}
	d := New()
	d.Add("Body1", Cube(1))
	if _, err := planner.Execute(context.Background(), s, d, PlannerBodies(d.Bodies())); err != nil {
		t.Fatal(err)
	}

	bodies := d.Bodies()
	if len(bodies) != 3 {
		t.Fatalf("got %d bodies, want 3 (original removed)", len(bodies))
	}
	// Copy k is scaled by 0.5^k and its origin corner moved by 1 + 0.5 + ...
	for i, want := range []struct{ origin, size float64 }{{1, 0.5}, {1.5, 0.25}, {1.75, 0.125}} {
		b := bodies[i]
		box, _ := Bounds([]*Body{b})
		if math.Abs(box.Min.X-want.origin) > 1e-12 || math.Abs(box.Size().X-want.size) > 1e-12 {
			t.Errorf("%s: min x %v size %v, want %v and %v", b.Label, box.Min.X, box.Size().X, want.origin, want.size)
		}
	}
}
