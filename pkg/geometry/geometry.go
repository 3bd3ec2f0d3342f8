// Package geometry is an in-memory body store that carries out plans.
//
// A [Document] holds bodies as vertex clouds and implements
// [planner.Geometry], so a plan can be executed and inspected without a CAD
// host. [Cube] and [Sphere] build the sample bodies used for previews.
package geometry

import (
	"math"
	"slices"
	"strconv"
	"sync"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/planner"
)

// SampleSize is the edge length of the sample cube and the radius of the
// sample sphere.
const SampleSize = 0.5

// Body is a named vertex cloud.
type Body struct {
	ID        string        `json:"id"`
	Label     string        `json:"name"`
	Component string        `json:"component,omitempty"`
	Vertices  []affine.Vec3 `json:"vertices"`
}

// Name implements [planner.Body].
func (b *Body) Name() string { return b.Label }

// Component is a container created for a single body.
type Component struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// Document owns a set of bodies. It is safe for concurrent use.
type Document struct {
	mu         sync.Mutex
	bodies     []*Body
	components []Component
	nextID     int
}

var _ planner.Geometry = (*Document)(nil)

// New returns an empty Document.
func New() *Document {
	return &Document{}
}

// Add stores a new body with a copy of vertices and returns it.
func (d *Document) Add(name string, vertices []affine.Vec3) *Body {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.add(name, slices.Clone(vertices))
}

func (d *Document) add(name string, vertices []affine.Vec3) *Body {
	d.nextID++
	b := &Body{ID: "b" + strconv.Itoa(d.nextID), Label: name, Vertices: vertices}
	d.bodies = append(d.bodies, b)
	return b
}

// Bodies returns the live bodies in creation order.
func (d *Document) Bodies() []*Body {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.bodies)
}

// Components returns the components in creation order.
func (d *Document) Components() []Component {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.components)
}

// Find returns the live body with the given name.
func (d *Document) Find(name string) (*Body, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range d.bodies {
		if b.Label == name {
			return b, true
		}
	}
	return nil, false
}

// PlannerBodies converts bodies for [planner.Execute].
func PlannerBodies(bodies []*Body) []planner.Body {
	out := make([]planner.Body, len(bodies))
	for i, b := range bodies {
		out[i] = b
	}
	return out
}

// CopyBody implements [planner.Geometry].
func (d *Document) CopyBody(original planner.Body, name string) (planner.Body, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	src, err := d.own(original)
	if err != nil {
		return nil, err
	}
	return d.add(name, slices.Clone(src.Vertices)), nil
}

// ApplyTransform implements [planner.Geometry]. Either every body is
// transformed or none is.
func (d *Document) ApplyTransform(bodies []planner.Body, t affine.Transform) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	owned := make([]*Body, 0, len(bodies))
	for _, b := range bodies {
		ob, err := d.own(b)
		if err != nil {
			return err
		}
		owned = append(owned, ob)
	}
	for _, b := range owned {
		for i, v := range b.Vertices {
			b.Vertices[i] = t.Apply(v)
		}
	}
	return nil
}

// RemoveBody implements [planner.Geometry].
func (d *Document) RemoveBody(b planner.Body) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ob, err := d.own(b)
	if err != nil {
		return err
	}
	d.bodies = slices.DeleteFunc(d.bodies, func(x *Body) bool { return x == ob })
	return nil
}

// CreateComponentFor implements [planner.Geometry]. The component takes the
// body's name.
func (d *Document) CreateComponentFor(b planner.Body) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ob, err := d.own(b)
	if err != nil {
		return err
	}
	if ob.Component != "" {
		return errors.New(errors.ErrCodeInvalidInput, "body %q already has component %q", ob.Label, ob.Component)
	}
	ob.Component = ob.Label
	d.components = append(d.components, Component{Name: ob.Label, Body: ob.ID})
	return nil
}

func (d *Document) own(b planner.Body) (*Body, error) {
	ob, ok := b.(*Body)
	if !ok || ob == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "body %T does not belong to this document", b)
	}
	if !slices.Contains(d.bodies, ob) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "body %q is not in this document", ob.Label)
	}
	return ob, nil
}

// Cube returns the eight corners of an axis aligned cube with one corner at
// the origin and the opposite corner at (size, size, size).
func Cube(size float64) []affine.Vec3 {
	out := make([]affine.Vec3, 0, 8)
	for _, x := range []float64{0, size} {
		for _, y := range []float64{0, size} {
			for _, z := range []float64{0, size} {
				out = append(out, affine.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// Sphere returns points on a sphere of the given radius centered on the
// origin: both poles plus rings-1 latitude circles of segments points each.
// rings below 2 or segments below 3 are raised to those minimums.
func Sphere(radius float64, rings, segments int) []affine.Vec3 {
	rings = max(rings, 2)
	segments = max(segments, 3)
	out := []affine.Vec3{{Z: radius}}
	for i := 1; i < rings; i++ {
		phi := math.Pi * float64(i) / float64(rings)
		z, r := radius*math.Cos(phi), radius*math.Sin(phi)
		for j := 0; j < segments; j++ {
			theta := 2 * math.Pi * float64(j) / float64(segments)
			out = append(out, affine.Vec3{X: r * math.Cos(theta), Y: r * math.Sin(theta), Z: z})
		}
	}
	return append(out, affine.Vec3{Z: -radius})
}

// Box is an axis aligned bounding box.
type Box struct {
	Min affine.Vec3 `json:"min"`
	Max affine.Vec3 `json:"max"`
}

// Size returns the box extent on each axis.
func (b Box) Size() affine.Vec3 {
	return affine.Vec3{X: b.Max.X - b.Min.X, Y: b.Max.Y - b.Min.Y, Z: b.Max.Z - b.Min.Z}
}

// Bounds returns the bounding box of every vertex of bodies. ok is false
// when there are no vertices.
func Bounds(bodies []*Body) (box Box, ok bool) {
	for _, b := range bodies {
		for _, v := range b.Vertices {
			if !ok {
				box = Box{Min: v, Max: v}
				ok = true
				continue
			}
			box.Min = affine.Vec3{X: min(box.Min.X, v.X), Y: min(box.Min.Y, v.Y), Z: min(box.Min.Z, v.Z)}
			box.Max = affine.Vec3{X: max(box.Max.X, v.X), Y: max(box.Max.Y, v.Y), Z: max(box.Max.Z, v.Z)}
		}
	}
	return box, ok
}
