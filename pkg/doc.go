// Package pkg provides the core libraries for Fractal pattern planning.
//
// # Overview
//
// Fractal turns a pattern description into the affine transform every copy
// of a set of bodies receives. Each copy k runs through four stages in a
// fixed order: scale, internal rotation, translation and external rotation.
// Every stage is either constant (the same base for every copy) or compound
// (the base applied k times), and may add seeded random jitter.
//
// # Architecture
//
// The typical data flow:
//
//	TOML config / JSON request
//	         ↓
//	    [config] package (decode into a planner.Spec)
//	         ↓
//	    [planner] package (validate, compute per-copy steps)
//	         ↓
//	    [pipeline] package (cache plans, render artifacts)
//	         ↓
//	    JSON plan / Graphviz DOT / SVG, or [geometry] bodies
//
// # Quick Start
//
// Plan six copies of a spiral and apply them to a cube:
//
//	spec := planner.DefaultSpec()
//	spec.NumCopies = 6
//	spec.InternalRotation.Enabled = true
//	spec.InternalRotation.Mode = planner.ModeCompound
//	spec.InternalRotation.Base = affine.Rotation(math.Pi/12, affine.Vec3{Z: 1}, affine.Vec3{})
//
//	s, _ := planner.Configure(spec)
//	steps, _ := s.Plan(ctx)
//
//	doc := geometry.New()
//	body := doc.Add("Body1", geometry.Cube(geometry.SampleSize))
//	report, _ := planner.Execute(ctx, s, doc, []planner.Body{body})
//
// # Main Packages
//
// ## Math
//
// [affine] - 4x4 affine transforms: composition, scaling, translation and
// rotation about an axis through an origin.
//
// [compound] - The compounding rules: k-fold powers and scale-weighted
// translation sums.
//
// [sampling] - Seeded random sources, uniform draws and rejection sampling
// inside the unit ball.
//
// ## Planning
//
// [planner] - Spec validation, warnings, per-stage reset, plan computation
// and plan execution against any [planner.Geometry].
//
// [geometry] - An in-memory document of vertex-cloud bodies implementing
// [planner.Geometry].
//
// ## Infrastructure
//
// [config] - TOML pattern configuration files.
//
// [cache] - Plan caches: file, Redis and no-op backends behind one interface.
//
// [pipeline] - Configure, plan and render, used by the CLI and the server.
//
// [render] - Graphviz DOT and SVG diagrams of a plan.
//
// [io] - JSON plan and document encoding.
//
// [session] - Stored pattern sessions on disk or in Redis.
//
// [server] - The HTTP API.
//
// [observability] - Hooks for plan, execute and cache events.
//
// [errors] - Error codes and input validation.
//
// # Testing
//
// Run tests:
//
//	go test ./...
//	FRACTAL_TEST_REDIS=localhost:6379 go test ./pkg/cache ./pkg/session
//
// [affine]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/affine
// [compound]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/compound
// [sampling]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/sampling
// [planner]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/planner
// [planner.Geometry]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/planner#Geometry
// [geometry]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/geometry
// [config]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/config
// [cache]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/render
// [io]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/io
// [session]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/session
// [server]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/server
// [observability]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/observability
// [errors]: https://pkg.go.dev/github.com/goutamreddy/fractal/pkg/errors
package pkg
