// Package planner computes the per-copy transforms of a copy, scale, rotate,
// translate, rotate pattern.
//
// # Overview
//
// A pattern is described by a [Spec]: how many copies to make, and four
// stages that are applied in a fixed order to every copy:
//
//  1. [StageScale] scales the copy about the origin
//  2. [StageInternalRotation] rotates it with a caller supplied matrix
//  3. [StageTranslation] moves it
//  4. [StageExternalRotation] rotates it again, typically about a distant axis
//
// Each stage owns a base transform and a [Mode]. In [ModeConstant] copy k
// receives the base as is; in [ModeCompound] it receives the base composed
// with itself k times; [ModeCompoundWithScale] (translation only) sums the
// translation steps as a geometric series driven by the scale stage, so that
// copies that shrink also move by shrinking distances.
//
// # Usage
//
// The engine follows a configure, plan, reset contract:
//
//	s, err := planner.Configure(spec, planner.WithLogger(logger))
//	if err != nil {
//	    return err // invalid configuration
//	}
//	steps, err := s.Plan(ctx)
//
// [Session.Plan] returns the ordered [Step] list. Steps whose transform is
// within [affine.Epsilon] of identity are never emitted. [Execute] replays a
// plan against a [Geometry] collaborator that owns the actual bodies.
//
// # Randomization
//
// Randomization draws come from a seeded source, re-seeded on every Plan
// call, so a seed always reproduces the same plan.
package planner
