package planner

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/observability"
)

// Body is a solid owned by a Geometry collaborator.
type Body interface {
	Name() string
}

// Geometry performs the body operations a plan calls for. Implementations
// own the bodies; the planner only ever refers to them through Body values
// they returned.
type Geometry interface {
	// CopyBody duplicates original under the given name.
	CopyBody(original Body, name string) (Body, error)
	// ApplyTransform moves every body in bodies by t.
	ApplyTransform(bodies []Body, t affine.Transform) error
	// RemoveBody deletes b.
	RemoveBody(b Body) error
	// CreateComponentFor wraps b in a component of its own.
	CreateComponentFor(b Body) error
}

// Report summarizes an [Execute] run.
type Report struct {
	Copies     int // copy sets created, including copy 0
	Bodies     []Body
	Applied    int
	Skipped    int
	Removed    int
	Components int
	Failures   int
}

// CopyName returns the name of the copy of original with index k.
func CopyName(original string, k int) string {
	return original + "_" + strconv.Itoa(k)
}

// Execute plans s and applies the plan to g.
//
// Copy 0 of the originals is made first when CopyOriginals is set. Copy k
// then duplicates every original and applies the steps of copy k, either to
// all bodies generated so far (cumulative steps) or to copy k alone.
// Originals are removed afterwards when RemoveOriginals is set, and every
// generated body gets a component when CreateComponents is set.
//
// Failures are local: a failing geometry call is logged and counted, and the
// run continues. All failures are joined into the returned error. The
// context is checked between copies.
func Execute(ctx context.Context, s *Session, g Geometry, originals []Body) (*Report, error) {
	if len(originals) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no bodies to copy")
	}
	start := time.Now()
	res, planErr := s.PlanResult(ctx)
	if res == nil {
		return nil, planErr
	}

	spec := s.spec
	logger := s.logger
	rep := &Report{Skipped: len(res.Skipped)}
	var errs []error
	if planErr != nil {
		errs = append(errs, planErr)
	}
	fail := func(err error) {
		rep.Failures++
		errs = append(errs, err)
		logger.Error("geometry operation failed", "err", err)
	}

	var cumulative []Body
	copyAll := func(k int) []Body {
		var set []Body
		for _, b := range originals {
			name := CopyName(b.Name(), k)
			c, err := g.CopyBody(b, name)
			if err != nil {
				fail(fmt.Errorf("copy %s: %w", name, err))
				continue
			}
			logger.Debug("created body", "name", c.Name(), "from", b.Name())
			set = append(set, c)
		}
		cumulative = append(cumulative, set...)
		rep.Bodies = append(rep.Bodies, set...)
		rep.Copies++
		return set
	}

	if spec.CopyOriginals {
		copyAll(0)
	}
	for k := 1; k <= spec.NumCopies; k++ {
		if err := ctx.Err(); err != nil {
			observability.Planner().OnExecuteComplete(ctx, len(rep.Bodies), rep.Applied, time.Since(start), err)
			return rep, err
		}
		set := copyAll(k)
		for _, step := range res.ForCopy(k) {
			target := set
			if step.Cumulative {
				target = cumulative
			}
			if len(target) == 0 {
				continue
			}
			// The target slice is handed out; clone so later appends stay private.
			if err := g.ApplyTransform(append([]Body(nil), target...), step.Transform); err != nil {
				fail(fmt.Errorf("%s copy %d: %w", step.Stage, k, err))
				continue
			}
			rep.Applied++
		}
	}

	if spec.RemoveOriginals {
		for _, b := range originals {
			if err := g.RemoveBody(b); err != nil {
				fail(fmt.Errorf("remove %s: %w", b.Name(), err))
				continue
			}
			logger.Debug("removed original body", "name", b.Name())
			rep.Removed++
		}
	}

	if spec.CreateComponents {
		for _, b := range rep.Bodies {
			if err := g.CreateComponentFor(b); err != nil {
				fail(fmt.Errorf("component for %s: %w", b.Name(), err))
				continue
			}
			rep.Components++
		}
	}

	err := stderrors.Join(errs...)
	observability.Planner().OnExecuteComplete(ctx, len(rep.Bodies), rep.Applied, time.Since(start), err)
	return rep, err
}
