package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/goutamreddy/fractal/pkg/cache"
	"github.com/goutamreddy/fractal/pkg/errors"
	fractalio "github.com/goutamreddy/fractal/pkg/io"
	"github.com/goutamreddy/fractal/pkg/planner"
	"github.com/goutamreddy/fractal/pkg/render"
)

// Runner executes runs against a plan cache. It holds no per-run state and
// may be shared between goroutines.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner returns a Runner. Nil arguments fall back to a NullCache, the
// DefaultKeyer and the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	r := &Runner{Cache: c, Keyer: keyer, Logger: logger}
	if r.Cache == nil {
		r.Cache = cache.NewNullCache()
	}
	if r.Keyer == nil {
		r.Keyer = cache.NewDefaultKeyer()
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	return r
}

// Execute validates, plans and renders opts.Spec.
//
// Configuration errors return a nil Result. A sampling failure returns the
// error together with a Result whose plan lacks the failed steps.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.Normalize(); err != nil {
		return nil, err
	}

	session, err := planner.Configure(opts.Spec, planner.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}
	res := &Result{
		Warnings: session.Warnings(),
		PlanKey:  r.Keyer.PlanKey(session.Spec()),
	}

	start := time.Now()
	steps, hit, planErr := r.plan(ctx, session, res.PlanKey, opts.Refresh)
	if planErr != nil && !errors.Is(planErr, errors.ErrCodeSampling) {
		return nil, planErr
	}
	res.Steps = steps
	res.CacheInfo.PlanHit = hit
	res.Stats = Stats{
		Copies:   session.Spec().NumCopies,
		Steps:    len(steps),
		PlanTime: time.Since(start),
	}
	r.Logger.Info("planned copies", "copies", res.Stats.Copies, "steps", res.Stats.Steps,
		"cached", hit, "duration", res.Stats.PlanTime)

	start = time.Now()
	if res.Artifacts, err = Render(steps, opts); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	res.Stats.RenderTime = time.Since(start)
	r.Logger.Debug("rendered outputs", "formats", opts.Formats, "duration", res.Stats.RenderTime)

	return res, planErr
}

// plan reads the steps for key from the cache or computes and stores them.
// A plan with a sampling failure is returned but never stored.
func (r *Runner) plan(ctx context.Context, session *planner.Session, key string, refresh bool) ([]planner.Step, bool, error) {
	if !refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		switch {
		case err != nil:
			r.Logger.Warn("plan cache unavailable", "err", err)
		case hit:
			steps, err := fractalio.ReadPlanJSON(bytes.NewReader(data))
			if err == nil {
				return steps, true, nil
			}
			r.Logger.Debug("discarding unreadable cached plan", "key", key, "err", err)
		}
	}

	steps, err := session.Plan(ctx)
	if err != nil {
		return steps, false, err
	}
	var buf bytes.Buffer
	if err := fractalio.WritePlanJSON(&buf, steps); err == nil {
		if err := r.Cache.Set(ctx, key, buf.Bytes(), cache.TTLPlan); err != nil {
			r.Logger.Warn("cache plan", "err", err)
		}
	}
	return steps, false, nil
}

// Render encodes steps in every format of opts.Formats. DOT is generated
// once and shared by the dot and svg outputs.
func Render(steps []planner.Step, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(opts.Formats))
	var dot string
	for _, format := range opts.Formats {
		if format == FormatJSON {
			var buf bytes.Buffer
			if err := fractalio.WritePlanJSON(&buf, steps); err != nil {
				return nil, err
			}
			out[format] = buf.Bytes()
			continue
		}
		if dot == "" {
			dot = render.ToDOT(steps, render.Options{Detailed: opts.Detailed})
		}
		if format == FormatDOT {
			out[format] = []byte(dot)
			continue
		}
		svg, err := render.RenderSVG(dot)
		if err != nil {
			return nil, err
		}
		out[format] = svg
	}
	return out, nil
}

// Close closes the cache.
func (r *Runner) Close() error {
	if r.Cache == nil {
		return nil
	}
	return r.Cache.Close()
}
