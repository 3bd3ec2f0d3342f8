package planner

import (
	"context"
	stderrors "errors"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/compound"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/observability"
	"github.com/goutamreddy/fractal/pkg/sampling"
)

// Step is one transform to apply to the bodies of a copy.
type Step struct {
	Stage Stage `json:"stage"`
	Copy  int   `json:"copy"`
	// Cumulative reports that the transform applies to every body generated
	// so far rather than only to this copy.
	Cumulative bool             `json:"cumulative"`
	Transform  affine.Transform `json:"matrix"`
}

// Skip reasons reported in [Skip.Reason].
const (
	SkipDisabled     = "disabled"
	SkipIdentity     = "identity"
	SkipInvalidScale = "invalid_scale"
	SkipSampling     = "sampling"
)

// Skip records a stage that emitted no step for a copy.
type Skip struct {
	Stage  Stage  `json:"stage"`
	Copy   int    `json:"copy"`
	Reason string `json:"reason"`
}

// Result is the detailed outcome of [Session.PlanResult].
type Result struct {
	Steps   []Step
	Skipped []Skip
}

// ForCopy returns the steps of copy k in stage order.
func (r *Result) ForCopy(k int) []Step {
	var out []Step
	for _, s := range r.Steps {
		if s.Copy == k {
			out = append(out, s)
		}
	}
	return out
}

// Warning is a non-fatal configuration problem found by [Configure].
type Warning struct {
	Stage Stage
	Err   error
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource replaces the random source constructor. newSource is called
// with the spec seed at the start of every plan.
func WithSource(newSource func(seed uint64) sampling.Source) Option {
	return func(s *Session) {
		if newSource != nil {
			s.newSource = newSource
		}
	}
}

// WithMaxAttempts caps the unit ball rejection loop.
func WithMaxAttempts(n int) Option {
	return func(s *Session) { s.maxAttempts = n }
}

// Session holds a validated Spec and plans it. A Session is not safe for
// concurrent use.
type Session struct {
	spec        Spec
	logger      *log.Logger
	newSource   func(seed uint64) sampling.Source
	maxAttempts int

	scale    affine.Transform
	scaleErr error
	warnings []Warning
}

// Configure validates spec and returns a Session ready to plan. Invalid
// configuration is reported with [errors.ErrCodeInvalidConfig] before any
// planning happens.
func Configure(spec Spec, opts ...Option) (*Session, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		spec:        spec.normalized(),
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
		newSource:   func(seed uint64) sampling.Source { return sampling.NewSource(seed) },
		maxAttempts: sampling.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.prepare()
	return s, nil
}

func (s *Session) prepare() {
	s.scale, s.scaleErr = s.spec.Scale.Scale.Transform()
	s.warnings = nil
	if s.scaleErr != nil && s.spec.Scale.Enabled {
		s.warnings = append(s.warnings, Warning{Stage: StageScale, Err: s.scaleErr})
		s.logger.Warn("invalid scale, stage skipped", "stage", StageScale, "err", errors.UserMessage(s.scaleErr))
	}
}

// Spec returns the session's current configuration.
func (s *Session) Spec() Spec { return s.spec }

// Warnings returns the non-fatal problems found while configuring.
func (s *Session) Warnings() []Warning { return s.warnings }

// Reset restores stage to its defaults: identity base (scale factors of 1)
// and no randomization. Enabled and Mode are unchanged.
func (s *Session) Reset(stage Stage) error {
	switch stage {
	case StageScale:
		s.spec.Scale.Scale = ScaleSpec{Uniform: s.spec.Scale.Scale.Uniform, Value: 1, X: 1, Y: 1, Z: 1}
		s.spec.Scale.Randomization = ScaleRandomization{}
	case StageInternalRotation:
		s.spec.InternalRotation.Base = affine.Identity()
		s.spec.InternalRotation.Randomization = 0
	case StageTranslation:
		s.spec.Translation.Base = affine.Identity()
		s.spec.Translation.Randomization = affine.Vec3{}
	case StageExternalRotation:
		s.spec.ExternalRotation.Base = affine.Identity()
		s.spec.ExternalRotation.Randomization = 0
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown stage %q", string(stage))
	}
	s.logger.Debug("stage reset", "stage", stage)
	s.prepare()
	return nil
}

// Plan returns the ordered steps for copies 1..NumCopies. A sampling
// failure skips the affected step and is reported in the returned error
// alongside the steps that were planned.
func (s *Session) Plan(ctx context.Context) ([]Step, error) {
	res, err := s.PlanResult(ctx)
	if res == nil {
		return nil, err
	}
	return res.Steps, err
}

// PlanResult is like Plan but also reports the skipped stages.
func (s *Session) PlanResult(ctx context.Context) (*Result, error) {
	start := time.Now()
	hooks := observability.Planner()
	hooks.OnPlanStart(ctx, s.spec.NumCopies)

	src := s.newSource(s.spec.Seed)
	pows := map[Stage]*compound.Sequence{
		StageScale:            compound.NewSequence(s.scale),
		StageInternalRotation: compound.NewSequence(s.spec.InternalRotation.Base),
		StageTranslation:      compound.NewSequence(s.spec.Translation.Base),
		StageExternalRotation: compound.NewSequence(s.spec.ExternalRotation.Base),
	}
	res := &Result{}
	var errs []error
	for k := 1; k <= s.spec.NumCopies; k++ {
		if err := ctx.Err(); err != nil {
			hooks.OnPlanComplete(ctx, k-1, len(res.Steps), time.Since(start), err)
			return nil, err
		}
		for _, stage := range Stages {
			t, reason, err := s.stageTransform(src, stage, k, pows[stage].Next())
			if err != nil {
				errs = append(errs, errors.Wrap(errors.GetCode(err), err, "%s copy %d", stage, k))
			}
			if reason == "" && affine.IsIdentity(t) {
				reason = SkipIdentity
			}
			if reason != "" {
				res.Skipped = append(res.Skipped, Skip{Stage: stage, Copy: k, Reason: reason})
				hooks.OnStageSkipped(ctx, string(stage), k, reason)
				if reason == SkipIdentity {
					s.logger.Debug("identity transform, not applied", "stage", stage, "copy", k)
				}
				continue
			}
			s.logger.Debug("step", "stage", stage, "copy", k, "matrix", t)
			res.Steps = append(res.Steps, Step{
				Stage:      stage,
				Copy:       k,
				Cumulative: s.spec.ApplyRecursively,
				Transform:  t,
			})
		}
	}

	err := stderrors.Join(errs...)
	hooks.OnPlanComplete(ctx, s.spec.NumCopies, len(res.Steps), time.Since(start), err)
	return res, err
}

// stageTransform computes the transform of stage for copy k. pow is the
// stage base raised to k.
func (s *Session) stageTransform(src sampling.Source, stage Stage, k int, pow affine.Transform) (affine.Transform, string, error) {
	switch stage {
	case StageScale:
		return s.scaleTransform(src, pow)
	case StageInternalRotation:
		return s.rotationTransform(src, s.spec.InternalRotation, pow)
	case StageTranslation:
		return s.translationTransform(src, k, pow)
	case StageExternalRotation:
		return s.rotationTransform(src, s.spec.ExternalRotation, pow)
	}
	return affine.Identity(), SkipDisabled, nil
}

func (s *Session) scaleTransform(src sampling.Source, pow affine.Transform) (affine.Transform, string, error) {
	st := s.spec.Scale
	if !st.Enabled {
		return affine.Identity(), SkipDisabled, nil
	}
	if s.scaleErr != nil {
		return affine.Identity(), SkipInvalidScale, nil
	}

	d := s.scale.Diagonal()
	if st.Mode == ModeCompound {
		d = pow.Diagonal()
	}

	f := affine.Vec3{X: 1, Y: 1, Z: 1}
	r := st.Randomization
	if st.Scale.Uniform {
		if r.Uniform > 0 {
			u := jitter(src, r.Uniform)
			f = affine.Vec3{X: u, Y: u, Z: u}
		}
	} else {
		if r.X > 0 {
			f.X = jitter(src, r.X)
		}
		if r.Y > 0 {
			f.Y = jitter(src, r.Y)
		}
		if r.Z > 0 {
			f.Z = jitter(src, r.Z)
		}
	}
	return affine.Scaling(d.X*f.X, d.Y*f.Y, d.Z*f.Z), "", nil
}

// jitter returns a factor in [1-pct/100, 1+pct/100).
func jitter(src sampling.Source, pct float64) float64 {
	return 1 + sampling.Uniform(src, -1, 1)*pct/100
}

func (s *Session) rotationTransform(src sampling.Source, st RotationStage, pow affine.Transform) (affine.Transform, string, error) {
	if !st.Enabled {
		return affine.Identity(), SkipDisabled, nil
	}
	t := st.Base
	if st.Mode == ModeCompound {
		t = pow
	}
	if st.Randomization > 0 {
		angle := sampling.Uniform(src, 0, st.Randomization) * math.Pi / 180
		axis, err := sampling.UnitBall(src, s.maxAttempts)
		if err != nil {
			return affine.Identity(), SkipSampling, err
		}
		t = affine.Compose(affine.Rotation(angle, axis, affine.Vec3{}), t)
	}
	return t, "", nil
}

func (s *Session) translationTransform(src sampling.Source, k int, pow affine.Transform) (affine.Transform, string, error) {
	st := s.spec.Translation
	if !st.Enabled {
		return affine.Identity(), SkipDisabled, nil
	}
	var t affine.Transform
	switch st.Mode {
	case ModeCompound:
		t = pow
	case ModeCompoundWithScale:
		t = compound.TranslationScale(st.Base, s.scaleBase(), k)
	default:
		t = st.Base
	}

	step := st.Base.TranslationPart()
	for a := 0; a < 3; a++ {
		pct := st.Randomization.Axis(a)
		if pct <= 0 {
			continue
		}
		t.SetCell(a, 3, t.Cell(a, 3)+step.Axis(a)*pct*sampling.Uniform(src, -1, 1)/100)
	}
	return t, "", nil
}

// scaleBase is the scale that drives ModeCompoundWithScale: the scale
// stage's base when that stage is enabled and valid, otherwise identity.
func (s *Session) scaleBase() affine.Transform {
	if !s.spec.Scale.Enabled || s.scaleErr != nil {
		return affine.Identity()
	}
	return s.scale
}
