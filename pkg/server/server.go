// Package server exposes the planning pipeline over HTTP.
//
// Routes:
//
//	GET    /healthz                    liveness and build info
//	POST   /v1/plan                    plan a spec sent as JSON or TOML
//	GET    /v1/sessions                list stored sessions
//	POST   /v1/sessions                store a spec as a new session
//	GET    /v1/sessions/{id}           fetch a session
//	DELETE /v1/sessions/{id}           delete a session
//	POST   /v1/sessions/{id}/reset     reset one stage (?stage=scale)
//	POST   /v1/sessions/{id}/plan      plan a stored session
//
// Plan requests accept ?format=json|dot|svg, ?detailed=true and
// ?refresh=true. A JSON body is a planner spec; fields left out keep their
// defaults. A body sent as application/toml is a fractal.toml document.
// Errors are reported as {"code": ..., "message": ...}. A plan that lost
// steps to a sampling failure is still returned, with status 422 and the
// failures in the X-Plan-Failures header.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goutamreddy/fractal/pkg/buildinfo"
	"github.com/goutamreddy/fractal/pkg/config"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/pipeline"
	"github.com/goutamreddy/fractal/pkg/planner"
	"github.com/goutamreddy/fractal/pkg/session"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// Server serves plan requests. Sessions is optional; without it the session
// routes answer 404.
type Server struct {
	Runner   *pipeline.Runner
	Sessions session.Store
	Logger   *log.Logger
}

// New creates a server. A nil runner plans without a cache.
func New(runner *pipeline.Runner, sessions session.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Server{Runner: runner, Sessions: sessions, Logger: logger}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/plan", s.handlePlan)
		r.Route("/sessions", func(r chi.Router) {
			r.Use(s.requireSessions)
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Delete("/{id}", s.handleDeleteSession)
			r.Post("/{id}/reset", s.handleResetSession)
			r.Post("/{id}/plan", s.handlePlanSession)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.Logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) requireSessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Sessions == nil {
			writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeUnsupported, "sessions are not enabled"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Current()})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	spec, err := decodeSpec(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.plan(w, r, spec)
}

func (s *Server) plan(w http.ResponseWriter, r *http.Request, spec planner.Spec) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	opts := pipeline.Options{
		Spec:     spec,
		Formats:  []string{format},
		Detailed: boolParam(q.Get("detailed")),
		Refresh:  boolParam(q.Get("refresh")),
	}

	res, err := s.Runner.Execute(r.Context(), opts)
	if res == nil {
		writeError(w, statusFor(err), err)
		return
	}
	writePlan(w, format, res, err)
}

// writePlan writes a planned result. A plan with skipped steps (planErr set)
// is still written, with the status of planErr and its message in the
// X-Plan-Failures header.
func writePlan(w http.ResponseWriter, format string, res *pipeline.Result, planErr error) {
	status := http.StatusOK
	if planErr != nil {
		status = statusFor(planErr)
		w.Header().Set("X-Plan-Failures", strings.ReplaceAll(planErr.Error(), "\n", "; "))
	}
	w.Header().Set("X-Plan-Key", res.PlanKey)
	if format != pipeline.FormatJSON {
		w.Header().Set("Content-Type", contentType(format))
		w.WriteHeader(status)
		_, _ = w.Write(res.Artifacts[format])
		return
	}
	writeJSON(w, status, newPlanResponse(res, planErr))
}

type planResponse struct {
	PlanKey  string          `json:"plan_key"`
	CacheHit bool            `json:"cache_hit"`
	Copies   int             `json:"copies"`
	Steps    []planner.Step  `json:"steps"`
	Warnings []warningOutput `json:"warnings,omitempty"`
	Failures string          `json:"failures,omitempty"`
}

type warningOutput struct {
	Stage   planner.Stage `json:"stage"`
	Code    errors.Code   `json:"code"`
	Message string        `json:"message"`
}

func newPlanResponse(res *pipeline.Result, planErr error) planResponse {
	out := planResponse{
		PlanKey:  res.PlanKey,
		CacheHit: res.CacheInfo.PlanHit,
		Copies:   res.Stats.Copies,
		Steps:    res.Steps,
	}
	if out.Steps == nil {
		out.Steps = []planner.Step{}
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, warningOutput{
			Stage:   w.Stage,
			Code:    errors.GetCode(w.Err),
			Message: errors.UserMessage(w.Err),
		})
	}
	if planErr != nil {
		out.Failures = planErr.Error()
	}
	return out
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.Sessions.List(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if list == nil {
		list = []*session.Session{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	spec, err := decodeSpec(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := spec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess := session.New(r.URL.Query().Get("name"), spec)
	if err := s.Sessions.Set(r.Context(), sess); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	stage, err := planner.ParseStage(r.URL.Query().Get("stage"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := sess.ResetStage(stage); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := s.Sessions.Set(r.Context(), sess); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handlePlanSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.plan(w, r, sess.Spec)
}

// decodeSpec reads a spec from the request body. TOML bodies are decoded as
// config files; anything else is read as JSON over the default spec.
func decodeSpec(w http.ResponseWriter, r *http.Request) (planner.Spec, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/toml", "text/toml":
		f, err := config.Decode(body)
		if err != nil {
			return planner.Spec{}, err
		}
		return f.Spec()
	default:
		spec := planner.DefaultSpec()
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return planner.Spec{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode spec")
		}
		return spec, nil
	}
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidScale,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeSessionNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSampling:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	}
	return "application/json"
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, map[string]any{"code": code, "message": errors.UserMessage(err)})
}
