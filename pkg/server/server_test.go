package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/pipeline"
	"github.com/goutamreddy/fractal/pkg/planner"
	"github.com/goutamreddy/fractal/pkg/session"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()
	store, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(nil, store, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
}

const scaleSpecJSON = `{
	"copies": 3,
	"scale": {"enabled": true, "mode": "compound", "scale": {"uniform": true, "value": 2}}
}`

func TestHealth(t *testing.T) {
	resp := do(t, setupServer(t), http.MethodGet, "/healthz", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	var got struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &got)
	if got.Status != "ok" {
		t.Errorf("status = %q", got.Status)
	}
	if resp.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", resp.Header().Get("Content-Type"))
	}
}

func TestPlan_JSON(t *testing.T) {
	resp := do(t, setupServer(t), http.MethodPost, "/v1/plan", "application/json", scaleSpecJSON)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	var got planResponse
	decodeBody(t, resp, &got)
	if got.Copies != 3 || len(got.Steps) != 3 {
		t.Fatalf("copies %d, steps %d", got.Copies, len(got.Steps))
	}
	for i, want := range []float64{2, 4, 8} {
		if got.Steps[i].Transform.Cell(0, 0) != want {
			t.Errorf("step %d scale = %v, want %v", i, got.Steps[i].Transform.Cell(0, 0), want)
		}
	}
	if !strings.HasPrefix(got.PlanKey, "plan:") {
		t.Errorf("plan key = %q", got.PlanKey)
	}
}

func TestPlan_TOML(t *testing.T) {
	body := `
copies = 2

[translation]
enabled = true
mode = "compound"
offset = [1, 0, 0]
`
	resp := do(t, setupServer(t), http.MethodPost, "/v1/plan", "application/toml", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	var got planResponse
	decodeBody(t, resp, &got)
	if len(got.Steps) != 2 || got.Steps[1].Transform.Cell(0, 3) != 2 {
		t.Errorf("steps = %+v", got.Steps)
	}
}

func TestPlan_DOT(t *testing.T) {
	resp := do(t, setupServer(t), http.MethodPost, "/v1/plan?format=dot", "application/json", scaleSpecJSON)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	if !strings.HasPrefix(resp.Body.String(), "digraph plan {") {
		t.Errorf("body = %.80s", resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("content type = %q", ct)
	}
	if resp.Header().Get("X-Plan-Key") == "" {
		t.Error("missing X-Plan-Key")
	}
}

func TestPlan_Warnings(t *testing.T) {
	body := `{"copies": 2, "scale": {"enabled": true, "scale": {"uniform": true, "value": 0}}}`
	resp := do(t, setupServer(t), http.MethodPost, "/v1/plan", "application/json", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body)
	}
	var got planResponse
	decodeBody(t, resp, &got)
	if len(got.Warnings) != 1 || got.Warnings[0].Code != errors.ErrCodeInvalidScale {
		t.Errorf("warnings = %+v", got.Warnings)
	}
	if len(got.Steps) != 0 {
		t.Errorf("invalid scale produced %d steps", len(got.Steps))
	}
}

func TestPlan_Errors(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		wantCode    errors.Code
	}{
		{"malformed json", "/v1/plan", "application/json", `{"copies":`, errors.ErrCodeInvalidInput},
		{"unknown field", "/v1/plan", "application/json", `{"copiez": 3}`, errors.ErrCodeInvalidInput},
		{"negative copies", "/v1/plan", "application/json", `{"copies": -1}`, errors.ErrCodeInvalidConfig},
		{"bad toml", "/v1/plan", "application/toml", `copies = [`, errors.ErrCodeInvalidConfig},
		{"bad format", "/v1/plan?format=gif", "application/json", `{}`, errors.ErrCodeInvalidFormat},
	}
	h := setupServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, h, http.MethodPost, tt.target, tt.contentType, tt.body)
			if resp.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.Code)
			}
			var got struct {
				Code    errors.Code `json:"code"`
				Message string      `json:"message"`
			}
			decodeBody(t, resp, &got)
			if got.Code != tt.wantCode || got.Message == "" {
				t.Errorf("error = %+v, want code %s", got, tt.wantCode)
			}
		})
	}
}

func TestSessions_Lifecycle(t *testing.T) {
	h := setupServer(t)

	resp := do(t, h, http.MethodPost, "/v1/sessions?name=demo", "application/json", scaleSpecJSON)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.Code, resp.Body)
	}
	var created session.Session
	decodeBody(t, resp, &created)
	if created.ID == "" || created.Name != "demo" {
		t.Fatalf("created = %+v", created)
	}

	resp = do(t, h, http.MethodGet, "/v1/sessions", "", "")
	var list struct {
		Sessions []session.Session `json:"sessions"`
	}
	decodeBody(t, resp, &list)
	if len(list.Sessions) != 1 || list.Sessions[0].ID != created.ID {
		t.Errorf("list = %+v", list.Sessions)
	}

	resp = do(t, h, http.MethodPost, "/v1/sessions/"+created.ID+"/plan", "", "")
	var plan planResponse
	decodeBody(t, resp, &plan)
	if len(plan.Steps) != 3 {
		t.Errorf("session plan has %d steps", len(plan.Steps))
	}

	resp = do(t, h, http.MethodPost, "/v1/sessions/"+created.ID+"/reset?stage=scale", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", resp.Code, resp.Body)
	}
	resp = do(t, h, http.MethodPost, "/v1/sessions/"+created.ID+"/plan", "", "")
	decodeBody(t, resp, &plan)
	if len(plan.Steps) != 0 {
		t.Errorf("plan after scale reset has %d steps, want 0", len(plan.Steps))
	}

	resp = do(t, h, http.MethodPost, "/v1/sessions/"+created.ID+"/reset?stage=shear", "", "")
	if resp.Code != http.StatusBadRequest {
		t.Errorf("bad stage status = %d", resp.Code)
	}

	resp = do(t, h, http.MethodDelete, "/v1/sessions/"+created.ID, "", "")
	if resp.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.Code)
	}
	resp = do(t, h, http.MethodGet, "/v1/sessions/"+created.ID, "", "")
	if resp.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.Code)
	}
}

func TestSessions_Disabled(t *testing.T) {
	h := New(nil, nil, nil).Handler()
	resp := do(t, h, http.MethodGet, "/v1/sessions", "", "")
	if resp.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidConfig, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeSessionNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeSampling, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWritePlan_SamplingFailure(t *testing.T) {
	res := &pipeline.Result{
		PlanKey:   "plan:abc",
		Steps:     []planner.Step{{Stage: planner.StageTranslation, Copy: 1, Transform: affine.Translation(1, 0, 0)}},
		Artifacts: map[string][]byte{pipeline.FormatDOT: []byte("digraph plan {}\n")},
	}
	planErr := errors.New(errors.ErrCodeSampling, "internal-rotation copy 1: no point accepted\nexternal-rotation copy 1: no point accepted")

	tests := []struct {
		format string
		check  func(t *testing.T, resp *httptest.ResponseRecorder)
	}{
		{pipeline.FormatJSON, func(t *testing.T, resp *httptest.ResponseRecorder) {
			var got struct {
				Steps    []planner.Step `json:"steps"`
				Failures string         `json:"failures"`
			}
			decodeBody(t, resp, &got)
			if len(got.Steps) != 1 || got.Failures == "" {
				t.Errorf("body = %s", resp.Body.String())
			}
		}},
		{pipeline.FormatDOT, func(t *testing.T, resp *httptest.ResponseRecorder) {
			if resp.Body.String() != "digraph plan {}\n" {
				t.Errorf("body = %q", resp.Body.String())
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := httptest.NewRecorder()
			writePlan(resp, tt.format, res, planErr)
			if resp.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", resp.Code)
			}
			failures := resp.Header().Get("X-Plan-Failures")
			if !strings.Contains(failures, "internal-rotation") || strings.Contains(failures, "\n") {
				t.Errorf("X-Plan-Failures = %q", failures)
			}
			tt.check(t, resp)
		})
	}
}

func TestWritePlan_OK(t *testing.T) {
	resp := httptest.NewRecorder()
	writePlan(resp, pipeline.FormatJSON, &pipeline.Result{PlanKey: "plan:abc"}, nil)
	if resp.Code != http.StatusOK || resp.Header().Get("X-Plan-Failures") != "" {
		t.Errorf("status = %d, failures header = %q", resp.Code, resp.Header().Get("X-Plan-Failures"))
	}
	if resp.Header().Get("X-Plan-Key") != "plan:abc" {
		t.Errorf("X-Plan-Key = %q", resp.Header().Get("X-Plan-Key"))
	}
}
