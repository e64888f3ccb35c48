package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cushionflow/internal/config"
	"cushionflow/internal/cushion"
	"cushionflow/internal/pipeline"
)

type stubPipeline struct {
	result cushion.Result
	err    error
	input  cushion.RawInput
	calls  int
}

func (s *stubPipeline) Run(_ context.Context, in cushion.RawInput) (pipeline.RunResult, error) {
	s.calls++
	s.input = in
	if s.err != nil {
		return pipeline.RunResult{}, s.err
	}
	return pipeline.RunResult{Result: s.result}, nil
}

type stubChecker struct{ err error }

func (s stubChecker) CheckModel(context.Context) error { return s.err }
func (s stubChecker) Model() string                    { return "gemini-2.5-flash" }

type recordingMetrics struct {
	outcomes []string
}

func (m *recordingMetrics) ObserveHTTP(string, string, int, time.Duration) {}

func (m *recordingMetrics) ObserveTransformation(outcome string, _ int) {
	m.outcomes = append(m.outcomes, outcome)
}

func newTestHandler(t *testing.T, deps Dependencies) http.Handler {
	t.Helper()
	cfg := config.Config{MaxBodyBytes: 1024}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, logger, deps)
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, w.Body.String())
	}
	return body.Error
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, Dependencies{Pipeline: &stubPipeline{}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id header")
	}
}

func TestCushionSuccessShape(t *testing.T) {
	p := &stubPipeline{result: cushion.Result{
		Score:      85,
		Suggestion: "혹시 진행 상황을 여쭤봐도 될까요?",
		Insights:   []string{"INFP 성향을 고려했습니다."},
	}}
	metrics := &recordingMetrics{}
	h := newTestHandler(t, Dependencies{Pipeline: p, Metrics: metrics})

	w := postJSON(h, "/api/cushion", `{"originalMessage":"왜 아직 안 하셨나요?","recipientStyle":"INFP","situationContext":"휴가 중 보고"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["score"] != float64(85) || got["suggestion"] != "혹시 진행 상황을 여쭤봐도 될까요?" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	translation, present := got["koreanTranslation"]
	if !present || translation != nil {
		t.Fatalf("koreanTranslation must be null, body=%s", w.Body.String())
	}
	if p.input.OriginalMessage != "왜 아직 안 하셨나요?" || p.input.RecipientStyle != "INFP" {
		t.Fatalf("unexpected pipeline input: %+v", p.input)
	}
	if len(metrics.outcomes) != 1 || metrics.outcomes[0] != "ok" {
		t.Fatalf("unexpected outcomes: %v", metrics.outcomes)
	}
}

func TestCushionAliasAndLegacyFieldNames(t *testing.T) {
	p := &stubPipeline{result: cushion.Result{Score: 10, Suggestion: "s", Insights: []string{"i"}}}
	h := newTestHandler(t, Dependencies{Pipeline: p})

	w := postJSON(h, "/v1/cushion", `{"originalMessage":"hi","mbti":"ESTJ","context":"긴급 요청"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	if p.input.RecipientStyle != "ESTJ" || p.input.SituationContext != "긴급 요청" {
		t.Fatalf("legacy fields not mapped: %+v", p.input)
	}
}

func TestCushionRejectsMalformedBodies(t *testing.T) {
	cases := map[string]string{
		"not json":      `hello`,
		"unknown field": `{"originalMessage":"hi","tone":"soft"}`,
		"two values":    `{"originalMessage":"hi"}{"originalMessage":"again"}`,
	}
	for name, body := range cases {
		p := &stubPipeline{}
		h := newTestHandler(t, Dependencies{Pipeline: p})
		w := postJSON(h, "/api/cushion", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: unexpected status %d", name, w.Code)
		}
		if p.calls != 0 {
			t.Fatalf("%s: pipeline must not run", name)
		}
	}
}

func TestCushionBodyTooLarge(t *testing.T) {
	h := newTestHandler(t, Dependencies{Pipeline: &stubPipeline{}})

	body := `{"originalMessage":"hi","imageBase64":"` + strings.Repeat("A", 2048) + `","imageMimeType":"image/png"}`
	w := postJSON(h, "/api/cushion", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("unexpected status: %d", w.Code)
	}
}

func TestCushionMapsErrorKinds(t *testing.T) {
	secret := errors.New("dial tcp 10.0.0.1:443: connection refused")
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"empty input", cushion.ValidationError(cushion.ReasonEmptyInput, nil), http.StatusBadRequest, msgEmptyInput},
		{"malformed image", cushion.ValidationError(cushion.ReasonMalformedImage, nil), http.StatusBadRequest, msgMalformedImage},
		{"missing credential", cushion.ConfigurationError(cushion.ReasonMissingCredential), http.StatusInternalServerError, msgMissingCredential},
		{"network failure", cushion.InvocationError(cushion.ReasonProviderUnavailable, secret), http.StatusBadGateway, msgTransformFailed},
		{"prose output", cushion.ParseError(cushion.ReasonInvalidJSON, nil), http.StatusInternalServerError, msgTransformFailed},
	}

	for _, tc := range cases {
		metrics := &recordingMetrics{}
		h := newTestHandler(t, Dependencies{Pipeline: &stubPipeline{err: tc.err}, Metrics: metrics})
		w := postJSON(h, "/api/cushion", `{"originalMessage":"hi"}`)

		if w.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.name, w.Code, tc.status)
		}
		if got := decodeError(t, w); got != tc.message {
			t.Fatalf("%s: message = %q, want %q", tc.name, got, tc.message)
		}
		if strings.Contains(w.Body.String(), "10.0.0.1") {
			t.Fatalf("%s: internal detail leaked: %s", tc.name, w.Body.String())
		}
		if len(metrics.outcomes) != 1 || metrics.outcomes[0] != cushion.KindOf(tc.err).String() {
			t.Fatalf("%s: unexpected outcomes %v", tc.name, metrics.outcomes)
		}
	}
}

func TestOptionsListsEnumerations(t *testing.T) {
	h := newTestHandler(t, Dependencies{Pipeline: &stubPipeline{}})

	req := httptest.NewRequest(http.MethodGet, "/v1/options", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	var got struct {
		RecipientStyles         []string `json:"recipientStyles"`
		SituationContexts       []string `json:"situationContexts"`
		DefaultRecipientStyle   string   `json:"defaultRecipientStyle"`
		DefaultSituationContext string   `json:"defaultSituationContext"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.RecipientStyles) != 16 || len(got.SituationContexts) != 6 {
		t.Fatalf("unexpected enumerations: %+v", got)
	}
	if got.DefaultRecipientStyle != "INFP" || got.DefaultSituationContext != "휴가 중 보고" {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestReadyz(t *testing.T) {
	cases := []struct {
		name    string
		checker ModelChecker
		status  int
	}{
		{"no credential", nil, http.StatusOK},
		{"model reachable", stubChecker{}, http.StatusOK},
		{"model unreachable", stubChecker{err: errors.New("404")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		h := newTestHandler(t, Dependencies{Pipeline: &stubPipeline{}, Checker: tc.checker})
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.name, w.Code, tc.status)
		}
	}
}

func TestRequestIDEchoed(t *testing.T) {
	h := newTestHandler(t, Dependencies{Pipeline: &stubPipeline{}})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("request id not echoed: %q", w.Header().Get(requestIDHeader))
	}
}

func TestUnknownRouteAndMethodUseKoreanMessages(t *testing.T) {
	h := newTestHandler(t, Dependencies{Pipeline: &stubPipeline{}})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	if got := decodeError(t, w); got != msgNotFound {
		t.Fatalf("unexpected 404 message: %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/cushion", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	if got := decodeError(t, w); got != msgMethodNotAllowed {
		t.Fatalf("unexpected 405 message: %q", got)
	}
}

type panickingPipeline struct{}

func (panickingPipeline) Run(context.Context, cushion.RawInput) (pipeline.RunResult, error) {
	panic("boom")
}

func TestRecoverMiddlewareReturnsGenericError(t *testing.T) {
	h := newTestHandler(t, Dependencies{Pipeline: panickingPipeline{}})

	w := postJSON(h, "/api/cushion", `{"originalMessage":"hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	if got := decodeError(t, w); got != msgTransformFailed {
		t.Fatalf("unexpected message: %q", got)
	}
}
