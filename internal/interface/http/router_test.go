package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/news-reducer/internal/domain/auth"
	"github.com/yanqian/news-reducer/internal/domain/summarizer"
	"github.com/yanqian/news-reducer/internal/infra/config"
	"github.com/yanqian/news-reducer/internal/infra/ratelimit"
	apperrors "github.com/yanqian/news-reducer/pkg/errors"
)

func TestRouter_Health(t *testing.T) {
	server := newRouterUnderTest(t, &stubSummarizer{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_SummarizeSuccess(t *testing.T) {
	resp := summarizer.Response{
		Title:     "Council",
		Summary:   "The council met.",
		Sentences: []summarizer.SelectedSentence{{Index: 0, Text: "The council met.", Score: 0.5}},
		Keywords:  []string{"council"},
		Converged: true,
	}
	svc := &stubSummarizer{
		summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
			if req.Text != "The council met." || req.Budget != 40 || req.ScoringMode != summarizer.ScoringUnit {
				return summarizer.Response{}, errors.New("unexpected request")
			}
			return resp, nil
		},
	}

	recorder := performRequest("/api/v1/summaries", `{"text":"The council met.","budget":40,"scoringMode":"unit"}`, newRouterUnderTest(t, svc, nil), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got summarizer.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, resp, got)
}

func TestRouter_SummarizeAnnotatedBindsTokens(t *testing.T) {
	var received summarizer.AnnotatedRequest
	svc := &stubSummarizer{
		annotatedFn: func(ctx context.Context, req summarizer.AnnotatedRequest) (summarizer.Response, error) {
			received = req
			return summarizer.Response{Summary: "ok"}, nil
		},
	}
	body := `{"title":"T","sentences":[{"text":"Cats sleep.","tokens":[
		{"text":"Cats","lemma":"cat","pos":"NOUN"},
		{"text":"sleep","lemma":"sleep","pos":"VERB"},
		{"text":".","lemma":".","pos":"PUNCT","isPunct":true}
	]}]}`

	recorder := performRequest("/api/v1/summaries/annotated", body, newRouterUnderTest(t, svc, nil), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "T", received.Title)
	require.Len(t, received.Sentences, 1)
	require.Len(t, received.Sentences[0].Tokens, 3)
	require.True(t, received.Sentences[0].Tokens[2].IsPunct)
	require.Equal(t, "cat", received.Sentences[0].Tokens[0].Lemma)
}

func TestRouter_SummarizeInvalidJSON(t *testing.T) {
	recorder := performRequest("/api/v1/summaries", `{"text":123}`, newRouterUnderTest(t, &stubSummarizer{}, nil), nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_ServiceErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid input", err: apperrors.Wrap("invalid_input", "budget cannot be negative", nil), wantStatus: http.StatusBadRequest, wantCode: "invalid_input"},
		{name: "annotator unavailable", err: apperrors.Wrap("annotator_unavailable", "not configured", nil), wantStatus: http.StatusServiceUnavailable, wantCode: "annotator_unavailable"},
		{name: "annotator not configured", err: apperrors.Wrap("annotator_not_configured", "submit pre-annotated sentences instead", nil), wantStatus: http.StatusNotImplemented, wantCode: "annotator_not_configured"},
		{name: "annotator error", err: apperrors.Wrap("annotator_error", "annotation failed", errors.New("boom")), wantStatus: http.StatusBadGateway, wantCode: "annotator_error"},
		{name: "timeout", err: apperrors.Wrap("timeout", "summarization timed out", context.DeadlineExceeded), wantStatus: http.StatusGatewayTimeout, wantCode: "timeout"},
		{name: "unknown", err: errors.New("unexpected"), wantStatus: http.StatusInternalServerError, wantCode: "summarize_failed"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubSummarizer{
				summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
					return summarizer.Response{}, tt.err
				},
			}
			recorder := performRequest("/api/v1/summaries", `{"text":"x"}`, newRouterUnderTest(t, svc, nil), nil)
			require.Equal(t, tt.wantStatus, recorder.Code)
			require.Equal(t, tt.wantCode, decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
		})
	}
}

func TestRouter_RetriesUpstreamFailures(t *testing.T) {
	calls := 0
	svc := &stubSummarizer{
		summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
			calls++
			if calls < 3 {
				return summarizer.Response{}, apperrors.Wrap("annotator_error", "annotation failed", nil)
			}
			return summarizer.Response{Summary: "third time"}, nil
		},
	}
	cfg := testConfig()
	cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}

	recorder := performRequest("/api/v1/summaries", `{"text":"x"}`, NewRouter(cfg, NewHandler(svc, newTestLogger()), nil, nil, newTestLogger()), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, 3, calls)
}

func TestRouter_DoesNotRetryPipelineFailures(t *testing.T) {
	calls := 0
	svc := &stubSummarizer{
		summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
			calls++
			return summarizer.Response{}, errors.New("unexpected")
		},
	}
	cfg := testConfig()
	cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}

	recorder := performRequest("/api/v1/summaries", `{"text":"x"}`, NewRouter(cfg, NewHandler(svc, newTestLogger()), nil, nil, newTestLogger()), nil)
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	require.Equal(t, 1, calls)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := NewRouter(cfg, NewHandler(&stubSummarizer{}, newTestLogger()), nil, ratelimit.NewMemoryLimiter(1, 1), newTestLogger())

	first := performRequest("/api/v1/summaries", `{"text":"x"}`, server, nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := performRequest("/api/v1/summaries", `{"text":"x"}`, server, nil)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, second.Body.Bytes())["error"]["code"])
}

func TestRouter_RetryIsNotChargedAgainstRateLimit(t *testing.T) {
	calls := 0
	svc := &stubSummarizer{
		summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
			calls++
			if calls == 1 {
				return summarizer.Response{}, apperrors.Wrap("annotator_error", "annotation failed", nil)
			}
			return summarizer.Response{Summary: "second time"}, nil
		},
	}
	cfg := testConfig()
	cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := NewRouter(cfg, NewHandler(svc, newTestLogger()), nil, ratelimit.NewMemoryLimiter(1, 1), newTestLogger())

	recorder := performRequest("/api/v1/summaries", `{"text":"x"}`, server, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, 2, calls)

	next := performRequest("/api/v1/summaries", `{"text":"x"}`, server, nil)
	require.Equal(t, http.StatusTooManyRequests, next.Code)
}

func TestRouter_DoesNotRetryMissingAnnotator(t *testing.T) {
	calls := 0
	svc := &stubSummarizer{
		summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
			calls++
			return summarizer.Response{}, apperrors.Wrap("annotator_not_configured", "submit pre-annotated sentences instead", nil)
		},
	}
	cfg := testConfig()
	cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}

	recorder := performRequest("/api/v1/summaries", `{"text":"x"}`, NewRouter(cfg, NewHandler(svc, newTestLogger()), nil, nil, newTestLogger()), nil)
	require.Equal(t, http.StatusNotImplemented, recorder.Code)
	require.Equal(t, 1, calls)
}

func TestRouter_SummarizeAnnotatedAcceptsSnakeCaseFlags(t *testing.T) {
	var received summarizer.AnnotatedRequest
	svc := &stubSummarizer{
		annotatedFn: func(ctx context.Context, req summarizer.AnnotatedRequest) (summarizer.Response, error) {
			received = req
			return summarizer.Response{Summary: "ok"}, nil
		},
	}
	body := `{"sentences":[{"text":"The cat.","tokens":[
		{"text":"The","lemma":"the","pos":"DET","is_stop":true},
		{"text":"cat","lemma":"cat","pos":"NOUN"},
		{"text":".","lemma":".","pos":"PUNCT","is_punct":true}
	]}]}`

	recorder := performRequest("/api/v1/summaries/annotated", body, newRouterUnderTest(t, svc, nil), nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, received.Sentences, 1)
	tokens := received.Sentences[0].Tokens
	require.Len(t, tokens, 3)
	require.True(t, tokens[0].IsStop)
	require.False(t, tokens[1].IsStop)
	require.True(t, tokens[2].IsPunct)
}

func TestRouter_RateLimiterFailureAllowsRequest(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := NewRouter(cfg, NewHandler(&stubSummarizer{}, newTestLogger()), nil, failingLimiter{}, newTestLogger())

	recorder := performRequest("/api/v1/summaries", `{"text":"x"}`, server, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_Auth(t *testing.T) {
	authSvc := auth.NewService(auth.Config{Secret: "router-secret", Issuer: "news-reducer", TokenTTL: time.Hour}, newTestLogger())
	token, err := authSvc.IssueToken(context.Background(), "newsroom")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, Secret: "router-secret"}
	server := NewRouter(cfg, NewHandler(&stubSummarizer{}, newTestLogger()), authSvc, nil, newTestLogger())

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer not-a-token", wantStatus: http.StatusForbidden},
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			recorder := performRequest("/api/v1/summaries", `{"text":"x"}`, server, headers)
			require.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantStatus != http.StatusOK {
				require.Equal(t, "invalid_token", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
			}
		})
	}

	health := httptest.NewRecorder()
	server.Handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, health.Code)
}

func TestRouter_RequestIDPropagates(t *testing.T) {
	recorder := performRequest("/api/v1/summaries", `{"text":"x"}`, newRouterUnderTest(t, &stubSummarizer{}, nil), map[string]string{"X-Request-ID": "req-123"})
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "req-123", recorder.Header().Get("X-Request-ID"))
}

func TestRouter_BodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.MaxBodyBytes = 16
	server := NewRouter(cfg, NewHandler(&stubSummarizer{}, newTestLogger()), nil, nil, newTestLogger())

	recorder := performRequest("/api/v1/summaries", `{"text":"this body is far too long"}`, server, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, recorder.Code)
	require.Equal(t, "payload_too_large", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_CORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{name: "preflight from allowed origin", allowed: []string{"https://desk.example"}, method: http.MethodOptions, origin: "https://desk.example", wantStatus: http.StatusNoContent, wantOrigin: "https://desk.example"},
		{name: "origin match ignores case", allowed: []string{"https://Desk.example"}, method: http.MethodOptions, origin: "https://desk.example", wantStatus: http.StatusNoContent, wantOrigin: "https://desk.example"},
		{name: "unknown origin gets no allow header", allowed: []string{"https://desk.example"}, method: http.MethodOptions, origin: "https://evil.example", wantStatus: http.StatusNoContent, wantOrigin: ""},
		{name: "wildcard", allowed: []string{"*"}, method: http.MethodGet, origin: "https://any.example", wantStatus: http.StatusOK, wantOrigin: "*"},
		{name: "empty list allows any", allowed: nil, method: http.MethodGet, origin: "https://any.example", wantStatus: http.StatusOK, wantOrigin: "*"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			cfg.HTTP.AllowedOrigins = tt.allowed
			server := NewRouter(cfg, NewHandler(&stubSummarizer{}, newTestLogger()), nil, nil, newTestLogger())

			path := "/api/v1/summaries"
			if tt.method == http.MethodGet {
				path = "/healthz"
			}
			req := httptest.NewRequest(tt.method, path, nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			require.Equal(t, "X-Request-ID", rec.Header().Get("Access-Control-Expose-Headers"))
			if tt.method == http.MethodOptions {
				require.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

func performRequest(path, body string, server *http.Server, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
}

func newRouterUnderTest(t *testing.T, svc summarizer.Service, limiter ratelimit.Limiter) *http.Server {
	t.Helper()
	return NewRouter(testConfig(), NewHandler(svc, newTestLogger()), nil, limiter, newTestLogger())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubSummarizer struct {
	summarizeFn func(ctx context.Context, req summarizer.Request) (summarizer.Response, error)
	annotatedFn func(ctx context.Context, req summarizer.AnnotatedRequest) (summarizer.Response, error)
}

func (s *stubSummarizer) Summarize(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
	if s.summarizeFn != nil {
		return s.summarizeFn(ctx, req)
	}
	return summarizer.Response{}, nil
}

func (s *stubSummarizer) SummarizeAnnotated(ctx context.Context, req summarizer.AnnotatedRequest) (summarizer.Response, error) {
	if s.annotatedFn != nil {
		return s.annotatedFn(ctx, req)
	}
	return summarizer.Response{}, nil
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("valkey down")
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
