package commands

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/displayname/internal/mcp"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
	"github.com/Sumatoshi-tech/displayname/pkg/printer"
)

func newTestHandler(t *testing.T, metricsHandler http.Handler) http.Handler {
	t.Helper()

	red, err := observability.NewREDMetrics(metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	api := newTransformAPI(printer.QuoteDouble, slog.New(slog.DiscardHandler))

	return newServeMux(api, noop.NewTracerProvider().Tracer("test"), red, metricsHandler)
}

func postTransform(t *testing.T, handler http.Handler, body any) (*httptest.ResponseRecorder, TransformResponse) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/transform", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp TransformResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return rec, resp
}

func TestServeTransform(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, nil)

	rec, resp := postTransform(t, handler, TransformRequest{Code: componentSrc})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, componentOut, resp.Code)
	assert.True(t, resp.Changed)
	assert.Equal(t, []ClassReport{{Line: 1, Class: "App", Outcome: "injected"}}, resp.Classes)
	assert.Empty(t, resp.Error)
}

func TestServeTransformOptions(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, nil)

	src := "class Card extends React.Component<Props> {\n  render() {\n    return <div />;\n  }\n}\n"

	rec, resp := postTransform(t, handler, TransformRequest{Code: src, Filename: "Card.tsx", Quote: "single"})
	require.Equal(t, http.StatusOK, rec.Code, resp.Error)
	assert.Contains(t, resp.Code, "static displayName = 'Card';")

	rec, resp = postTransform(t, handler, TransformRequest{Code: "class Store {}\n", Language: "ts"})
	require.Equal(t, http.StatusOK, rec.Code, resp.Error)
	assert.False(t, resp.Changed)
	assert.Equal(t, "not-component", resp.Classes[0].Outcome)
}

func TestServeTransformErrors(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, nil)

	tests := []struct {
		name   string
		req    TransformRequest
		status int
		errMsg string
	}{
		{name: "empty_code", req: TransformRequest{}, status: http.StatusBadRequest, errMsg: mcp.ErrEmptyCode.Error()},
		{
			name:   "too_large",
			req:    TransformRequest{Code: strings.Repeat("x", mcp.MaxCodeInputBytes+1)},
			status: http.StatusRequestEntityTooLarge,
			errMsg: mcp.ErrCodeTooLarge.Error(),
		},
		{
			name:   "unsupported_file",
			req:    TransformRequest{Code: componentSrc, Filename: "main.go"},
			status: http.StatusBadRequest,
			errMsg: "unsupported language",
		},
		{
			name:   "bad_quote",
			req:    TransformRequest{Code: componentSrc, Quote: "backtick"},
			status: http.StatusBadRequest,
			errMsg: mcp.ErrInvalidQuote.Error(),
		},
		{
			name:   "syntax_error",
			req:    TransformRequest{Code: "class App {"},
			status: http.StatusUnprocessableEntity,
			errMsg: "syntax error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, resp := postTransform(t, handler, tt.req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, resp.Error, tt.errMsg)
			assert.Equal(t, tt.req.Code, resp.Code)
			assert.NotNil(t, resp.Classes)
		})
	}
}

func TestServeTransformBadBody(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/transform", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request body")

	req = httptest.NewRequest(http.MethodGet, "/api/transform", http.NoBody)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServeTransformBodyLimit(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, nil)

	body := `{"code":"` + strings.Repeat("x", maxRequestBytes) + `"}`

	req := httptest.NewRequest(http.MethodPost, "/api/transform", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServeProbes(t *testing.T) {
	t.Parallel()

	metrics := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("# metrics\n"))
	})

	handler := newTestHandler(t, metrics)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	newTestHandler(t, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransformAPIReady(t *testing.T) {
	t.Parallel()

	api := newTransformAPI("", slog.New(slog.DiscardHandler))

	assert.Equal(t, printer.QuoteDouble, api.quote)
	require.NoError(t, api.ready(context.Background()))
}
