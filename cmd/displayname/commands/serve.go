package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/displayname/internal/mcp"
	"github.com/Sumatoshi-tech/displayname/pkg/jsparse"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
	"github.com/Sumatoshi-tech/displayname/pkg/pipeline"
	"github.com/Sumatoshi-tech/displayname/pkg/printer"
)

const (
	serverIdleTimeout     = 120 * time.Second
	serverShutdownTimeout = 10 * time.Second

	// maxRequestBytes bounds the JSON envelope; the code inside it is bounded by
	// mcp.MaxCodeInputBytes.
	maxRequestBytes = 2 * mcp.MaxCodeInputBytes
)

// TransformRequest is the body of POST /api/transform.
type TransformRequest struct {
	Code     string `json:"code"`
	Filename string `json:"filename,omitempty"`
	Language string `json:"language,omitempty"`
	Quote    string `json:"quote,omitempty"`
}

// TransformResponse is the reply of POST /api/transform.
type TransformResponse struct {
	Code    string        `json:"code"`
	Changed bool          `json:"changed"`
	Classes []ClassReport `json:"classes"`
	Error   string        `json:"error,omitempty"`
}

// NewServeCommand creates the HTTP API command.
func NewServeCommand(global *GlobalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve the transform over HTTP.

Endpoints:
  POST /api/transform  {"code": "...", "filename": "App.tsx"} -> {"code", "changed", "classes"}
  GET  /healthz        liveness
  GET  /readyz         readiness (parses a probe source)
  GET  /metrics        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := global.setup(observability.ModeServe, true)
			if err != nil {
				return err
			}
			defer env.close()

			if cmd.Flags().Changed("addr") {
				env.cfg.Server.Addr = addr
			}

			return serve(cmd.Context(), env)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.addr)")

	return cmd
}

func serve(ctx context.Context, env *runtimeEnv) error {
	if ctx == nil {
		ctx = context.Background()
	}

	red, err := observability.NewREDMetrics(env.providers.Meter)
	if err != nil {
		return err
	}

	api := newTransformAPI(env.quote(), env.logger)

	server := &http.Server{
		Addr:         env.cfg.Server.Addr,
		Handler:      newServeMux(api, env.providers.Tracer, red, env.providers.MetricsHandler),
		ReadTimeout:  env.cfg.Server.ReadTimeout,
		WriteTimeout: env.cfg.Server.WriteTimeout,
		IdleTimeout:  serverIdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		env.logger.Info("http server starting", "http.addr", server.Addr)

		errCh <- server.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	env.logger.Info("http server stopping")

	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}

// newServeMux routes the API and probes, all wrapped in tracing and RED middleware.
// metricsHandler may be nil.
func newServeMux(
	api *transformAPI, tracer trace.Tracer, red *observability.REDMetrics, metricsHandler http.Handler,
) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/transform", api.handleTransform)
	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(api.ready))

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return observability.HTTPMiddleware(tracer, red, mux)
}

// transformAPI serves the transform endpoint.
type transformAPI struct {
	processors map[printer.Quote]*pipeline.Processor
	quote      printer.Quote
	logger     *slog.Logger
}

func newTransformAPI(quote printer.Quote, logger *slog.Logger) *transformAPI {
	if quote != printer.QuoteSingle {
		quote = printer.QuoteDouble
	}

	return &transformAPI{
		processors: map[printer.Quote]*pipeline.Processor{
			printer.QuoteDouble: pipeline.NewProcessor(pipeline.WithQuote(printer.QuoteDouble), pipeline.WithLogger(logger)),
			printer.QuoteSingle: pipeline.NewProcessor(pipeline.WithQuote(printer.QuoteSingle), pipeline.WithLogger(logger)),
		},
		quote:  quote,
		logger: logger,
	}
}

// readyProbe is parsed by the readiness check.
const readyProbe = "class Probe { render() {} }\n"

func (api *transformAPI) ready(ctx context.Context) error {
	_, err := api.processors[api.quote].Inspect(ctx, jsparse.DefaultSourceName, []byte(readyProbe))

	return err
}

func (api *transformAPI) handleTransform(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	data, err := io.ReadAll(http.MaxBytesReader(rw, req.Body, maxRequestBytes))
	if err != nil {
		status := http.StatusBadRequest

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}

		api.writeError(ctx, rw, status, fmt.Errorf("read request body: %w", err))

		return
	}

	var body TransformRequest

	if err = json.Unmarshal(data, &body); err != nil {
		api.writeError(ctx, rw, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))

		return
	}

	status, resp := api.transform(ctx, body)
	api.writeJSON(ctx, rw, status, resp)
}

func (api *transformAPI) transform(ctx context.Context, body TransformRequest) (int, TransformResponse) {
	fail := func(status int, err error) (int, TransformResponse) {
		return status, TransformResponse{Code: body.Code, Classes: []ClassReport{}, Error: err.Error()}
	}

	switch {
	case body.Code == "":
		return fail(http.StatusBadRequest, mcp.ErrEmptyCode)
	case len(body.Code) > mcp.MaxCodeInputBytes:
		return fail(http.StatusRequestEntityTooLarge, mcp.ErrCodeTooLarge)
	}

	quote := api.quote

	switch printer.Quote(body.Quote) {
	case "":
	case printer.QuoteDouble, printer.QuoteSingle:
		quote = printer.Quote(body.Quote)
	default:
		return fail(http.StatusBadRequest, fmt.Errorf("%w: %q", mcp.ErrInvalidQuote, body.Quote))
	}

	src := []byte(body.Code)

	name, err := jsparse.ResolveName(body.Filename, body.Language, src)
	if err != nil {
		return fail(http.StatusBadRequest, err)
	}

	res, err := api.processors[quote].ProcessSource(ctx, name, src)
	if err != nil {
		if errors.Is(err, jsparse.ErrSyntax) {
			return fail(http.StatusUnprocessableEntity, err)
		}

		return fail(http.StatusInternalServerError, err)
	}

	classes := make([]ClassReport, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		classes = append(classes, ClassReport{Line: d.Span.Line(src), Class: d.Class, Outcome: string(d.Outcome)})
	}

	return http.StatusOK, TransformResponse{Code: string(res.Output), Changed: res.Changed, Classes: classes}
}

func (api *transformAPI) writeError(ctx context.Context, rw http.ResponseWriter, status int, err error) {
	api.writeJSON(ctx, rw, status, TransformResponse{Classes: []ClassReport{}, Error: err.Error()})
}

func (api *transformAPI) writeJSON(ctx context.Context, rw http.ResponseWriter, status int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		api.logger.ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}
