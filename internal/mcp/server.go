// Package mcp implements a Model Context Protocol server exposing the displayName
// transform as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/displayname/pkg/observability"
	"github.com/Sumatoshi-tech/displayname/pkg/pipeline"
	"github.com/Sumatoshi-tech/displayname/pkg/printer"
	"github.com/Sumatoshi-tech/displayname/pkg/version"
)

const (
	serverName = "displayname"
	toolCount  = 2

	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil discards SDK and class logs.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer

	// Quote is the default quote style; tool input may override it.
	Quote printer.Quote
}

// Server wraps the MCP SDK server with the displayName tool registrations.
type Server struct {
	inner      *mcpsdk.Server
	mu         sync.RWMutex
	tools      []string
	metrics    *observability.REDMetrics
	tracer     trace.Tracer
	processors map[printer.Quote]*pipeline.Processor
	quote      printer.Quote
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		opts,
	)

	quote := printer.QuoteDouble
	if deps.Quote == printer.QuoteSingle {
		quote = printer.QuoteSingle
	}

	srv := &Server{
		inner:   inner,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		quote:   quote,
		processors: map[printer.Quote]*pipeline.Processor{
			printer.QuoteDouble: pipeline.NewProcessor(pipeline.WithQuote(printer.QuoteDouble), pipeline.WithLogger(deps.Logger)),
			printer.QuoteSingle: pipeline.NewProcessor(pipeline.WithQuote(printer.QuoteSingle), pipeline.WithLogger(deps.Logger)),
		},
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameTransform,
		Description: transformToolDescription,
	}, withMetrics(s.metrics, ToolNameTransform, withTracing(s.tracer, ToolNameTransform, s.handleTransform)))

	s.trackTool(ToolNameTransform)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameInspect,
		Description: inspectToolDescription,
	}, withMetrics(s.metrics, ToolNameInspect, withTracing(s.tracer, ToolNameInspect, s.handleInspect)))

	s.trackTool(ToolNameInspect)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// withTracing wraps a tool handler in a span per invocation and appends the trace id
// to the response content when the span is sampled.
func withTracing[In, Out any](
	tracer trace.Tracer,
	toolName string,
	handler mcpsdk.ToolHandlerFor[In, Out],
) mcpsdk.ToolHandlerFor[In, Out] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, Out, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		if err != nil || (result != nil && result.IsError) {
			span.SetStatus(codes.Error, "tool error")
		}

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content,
				&mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())})
		}

		return result, output, err
	}
}

// withMetrics wraps a tool handler to record RED metrics per invocation.
func withMetrics[In, Out any](
	metrics *observability.REDMetrics,
	toolName string,
	handler mcpsdk.ToolHandlerFor[In, Out],
) mcpsdk.ToolHandlerFor[In, Out] {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, Out, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, mcpSpanPrefix+toolName)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, mcpSpanPrefix+toolName, status, time.Since(start))

		return result, output, err
	}
}

// Tool descriptions.
const (
	transformToolDescription = "Add a static displayName property to React class components " +
		"(classes with a render method and no displayName). Accepts inline JavaScript, " +
		"TypeScript or TSX code and returns the rewritten code with one outcome per class."

	inspectToolDescription = "Report, without rewriting, which classes in inline JavaScript, " +
		"TypeScript or TSX code would receive a static displayName and why the others would not."
)
