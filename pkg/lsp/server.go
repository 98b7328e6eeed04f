// Package lsp provides a Language Server Protocol server that reports React class
// components missing a static displayName and offers the insertion as a quick fix.
package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/displayname/pkg/displayname"
	"github.com/Sumatoshi-tech/displayname/pkg/jsparse"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
	"github.com/Sumatoshi-tech/displayname/pkg/pipeline"
	"github.com/Sumatoshi-tech/displayname/pkg/version"
)

const (
	serverName = "displayname"

	// DiagnosticCode marks diagnostics this server publishes.
	DiagnosticCode = "missing-display-name"

	methodPublishDiagnostics = "textDocument/publishDiagnostics"
)

// CodeActionKindFixAll is the source action applying every insertion in a document.
const CodeActionKindFixAll = protocol.CodeActionKind("source.fixAll.displayname")

// languageExtensions maps LSP language ids to an extension the parser understands,
// for documents whose URI carries none.
var languageExtensions = map[string]string{
	"javascript":      ".js",
	"javascriptreact": ".jsx",
	"typescript":      ".ts",
	"typescriptreact": ".tsx",
}

// Server implements the displayName language server.
type Server struct {
	store     *DocumentStore
	processor *pipeline.Processor
	handler   protocol.Handler
	logger    *slog.Logger
	red       *observability.REDMetrics
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. It must not write to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		if logger != nil {
			srv.logger = logger
		}
	}
}

// WithMetrics records RED metrics for diagnostics and code action requests.
func WithMetrics(red *observability.REDMetrics) Option {
	return func(srv *Server) {
		srv.red = red
	}
}

// WithProcessor replaces the default processor, e.g. to select the quote style.
func WithProcessor(p *pipeline.Processor) Option {
	return func(srv *Server) {
		if p != nil {
			srv.processor = p
		}
	}
}

// NewServer creates a language server with default handlers.
func NewServer(opts ...Option) *Server {
	srv := &Server{
		store:     NewDocumentStore(),
		processor: pipeline.NewProcessor(),
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.handler = protocol.Handler{
		Initialize:             srv.initialize,
		Initialized:            srv.initialized,
		Shutdown:               srv.shutdown,
		SetTrace:               srv.setTrace,
		TextDocumentDidOpen:    srv.didOpen,
		TextDocumentDidChange:  srv.didChange,
		TextDocumentDidSave:    srv.didSave,
		TextDocumentDidClose:   srv.didClose,
		TextDocumentCodeAction: srv.codeAction,
	}

	return srv
}

// Run serves the protocol on stdio until the client disconnects.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()

	if sync, ok := capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions); ok {
		full := protocol.TextDocumentSyncKindFull
		sync.Change = &full
	}

	capabilities.CodeActionProvider = protocol.CodeActionOptions{
		CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix, CodeActionKindFixAll},
	}

	ver := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument

	srv.store.Open(item.URI, item.LanguageID, item.Text, item.Version)
	srv.publishDiagnostics(ctx, item.URI)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	doc, _ := srv.store.Get(uri)
	text := doc.text

	for _, change := range params.ContentChanges {
		switch ch := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = ch.Text
		case protocol.TextDocumentContentChangeEvent:
			if ch.Range == nil {
				text = ch.Text

				continue
			}

			start, end := offsetAt(text, ch.Range.Start), offsetAt(text, ch.Range.End)
			text = text[:start] + ch.Text + text[max(start, end):]
		}
	}

	srv.store.Update(uri, text, params.TextDocument.Version)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if params.Text != nil {
		doc, _ := srv.store.Get(uri)
		srv.store.Update(uri, *params.Text, doc.version)
	}

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)

	ctx.Notify(methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

// analysis is the transform result for one document revision.
type analysis struct {
	text   string
	result *pipeline.Result
}

func (srv *Server) analyze(uri string) (*analysis, bool) {
	doc, ok := srv.store.Get(uri)
	if !ok {
		return nil, false
	}

	name := documentName(uri, doc.languageID)
	if name == "" {
		return nil, false
	}

	ctx := context.Background()

	prog := doc.program
	if prog == nil {
		var err error

		prog, err = srv.processor.Parse(ctx, name, []byte(doc.text))
		if err != nil {
			srv.logger.Debug("document not analyzed", "lsp.uri", uri, "error", err)

			return nil, false
		}

		srv.store.SetProgram(uri, doc.text, prog)
	}

	res, err := srv.processor.ProcessProgram(ctx, name, prog.Clone())
	if err != nil {
		srv.logger.Debug("document not analyzed", "lsp.uri", uri, "error", err)

		return nil, false
	}

	return &analysis{text: doc.text, result: res}, true
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	start := time.Now()
	done := srv.red.TrackInflight(context.Background(), "lsp.diagnostics")

	defer done()

	diagnostics := []protocol.Diagnostic{}

	if an, ok := srv.analyze(uri); ok {
		for _, d := range an.result.Diagnostics {
			if d.Outcome == displayname.OutcomeInjected {
				diagnostics = append(diagnostics, toDiagnostic(an.text, d))
			}
		}
	}

	ctx.Notify(methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})

	srv.red.RecordRequest(context.Background(), "lsp.diagnostics", observability.StatusOK, time.Since(start))
}

func toDiagnostic(text string, d displayname.Diagnostic) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityInformation
	source := serverName

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: positionAt(text, d.Span.Start),
			End:   positionAt(text, lineEnd(text, d.Span.Start)),
		},
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: DiagnosticCode},
		Source:   &source,
		Message:  fmt.Sprintf("class %s has a render method but no static displayName", d.Class),
		Data:     d.Class,
	}
}

// documentName returns a file name the parser can classify, or "" when the document
// is not JavaScript or TypeScript.
func documentName(uri, languageID string) string {
	name := uri

	if parsed, err := url.Parse(uri); err == nil {
		switch {
		case parsed.Path != "":
			name = filepath.FromSlash(parsed.Path)
		case parsed.Opaque != "":
			name = parsed.Opaque
		}
	}

	if jsparse.DetectLanguage(name, nil) != "" {
		return name
	}

	if ext, ok := languageExtensions[languageID]; ok {
		return name + ext
	}

	return ""
}
