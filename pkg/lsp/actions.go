package lsp

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/displayname/pkg/displayname"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
	"github.com/Sumatoshi-tech/displayname/pkg/printer"
)

func (srv *Server) codeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	start := time.Now()
	done := srv.red.TrackInflight(context.Background(), "lsp.codeAction")

	defer done()

	actions := srv.codeActions(params)

	srv.red.RecordRequest(context.Background(), "lsp.codeAction", observability.StatusOK, time.Since(start))

	return actions, nil
}

func (srv *Server) codeActions(params *protocol.CodeActionParams) []protocol.CodeAction {
	actions := []protocol.CodeAction{}

	uri := params.TextDocument.URI

	an, ok := srv.analyze(uri)
	if !ok || !an.result.Changed {
		return actions
	}

	injected := make([]displayname.Diagnostic, 0, len(an.result.Diagnostics))

	for _, d := range an.result.Diagnostics {
		if d.Outcome == displayname.OutcomeInjected {
			injected = append(injected, d)
		}
	}

	owners := assignEdits(an.result.Edits, injected)

	if wants(params.Context.Only, protocol.CodeActionKindQuickFix) {
		for i, d := range injected {
			diag := toDiagnostic(an.text, d)
			if !overlaps(diag.Range, params.Range) || len(owners[i]) == 0 {
				continue
			}

			kind := protocol.CodeActionKindQuickFix
			preferred := true

			actions = append(actions, protocol.CodeAction{
				Title:       fmt.Sprintf("Add static displayName to %s", d.Class),
				Kind:        &kind,
				Diagnostics: []protocol.Diagnostic{diag},
				IsPreferred: &preferred,
				Edit:        workspaceEdit(uri, an.text, owners[i]),
			})
		}
	}

	if wants(params.Context.Only, CodeActionKindFixAll) {
		kind := CodeActionKindFixAll

		actions = append(actions, protocol.CodeAction{
			Title: "Add all missing displayName properties",
			Kind:  &kind,
			Edit:  workspaceEdit(uri, an.text, an.result.Edits),
		})
	}

	return actions
}

// assignEdits gives each insertion to the innermost injected class whose span holds it.
func assignEdits(edits []printer.Edit, classes []displayname.Diagnostic) [][]printer.Edit {
	owners := make([][]printer.Edit, len(classes))

	for _, e := range edits {
		best := -1

		for i, d := range classes {
			if e.Offset < d.Span.Start || e.Offset > d.Span.End {
				continue
			}

			if best < 0 || d.Span.Len() < classes[best].Span.Len() {
				best = i
			}
		}

		if best >= 0 {
			owners[best] = append(owners[best], e)
		}
	}

	return owners
}

func workspaceEdit(uri, text string, edits []printer.Edit) *protocol.WorkspaceEdit {
	textEdits := make([]protocol.TextEdit, 0, len(edits))

	for _, e := range edits {
		pos := positionAt(text, e.Offset)

		textEdits = append(textEdits, protocol.TextEdit{
			Range:   protocol.Range{Start: pos, End: pos},
			NewText: e.Text,
		})
	}

	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: textEdits},
	}
}

// wants reports whether a client filter admits kind; an empty filter admits all. A
// filter entry also admits its sub-kinds ("source" admits "source.fixAll").
func wants(only []protocol.CodeActionKind, kind protocol.CodeActionKind) bool {
	if len(only) == 0 {
		return true
	}

	return slices.ContainsFunc(only, func(k protocol.CodeActionKind) bool {
		return k == kind || (len(kind) > len(k) && kind[:len(k)] == k && kind[len(k)] == '.')
	})
}

func overlaps(a, b protocol.Range) bool {
	return !before(a.End, b.Start) && !before(b.End, a.Start)
}

func before(p, q protocol.Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Character < q.Character)
}
