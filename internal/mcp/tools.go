package mcp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/displayname/pkg/displayname"
	"github.com/Sumatoshi-tech/displayname/pkg/jsparse"
	"github.com/Sumatoshi-tech/displayname/pkg/printer"
)

// Tool names.
const (
	ToolNameTransform = "displayname_transform"
	ToolNameInspect   = "displayname_inspect"
)

// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MiB).
const MaxCodeInputBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrInvalidQuote indicates an unknown quote style.
	ErrInvalidQuote = errors.New("quote must be double or single")
)

// TransformInput is the input schema for the displayname_transform tool.
type TransformInput struct {
	Code     string `json:"code"               jsonschema:"JavaScript, TypeScript or TSX source code"`
	Filename string `json:"filename,omitempty" jsonschema:"optional file name used to pick the grammar (e.g. App.tsx)"`
	Language string `json:"language,omitempty" jsonschema:"optional language when no filename is given: javascript, typescript or tsx"`
	Quote    string `json:"quote,omitempty"    jsonschema:"quote style of the inserted string: double (default) or single"`
}

// InspectInput is the input schema for the displayname_inspect tool.
type InspectInput struct {
	Code     string `json:"code"               jsonschema:"JavaScript, TypeScript or TSX source code"`
	Filename string `json:"filename,omitempty" jsonschema:"optional file name used to pick the grammar (e.g. App.tsx)"`
	Language string `json:"language,omitempty" jsonschema:"optional language when no filename is given: javascript, typescript or tsx"`
}

// ClassOutcome is the decision taken for one class.
type ClassOutcome struct {
	Class   string `json:"class,omitempty"`
	Outcome string `json:"outcome"`
	Line    int    `json:"line"`
}

// TransformOutput is the structured result of displayname_transform.
type TransformOutput struct {
	Code     string         `json:"code"`
	Changed  bool           `json:"changed"`
	Language string         `json:"language,omitempty"`
	Classes  []ClassOutcome `json:"classes,omitempty"`
}

// InspectOutput is the structured result of displayname_inspect.
type InspectOutput struct {
	Language string         `json:"language,omitempty"`
	Classes  []ClassOutcome `json:"classes,omitempty"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult[Out any](err error) (*mcpsdk.CallToolResult, Out, error) {
	var zero Out

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, zero, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult[Out any](value Out) (*mcpsdk.CallToolResult, Out, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult[Out](fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, value, nil
}

// validateCodeInput checks code constraints and resolves the name the parser uses to
// pick a grammar.
func validateCodeInput(code, filename, language string) (string, error) {
	if code == "" {
		return "", ErrEmptyCode
	}

	if len(code) > MaxCodeInputBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	name, err := jsparse.ResolveName(filename, language, []byte(code))
	if err != nil {
		return "", fmt.Errorf("resolve language: %w", err)
	}

	return name, nil
}

func parseQuote(raw string, fallback printer.Quote) (printer.Quote, error) {
	switch printer.Quote(strings.ToLower(raw)) {
	case "":
		return fallback, nil
	case printer.QuoteDouble:
		return printer.QuoteDouble, nil
	case printer.QuoteSingle:
		return printer.QuoteSingle, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidQuote, raw)
	}
}

func classOutcomes(code string, diags []displayname.Diagnostic) []ClassOutcome {
	src := []byte(code)
	out := make([]ClassOutcome, 0, len(diags))

	for _, d := range diags {
		out = append(out, ClassOutcome{
			Class:   d.Class,
			Outcome: string(d.Outcome),
			Line:    d.Span.Line(src),
		})
	}

	return out
}
