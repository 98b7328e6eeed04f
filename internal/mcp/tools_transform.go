package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/displayname/pkg/jsparse"
)

// handleTransform processes displayname_transform tool calls.
func (s *Server) handleTransform(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input TransformInput,
) (*mcpsdk.CallToolResult, TransformOutput, error) {
	name, err := validateCodeInput(input.Code, input.Filename, input.Language)
	if err != nil {
		return errorResult[TransformOutput](err)
	}

	quote, err := parseQuote(input.Quote, s.quote)
	if err != nil {
		return errorResult[TransformOutput](err)
	}

	res, err := s.processors[quote].ProcessSource(ctx, name, []byte(input.Code))
	if err != nil {
		return errorResult[TransformOutput](fmt.Errorf("transform: %w", err))
	}

	return jsonResult(TransformOutput{
		Code:     string(res.Output),
		Changed:  res.Changed,
		Language: res.Language,
		Classes:  classOutcomes(input.Code, res.Diagnostics),
	})
}

// handleInspect processes displayname_inspect tool calls.
func (s *Server) handleInspect(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input InspectInput,
) (*mcpsdk.CallToolResult, InspectOutput, error) {
	name, err := validateCodeInput(input.Code, input.Filename, input.Language)
	if err != nil {
		return errorResult[InspectOutput](err)
	}

	diags, err := s.processors[s.quote].Inspect(ctx, name, []byte(input.Code))
	if err != nil {
		return errorResult[InspectOutput](fmt.Errorf("inspect: %w", err))
	}

	return jsonResult(InspectOutput{
		Language: jsparse.DetectLanguage(name, []byte(input.Code)),
		Classes:  classOutcomes(input.Code, diags),
	})
}
