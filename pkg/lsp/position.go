package lsp

import (
	"strings"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/displayname/pkg/safeconv"
)

// positionAt converts a byte offset in text into an LSP position, whose character is
// counted in UTF-16 code units. Offsets past the end clamp to the end.
func positionAt(text string, offset uint) protocol.Position {
	prefix := text[:min(offset, safeconv.MustIntToUint(len(text)))]

	lineStart := strings.LastIndexByte(prefix, '\n') + 1
	line := strings.Count(prefix, "\n")

	var char int

	for _, r := range prefix[lineStart:] {
		char += utf16.RuneLen(r)
	}

	return protocol.Position{Line: safeconv.MustIntToUint32(line), Character: safeconv.MustIntToUint32(char)}
}

// offsetAt converts an LSP position back to a byte offset. Characters beyond a line's
// end clamp to the line end; lines beyond the text clamp to the text end.
func offsetAt(text string, pos protocol.Position) int {
	start := 0

	for range pos.Line {
		idx := strings.IndexByte(text[start:], '\n')
		if idx < 0 {
			return len(text)
		}

		start += idx + 1
	}

	var units protocol.UInteger

	for i, r := range text[start:] {
		if r == '\n' || units >= pos.Character {
			return start + i
		}

		units += protocol.UInteger(utf16.RuneLen(r))
	}

	return len(text)
}

// lineEnd returns the offset of the newline ending the line that contains offset, or
// the text length.
func lineEnd(text string, offset uint) uint {
	size := safeconv.MustIntToUint(len(text))
	offset = min(offset, size)

	idx := strings.IndexByte(text[offset:], '\n')
	if idx < 0 {
		return size
	}

	return offset + safeconv.MustIntToUint(idx)
}
