// Package printer writes a transformed jsast program back to source text.
//
// Printing splices: original bytes are copied through unchanged and members added by
// a transform (recognizable by their zero span) are inserted next to their original
// neighbours, indented like them. Comments and formatting of untouched code survive.
package printer

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
	"github.com/Sumatoshi-tech/displayname/pkg/safeconv"
)

// ErrUnprintable is returned for synthetic nodes the printer cannot render.
var ErrUnprintable = errors.New("unprintable node")

// Quote selects the delimiter of printed string literals.
type Quote string

// Quote styles.
const (
	QuoteDouble Quote = "double"
	QuoteSingle Quote = "single"
)

// Options controls rendering of inserted members.
type Options struct {
	Quote Quote
}

// Edit inserts Text at byte Offset of the original source.
type Edit struct {
	Offset uint
	Text   string
}

// Edits returns the insertions needed to print prog, ordered by offset. Insertions at
// the same offset keep member order.
func Edits(prog *jsast.Program, opts Options) ([]Edit, error) {
	if prog == nil {
		return nil, nil
	}

	var (
		edits   []Edit
		walkErr error
	)

	jsast.EachClass(prog, func(c *jsast.Class) {
		if walkErr != nil {
			return
		}

		found, err := classEdits(prog.Source, c, opts)
		if err != nil {
			walkErr = err

			return
		}

		edits = append(edits, found...)
	})

	if walkErr != nil {
		return nil, walkErr
	}

	slices.SortStableFunc(edits, func(a, b Edit) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		default:
			return 0
		}
	})

	return edits, nil
}

// Print renders prog.
func Print(prog *jsast.Program, opts Options) ([]byte, error) {
	if prog == nil {
		return nil, nil
	}

	edits, err := Edits(prog, opts)
	if err != nil {
		return nil, err
	}

	return Apply(prog.Source, edits), nil
}

// Apply splices sorted edits into src.
func Apply(src []byte, edits []Edit) []byte {
	size := len(src)
	for _, e := range edits {
		size += len(e.Text)
	}

	var buf bytes.Buffer

	buf.Grow(size)

	last := uint(0)

	for _, e := range edits {
		offset := min(e.Offset, safeconv.MustIntToUint(len(src)))
		buf.Write(src[last:offset])
		buf.WriteString(e.Text)
		last = offset
	}

	buf.Write(src[last:])

	return buf.Bytes()
}

func classEdits(src []byte, c *jsast.Class, opts Options) ([]Edit, error) {
	var edits []Edit

	lay := layoutOf(src, c)

	for i, member := range c.Members {
		if !member.MemberSpan().IsZero() {
			continue
		}

		if c.Body.IsZero() {
			return nil, fmt.Errorf("%w: member of a class without source position", ErrUnprintable)
		}

		text, err := renderMember(member, opts)
		if err != nil {
			return nil, err
		}

		edits = append(edits, Edit{
			Offset: anchor(c, i),
			Text:   lay.separator + text,
		})
	}

	return edits, nil
}

// anchor is the offset after which member i goes: the end of the closest preceding
// original member, or just inside the opening brace.
func anchor(c *jsast.Class, i int) uint {
	for j := i - 1; j >= 0; j-- {
		if span := c.Members[j].MemberSpan(); !span.IsZero() {
			return span.End
		}
	}

	return c.Body.Start + 1
}

type layout struct {
	separator string
}

// layoutOf decides how inserted members are separated from their neighbours. A body
// spanning several lines gets one member per line, indented like the first original
// member and ended the way the body ends its lines; a single-line body gets a space.
func layoutOf(src []byte, c *jsast.Class) layout {
	if c.Body.IsZero() || c.Body.End > safeconv.MustIntToUint(len(src)) {
		return layout{separator: " "}
	}

	body := src[c.Body.Start:c.Body.End]
	if !bytes.ContainsRune(body, '\n') {
		return layout{separator: " "}
	}

	newline := "\n"
	if bytes.Contains(body, []byte("\r\n")) {
		newline = "\r\n"
	}

	for _, member := range c.Members {
		span := member.MemberSpan()
		if span.IsZero() {
			continue
		}

		if indent, ok := lineIndent(src, span.Start); ok {
			return layout{separator: newline + indent}
		}
	}

	base := leadingSpace(src, c.Body.Start)

	return layout{separator: newline + base + indentUnit(base)}
}

// lineIndent returns the whitespace between the start of the line holding offset and
// offset, and false when anything else precedes offset on that line.
func lineIndent(src []byte, offset uint) (string, bool) {
	lineStart := bytes.LastIndexByte(src[:offset], '\n') + 1
	prefix := string(src[lineStart:offset])

	if strings.TrimLeft(prefix, " \t") != "" {
		return "", false
	}

	return prefix, true
}

// leadingSpace returns the indentation of the line holding offset.
func leadingSpace(src []byte, offset uint) string {
	lineStart := bytes.LastIndexByte(src[:offset], '\n') + 1
	line := src[lineStart:offset]

	return string(line[:len(line)-len(bytes.TrimLeft(line, " \t"))])
}

func indentUnit(sample string) string {
	if strings.HasPrefix(sample, "\t") {
		return "\t"
	}

	return "  "
}

func renderMember(member jsast.Member, opts Options) (string, error) {
	prop, ok := member.(*jsast.Property)
	if !ok {
		return "", fmt.Errorf("%w: synthetic %T", ErrUnprintable, member)
	}

	name, ok := jsast.KeyName(prop.Key)
	if !ok {
		return "", fmt.Errorf("%w: property key %T", ErrUnprintable, prop.Key)
	}

	var sb strings.Builder

	if prop.Static {
		sb.WriteString("static ")
	}

	sb.WriteString(name)

	if prop.TypeAnn != "" {
		sb.WriteString(": ")
		sb.WriteString(prop.TypeAnn)
	}

	if prop.Value != nil {
		lit, isLit := prop.Value.(*jsast.StringLit)
		if !isLit {
			return "", fmt.Errorf("%w: property value %T", ErrUnprintable, prop.Value)
		}

		sb.WriteString(" = ")
		sb.WriteString(QuoteString(lit.Value, opts.Quote))
	}

	sb.WriteByte(';')

	return sb.String(), nil
}

// QuoteString renders s as a JavaScript string literal.
func QuoteString(s string, quote Quote) string {
	delim := byte('"')
	if quote == QuoteSingle {
		delim = '\''
	}

	var sb strings.Builder

	sb.Grow(len(s) + 2)
	sb.WriteByte(delim)

	for _, r := range s {
		switch r {
		case rune(delim), '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\u2028':
			sb.WriteString(`\u2028`)
		case '\u2029':
			sb.WriteString(`\u2029`)
		default:
			sb.WriteRune(r)
		}
	}

	sb.WriteByte(delim)

	return sb.String()
}
