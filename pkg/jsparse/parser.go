// Package jsparse turns JavaScript, TypeScript and TSX source into jsast programs
// using tree-sitter grammars.
package jsparse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
)

// Sentinel errors for parse operations.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrSyntax              = errors.New("syntax error")
	ErrNoRootNode          = errors.New("no root node")
	errPoolType            = errors.New("parser pool returned unexpected type")
)

// Parser parses source files. It keeps one pool of tree-sitter parsers per grammar
// and is safe for concurrent use.
type Parser struct {
	pools map[string]*sync.Pool
}

// NewParser creates a Parser for every supported grammar.
func NewParser() *Parser {
	pools := make(map[string]*sync.Pool, len(languageFuncs))

	for name := range languageFuncs {
		pools[name] = &sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(GetLanguage(name))

				return tsParser
			},
		}
	}

	return &Parser{pools: pools}
}

// Parse detects the grammar from filename and content, then parses content.
func (p *Parser) Parse(ctx context.Context, filename string, content []byte) (*jsast.Program, error) {
	lang := DetectLanguage(filename, content)
	if lang == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filename)
	}

	return p.ParseLanguage(ctx, lang, content)
}

// ParseLanguage parses content with the named grammar. Sources containing syntax
// errors are rejected with ErrSyntax so nothing is rewritten from a partial tree.
func (p *Parser) ParseLanguage(ctx context.Context, lang string, content []byte) (*jsast.Program, error) {
	pool, ok := p.pools[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	tsParser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", lang, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, ErrNoRootNode
	}

	if bad := findError(root); !bad.IsNull() {
		pos := bad.StartPoint()

		return nil, fmt.Errorf("%w at %d:%d", ErrSyntax, pos.Row+1, pos.Column+1)
	}

	l := &lowerer{src: content}

	return &jsast.Program{
		Source:   content,
		Language: lang,
		Body:     l.stmts(root),
	}, nil
}

// findError returns the first ERROR or MISSING node in document order.
func findError(n sitter.Node) sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}

	for i := range n.ChildCount() {
		if found := findError(n.Child(i)); !found.IsNull() {
			return found
		}
	}

	return sitter.Node{}
}
