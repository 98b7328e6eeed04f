package jsparse

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
)

// Node types that carry no statement.
var skippedTypes = map[string]bool{
	"comment":         true,
	"hash_bang_line":  true,
	"html_comment":    true,
	"empty_statement": true,
}

// declarationTypes are lowered as statements wherever they appear inside an
// uninspected node, so `if (x) function f() {}` and `case 1: class A {}` are reached.
var declarationTypes = map[string]bool{
	"class_declaration":              true,
	"abstract_class_declaration":     true,
	"lexical_declaration":            true,
	"variable_declaration":           true,
	"function_declaration":           true,
	"generator_function_declaration": true,
	"export_statement":               true,
}

// lowerer copies what the transform needs out of a tree-sitter tree. Nothing it
// returns references the tree, which is closed after lowering.
type lowerer struct {
	src []byte
}

func (l *lowerer) span(n sitter.Node) jsast.Span {
	if n.IsNull() {
		return jsast.Span{}
	}

	return jsast.Span{Start: n.StartByte(), End: n.EndByte()}
}

func (l *lowerer) text(n sitter.Node) string {
	if n.IsNull() {
		return ""
	}

	start, end := n.StartByte(), n.EndByte()
	if end > uint(len(l.src)) || start > end {
		return ""
	}

	return string(l.src[start:end])
}

func (l *lowerer) stmts(parent sitter.Node) []jsast.Stmt {
	var out []jsast.Stmt

	for idx := range parent.NamedChildCount() {
		child := parent.NamedChild(idx)
		if skippedTypes[child.Type()] {
			continue
		}

		out = append(out, l.stmt(child))
	}

	return out
}

func (l *lowerer) stmt(n sitter.Node) jsast.Stmt {
	switch n.Type() {
	case "class_declaration", "abstract_class_declaration":
		return &jsast.ClassDecl{
			Name:     l.ident(n.ChildByFieldName("name")),
			Class:    l.class(n),
			Abstract: n.Type() == "abstract_class_declaration",
			Span:     l.span(n),
		}
	case "lexical_declaration", "variable_declaration":
		return l.varDecl(n)
	case "function_declaration", "generator_function_declaration":
		return &jsast.FuncDecl{
			Name: l.ident(n.ChildByFieldName("name")),
			Body: l.block(n.ChildByFieldName("body")),
			Span: l.span(n),
		}
	case "export_statement":
		return l.exportDecl(n)
	case "statement_block":
		return l.block(n)
	default:
		return &jsast.OtherStmt{Kind: n.Type(), Nested: l.nested(n), Span: l.span(n)}
	}
}

func (l *lowerer) varDecl(n sitter.Node) *jsast.VarDecl {
	decl := &jsast.VarDecl{Span: l.span(n)}

	if n.ChildCount() > 0 {
		decl.Kind = n.Child(0).Type()
	}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.Type() != "variable_declarator" {
			continue
		}

		binding := &jsast.Binding{Span: l.span(child)}

		target := child.ChildByFieldName("name")

		switch {
		case target.IsNull():
		case target.Type() == "identifier":
			binding.Name = l.ident(target)
		default:
			binding.Pattern = target.Type()
		}

		if value := child.ChildByFieldName("value"); !value.IsNull() {
			binding.Init = l.expr(value)
		}

		decl.Bindings = append(decl.Bindings, binding)
	}

	return decl
}

func (l *lowerer) exportDecl(n sitter.Node) *jsast.ExportDecl {
	decl := &jsast.ExportDecl{Default: hasToken(n, "default"), Span: l.span(n)}

	if inner := n.ChildByFieldName("declaration"); !inner.IsNull() {
		decl.Decl = l.stmt(inner)
	}

	if value := n.ChildByFieldName("value"); !value.IsNull() {
		decl.Value = l.expr(value)
	}

	return decl
}

func (l *lowerer) block(n sitter.Node) *jsast.Block {
	if n.IsNull() {
		return nil
	}

	return &jsast.Block{Body: l.stmts(n), Span: l.span(n)}
}

// nested collects the statement blocks and declarations below n without descending
// into the blocks it returns.
func (l *lowerer) nested(n sitter.Node) []*jsast.Block {
	var out []*jsast.Block

	l.collectBlocks(n, &out)

	return out
}

func (l *lowerer) collectBlocks(n sitter.Node, out *[]*jsast.Block) {
	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch {
		case child.Type() == "statement_block":
			*out = append(*out, l.block(child))
		case declarationTypes[child.Type()]:
			*out = append(*out, &jsast.Block{Body: []jsast.Stmt{l.stmt(child)}, Span: l.span(child)})
		default:
			l.collectBlocks(child, out)
		}
	}
}

func (l *lowerer) ident(n sitter.Node) *jsast.Ident {
	if n.IsNull() {
		return nil
	}

	switch n.Type() {
	case "identifier", "type_identifier", "property_identifier":
		return &jsast.Ident{Name: l.text(n), Span: l.span(n)}
	default:
		return nil
	}
}

func (l *lowerer) expr(n sitter.Node) jsast.Expr {
	switch n.Type() {
	case "class":
		return &jsast.ClassExpr{
			Name:  l.ident(n.ChildByFieldName("name")),
			Class: l.class(n),
			Span:  l.span(n),
		}
	case "parenthesized_expression":
		if inner, ok := soleNamedChild(n); ok {
			return l.expr(inner)
		}
	case "string":
		return &jsast.StringLit{Value: unquote(l.text(n)), Span: l.span(n)}
	}

	return &jsast.OtherExpr{Kind: n.Type(), Nested: l.nested(n), Span: l.span(n)}
}

func (l *lowerer) class(n sitter.Node) *jsast.Class {
	body := n.ChildByFieldName("body")

	class := &jsast.Class{Span: l.span(n), Body: l.span(body)}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.Type() == "class_heritage" {
			class.SuperClass = &jsast.OtherExpr{Kind: child.Type(), Span: l.span(child)}
		}
	}

	if !body.IsNull() {
		class.Members = l.members(body)
	}

	return class
}

func (l *lowerer) members(body sitter.Node) []jsast.Member {
	var members []jsast.Member

	for idx := range body.NamedChildCount() {
		child := body.NamedChild(idx)

		switch child.Type() {
		case "comment":
			continue
		case "method_definition", "method_signature", "abstract_method_signature":
			members = append(members, l.method(child))
		case "field_definition", "public_field_definition":
			members = append(members, l.property(child))
		case "class_static_block":
			members = append(members, &jsast.StaticBlock{
				Body: l.block(child.ChildByFieldName("body")),
				Span: l.span(child),
			})
		default:
			members = append(members, &jsast.OtherMember{Kind: child.Type(), Span: l.span(child)})
		}
	}

	return members
}

func (l *lowerer) method(n sitter.Node) *jsast.Method {
	m := &jsast.Method{
		Key:    l.key(n.ChildByFieldName("name")),
		Static: hasToken(n, "static"),
		Kind:   jsast.MethodPlain,
		Span:   l.span(n),
	}

	switch {
	case hasToken(n, "get"):
		m.Kind = jsast.MethodGetter
	case hasToken(n, "set"):
		m.Kind = jsast.MethodSetter
	default:
		if name, ok := jsast.KeyName(m.Key); ok && name == "constructor" && !m.Static {
			m.Kind = jsast.MethodConstructor
		}
	}

	if body := n.ChildByFieldName("body"); !body.IsNull() {
		m.Body = l.block(body)
	}

	return m
}

func (l *lowerer) property(n sitter.Node) *jsast.Property {
	name := n.ChildByFieldName("property")
	if name.IsNull() {
		name = n.ChildByFieldName("name")
	}

	prop := &jsast.Property{
		Key:    l.key(name),
		Static: hasToken(n, "static"),
		Span:   l.span(n),
	}

	if ann := n.ChildByFieldName("type"); !ann.IsNull() {
		prop.TypeAnn = strings.TrimSpace(strings.TrimPrefix(l.text(ann), ":"))
	}

	if value := n.ChildByFieldName("value"); !value.IsNull() {
		prop.Value = l.expr(value)
	}

	return prop
}

func (l *lowerer) key(n sitter.Node) jsast.Key {
	if n.IsNull() {
		return nil
	}

	switch n.Type() {
	case "property_identifier", "identifier":
		return &jsast.Ident{Name: l.text(n), Span: l.span(n)}
	case "private_property_identifier":
		return &jsast.PrivateName{Name: strings.TrimPrefix(l.text(n), "#")}
	case "string":
		return &jsast.StringKey{Value: unquote(l.text(n))}
	case "number":
		return &jsast.NumberKey{Raw: l.text(n)}
	default:
		return &jsast.ComputedKey{Span: l.span(n)}
	}
}

// hasToken reports whether n has a direct anonymous child spelled tok.
func hasToken(n sitter.Node, tok string) bool {
	for i := range n.ChildCount() {
		if n.Child(i).Type() == tok {
			return true
		}
	}

	return false
}

func soleNamedChild(n sitter.Node) (sitter.Node, bool) {
	var (
		found sitter.Node
		count int
	)

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.Type() == "comment" {
			continue
		}

		found = child
		count++
	}

	return found, count == 1
}

// unquote strips the delimiters of a string literal. Escapes are kept as written.
func unquote(raw string) string {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return raw[1 : len(raw)-1]
	}

	return raw
}
