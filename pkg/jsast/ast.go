// Package jsast defines the slice of a JavaScript/TypeScript syntax tree that the
// displayname transform reads and writes. Statements, expressions, class members and
// property keys are sealed interfaces; consumers match on them with type switches.
package jsast

import "bytes"

// Span is a half-open byte range [Start, End) into Program.Source.
// Nodes created by a transform have a zero Span.
type Span struct {
	Start uint
	End   uint
}

// IsZero reports whether the span does not point into the source.
func (s Span) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() uint {
	if s.End < s.Start {
		return 0
	}

	return s.End - s.Start
}

// Line returns the 1-based line of src on which the span starts.
func (s Span) Line(src []byte) int {
	return bytes.Count(src[:min(s.Start, uint(len(src)))], []byte{'\n'}) + 1
}

// Program is the root of a parsed source file.
type Program struct {
	// Source is the text the tree was parsed from. Printers splice into it.
	Source []byte
	// Language is the grammar that produced the tree ("javascript", "typescript", "tsx").
	Language string
	Body     []Stmt
}

// Stmt is a statement or declaration.
type Stmt interface {
	StmtSpan() Span
	stmtNode()
}

// Expr is an expression. Only the forms the transform cares about are modeled;
// everything else is an OtherExpr.
type Expr interface {
	ExprSpan() Span
	exprNode()
}

// Member is a class body element.
type Member interface {
	MemberSpan() Span
	memberNode()
}

// Key is a class member name.
type Key interface {
	keyNode()
}

// Ident is an identifier. It is used both as a binding name and as a member key.
type Ident struct {
	Name string
	Span Span
}

// Class is the shared part of class declarations and class expressions.
type Class struct {
	Span Span
	// Body covers the braces of the class body, both included.
	Body       Span
	SuperClass Expr
	Members    []Member
}

// ClassDecl is `class Name { ... }`, including abstract classes.
type ClassDecl struct {
	Name     *Ident
	Class    *Class
	Abstract bool
	Span     Span
}

// VarDecl is a var/let/const declaration.
type VarDecl struct {
	Kind     string
	Bindings []*Binding
	Span     Span
}

// Binding is one declarator of a VarDecl.
type Binding struct {
	// Name is set when the target is a plain identifier; destructuring targets leave it nil.
	Name *Ident
	// Pattern is the raw target kind for non-identifier targets ("object_pattern", ...).
	Pattern string
	Init    Expr
	Span    Span
}

// FuncDecl is a function or generator declaration.
type FuncDecl struct {
	Name *Ident
	Body *Block
	Span Span
}

// ExportDecl wraps a declaration or default-exported expression.
type ExportDecl struct {
	Default bool
	// Decl is set for `export <declaration>`.
	Decl Stmt
	// Value is set for `export default <expression>`.
	Value Expr
	Span  Span
}

// Block is a braced statement list.
type Block struct {
	Body []Stmt
	Span Span
}

// OtherStmt is any statement the transform does not inspect. Nested carries the
// statement blocks found inside it, in source order, so walkers can reach nested
// declarations.
type OtherStmt struct {
	Kind   string
	Nested []*Block
	Span   Span
}

// ClassExpr is a class used as an expression. Name is nil for anonymous classes.
type ClassExpr struct {
	Name  *Ident
	Class *Class
	Span  Span
}

// StringLit is a string literal.
type StringLit struct {
	Value string
	Span  Span
}

// OtherExpr is any expression the transform does not inspect.
type OtherExpr struct {
	Kind   string
	Nested []*Block
	Span   Span
}

// Property is a class field.
type Property struct {
	Key    Key
	Static bool
	// TypeAnn is the raw annotation text without the colon, empty when absent.
	TypeAnn string
	Value   Expr
	Span    Span
}

// MethodKind distinguishes plain methods from accessors and constructors.
type MethodKind string

// Method kinds.
const (
	MethodPlain       MethodKind = "method"
	MethodGetter      MethodKind = "get"
	MethodSetter      MethodKind = "set"
	MethodConstructor MethodKind = "constructor"
)

// Method is a class method, accessor or constructor. Body is nil for signatures.
type Method struct {
	Key    Key
	Static bool
	Kind   MethodKind
	Body   *Block
	Span   Span
}

// StaticBlock is `static { ... }`.
type StaticBlock struct {
	Body *Block
	Span Span
}

// OtherMember is a class element with no key the transform can use
// (index signatures, decorators, stray semicolons).
type OtherMember struct {
	Kind string
	Span Span
}

// PrivateName is a `#name` key.
type PrivateName struct {
	Name string
}

// StringKey is a quoted key, value unquoted.
type StringKey struct {
	Value string
}

// NumberKey is a numeric key, kept as written.
type NumberKey struct {
	Raw string
}

// ComputedKey is a `[expr]` key.
type ComputedKey struct {
	Span Span
}

func (d *ClassDecl) StmtSpan() Span  { return d.Span }
func (d *VarDecl) StmtSpan() Span    { return d.Span }
func (d *FuncDecl) StmtSpan() Span   { return d.Span }
func (d *ExportDecl) StmtSpan() Span { return d.Span }
func (b *Block) StmtSpan() Span      { return b.Span }
func (s *OtherStmt) StmtSpan() Span  { return s.Span }

func (*ClassDecl) stmtNode()  {}
func (*VarDecl) stmtNode()    {}
func (*FuncDecl) stmtNode()   {}
func (*ExportDecl) stmtNode() {}
func (*Block) stmtNode()      {}
func (*OtherStmt) stmtNode()  {}

func (e *ClassExpr) ExprSpan() Span { return e.Span }
func (e *StringLit) ExprSpan() Span { return e.Span }
func (e *OtherExpr) ExprSpan() Span { return e.Span }

func (*ClassExpr) exprNode() {}
func (*StringLit) exprNode() {}
func (*OtherExpr) exprNode() {}

func (m *Property) MemberSpan() Span    { return m.Span }
func (m *Method) MemberSpan() Span      { return m.Span }
func (m *StaticBlock) MemberSpan() Span { return m.Span }
func (m *OtherMember) MemberSpan() Span { return m.Span }

func (*Property) memberNode()    {}
func (*Method) memberNode()      {}
func (*StaticBlock) memberNode() {}
func (*OtherMember) memberNode() {}

func (*Ident) keyNode()       {}
func (*PrivateName) keyNode() {}
func (*StringKey) keyNode()   {}
func (*NumberKey) keyNode()   {}
func (*ComputedKey) keyNode() {}

// KeyName returns the identifier name of key and true when key is a plain identifier.
// Every other key shape reports false.
func KeyName(key Key) (string, bool) {
	ident, ok := key.(*Ident)
	if !ok || ident == nil {
		return "", false
	}

	return ident.Name, true
}
