package displayname

import (
	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
)

func (t *Transformer) walkStmts(stmts []jsast.Stmt) {
	for _, stmt := range stmts {
		t.walkStmt(stmt)
	}
}

// walkStmt visits a statement before anything nested in it.
func (t *Transformer) walkStmt(stmt jsast.Stmt) {
	switch s := stmt.(type) {
	case *jsast.ClassDecl:
		t.visitClass(s.Class, s.Name, s.Span)
	case *jsast.VarDecl:
		for _, binding := range s.Bindings {
			t.walkBinding(binding)
		}
	case *jsast.FuncDecl:
		t.walkBlock(s.Body)
	case *jsast.ExportDecl:
		if s.Decl != nil {
			t.walkStmt(s.Decl)
		}

		if s.Value != nil {
			t.walkBound(s.Value, nil)
		}
	case *jsast.Block:
		t.walkBlock(s)
	case *jsast.OtherStmt:
		for _, block := range s.Nested {
			t.walkBlock(block)
		}
	case nil:
	}
}

func (t *Transformer) walkBlock(block *jsast.Block) {
	if block == nil {
		return
	}

	t.walkStmts(block.Body)
}

func (t *Transformer) walkBinding(binding *jsast.Binding) {
	if binding == nil || binding.Init == nil {
		return
	}

	t.walkBound(binding.Init, binding.Name)
}

// walkBound visits an expression that is bound to a name: a variable initializer or a
// default export. A class expression is named after itself, falling back to the
// binding.
func (t *Transformer) walkBound(expr jsast.Expr, binding *jsast.Ident) {
	classExpr, ok := expr.(*jsast.ClassExpr)
	if !ok {
		t.walkExpr(expr)

		return
	}

	name := classExpr.Name
	if name == nil {
		name = binding
	}

	t.visitClass(classExpr.Class, name, classExpr.Span)
}

// walkExpr visits an expression in an unbound position. Classes found there are not
// candidates, but their bodies may declare candidates.
func (t *Transformer) walkExpr(expr jsast.Expr) {
	switch e := expr.(type) {
	case *jsast.ClassExpr:
		t.walkMembers(e.Class)
	case *jsast.OtherExpr:
		for _, block := range e.Nested {
			t.walkBlock(block)
		}
	case *jsast.StringLit, nil:
	}
}

func (t *Transformer) visitClass(class *jsast.Class, name *jsast.Ident, span jsast.Span) {
	if class == nil {
		return
	}

	if name == nil || name.Name == "" {
		t.sink.Report(Diagnostic{Outcome: OutcomeMissingIdentifier, Span: span})
	} else {
		outcome := t.inject(class, name.Name)
		t.sink.Report(Diagnostic{Outcome: outcome, Class: name.Name, Span: span})
	}

	t.walkMembers(class)
}

func (t *Transformer) walkMembers(class *jsast.Class) {
	if class == nil {
		return
	}

	for _, member := range class.Members {
		switch m := member.(type) {
		case *jsast.Method:
			t.walkBlock(m.Body)
		case *jsast.StaticBlock:
			t.walkBlock(m.Body)
		case *jsast.Property:
			if m.Value != nil {
				t.walkExpr(m.Value)
			}
		case *jsast.OtherMember:
		}
	}
}
