package displayname_test

import (
	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
)

func ident(name string) *jsast.Ident {
	return &jsast.Ident{Name: name}
}

func method(name string) *jsast.Method {
	return &jsast.Method{Key: ident(name), Kind: jsast.MethodPlain, Body: &jsast.Block{}}
}

func methodWithBody(name string, body ...jsast.Stmt) *jsast.Method {
	return &jsast.Method{Key: ident(name), Kind: jsast.MethodPlain, Body: &jsast.Block{Body: body}}
}

func class(members ...jsast.Member) *jsast.Class {
	return &jsast.Class{Members: members}
}

func classDecl(name string, members ...jsast.Member) *jsast.ClassDecl {
	return &jsast.ClassDecl{Name: ident(name), Class: class(members...)}
}

func constDecl(binding string, init jsast.Expr) *jsast.VarDecl {
	return &jsast.VarDecl{Kind: "const", Bindings: []*jsast.Binding{{Name: ident(binding), Init: init}}}
}

func program(stmts ...jsast.Stmt) *jsast.Program {
	return &jsast.Program{Language: "javascript", Body: stmts}
}

// displayNameOf returns the value of the static displayName property in first position.
func displayNameOf(c *jsast.Class) (string, bool) {
	if c == nil || len(c.Members) == 0 {
		return "", false
	}

	prop, ok := c.Members[0].(*jsast.Property)
	if !ok || !prop.Static {
		return "", false
	}

	if name, keyOK := jsast.KeyName(prop.Key); !keyOK || name != "displayName" {
		return "", false
	}

	lit, ok := prop.Value.(*jsast.StringLit)
	if !ok {
		return "", false
	}

	return lit.Value, true
}

func countDisplayNames(c *jsast.Class) int {
	n := 0

	for _, m := range c.Members {
		prop, ok := m.(*jsast.Property)
		if !ok {
			continue
		}

		if name, keyOK := jsast.KeyName(prop.Key); keyOK && name == "displayName" {
			n++
		}
	}

	return n
}
