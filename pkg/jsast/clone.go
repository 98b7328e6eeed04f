package jsast

// Clone returns a deep copy of the program. The source buffer is shared; it is never
// written by transforms.
func (p *Program) Clone() *Program {
	if p == nil {
		return nil
	}

	return &Program{
		Source:   p.Source,
		Language: p.Language,
		Body:     cloneStmts(p.Body),
	}
}

func cloneStmts(stmts []Stmt) []Stmt {
	if stmts == nil {
		return nil
	}

	out := make([]Stmt, len(stmts))
	for i, stmt := range stmts {
		out[i] = cloneStmt(stmt)
	}

	return out
}

func cloneStmt(stmt Stmt) Stmt {
	switch s := stmt.(type) {
	case *ClassDecl:
		return &ClassDecl{Name: cloneIdent(s.Name), Class: cloneClass(s.Class), Abstract: s.Abstract, Span: s.Span}
	case *VarDecl:
		bindings := make([]*Binding, len(s.Bindings))
		for i, b := range s.Bindings {
			if b == nil {
				continue
			}

			bindings[i] = &Binding{Name: cloneIdent(b.Name), Pattern: b.Pattern, Init: cloneExpr(b.Init), Span: b.Span}
		}

		return &VarDecl{Kind: s.Kind, Bindings: bindings, Span: s.Span}
	case *FuncDecl:
		return &FuncDecl{Name: cloneIdent(s.Name), Body: cloneBlock(s.Body), Span: s.Span}
	case *ExportDecl:
		return &ExportDecl{Default: s.Default, Decl: cloneStmt(s.Decl), Value: cloneExpr(s.Value), Span: s.Span}
	case *Block:
		return cloneBlock(s)
	case *OtherStmt:
		return &OtherStmt{Kind: s.Kind, Nested: cloneBlocks(s.Nested), Span: s.Span}
	default:
		return stmt
	}
}

func cloneExpr(expr Expr) Expr {
	switch e := expr.(type) {
	case *ClassExpr:
		return &ClassExpr{Name: cloneIdent(e.Name), Class: cloneClass(e.Class), Span: e.Span}
	case *StringLit:
		clone := *e

		return &clone
	case *OtherExpr:
		return &OtherExpr{Kind: e.Kind, Nested: cloneBlocks(e.Nested), Span: e.Span}
	default:
		return expr
	}
}

func cloneClass(c *Class) *Class {
	if c == nil {
		return nil
	}

	members := make([]Member, len(c.Members))
	for i, m := range c.Members {
		members[i] = cloneMember(m)
	}

	return &Class{Span: c.Span, Body: c.Body, SuperClass: cloneExpr(c.SuperClass), Members: members}
}

func cloneMember(member Member) Member {
	switch m := member.(type) {
	case *Property:
		return &Property{Key: cloneKey(m.Key), Static: m.Static, TypeAnn: m.TypeAnn, Value: cloneExpr(m.Value), Span: m.Span}
	case *Method:
		return &Method{Key: cloneKey(m.Key), Static: m.Static, Kind: m.Kind, Body: cloneBlock(m.Body), Span: m.Span}
	case *StaticBlock:
		return &StaticBlock{Body: cloneBlock(m.Body), Span: m.Span}
	case *OtherMember:
		clone := *m

		return &clone
	default:
		return member
	}
}

func cloneKey(key Key) Key {
	switch k := key.(type) {
	case *Ident:
		return cloneIdent(k)
	case *PrivateName:
		clone := *k

		return &clone
	case *StringKey:
		clone := *k

		return &clone
	case *NumberKey:
		clone := *k

		return &clone
	case *ComputedKey:
		clone := *k

		return &clone
	default:
		return key
	}
}

func cloneIdent(id *Ident) *Ident {
	if id == nil {
		return nil
	}

	clone := *id

	return &clone
}

func cloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}

	return &Block{Body: cloneStmts(b.Body), Span: b.Span}
}

func cloneBlocks(blocks []*Block) []*Block {
	if blocks == nil {
		return nil
	}

	out := make([]*Block, len(blocks))
	for i, b := range blocks {
		out[i] = cloneBlock(b)
	}

	return out
}
