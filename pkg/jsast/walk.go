package jsast

// EachClass calls fn for every class reachable from the program, outer classes before
// the classes nested in their bodies.
func EachClass(prog *Program, fn func(c *Class)) {
	if prog == nil {
		return
	}

	w := classWalker{fn: fn}
	w.stmts(prog.Body)
}

type classWalker struct {
	fn func(c *Class)
}

func (w classWalker) stmts(stmts []Stmt) {
	for _, stmt := range stmts {
		w.stmt(stmt)
	}
}

func (w classWalker) stmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *ClassDecl:
		w.class(s.Class)
	case *VarDecl:
		for _, b := range s.Bindings {
			if b != nil {
				w.expr(b.Init)
			}
		}
	case *FuncDecl:
		w.block(s.Body)
	case *ExportDecl:
		w.stmt(s.Decl)
		w.expr(s.Value)
	case *Block:
		w.block(s)
	case *OtherStmt:
		w.blocks(s.Nested)
	}
}

func (w classWalker) expr(expr Expr) {
	switch e := expr.(type) {
	case *ClassExpr:
		w.class(e.Class)
	case *OtherExpr:
		w.blocks(e.Nested)
	}
}

func (w classWalker) class(c *Class) {
	if c == nil {
		return
	}

	w.fn(c)

	for _, member := range c.Members {
		switch m := member.(type) {
		case *Method:
			w.block(m.Body)
		case *StaticBlock:
			w.block(m.Body)
		case *Property:
			w.expr(m.Value)
		}
	}
}

func (w classWalker) block(b *Block) {
	if b != nil {
		w.stmts(b.Body)
	}
}

func (w classWalker) blocks(blocks []*Block) {
	for _, b := range blocks {
		w.block(b)
	}
}
