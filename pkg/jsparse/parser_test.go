package jsparse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/displayname/pkg/jsast"
	"github.com/Sumatoshi-tech/displayname/pkg/jsparse"
)

func parse(t *testing.T, filename, src string) *jsast.Program {
	t.Helper()

	prog, err := jsparse.NewParser().Parse(context.Background(), filename, []byte(src))
	require.NoError(t, err)

	return prog
}

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"a.js":        jsparse.LangJavaScript,
		"a.JSX":       jsparse.LangJavaScript,
		"a.mjs":       jsparse.LangJavaScript,
		"a.cjs":       jsparse.LangJavaScript,
		"a.ts":        jsparse.LangTypeScript,
		"a.mts":       jsparse.LangTypeScript,
		"a.cts":       jsparse.LangTypeScript,
		"dir/a.tsx":   jsparse.LangTSX,
		"README.md":   "",
		"no-ext-file": "",
	}

	for path, want := range tests {
		assert.Equal(t, want, jsparse.DetectLanguage(path, nil), path)
	}
}

func TestResolveName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename, language, want string
	}{
		{want: jsparse.DefaultSourceName},
		{language: "TSX", want: "input.tsx"},
		{language: "typescriptreact", want: "input.tsx"},
		{language: "ts", want: "input.ts"},
		{filename: "App.jsx", language: "typescript", want: "App.jsx"},
	}

	for _, tt := range tests {
		got, err := jsparse.ResolveName(tt.filename, tt.language, []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := jsparse.ResolveName("", "python", nil)
	require.ErrorIs(t, err, jsparse.ErrUnsupportedLanguage)

	_, err = jsparse.ResolveName("main.go", "", []byte("package main\n"))
	require.ErrorIs(t, err, jsparse.ErrUnsupportedLanguage)
}

func TestLanguagesAndExtensions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"javascript", "tsx", "typescript"}, jsparse.Languages())
	assert.Contains(t, jsparse.Extensions(), ".tsx")

	for _, name := range jsparse.Languages() {
		assert.NotNil(t, jsparse.GetLanguage(name), name)
	}

	assert.Nil(t, jsparse.GetLanguage("cobol"))
}

func TestParseClassDeclaration(t *testing.T) {
	t.Parallel()

	src := `class Alert extends React.Component {
  static componentId = 'Alert';
  render() {
    return null;
  }
}
`
	prog := parse(t, "alert.js", src)
	require.Len(t, prog.Body, 1)
	assert.Equal(t, jsparse.LangJavaScript, prog.Language)

	decl, ok := prog.Body[0].(*jsast.ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "Alert", decl.Name.Name)
	assert.NotNil(t, decl.Class.SuperClass)
	require.Len(t, decl.Class.Members, 2)
	assert.Equal(t, "{", string(src[decl.Class.Body.Start]))
	assert.Equal(t, "}", string(src[decl.Class.Body.End-1]))

	prop, ok := decl.Class.Members[0].(*jsast.Property)
	require.True(t, ok)
	assert.True(t, prop.Static)

	name, ok := jsast.KeyName(prop.Key)
	require.True(t, ok)
	assert.Equal(t, "componentId", name)

	lit, ok := prop.Value.(*jsast.StringLit)
	require.True(t, ok)
	assert.Equal(t, "Alert", lit.Value)

	method, ok := decl.Class.Members[1].(*jsast.Method)
	require.True(t, ok)
	assert.Equal(t, jsast.MethodPlain, method.Kind)
	assert.NotNil(t, method.Body)

	name, ok = jsast.KeyName(method.Key)
	require.True(t, ok)
	assert.Equal(t, "render", name)
}

func TestParseVariableBindings(t *testing.T) {
	t.Parallel()

	src := "const Foo = class { render() {} }, [A] = [class {}];\nlet Bar = (class Baz {});\n"
	prog := parse(t, "foo.js", src)
	require.Len(t, prog.Body, 2)

	first, ok := prog.Body[0].(*jsast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "const", first.Kind)
	require.Len(t, first.Bindings, 2)
	assert.Equal(t, "Foo", first.Bindings[0].Name.Name)

	expr, ok := first.Bindings[0].Init.(*jsast.ClassExpr)
	require.True(t, ok)
	assert.Nil(t, expr.Name)
	assert.Len(t, expr.Class.Members, 1)

	assert.Nil(t, first.Bindings[1].Name)
	assert.Equal(t, "array_pattern", first.Bindings[1].Pattern)

	second, ok := prog.Body[1].(*jsast.VarDecl)
	require.True(t, ok)

	paren, ok := second.Bindings[0].Init.(*jsast.ClassExpr)
	require.True(t, ok)
	assert.Equal(t, "Baz", paren.Name.Name)
}

func TestParseMemberKeys(t *testing.T) {
	t.Parallel()

	src := `class K {
  'render'() {}
  ["render"]() {}
  #render() {}
  1() {}
  static get render() { return 1; }
  set value(v) {}
  constructor() {}
  static { const x = 1; }
}
`
	prog := parse(t, "k.js", src)

	decl, ok := prog.Body[0].(*jsast.ClassDecl)
	require.True(t, ok)
	require.Len(t, decl.Class.Members, 8)

	keyOf := func(i int) jsast.Key {
		m, isMethod := decl.Class.Members[i].(*jsast.Method)
		require.True(t, isMethod, i)

		return m.Key
	}

	assert.IsType(t, &jsast.StringKey{}, keyOf(0))
	assert.IsType(t, &jsast.ComputedKey{}, keyOf(1))
	assert.Equal(t, &jsast.PrivateName{Name: "render"}, keyOf(2))
	assert.Equal(t, &jsast.NumberKey{Raw: "1"}, keyOf(3))

	getter, ok := decl.Class.Members[4].(*jsast.Method)
	require.True(t, ok)
	assert.Equal(t, jsast.MethodGetter, getter.Kind)
	assert.True(t, getter.Static)

	setter, ok := decl.Class.Members[5].(*jsast.Method)
	require.True(t, ok)
	assert.Equal(t, jsast.MethodSetter, setter.Kind)

	ctor, ok := decl.Class.Members[6].(*jsast.Method)
	require.True(t, ok)
	assert.Equal(t, jsast.MethodConstructor, ctor.Kind)

	assert.IsType(t, &jsast.StaticBlock{}, decl.Class.Members[7])
}

func TestParseExports(t *testing.T) {
	t.Parallel()

	src := "export class A {}\nexport default class {}\nexport const B = class {};\n"
	prog := parse(t, "e.mjs", src)
	require.Len(t, prog.Body, 3)

	named, ok := prog.Body[0].(*jsast.ExportDecl)
	require.True(t, ok)
	assert.False(t, named.Default)
	assert.IsType(t, &jsast.ClassDecl{}, named.Decl)

	anonymous, ok := prog.Body[1].(*jsast.ExportDecl)
	require.True(t, ok)
	assert.True(t, anonymous.Default)

	expr, ok := anonymous.Value.(*jsast.ClassExpr)
	require.True(t, ok)
	assert.Nil(t, expr.Name)

	bound, ok := prog.Body[2].(*jsast.ExportDecl)
	require.True(t, ok)
	assert.IsType(t, &jsast.VarDecl{}, bound.Decl)
}

func TestParseNestedBlocks(t *testing.T) {
	t.Parallel()

	src := `function f() {
  class Inner {}
}
if (x) {
  class InIf {}
} else {
  class InElse {}
}
switch (y) {
  case 1:
    class InCase {}
}
`
	prog := parse(t, "n.js", src)
	require.Len(t, prog.Body, 3)

	fn, ok := prog.Body[0].(*jsast.FuncDecl)
	require.True(t, ok)
	require.Len(t, fn.Body.Body, 1)
	assert.IsType(t, &jsast.ClassDecl{}, fn.Body.Body[0])

	ifStmt, ok := prog.Body[1].(*jsast.OtherStmt)
	require.True(t, ok)
	assert.Equal(t, "if_statement", ifStmt.Kind)
	assert.Len(t, ifStmt.Nested, 2)

	switchStmt, ok := prog.Body[2].(*jsast.OtherStmt)
	require.True(t, ok)
	require.Len(t, switchStmt.Nested, 1)
	assert.IsType(t, &jsast.ClassDecl{}, switchStmt.Nested[0].Body[0])
}

func TestParseTypeScript(t *testing.T) {
	t.Parallel()

	src := `abstract class Base<P> {
  private readonly displayName: string = "x";
  abstract render(): void;
  [key: string]: unknown;
}
`
	prog := parse(t, "base.ts", src)

	decl, ok := prog.Body[0].(*jsast.ClassDecl)
	require.True(t, ok)
	assert.True(t, decl.Abstract)
	assert.Equal(t, "Base", decl.Name.Name)
	require.Len(t, decl.Class.Members, 3)

	prop, ok := decl.Class.Members[0].(*jsast.Property)
	require.True(t, ok)
	assert.False(t, prop.Static)
	assert.Equal(t, "string", prop.TypeAnn)

	method, ok := decl.Class.Members[1].(*jsast.Method)
	require.True(t, ok)
	assert.Nil(t, method.Body)

	assert.IsType(t, &jsast.OtherMember{}, decl.Class.Members[2])
}

func TestParseTSX(t *testing.T) {
	t.Parallel()

	src := "export class View extends Component<Props> {\n  render() {\n    return <div className=\"x\" />;\n  }\n}\n"
	prog := parse(t, "view.tsx", src)
	assert.Equal(t, jsparse.LangTSX, prog.Language)
	require.Len(t, prog.Body, 1)
}

func TestParseRejectsSyntaxErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		src  string
	}{
		{name: "error_node", file: "bad.js", src: "class { render( }"},
		{name: "unterminated_class", file: "a.js", src: "class A {\n  render() { return 1 }\n"},
		{name: "unterminated_tsx_class", file: "a.tsx", src: "class A {\n  render() { return <div /> }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := jsparse.NewParser().Parse(context.Background(), tt.file, []byte(tt.src))
			require.ErrorIs(t, err, jsparse.ErrSyntax)
		})
	}
}

func TestParseRejectsUnsupportedFiles(t *testing.T) {
	t.Parallel()

	parser := jsparse.NewParser()

	_, err := parser.Parse(context.Background(), "style.css", []byte("a { color: red }"))
	require.ErrorIs(t, err, jsparse.ErrUnsupportedLanguage)

	_, err = parser.ParseLanguage(context.Background(), "cobol", nil)
	require.ErrorIs(t, err, jsparse.ErrUnsupportedLanguage)
}
