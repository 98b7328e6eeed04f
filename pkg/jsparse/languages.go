package jsparse

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"
)

// Grammar names.
const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
)

var languageFuncs = map[string]func() unsafe.Pointer{
	LangJavaScript: javascript.GetLanguage,
	LangTypeScript: typescript.GetLanguage,
	LangTSX:        tsx.GetLanguage,
}

var extensionLanguages = map[string]string{
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
}

// enryLanguages maps linguist names to grammars.
var enryLanguages = map[string]string{
	"JavaScript": LangJavaScript,
	"JSX":        LangJavaScript,
	"TypeScript": LangTypeScript,
	"TSX":        LangTSX,
}

// languageAliases maps user-facing language names to a file name the extension
// table resolves.
var languageAliases = map[string]string{
	"javascript":      "input.jsx",
	"js":              "input.jsx",
	"jsx":             "input.jsx",
	"javascriptreact": "input.jsx",
	"typescript":      "input.ts",
	"ts":              "input.ts",
	"tsx":             "input.tsx",
	"typescriptreact": "input.tsx",
}

// DefaultSourceName names in-memory sources that carry neither a file name nor a
// language.
const DefaultSourceName = "input.jsx"

var languageCache sync.Map

// GetLanguage returns the tree-sitter Language for the given grammar name, or nil if
// it is not supported.
func GetLanguage(name string) *sitter.Language {
	if cached, ok := languageCache.Load(name); ok {
		lang, castOK := cached.(*sitter.Language)
		if castOK {
			return lang
		}
	}

	fn, ok := languageFuncs[name]
	if !ok {
		return nil
	}

	lang := sitter.NewLanguage(fn())
	languageCache.Store(name, lang)

	return lang
}

// Languages returns the supported grammar names, sorted.
func Languages() []string {
	names := make([]string, 0, len(languageFuncs))
	for name := range languageFuncs {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Extensions returns the file extensions recognized without content sniffing, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(extensionLanguages))
	for ext := range extensionLanguages {
		exts = append(exts, ext)
	}

	slices.Sort(exts)

	return exts
}

// DetectLanguage picks a grammar for path. The extension decides when it is known;
// otherwise the content is classified with enry. An empty result means unsupported.
func DetectLanguage(path string, content []byte) string {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}

	if len(content) == 0 {
		return ""
	}

	return enryLanguages[enry.GetLanguage(filepath.Base(path), content)]
}

// ResolveName returns a name Parse accepts for in-memory content. A file name wins
// over a language name; with neither, DefaultSourceName is used.
func ResolveName(filename, language string, content []byte) (string, error) {
	switch {
	case filename != "":
		if DetectLanguage(filename, content) == "" {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filename)
		}

		return filename, nil
	case language != "":
		name, ok := languageAliases[strings.ToLower(language)]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
		}

		return name, nil
	default:
		return DefaultSourceName, nil
	}
}
