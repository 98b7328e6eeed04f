package pipeline_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/displayname/pkg/pipeline"
)

func defaultCollectOptions() pipeline.CollectOptions {
	return pipeline.CollectOptions{
		Extensions: []string{".js", ".jsx", ".ts", ".tsx"},
		Exclude:    []string{"dist", "*.min.js"},
		SkipVendor: true,
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/App.jsx":                componentSrc,
		"src/store.ts":               plainSrc,
		"src/Widget.tsx":             componentSrc,
		"src/readme.md":              "# docs",
		"src/lib.min.js":             componentSrc,
		"dist/bundle.js":             componentSrc,
		".cache/App.jsx":             componentSrc,
		"node_modules/react/index.js": componentSrc,
	})

	files, skipped, err := pipeline.Collect([]string{root}, defaultCollectOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"src/App.jsx", "src/Widget.tsx", "src/store.ts"}, rel(t, root, files))

	var reasons []string
	for _, s := range skipped {
		reasons = append(reasons, string(s.Reason)+":"+filepath.Base(s.Path))
	}

	assert.Contains(t, reasons, "excluded:lib.min.js")
}

func TestCollectMaxFileSize(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"small.js": "class A {}\n",
		"big.js":   "class B {}\n" + strings.Repeat("// filler\n", 100),
	})

	opts := defaultCollectOptions()
	opts.MaxFileSize = 64

	files, skipped, err := pipeline.Collect([]string{root}, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"small.js"}, rel(t, root, files))
	require.Len(t, skipped, 1)
	assert.Equal(t, pipeline.SkipTooLarge, skipped[0].Reason)
	assert.Equal(t, "big.js", filepath.Base(skipped[0].Path))
}

func TestCollectExplicitFiles(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"component.es": componentSrc,
		"App.jsx":      componentSrc,
	})

	explicit := filepath.Join(root, "component.es")

	files, _, err := pipeline.Collect([]string{explicit, root, filepath.Join(root, "App.jsx")}, defaultCollectOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"App.jsx", "component.es"}, rel(t, root, files))
}

func TestCollectVendorKept(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"node_modules/lib/index.js": componentSrc,
	})

	opts := defaultCollectOptions()
	opts.SkipVendor = false

	files, _, err := pipeline.Collect([]string{root}, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"node_modules/lib/index.js"}, rel(t, root, files))
}

func TestCollectMissingRoot(t *testing.T) {
	t.Parallel()

	_, _, err := pipeline.Collect([]string{filepath.Join(t.TempDir(), "nope")}, defaultCollectOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
