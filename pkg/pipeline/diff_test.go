package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/displayname/pkg/pipeline"
)

func TestUnifiedDiff(t *testing.T) {
	t.Parallel()

	before := "class A {\n  render() {}\n}\n"
	after := "class A {\n  static displayName = \"A\";\n  render() {}\n}\n"

	want := "--- a/src/A.jsx\n+++ b/src/A.jsx\n" +
		"@@ -1,3 +1,4 @@\n" +
		" class A {\n" +
		"+  static displayName = \"A\";\n" +
		"   render() {}\n" +
		" }\n"

	assert.Equal(t, want, pipeline.UnifiedDiff("src/A.jsx", []byte(before), []byte(after)))
}

func TestUnifiedDiffIdentical(t *testing.T) {
	t.Parallel()

	assert.Empty(t, pipeline.UnifiedDiff("a.js", []byte("x\n"), []byte("x\n")))
}

func TestUnifiedDiffSeparateHunks(t *testing.T) {
	t.Parallel()

	var before, after string

	for i := range 20 {
		line := string(rune('a'+i)) + "\n"
		before += line
		after += line

		if i == 1 || i == 17 {
			after += "+\n"
		}
	}

	got := pipeline.UnifiedDiff("f.js", []byte(before), []byte(after))

	assert.Contains(t, got, "@@ -1,5 +1,6 @@\n")
	assert.Contains(t, got, "@@ -16,5 +17,6 @@\n")
}

func TestUnifiedDiffMissingTrailingNewline(t *testing.T) {
	t.Parallel()

	got := pipeline.UnifiedDiff("f.js", []byte("class A { render() {} }"), []byte("class A { static displayName = \"A\"; render() {} }"))

	assert.Contains(t, got, "-class A { render() {} }\n\\ No newline at end of file\n")
	assert.Contains(t, got, "+class A { static displayName = \"A\"; render() {} }\n\\ No newline at end of file\n")
	assert.Contains(t, got, "@@ -1 +1 @@\n")
}
