package pipeline

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines kept around each change.
const diffContext = 3

type lineOp struct {
	op   diffmatchpatch.Operation
	text string
}

// UnifiedDiff renders the line difference between before and after in unified format
// with a/ and b/ path prefixes. Identical inputs produce "".
func UnifiedDiff(path string, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}

	ops := lineOps(string(before), string(after))

	var sb strings.Builder

	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)

	for _, h := range hunks(ops) {
		writeHunk(&sb, ops, h)
	}

	return sb.String()
}

func lineOps(before, after string) []lineOp {
	dmp := diffmatchpatch.New()

	src, dst, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffMainRunes(src, dst, false)

	var ops []lineOp

	for _, d := range diffs {
		for _, r := range d.Text {
			ops = append(ops, lineOp{op: d.Type, text: lines[r]})
		}
	}

	return ops
}

// hunk is a half-open range of ops plus the 1-based starting line on each side.
type hunk struct {
	from, to           int
	oldStart, newStart int
}

func hunks(ops []lineOp) []hunk {
	var (
		out        []hunk
		oldLn      = 1
		newLn      = 1
		oldAt      = make([]int, len(ops))
		newAt      = make([]int, len(ops))
		lastChange = -1
	)

	for i, o := range ops {
		oldAt[i], newAt[i] = oldLn, newLn

		switch o.op {
		case diffmatchpatch.DiffEqual:
			oldLn++
			newLn++

			continue
		case diffmatchpatch.DiffDelete:
			oldLn++
		case diffmatchpatch.DiffInsert:
			newLn++
		}

		start := max(i-diffContext, 0)

		if lastChange >= 0 && start <= lastChange+diffContext+1 && len(out) > 0 {
			out[len(out)-1].to = min(i+diffContext+1, len(ops))
		} else {
			out = append(out, hunk{from: start, to: min(i+diffContext+1, len(ops))})
		}

		lastChange = i
	}

	for i := range out {
		out[i].oldStart = oldAt[out[i].from]
		out[i].newStart = newAt[out[i].from]
	}

	return out
}

func writeHunk(sb *strings.Builder, ops []lineOp, h hunk) {
	var oldCount, newCount int

	for _, o := range ops[h.from:h.to] {
		switch o.op {
		case diffmatchpatch.DiffEqual:
			oldCount++
			newCount++
		case diffmatchpatch.DiffDelete:
			oldCount++
		case diffmatchpatch.DiffInsert:
			newCount++
		}
	}

	fmt.Fprintf(sb, "@@ -%s +%s @@\n", hunkRange(h.oldStart, oldCount), hunkRange(h.newStart, newCount))

	for _, o := range ops[h.from:h.to] {
		prefix := " "

		switch o.op {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffEqual:
		}

		sb.WriteString(prefix)
		sb.WriteString(o.text)

		if !strings.HasSuffix(o.text, "\n") {
			sb.WriteString("\n\\ No newline at end of file\n")
		}
	}
}

// hunkRange formats "start,count"; an empty side starts one line earlier.
func hunkRange(start, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", start-1)
	}

	if count == 1 {
		return fmt.Sprintf("%d", start)
	}

	return fmt.Sprintf("%d,%d", start, count)
}
