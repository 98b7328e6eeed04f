package pipeline

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/displayname/pkg/safeconv"
)

// FileStatus is the result of processing one file.
type FileStatus string

// File statuses.
const (
	StatusChanged   FileStatus = "changed"
	StatusUnchanged FileStatus = "unchanged"
	StatusCached    FileStatus = "cached"
	StatusFailed    FileStatus = "failed"
)

// FileReport describes one processed file.
type FileReport struct {
	Path     string         `json:"path"`
	Status   FileStatus     `json:"status"`
	Size     int64          `json:"size"`
	Classes  map[string]int `json:"classes,omitempty"`
	Duration time.Duration  `json:"duration_ns,omitempty"`
	Err      error          `json:"-"`
}

// MarshalJSON adds the error text under "error".
func (fr FileReport) MarshalJSON() ([]byte, error) {
	type plain FileReport

	var msg string
	if fr.Err != nil {
		msg = fr.Err.Error()
	}

	data, err := json.Marshal(struct {
		plain

		Error string `json:"error,omitempty"`
	}{plain: plain(fr), Error: msg})
	if err != nil {
		return nil, fmt.Errorf("marshal file report: %w", err)
	}

	return data, nil
}

// Summary aggregates a run.
type Summary struct {
	Mode    Mode          `json:"mode"`
	Files   []FileReport  `json:"files"`
	Skipped []Skipped     `json:"skipped,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Count returns the number of files with status.
func (s *Summary) Count(status FileStatus) int {
	n := 0

	for _, f := range s.Files {
		if f.Status == status {
			n++
		}
	}

	return n
}

// Classes totals per-outcome class counts across files.
func (s *Summary) Classes() map[string]int {
	total := make(map[string]int)

	for _, f := range s.Files {
		for outcome, n := range f.Classes {
			total[outcome] += n
		}
	}

	return total
}

// Err decides the exit status: failed files first, then ErrChangesNeeded for a check
// run that found work to do.
func (s *Summary) Err() error {
	var errs []error

	for _, f := range s.Files {
		if f.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, f.Err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrFilesFailed, errors.Join(errs...))
	}

	if s.Mode == ModeCheck && s.Count(StatusChanged) > 0 {
		return fmt.Errorf("%w: %d file(s)", ErrChangesNeeded, s.Count(StatusChanged))
	}

	return nil
}

// WriteJSON writes the summary as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	if _, err = fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

// TextOptions controls WriteText.
type TextOptions struct {
	// Verbose lists unchanged and cached files too.
	Verbose bool
}

// WriteText writes a table of changed and failed files followed by a totals line.
// Colors follow color.NoColor.
func (s *Summary) WriteText(w io.Writer, opts TextOptions) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateHeader = false
	tbl.AppendHeader(table.Row{"STATUS", "FILE", "SIZE", "CLASSES"})

	rows := 0

	for _, f := range s.Files {
		if !opts.Verbose && f.Status != StatusChanged && f.Status != StatusFailed {
			continue
		}

		detail := formatClasses(f.Classes)
		if f.Err != nil {
			detail = f.Err.Error()
		}

		tbl.AppendRow(table.Row{statusLabel(f.Status), f.Path, humanize.Bytes(safeconv.Size(f.Size)), detail})

		rows++
	}

	if rows > 0 {
		if _, err := fmt.Fprintln(w, tbl.Render()); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	if _, err := fmt.Fprintln(w, s.totals()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

func (s *Summary) totals() string {
	changedVerb := "changed"
	if s.Mode == ModeCheck || s.Mode == ModeDiff {
		changedVerb = "need changes"
	}

	parts := []string{
		fmt.Sprintf("%s %s", humanize.Comma(int64(len(s.Files))), pluralFiles(len(s.Files))),
		fmt.Sprintf("%d %s", s.Count(StatusChanged), changedVerb),
		fmt.Sprintf("%d unchanged", s.Count(StatusUnchanged)+s.Count(StatusCached)),
	}

	if n := s.Count(StatusFailed); n > 0 {
		parts = append(parts, color.RedString("%d failed", n))
	}

	if n := len(s.Skipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}

	if injected := s.Classes()["injected"]; injected > 0 {
		parts = append(parts, fmt.Sprintf("%d displayName(s) added", injected))
	}

	return strings.Join(parts, ", ") + " in " + s.Elapsed.Round(time.Millisecond).String()
}

func statusLabel(status FileStatus) string {
	switch status {
	case StatusChanged:
		return color.GreenString(string(status))
	case StatusFailed:
		return color.RedString(string(status))
	case StatusCached:
		return color.CyanString(string(status))
	case StatusUnchanged:
		return string(status)
	default:
		return string(status)
	}
}

func formatClasses(counts map[string]int) string {
	parts := make([]string, 0, len(counts))

	for _, outcome := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s=%d", outcome, counts[outcome]))
	}

	return strings.Join(parts, " ")
}

func pluralFiles(n int) string {
	if n == 1 {
		return "file"
	}

	return "files"
}
