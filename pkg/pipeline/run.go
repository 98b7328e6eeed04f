package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/displayname/pkg/cache"
	"github.com/Sumatoshi-tech/displayname/pkg/displayname"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
)

// Sentinel errors for runs.
var (
	ErrChangesNeeded = errors.New("files need a displayName")
	ErrFilesFailed   = errors.New("some files could not be processed")
	ErrUnknownMode   = errors.New("unknown mode")
)

// Mode selects what Run does with transformed sources.
type Mode string

// Run modes.
const (
	// ModeStdout prints every transformed source to Out.
	ModeStdout Mode = "stdout"
	// ModeWrite rewrites changed files in place.
	ModeWrite Mode = "write"
	// ModeCheck only reports which files would change.
	ModeCheck Mode = "check"
	// ModeDiff prints a unified diff for every changed file to Out.
	ModeDiff Mode = "diff"
)

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	switch mode := Mode(name); mode {
	case ModeStdout, ModeWrite, ModeCheck, ModeDiff:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Runner transforms files concurrently.
type Runner struct {
	Processor *Processor
	Mode      Mode
	// Out receives stdout and diff output, in input order.
	Out io.Writer
	// Workers bounds concurrency; zero or less means runtime.NumCPU.
	Workers int

	// Cache, Metrics, Tracer and Logger are optional.
	Cache   *cache.Store
	Metrics *observability.TransformMetrics
	Tracer  trace.Tracer
	Logger  *slog.Logger
}

type indexedFile struct {
	index int
	path  string
}

// Run processes files and returns a summary. Per-file failures are recorded in the
// summary; the returned error is reserved for failures that stop the run (a write
// error or a cancelled context). Use Summary.Err for the exit decision.
func (r *Runner) Run(ctx context.Context, files []string) (*Summary, error) {
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return nil, err
	}

	start := time.Now()
	reports := make([]FileReport, len(files))
	outputs := make([][]byte, len(files))

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workers = max(min(workers, len(files)), 1)

	fileCh := make(chan indexedFile, workers)

	var (
		firstErr atomic.Value
		wg       sync.WaitGroup
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for item := range fileCh {
				if firstErr.Load() != nil || ctx.Err() != nil {
					continue
				}

				report, out, err := r.processFile(ctx, item.path)
				if err != nil {
					firstErr.CompareAndSwap(nil, err)

					continue
				}

				reports[item.index] = report
				outputs[item.index] = out
			}
		}()
	}

	for i, f := range files {
		if firstErr.Load() != nil || ctx.Err() != nil {
			break
		}

		fileCh <- indexedFile{index: i, path: f}
	}

	close(fileCh)
	wg.Wait()

	if errVal := firstErr.Load(); errVal != nil {
		if err, ok := errVal.(error); ok {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	if err := r.emit(outputs); err != nil {
		return nil, err
	}

	return &Summary{Mode: r.Mode, Files: reports, Elapsed: time.Since(start)}, nil
}

// RunSource transforms one in-memory source, writing to Out as the mode requires.
// ModeWrite is treated like ModeStdout since there is no file to rewrite. A source
// that fails to parse is echoed unchanged in those modes.
func (r *Runner) RunSource(ctx context.Context, name string, src []byte) (*Summary, error) {
	start := time.Now()

	report, res := r.transform(ctx, name, src)

	var out []byte

	switch {
	case res == nil && r.Mode == ModeWrite:
		out = src
	case res == nil:
		out = r.passThrough(src)
	default:
		out = r.render(name, src, res)
		if r.Mode == ModeWrite {
			out = res.Output
		}
	}

	if err := r.emit([][]byte{out}); err != nil {
		return nil, err
	}

	return &Summary{Mode: r.Mode, Files: []FileReport{report}, Elapsed: time.Since(start)}, nil
}

func (r *Runner) emit(outputs [][]byte) error {
	if r.Out == nil {
		return nil
	}

	for _, out := range outputs {
		if len(out) == 0 {
			continue
		}

		if _, err := r.Out.Write(out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	return nil
}

// processFile reads, transforms and (in write mode) rewrites path. The returned error
// is fatal to the run; per-file problems live in the report.
func (r *Runner) processFile(ctx context.Context, path string) (FileReport, []byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return failedReport(path, err), nil, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return failedReport(path, err), nil, nil
	}

	hash := cache.Hash(src)

	if r.Cache != nil {
		hit := r.Cache.Clean(path, hash)
		r.Metrics.RecordCacheLookup(ctx, hit)

		if hit {
			r.Metrics.RecordFile(ctx, string(StatusCached), 0)

			report := FileReport{Path: path, Status: StatusCached, Size: info.Size()}
			if r.Mode == ModeStdout {
				return report, src, nil
			}

			return report, nil, nil
		}
	}

	report, res := r.transform(ctx, path, src)
	report.Size = info.Size()

	if res == nil {
		r.forget(path)

		return report, r.passThrough(src), nil
	}

	if !res.Changed {
		r.markClean(path, hash)
	} else {
		r.forget(path)
	}

	if r.Mode == ModeWrite && res.Changed {
		if err = os.WriteFile(path, res.Output, info.Mode().Perm()); err != nil {
			return FileReport{}, nil, fmt.Errorf("write %s: %w", path, err)
		}

		r.markClean(path, cache.Hash(res.Output))
	}

	return report, r.render(path, src, res), nil
}

// transform runs the processor under a span and records metrics. A nil result means
// the source failed to parse; the report carries the error.
func (r *Runner) transform(ctx context.Context, path string, src []byte) (FileReport, *Result) {
	start := time.Now()

	ctx, span := r.tracer().Start(ctx, "displayname.file",
		trace.WithAttributes(attribute.String("file.path", path), attribute.Int("file.size", len(src))))
	defer span.End()

	res, err := r.Processor.ProcessSource(ctx, path, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "process failed")
		r.Metrics.RecordFile(ctx, string(StatusFailed), time.Since(start))
		r.logger().WarnContext(ctx, "file skipped", "file.path", path, "error", err)

		return failedReport(path, err), nil
	}

	status := StatusUnchanged
	if res.Changed {
		status = StatusChanged
	}

	counts := res.Counts()
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.String("language", res.Language),
		attribute.Int("class.injected", counts[string(displayname.OutcomeInjected)]),
	)
	r.Metrics.RecordFile(ctx, string(status), elapsed)
	r.Metrics.RecordClasses(ctx, counts)

	return FileReport{
		Path:     path,
		Status:   status,
		Size:     int64(len(src)),
		Classes:  counts,
		Duration: elapsed,
	}, res
}

// passThrough is the output for a source that failed to parse: stdout still carries
// it unchanged so piping never drops content.
func (r *Runner) passThrough(src []byte) []byte {
	if r.Mode == ModeStdout {
		return src
	}

	return nil
}

func (r *Runner) render(path string, src []byte, res *Result) []byte {
	switch r.Mode {
	case ModeStdout:
		return res.Output
	case ModeDiff:
		return []byte(UnifiedDiff(path, src, res.Output))
	case ModeWrite, ModeCheck:
		return nil
	default:
		return nil
	}
}

func (r *Runner) markClean(path, hash string) {
	if r.Cache != nil {
		r.Cache.MarkClean(path, hash)
	}
}

func (r *Runner) forget(path string) {
	if r.Cache != nil {
		r.Cache.Forget(path)
	}
}

func (r *Runner) tracer() trace.Tracer {
	if r.Tracer != nil {
		return r.Tracer
	}

	return nooptrace.NewTracerProvider().Tracer("")
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}

	return slog.New(slog.DiscardHandler)
}

func failedReport(path string, err error) FileReport {
	return FileReport{Path: path, Status: StatusFailed, Err: err}
}
