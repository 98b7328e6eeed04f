package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/displayname/pkg/cache"
	"github.com/Sumatoshi-tech/displayname/pkg/gitlib"
	"github.com/Sumatoshi-tech/displayname/pkg/jsparse"
	"github.com/Sumatoshi-tech/displayname/pkg/observability"
	"github.com/Sumatoshi-tech/displayname/pkg/pipeline"
	"github.com/Sumatoshi-tech/displayname/pkg/version"
)

// Sentinel errors for the transform command.
var (
	// ErrUnknownFormat indicates an unsupported --format value.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrUnknownLanguage indicates an unsupported --language value.
	ErrUnknownLanguage = errors.New("unknown language")
)

// defaultStdinName is used for stdin when --stdin-filename is not given.
const defaultStdinName = "stdin.jsx"

// TransformCommand holds flags and dependencies for transform and check.
type TransformCommand struct {
	global *GlobalOptions

	write         bool
	check         bool
	diff          bool
	changed       bool
	noCache       bool
	workers       int
	format        string
	language      string
	stdinFilename string
}

// NewTransformCommand creates the transform command.
func NewTransformCommand(global *GlobalOptions) *cobra.Command {
	tc := &TransformCommand{global: global}

	cmd := &cobra.Command{
		Use:   "transform [paths...]",
		Short: "Add static displayName to class components",
		Long: `Transform JavaScript, TypeScript and TSX sources.

Without paths the source is read from stdin and the result written to stdout.
Directories are walked recursively; hidden, excluded and vendored paths are skipped.

Examples:
  displayname transform src/App.jsx            # print the transformed file
  displayname transform -w src                 # rewrite files in place
  displayname transform --diff src             # show a unified diff
  displayname transform --changed -w           # only files git reports as changed
  cat App.tsx | displayname transform --stdin-filename App.tsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tc.run(cmd, args, tc.mode())
		},
	}

	tc.registerFlags(cmd)
	cmd.Flags().BoolVarP(&tc.write, "write", "w", false, "rewrite files in place")
	cmd.Flags().BoolVar(&tc.check, "check", false, "report files that would change and exit 1 if any")
	cmd.Flags().BoolVar(&tc.diff, "diff", false, "print a unified diff instead of the transformed source")
	cmd.MarkFlagsMutuallyExclusive("write", "check", "diff")

	return cmd
}

// NewCheckCommand creates the check command, an alias for transform --check.
func NewCheckCommand(global *GlobalOptions) *cobra.Command {
	tc := &TransformCommand{global: global}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Report files that need a displayName",
		Long:  `Report files with class components lacking a displayName. Exits 1 when any file needs changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tc.run(cmd, args, pipeline.ModeCheck)
		},
	}

	tc.registerFlags(cmd)

	return cmd
}

func (tc *TransformCommand) registerFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&tc.changed, "changed", false, "only process files git reports as modified or untracked")
	cmd.Flags().BoolVar(&tc.noCache, "no-cache", false, "ignore and do not update the clean-file cache")
	cmd.Flags().IntVar(&tc.workers, "workers", 0, "files processed concurrently (default from config, 0 = one per CPU)")
	cmd.Flags().StringVar(&tc.format, "format", formatText, "summary format: text or json")
	cmd.Flags().StringVar(&tc.language, "language", "",
		"force a grammar: "+strings.Join(jsparse.Languages(), ", "))
	cmd.Flags().StringVar(&tc.stdinFilename, "stdin-filename", "", "file name used to pick the grammar for stdin")
}

func (tc *TransformCommand) mode() pipeline.Mode {
	switch {
	case tc.write:
		return pipeline.ModeWrite
	case tc.check:
		return pipeline.ModeCheck
	case tc.diff:
		return pipeline.ModeDiff
	default:
		return pipeline.ModeStdout
	}
}

func (tc *TransformCommand) run(cmd *cobra.Command, args []string, mode pipeline.Mode) error {
	if tc.format != formatText && tc.format != formatJSON {
		return fmt.Errorf("%w: %q (want text or json)", ErrUnknownFormat, tc.format)
	}

	if tc.language != "" && !slices.Contains(jsparse.Languages(), tc.language) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownLanguage, tc.language,
			strings.Join(jsparse.Languages(), ", "))
	}

	env, err := tc.global.setup(observability.ModeCLI, false)
	if err != nil {
		return err
	}
	defer env.close()

	runner, err := tc.runner(cmd, env, mode)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var summary *pipeline.Summary

	if len(args) == 0 && !tc.changed {
		summary, err = tc.runStdin(ctx, cmd.InOrStdin(), runner)
	} else {
		summary, err = tc.runFiles(ctx, env, runner, args)
	}

	if err != nil {
		return err
	}

	if err = tc.report(cmd, summary, mode); err != nil {
		return err
	}

	return summary.Err()
}

func (tc *TransformCommand) runner(cmd *cobra.Command, env *runtimeEnv, mode pipeline.Mode) (*pipeline.Runner, error) {
	var procOpts []pipeline.ProcessorOption
	if tc.language != "" {
		procOpts = append(procOpts, pipeline.WithLanguage(tc.language))
	}

	metrics, err := observability.NewTransformMetrics(env.providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	workers := env.cfg.Pipeline.Workers
	if cmd.Flags().Changed("workers") {
		workers = tc.workers
	}

	return &pipeline.Runner{
		Processor: env.processor(procOpts...),
		Mode:      mode,
		Out:       cmd.OutOrStdout(),
		Workers:   workers,
		Metrics:   metrics,
		Tracer:    env.providers.Tracer,
		Logger:    env.logger,
	}, nil
}

func (tc *TransformCommand) runStdin(ctx context.Context, in io.Reader, runner *pipeline.Runner) (*pipeline.Summary, error) {
	src, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}

	name := tc.stdinFilename
	if name == "" {
		name = defaultStdinName
	}

	return runner.RunSource(ctx, name, src)
}

func (tc *TransformCommand) runFiles(
	ctx context.Context, env *runtimeEnv, runner *pipeline.Runner, args []string,
) (*pipeline.Summary, error) {
	maxSize, err := env.cfg.Transform.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	roots := args

	if tc.changed {
		roots, err = changedRoots(args, env.cfg.Transform.Extensions)
		if err != nil {
			return nil, err
		}
	}

	files, skipped, err := pipeline.Collect(roots, pipeline.CollectOptions{
		Extensions:  env.cfg.Transform.Extensions,
		Exclude:     env.cfg.Transform.Exclude,
		MaxFileSize: maxSize,
		SkipVendor:  env.cfg.Transform.SkipVendor,
	})
	if err != nil {
		return nil, err
	}

	for _, s := range skipped {
		env.logger.Debug("file skipped", "file.path", s.Path, "reason", string(s.Reason))
	}

	store := tc.openCache(env)
	runner.Cache = store

	summary, err := runner.Run(ctx, files)
	if err != nil {
		return nil, err
	}

	summary.Skipped = skipped

	if store != nil {
		hits, misses := store.Stats()
		env.logger.Debug("cache stats", "cache.hits", hits, "cache.misses", misses, "cache.entries", store.Len())

		if saveErr := store.Save(); saveErr != nil {
			env.logger.Warn("cache not saved", "cache.path", env.cfg.Cache.Path, "error", saveErr)
		}
	}

	return summary, nil
}

// openCache returns the clean-file cache, or nil when caching is off or the cache file
// cannot be read. A discarded cache is still used, starting empty.
func (tc *TransformCommand) openCache(env *runtimeEnv) *cache.Store {
	if tc.noCache || !env.cfg.Cache.Enabled || env.cfg.Cache.Path == "" {
		return nil
	}

	store, err := cache.Open(env.cfg.Cache.Path, cacheVersion(env))
	if errors.Is(err, cache.ErrDiscarded) {
		env.logger.Info("cache discarded", "cache.path", env.cfg.Cache.Path, "error", err)

		return store
	}

	if err != nil {
		env.logger.Warn("cache disabled", "cache.path", env.cfg.Cache.Path, "error", err)

		return nil
	}

	return store
}

// cacheVersion ties cache entries to the binary and the output settings, so a quote
// change invalidates files previously recorded as clean.
func cacheVersion(env *runtimeEnv) string {
	return version.Version + "/" + env.cfg.Output.Quote
}

// changedRoots lists the files git reports as changed, limited to the given paths when
// any are given and to the configured extensions.
func changedRoots(args, extensions []string) ([]string, error) {
	repo, err := gitlib.OpenRepository(".")
	if err != nil {
		return nil, err
	}
	defer repo.Free()

	changed, err := repo.ChangedFiles()
	if err != nil {
		return nil, err
	}

	scopes := make([]string, 0, len(args))

	for _, arg := range args {
		abs, absErr := filepath.Abs(arg)
		if absErr != nil {
			return nil, fmt.Errorf("resolve %s: %w", arg, absErr)
		}

		scopes = append(scopes, abs)
	}

	roots := make([]string, 0, len(changed))

	for _, path := range changed {
		if !slices.Contains(extensions, strings.ToLower(filepath.Ext(path))) {
			continue
		}

		if len(scopes) > 0 && !slices.ContainsFunc(scopes, func(scope string) bool { return within(scope, path) }) {
			continue
		}

		roots = append(roots, path)
	}

	return roots, nil
}

func within(scope, path string) bool {
	rel, err := filepath.Rel(scope, path)

	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// report writes the summary. Source and diff output own stdout in those modes, so the
// summary goes to stderr there.
func (tc *TransformCommand) report(cmd *cobra.Command, summary *pipeline.Summary, mode pipeline.Mode) error {
	out := cmd.OutOrStdout()
	if mode == pipeline.ModeStdout || mode == pipeline.ModeDiff {
		out = cmd.ErrOrStderr()
	}

	if tc.format == formatJSON {
		return summary.WriteJSON(out)
	}

	if tc.global.Quiet {
		return nil
	}

	return summary.WriteText(out, pipeline.TextOptions{Verbose: tc.global.Verbose})
}
