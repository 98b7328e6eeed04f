package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/displayname/pkg/safeconv"
)

// ErrNotRegular is returned for a root that is neither a directory nor a regular file.
var ErrNotRegular = errors.New("not a regular file or directory")

// SkipReason explains why a candidate file was left out.
type SkipReason string

// Skip reasons.
const (
	SkipTooLarge SkipReason = "too-large"
	SkipExcluded SkipReason = "excluded"
	SkipVendored SkipReason = "vendored"
)

// Skipped is a file Collect saw but did not select.
type Skipped struct {
	Path   string     `json:"path"`
	Reason SkipReason `json:"reason"`
	Size   int64      `json:"size,omitempty"`
}

// CollectOptions filters the files Collect selects.
type CollectOptions struct {
	// Extensions selects files inside directories, e.g. ".jsx". Explicitly named files
	// are taken regardless of extension.
	Extensions []string
	// Exclude holds glob patterns matched against every path component and against the
	// slash-separated path relative to the root.
	Exclude []string
	// MaxFileSize in bytes; zero disables the limit.
	MaxFileSize uint64
	// SkipVendor drops paths enry classifies as vendored.
	SkipVendor bool
}

// Collect expands roots into a sorted, de-duplicated list of source files. Hidden
// directories are never entered.
func Collect(roots []string, opts CollectOptions) ([]string, []Skipped, error) {
	c := collector{opts: opts, seen: make(map[string]bool)}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, nil, fmt.Errorf("collect %s: %w", root, err)
		}

		switch {
		case info.IsDir():
			err = c.walk(root)
		case info.Mode().IsRegular():
			c.consider(root, filepath.Base(root), info.Size())
		default:
			err = fmt.Errorf("collect %s: %w", root, ErrNotRegular)
		}

		if err != nil {
			return nil, nil, err
		}
	}

	slices.Sort(c.files)

	return c.files, c.skipped, nil
}

type collector struct {
	opts    CollectOptions
	seen    map[string]bool
	files   []string
	skipped []Skipped
}

func (c *collector) walk(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fmt.Errorf("relative path: %w", relErr)
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != root && c.skipDir(d.Name(), rel) {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() || !c.wantExtension(path) {
			return nil
		}

		if c.excluded(rel) {
			c.skipped = append(c.skipped, Skipped{Path: path, Reason: SkipExcluded})

			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return fmt.Errorf("stat %s: %w", path, infoErr)
		}

		c.consider(path, rel, info.Size())

		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}

	return nil
}

func (c *collector) skipDir(name, rel string) bool {
	if strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return true
	}

	return c.excluded(rel) || (c.opts.SkipVendor && enry.IsVendor(rel+"/"))
}

func (c *collector) consider(path, rel string, size int64) {
	if c.seen[path] {
		return
	}

	c.seen[path] = true

	if c.opts.SkipVendor && enry.IsVendor(rel) {
		c.skipped = append(c.skipped, Skipped{Path: path, Reason: SkipVendored, Size: size})

		return
	}

	if c.opts.MaxFileSize > 0 && safeconv.Size(size) > c.opts.MaxFileSize {
		c.skipped = append(c.skipped, Skipped{Path: path, Reason: SkipTooLarge, Size: size})

		return
	}

	c.files = append(c.files, path)
}

func (c *collector) wantExtension(path string) bool {
	return slices.Contains(c.opts.Extensions, strings.ToLower(filepath.Ext(path)))
}

func (c *collector) excluded(rel string) bool {
	for _, pattern := range c.opts.Exclude {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}

		for part := range strings.SplitSeq(rel, "/") {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}

	return false
}
