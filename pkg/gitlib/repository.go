// Package gitlib selects source files from a git working tree using libgit2.
package gitlib

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrBareRepository is returned when a working tree is required but the repository has none.
var ErrBareRepository = errors.New("repository has no working tree")

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens the git repository containing path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepositoryExtended(path, 0, "")
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the path the repository was opened from.
func (r *Repository) Path() string {
	return r.path
}

// Workdir returns the root of the working tree, or "" for a bare repository.
func (r *Repository) Workdir() string {
	return r.repo.Workdir()
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

const changedStatusFlags = git2go.StatusOptIncludeUntracked |
	git2go.StatusOptRecurseUntrackedDirs |
	git2go.StatusOptExcludeSubmodules

const deletedStatus = git2go.StatusIndexDeleted | git2go.StatusWtDeleted

// ChangedFiles lists files that differ from HEAD in the index or the working tree,
// untracked files included. Deleted and ignored files are left out. Paths are absolute
// and sorted.
func (r *Repository) ChangedFiles() ([]string, error) {
	workdir := r.repo.Workdir()
	if workdir == "" {
		return nil, ErrBareRepository
	}

	list, err := r.repo.StatusList(&git2go.StatusOptions{
		Show:  git2go.StatusShowIndexAndWorkdir,
		Flags: changedStatusFlags,
	})
	if err != nil {
		return nil, fmt.Errorf("status list: %w", err)
	}
	defer list.Free()

	count, err := list.EntryCount()
	if err != nil {
		return nil, fmt.Errorf("status count: %w", err)
	}

	files := make([]string, 0, count)

	for idx := range count {
		entry, entryErr := list.ByIndex(idx)
		if entryErr != nil {
			return nil, fmt.Errorf("status entry %d: %w", idx, entryErr)
		}

		rel := entryPath(entry)
		if rel == "" || entry.Status&deletedStatus != 0 || entry.Status&git2go.StatusIgnored != 0 {
			continue
		}

		files = append(files, filepath.Join(workdir, filepath.FromSlash(rel)))
	}

	slices.Sort(files)

	return slices.Compact(files), nil
}

// entryPath prefers the working-tree side, which reflects the file on disk.
func entryPath(entry git2go.StatusEntry) string {
	if p := entry.IndexToWorkdir.NewFile.Path; p != "" {
		return p
	}

	return entry.HeadToIndex.NewFile.Path
}
