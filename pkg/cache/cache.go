// Package cache remembers which source files are already clean, so unchanged files
// skip the parse on the next run.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/pierrec/lz4/v4"
)

// ErrDiscarded reports that an existing cache file was unreadable, corrupt or written
// by another version and has been replaced by an empty cache.
var ErrDiscarded = errors.New("cache discarded")

const cacheFileMode = 0o644

// Store is a persistent, concurrency-safe map of path to content hash for files that
// needed no change.
type Store struct {
	mu      sync.RWMutex
	path    string
	version string
	entries map[string]string
	dirty   bool

	hits   atomic.Int64
	misses atomic.Int64
}

type snapshot struct {
	Version string            `json:"version"`
	Entries map[string]string `json:"entries"`
}

// Hash returns the cache key for content.
func Hash(content []byte) string {
	return strconv.FormatUint(xxhash.Sum64(content), 16)
}

// New returns an empty store that will persist to path.
func New(path, version string) *Store {
	return &Store{path: path, version: version, entries: make(map[string]string)}
}

// Open loads the store at path. A missing file yields an empty store. A file that cannot
// be decoded, or was written by another version, also yields an empty store, together
// with an error wrapping ErrDiscarded; the store is usable either way.
func Open(path, version string) (*Store, error) {
	st := New(path, version)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}

	if err != nil {
		return st, fmt.Errorf("%w: %w", ErrDiscarded, err)
	}

	snap, err := decode(data)
	if err != nil {
		st.dirty = true

		return st, fmt.Errorf("%w: %w", ErrDiscarded, err)
	}

	if snap.Version != version {
		st.dirty = true

		return st, fmt.Errorf("%w: written by version %q", ErrDiscarded, snap.Version)
	}

	if snap.Entries != nil {
		st.entries = snap.Entries
	}

	return st, nil
}

// Clean reports whether path was recorded clean with the given hash, and counts the
// lookup as a hit or miss.
func (s *Store) Clean(path, hash string) bool {
	s.mu.RLock()
	got, ok := s.entries[path]
	s.mu.RUnlock()

	if ok && got == hash {
		s.hits.Add(1)

		return true
	}

	s.misses.Add(1)

	return false
}

// MarkClean records path as clean at hash.
func (s *Store) MarkClean(path, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[path] == hash {
		return
	}

	s.entries[path] = hash
	s.dirty = true
}

// Forget drops path, e.g. after it was rewritten or failed to parse.
func (s *Store) Forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[path]; !ok {
		return
	}

	delete(s.entries, path)
	s.dirty = true
}

// Len returns the number of clean entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Stats returns lookup hits and misses since the store was opened.
func (s *Store) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Save writes the store when it changed since it was opened. The file is replaced
// atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := encode(snapshot{Version: s.version, Entries: s.entries})
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(cacheFileMode)
	}

	closeErr := tmp.Close()
	if err = errors.Join(err, closeErr); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("write cache: %w", err)
	}

	if err = os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replace cache: %w", err)
	}

	s.dirty = false

	return nil
}

func encode(snap snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode cache: %w", err)
	}

	var buf bytes.Buffer

	zw := lz4.NewWriter(&buf)

	if _, err = zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress cache: %w", err)
	}

	if err = zw.Close(); err != nil {
		return nil, fmt.Errorf("compress cache: %w", err)
	}

	return buf.Bytes(), nil
}

func decode(data []byte) (snapshot, error) {
	raw, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return snapshot{}, fmt.Errorf("decompress cache: %w", err)
	}

	var snap snapshot

	if err = json.Unmarshal(raw, &snap); err != nil {
		return snapshot{}, fmt.Errorf("decode cache: %w", err)
	}

	return snap, nil
}
