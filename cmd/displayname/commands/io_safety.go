package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/Sumatoshi-tech/displayname/pkg/safeconv"
)

var (
	// ErrDirectoryPath indicates a file operation was attempted on a directory.
	ErrDirectoryPath = errors.New("path points to a directory")
	// ErrEmptyPath indicates a path argument was empty.
	ErrEmptyPath = errors.New("path is empty")
	// ErrPathContainsNUL indicates the path contains a NUL byte.
	ErrPathContainsNUL = errors.New("path contains NUL byte")
	// ErrFileTooLarge indicates a file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
)

// safeReadFile reads a user-named regular file no larger than maxSize bytes (zero
// disables the limit).
func safeReadFile(path string, maxSize uint64) (content []byte, resolvedPath string, err error) {
	resolvedPath, info, err := resolveUserFilePath(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve path %q: %w", path, err)
	}

	if maxSize > 0 && safeconv.Size(info.Size()) > maxSize {
		return nil, "", fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, resolvedPath, info.Size(), maxSize)
	}

	//nolint:gosec // resolvedPath is normalized and existence/type checked in resolveUserFilePath.
	content, err = os.ReadFile(resolvedPath)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", resolvedPath, err)
	}

	return content, resolvedPath, nil
}

func resolveUserFilePath(path string) (string, os.FileInfo, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil, ErrEmptyPath
	}

	if strings.ContainsRune(path, '\x00') {
		return "", nil, fmt.Errorf("%w: %q", ErrPathContainsNUL, path)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", nil, fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", nil, fmt.Errorf("stat %s: %w", absPath, err)
	}

	if info.IsDir() {
		return "", nil, fmt.Errorf("%w: %s", ErrDirectoryPath, absPath)
	}

	return absPath, info, nil
}

// sanitizeForTerminal drops control characters from names taken from source files
// before they reach a terminal.
func sanitizeForTerminal(input string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, input)
}
