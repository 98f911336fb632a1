package pathutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrBinaryNotFound is returned by FindBinary when no usable binary exists.
var ErrBinaryNotFound = errors.New("binary not found")

// ExpandUser replaces a leading "~" with the current user's home directory.
func ExpandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Abs expands "~" and returns the absolute form of path.
func Abs(path string) (string, error) {
	return filepath.Abs(ExpandUser(path))
}

// EnsureDir creates path and any missing parents. It is a no-op when the
// directory already exists.
func EnsureDir(path string) error {
	p, err := Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(p, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p, err)
	}
	return nil
}

// FindBinary returns the absolute path of a binary. An explicit path wins;
// otherwise name is searched for in PATH.
func FindBinary(path, name string) (string, error) {
	var p string
	if path != "" {
		abs, err := Abs(path)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrBinaryNotFound, path, err)
		}
		p = abs
	} else {
		found, err := exec.LookPath(name)
		if err != nil {
			return "", fmt.Errorf("%w: no '%s' binary in PATH", ErrBinaryNotFound, name)
		}
		abs, err := Abs(found)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrBinaryNotFound, found, err)
		}
		p = abs
	}

	info, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("%w: path to '%s' binary does not exist: %s", ErrBinaryNotFound, name, p)
	}
	if info.IsDir() || info.Mode()&0111 == 0 {
		return "", fmt.Errorf("%w: %s is not executable", ErrBinaryNotFound, p)
	}
	return p, nil
}
