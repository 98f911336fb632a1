//go:build !linux

package logio

func renameNoReplace(oldPath, newPath string) error {
	return renameChecked(oldPath, newPath)
}

// syncDir is a no-op on non-Linux systems.
func syncDir(dir string) error {
	return nil
}
