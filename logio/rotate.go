package logio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveDir is the subdirectory, next to the live file, holding rotated files.
const ArchiveDir = "archive"

// ArchiveTimeFormat is embedded into rotated file names.
const ArchiveTimeFormat = "2006-01-02_15:04:05"

// ArchivePath returns where path is moved to when rotated at ts:
// dir/archive/<stem>_<timestamp><ext>, keeping up to two extensions so that
// "run.log.xz" becomes "run_2024-01-01_00:00:00.log.xz".
func ArchivePath(path string, ts time.Time) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	stem, exts := splitExt(base)
	name := fmt.Sprintf("%s_%s%s", stem, ts.Format(ArchiveTimeFormat), exts)
	return filepath.Join(dir, ArchiveDir, name)
}

func splitExt(base string) (stem, exts string) {
	stem = base
	for i := 0; i < 2; i++ {
		ext := filepath.Ext(stem)
		if ext == "" || ext == stem {
			break
		}
		stem = strings.TrimSuffix(stem, ext)
		exts = ext + exts
	}
	return stem, exts
}

// renameChecked refuses to overwrite newPath, then renames.
func renameChecked(oldPath, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		return fmt.Errorf("archive %s: %w", newPath, os.ErrExist)
	}
	return os.Rename(oldPath, newPath)
}
