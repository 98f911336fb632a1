package archive

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"go.uber.org/zap"
)

var formatSuffix = map[string]string{
	FormatZstd: ".zst",
	FormatGzip: ".gz",
	FormatLZ4:  ".lz4",
}

// Suffixes of archives that are already compressed and uploaded as is.
var compressedSuffixes = []string{".xz", ".zst", ".gz", ".lz4"}

// Compactor recompresses plain archives in process before upload.
type Compactor struct {
	format string
	logger *zap.Logger
}

// NewCompactor creates a compactor for format. FormatNone disables it.
func NewCompactor(format string, logger *zap.Logger) (*Compactor, error) {
	if _, ok := formatSuffix[format]; !ok && format != FormatNone {
		return nil, fmt.Errorf("unknown compaction format %q", format)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compactor{format: format, logger: logger}, nil
}

// Compact writes a compressed copy of path next to it, syncs it, removes
// path and returns the new name. Compressed inputs and a disabled
// compactor return path unchanged.
func (c *Compactor) Compact(path string) (string, error) {
	if c.format == FormatNone || isCompressed(path) {
		return path, nil
	}

	out := path + formatSuffix[c.format]
	tmp := out + ".tmp"

	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer in.Close()

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	if err := c.encode(f, in); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("compact %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}

	if err := os.Remove(path); err != nil {
		c.logger.Warn("failed to remove compacted archive", zap.String("path", path), zap.Error(err))
	}
	c.logger.Debug("compacted archive", zap.String("path", path), zap.String("output", out))
	return out, nil
}

func (c *Compactor) encode(dst io.Writer, src io.Reader) error {
	var enc io.WriteCloser
	switch c.format {
	case FormatZstd:
		zw, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		enc = zw
	case FormatGzip:
		enc = gzip.NewWriter(dst)
	case FormatLZ4:
		enc = lz4.NewWriter(dst)
	}

	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func isCompressed(path string) bool {
	for _, suffix := range compressedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
