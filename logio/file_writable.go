package logio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neehar-mavuduru/perfio/pathutil"
)

// Writable is a sink accepting sequential writes.
type Writable interface {
	Write(p []byte) (int, error)
	Close() error
}

var (
	_ Writable = (*FileWritable)(nil)
	_ Writable = (*MemoryWritable)(nil)
)

// FileOptions configures a FileWritable. The zero value writes an
// uncompressed file in append mode.
type FileOptions struct {
	// Compress pipes output through Codec. Paths ending in the codec suffix
	// are compressed regardless.
	Compress bool
	// Truncate opens the file with O_TRUNC instead of O_APPEND.
	Truncate bool
	// Codec defaults to XZ.
	Codec *Codec
	// WriterBinary is the durable-write helper fed by the compressor
	// (default "dd"). A value containing "/" is used as a path.
	WriterBinary string
	// Stdout receives writes for the "-" path (default os.Stdout).
	Stdout io.Writer
	Logger *zap.Logger
}

// FileWritable is a lock-protected file sink, optionally compressed through
// an external process chain, that supports atomic rotation. All exported
// methods are safe for concurrent use.
type FileWritable struct {
	mu sync.Mutex

	path         string
	compress     bool
	truncate     bool
	codec        Codec
	writerBinary string
	stdout       io.Writer

	// Current handle; nil until the first write or Open.
	out  io.Writer
	file *os.File
	pipe *ProcessPipe

	// Set when a rotation left the sink closed; cleared by Open.
	failed error

	logger *zap.Logger
	stats  Statistics
}

// NewFileWritable creates a sink for path. Nothing is opened or spawned
// until the first Write or Open.
func NewFileWritable(path string, opts FileOptions) *FileWritable {
	w := &FileWritable{
		path:         path,
		truncate:     opts.Truncate,
		codec:        codecOrDefault(opts.Codec),
		writerBinary: opts.WriterBinary,
		stdout:       opts.Stdout,
		logger:       opts.Logger,
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}

	if path != StdioPath && (opts.Compress || w.codec.Matches(path)) {
		w.compress = true
		if !w.codec.Matches(path) {
			w.path += w.codec.Suffix
		}
	}
	return w
}

// Path returns the live file path, including any added compression suffix.
func (w *FileWritable) Path() string { return w.path }

// Compressed reports whether writes go through the external compressor.
func (w *FileWritable) Compressed() bool { return w.compress }

// Stats returns a snapshot of the sink counters.
func (w *FileWritable) Stats() StatsSnapshot { return w.stats.snapshot() }

// Write appends p, opening the sink first if needed. The open check, the
// open and the write happen under one lock.
func (w *FileWritable) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.failed != nil {
		return 0, w.failed
	}
	if w.out == nil {
		if err := w.openLocked(w.truncate); err != nil {
			w.stats.Errors.Add(1)
			return 0, err
		}
	}

	n, err := w.out.Write(p)
	w.stats.BytesWritten.Add(int64(n))
	if err != nil {
		w.stats.Errors.Add(1)
		return n, fmt.Errorf("write %s: %w", w.path, err)
	}
	w.stats.Writes.Add(1)
	return n, nil
}

// WriteString is Write for strings.
func (w *FileWritable) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Open opens the sink if it is not open yet. It also clears the failure left
// behind by an unsuccessful Rotate.
func (w *FileWritable) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.failed = nil
	if err := w.openLocked(w.truncate); err != nil {
		w.stats.Errors.Add(1)
		return err
	}
	return nil
}

// Close releases the handle and waits for the compressor, then the writer.
// Closing a closed sink is a no-op.
func (w *FileWritable) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.closeLocked(); err != nil {
		w.stats.Errors.Add(1)
		return err
	}
	return nil
}

// Rotate closes the sink, moves the file to ArchivePath(path, ts) and opens
// a fresh file at path, all under the write lock. It returns the archive
// path. Writes racing with Rotate land entirely before or after it.
//
// If Rotate fails before the rename, the file stays intact at its original
// path and the sink refuses writes until Open or a later successful
// Rotate. If the rename succeeded but reopening failed, the archive path is
// returned with the error.
func (w *FileWritable) Rotate(ts time.Time) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.path == StdioPath {
		return "", ErrNotRotatable
	}

	archivePath, err := w.rotateLocked(ts)
	if err != nil {
		w.stats.Errors.Add(1)
		w.logger.Error("rotation failed",
			zap.String("path", w.path),
			zap.String("archive", archivePath),
			zap.Error(err))
		return archivePath, err
	}
	return archivePath, nil
}

func (w *FileWritable) rotateLocked(ts time.Time) (string, error) {
	if err := w.closeLocked(); err != nil {
		w.failed = fmt.Errorf("rotate %s: close before archiving: %w", w.path, err)
		return "", w.failed
	}

	if _, err := os.Stat(w.path); errors.Is(err, os.ErrNotExist) {
		// Nothing was ever written; start the fresh file only.
		if err := w.openLocked(true); err != nil {
			return "", err
		}
		w.failed = nil
		return "", nil
	}

	archivePath := ArchivePath(w.path, ts)
	if err := pathutil.EnsureDir(filepath.Dir(archivePath)); err != nil {
		w.failed = &ResourceError{Op: "rotate", Path: w.path, Err: err}
		return "", w.failed
	}
	if err := renameNoReplace(w.path, archivePath); err != nil {
		w.failed = &ResourceError{Op: "rotate", Path: w.path, Err: err}
		return "", w.failed
	}
	if err := syncDir(filepath.Dir(archivePath)); err != nil {
		w.logger.Warn("archive directory sync failed", zap.String("dir", filepath.Dir(archivePath)), zap.Error(err))
	}
	w.stats.Rotations.Add(1)
	w.logger.Info("rotated log file", zap.String("path", w.path), zap.String("archive", archivePath))

	if err := w.openLocked(true); err != nil {
		w.failed = err
		return archivePath, err
	}
	// A successful rotation supersedes an earlier failed one.
	w.failed = nil
	return archivePath, nil
}

// openLocked binds the handle. The caller holds w.mu.
func (w *FileWritable) openLocked(truncate bool) error {
	if w.out != nil {
		return nil
	}

	switch {
	case w.path == StdioPath:
		w.out = w.stdout

	case w.compress:
		// Resolve both binaries before touching the filesystem.
		compressor, err := w.codec.compressCmd()
		if err != nil {
			return err
		}
		writer, err := writerCmd(w.writerBinary, w.path)
		if err != nil {
			return err
		}

		// The writer truncates anyway; creating the file here makes the path
		// exist once Open returns and reports path errors synchronously.
		f, err := createFile(w.path, os.O_TRUNC)
		if err != nil {
			return err
		}
		f.Close()

		pipe, err := NewWritePipe(compressor, writer)
		if err != nil {
			return err
		}
		w.pipe = pipe
		w.out = pipe.WriteEnd()

	default:
		flag := os.O_APPEND
		if truncate {
			flag = os.O_TRUNC
		}
		f, err := createFile(w.path, flag)
		if err != nil {
			return err
		}
		// *os.File is unbuffered: every Write reaches the OS immediately.
		w.file = f
		w.out = f
	}

	w.stats.Opens.Add(1)
	w.logger.Debug("opened sink", zap.String("path", w.path), zap.Bool("compress", w.compress))
	return nil
}

// closeLocked releases the handle and reaps the process chain. The caller
// holds w.mu.
func (w *FileWritable) closeLocked() error {
	var errs []error

	if w.file != nil {
		if err := w.file.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", w.path, err))
		}
		if err := w.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", w.path, err))
		}
		w.file = nil
	}
	w.out = nil

	if w.pipe != nil {
		if err := w.pipe.Shutdown(); err != nil {
			errs = append(errs, err)
		}
		w.pipe = nil
	}
	return errors.Join(errs...)
}

func createFile(path string, flag int) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &ResourceError{Op: "open", Path: path, Err: err}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|flag, 0644)
	if err != nil {
		return nil, &ResourceError{Op: "open", Path: path, Err: err}
	}
	return f, nil
}
