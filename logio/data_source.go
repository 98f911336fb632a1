package logio

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"os"
)

// MaxLineSize bounds a single line returned by DataSource.Scan.
const MaxLineSize = 16 * 1024 * 1024

// SourceOptions configures a DataSource.
type SourceOptions struct {
	// Compress forces decompression through Codec even without the suffix.
	Compress bool
	// Codec defaults to XZ.
	Codec *Codec
	// Stdin is read for the "-" path (default os.Stdin).
	Stdin io.Reader
}

// DataSource reads lines from a plain file, a compressed file or standard
// input. It opens lazily on first use and cannot be reopened after Close.
// It is not safe for concurrent use.
type DataSource struct {
	path     string
	compress bool
	codec    Codec
	stdin    io.Reader

	source  io.Reader
	closer  io.Closer
	pipe    *ProcessPipe
	scanner *bufio.Scanner

	opened  bool
	closed  bool
	drained bool
	err     error
	waitErr error
}

// NewDataSource creates a source for path without opening it.
func NewDataSource(path string, opts SourceOptions) *DataSource {
	s := &DataSource{
		path:     path,
		compress: opts.Compress,
		codec:    codecOrDefault(opts.Codec),
		stdin:    opts.Stdin,
	}
	if s.stdin == nil {
		s.stdin = os.Stdin
	}
	return s
}

// Path returns the source path.
func (s *DataSource) Path() string { return s.path }

// Compressed reports whether the source is read through the decompressor.
// Before Open it only reflects the explicit option and the suffix.
func (s *DataSource) Compressed() bool {
	return s.path != StdioPath && (s.compress || s.codec.Matches(s.path))
}

// Open binds the source. It is a no-op when already open and fails with
// ErrClosed after Close. Missing files are reported here rather than on the
// first read.
func (s *DataSource) Open() error {
	if s.closed {
		return ErrClosed
	}
	if s.opened {
		return nil
	}

	var r io.Reader
	switch {
	case s.path == StdioPath:
		r = s.stdin

	case s.Compressed():
		s.compress = true
		if _, err := os.Stat(s.path); err != nil {
			return &ResourceError{Op: "open", Path: s.path, Err: err}
		}
		cmd, err := s.codec.decompressCmd(s.path)
		if err != nil {
			return err
		}
		pipe, err := NewReadPipe(cmd)
		if err != nil {
			return err
		}
		s.pipe = pipe
		r = pipe.ReadEnd()

	default:
		f, err := os.Open(s.path)
		if err != nil {
			return &ResourceError{Op: "open", Path: s.path, Err: err}
		}
		if dec, ok := decoderFor(s.path); ok {
			rc, err := dec(f)
			if err != nil {
				f.Close()
				return &ResourceError{Op: "decode", Path: s.path, Err: err}
			}
			r = rc
			s.closer = &stackedCloser{Reader: rc, closers: []io.Closer{rc, f}}
		} else {
			r = f
			s.closer = f
		}
	}

	s.source = &eofReader{r: r, eof: &s.drained}
	s.opened = true
	return nil
}

// Reader returns the underlying stream, opening the source if needed.
func (s *DataSource) Reader() (io.Reader, error) {
	if err := s.Open(); err != nil {
		return nil, err
	}
	return s.source, nil
}

// Scan advances to the next line, opening the source on first call. It
// returns false at the end of input or on error; see Err.
func (s *DataSource) Scan() bool {
	if s.err != nil {
		return false
	}
	if s.scanner == nil {
		if err := s.Open(); err != nil {
			s.err = err
			return false
		}
		s.scanner = bufio.NewScanner(s.source)
		s.scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	}

	if s.scanner.Scan() {
		return true
	}
	if err := s.scanner.Err(); err != nil {
		s.err = err
		return false
	}

	// End of stream: a failed decompressor means the data was incomplete.
	if s.pipe != nil {
		s.waitErr = s.pipe.Shutdown()
		s.err = s.waitErr
	}
	return false
}

// Text returns the line produced by the last Scan, without its terminator.
func (s *DataSource) Text() string {
	if s.scanner == nil {
		return ""
	}
	return s.scanner.Text()
}

// Err returns the first error met while opening or reading.
func (s *DataSource) Err() error {
	return s.err
}

// Lines iterates over the remaining lines. A read error is yielded last.
func (s *DataSource) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for s.Scan() {
			if !yield(s.Text(), nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield("", err)
		}
	}
}

// Close releases the handle and waits for the decompressor. It is a no-op
// on a source that was never opened or is already closed. A decompressor
// killed because the stream was abandoned early is not an error.
func (s *DataSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.opened {
		return nil
	}

	var errs []error
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			errs = append(errs, &ResourceError{Op: "close", Path: s.path, Err: err})
		}
	}
	if s.pipe != nil {
		if err := s.pipe.Shutdown(); err != nil {
			var pe *ProcessExitError
			if s.drained || !errors.As(err, &pe) {
				errs = append(errs, err)
			}
		}
		if s.waitErr != nil {
			errs = append(errs, s.waitErr)
		}
	}
	s.source = nil
	s.closer = nil
	return errors.Join(errs...)
}

// eofReader records when the wrapped reader has been read to the end.
type eofReader struct {
	r   io.Reader
	eof *bool
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err == io.EOF {
		*e.eof = true
	}
	return n, err
}
