package logio

import (
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/neehar-mavuduru/perfio/pathutil"
)

// StdioPath is the path sentinel binding a sink to standard output and a
// source to standard input.
const StdioPath = "-"

// DefaultWriterBinary copies its standard input to the target path.
const DefaultWriterBinary = "dd"

// Codec describes an external streaming compressor.
type Codec struct {
	Name string
	// Suffix is appended to compressed paths and used to recognize them.
	Suffix string
	// Binary is an explicit path to the tool; empty means search PATH for Name.
	Binary         string
	CompressArgs   []string
	DecompressArgs []string
}

// XZ is the default codec: multi-threaded xz reading stdin, writing stdout.
var XZ = Codec{
	Name:           "xz",
	Suffix:         ".xz",
	CompressArgs:   []string{"--threads=3", "-"},
	DecompressArgs: []string{"--decompress", "--stdout"},
}

func codecOrDefault(c *Codec) Codec {
	if c == nil {
		return XZ
	}
	return *c
}

// Matches reports whether path carries the codec suffix.
func (c Codec) Matches(path string) bool {
	return c.Suffix != "" && strings.HasSuffix(path, c.Suffix)
}

func (c Codec) resolve() (string, error) {
	bin, err := pathutil.FindBinary(c.Binary, c.Name)
	if err != nil {
		return "", &ConfigurationError{Op: "resolve", Path: c.Name, Err: err}
	}
	return bin, nil
}

func (c Codec) compressCmd() (*exec.Cmd, error) {
	bin, err := c.resolve()
	if err != nil {
		return nil, err
	}
	return exec.Command(bin, c.CompressArgs...), nil
}

func (c Codec) decompressCmd(path string) (*exec.Cmd, error) {
	bin, err := c.resolve()
	if err != nil {
		return nil, err
	}
	// "--" keeps a path beginning with '-' from being read as an option.
	args := append(append([]string(nil), c.DecompressArgs...), "--", path)
	return exec.Command(bin, args...), nil
}

func writerCmd(binary, path string) (*exec.Cmd, error) {
	name := DefaultWriterBinary
	explicit := ""
	if binary != "" {
		if strings.ContainsRune(binary, '/') || strings.HasPrefix(binary, "~") {
			explicit = binary
		} else {
			name = binary
		}
	}
	bin, err := pathutil.FindBinary(explicit, name)
	if err != nil {
		return nil, &ConfigurationError{Op: "resolve", Path: name, Err: err}
	}
	return exec.Command(bin, "of="+path), nil
}

// In-process decoders for archives recompressed after rotation.
var decoders = map[string]func(io.Reader) (io.ReadCloser, error){
	".zst": func(r io.Reader) (io.ReadCloser, error) {
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	},
	".gz": func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	},
	".lz4": func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(lz4.NewReader(r)), nil
	},
}

func decoderFor(path string) (func(io.Reader) (io.ReadCloser, error), bool) {
	for suffix, dec := range decoders {
		if strings.HasSuffix(path, suffix) {
			return dec, true
		}
	}
	return nil, false
}

// stackedCloser closes a decoder and then the file underneath it.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
