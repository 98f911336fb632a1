package logio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSource_Plain(t *testing.T) {
	t.Run("YieldsLines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log")
		require.NoError(t, os.WriteFile(path, []byte("a\nb\nc"), 0644))

		src := NewDataSource(path, SourceOptions{})
		assert.False(t, src.Compressed())

		var lines []string
		for src.Scan() {
			lines = append(lines, src.Text())
		}
		require.NoError(t, src.Err())
		assert.Equal(t, []string{"a", "b", "c"}, lines)
		require.NoError(t, src.Close())
	})

	t.Run("MissingFileFailsAtOpen", func(t *testing.T) {
		src := NewDataSource(filepath.Join(t.TempDir(), "missing.log"), SourceOptions{})
		err := src.Open()
		var re *ResourceError
		require.ErrorAs(t, err, &re)
		assert.ErrorIs(t, err, os.ErrNotExist)

		assert.False(t, src.Scan())
		assert.Error(t, src.Err())
	})

	t.Run("ConstructionTouchesNothing", func(t *testing.T) {
		dir := t.TempDir()
		codec := XZ
		codec.Binary = filepath.Join(dir, "no-such-xz")

		plain := NewDataSource(filepath.Join(dir, "missing", "run.log"), SourceOptions{})
		compressed := NewDataSource(filepath.Join(dir, "run.log.xz"), SourceOptions{Codec: &codec})
		assert.False(t, plain.Compressed())
		assert.True(t, compressed.Compressed())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)

		require.NoError(t, compressed.Close())
		require.NoError(t, plain.Close())
	})

	t.Run("CloseWithoutOpen", func(t *testing.T) {
		src := NewDataSource(filepath.Join(t.TempDir(), "never.log"), SourceOptions{})
		require.NoError(t, src.Close())
		require.NoError(t, src.Close())
		assert.ErrorIs(t, src.Open(), ErrClosed)
	})

	t.Run("NotReopenable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log")
		require.NoError(t, os.WriteFile(path, []byte("x\n"), 0644))

		src := NewDataSource(path, SourceOptions{})
		require.NoError(t, src.Open())
		require.NoError(t, src.Open())
		require.NoError(t, src.Close())
		assert.ErrorIs(t, src.Open(), ErrClosed)
	})

	t.Run("ReaderOpensImplicitly", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log")
		require.NoError(t, os.WriteFile(path, []byte("raw bytes"), 0644))

		src := NewDataSource(path, SourceOptions{})
		defer src.Close()
		r, err := src.Reader()
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "raw bytes", string(data))
	})

	t.Run("LinesStopsEarly", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log")
		require.NoError(t, os.WriteFile(path, []byte("1\n2\n3\n"), 0644))

		src := NewDataSource(path, SourceOptions{})
		defer src.Close()
		for line, err := range src.Lines() {
			require.NoError(t, err)
			assert.Equal(t, "1", line)
			break
		}
		assert.True(t, src.Scan())
		assert.Equal(t, "2", src.Text())
	})
}

func TestDataSource_Stdin(t *testing.T) {
	src := NewDataSource(StdioPath, SourceOptions{Stdin: strings.NewReader("line1\nline2\n"), Compress: true})
	assert.False(t, src.Compressed())

	var lines []string
	for line, err := range src.Lines() {
		require.NoError(t, err)
		lines = append(lines, line)
	}
	assert.Equal(t, []string{"line1", "line2"}, lines)
	require.NoError(t, src.Close())
}

func TestDataSource_InProcessDecoders(t *testing.T) {
	content := "alpha\nbeta\n"
	encoders := map[string]func(io.Writer) (io.WriteCloser, error){
		".zst": func(w io.Writer) (io.WriteCloser, error) { return zstd.NewWriter(w) },
		".gz":  func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(w), nil },
		".lz4": func(w io.Writer) (io.WriteCloser, error) { return lz4.NewWriter(w), nil },
	}

	for suffix, enc := range encoders {
		t.Run(suffix, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "run.log"+suffix)
			f, err := os.Create(path)
			require.NoError(t, err)
			w, err := enc(f)
			require.NoError(t, err)
			_, err = io.WriteString(w, content)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			require.NoError(t, f.Close())

			assert.Equal(t, []string{"alpha", "beta"}, readLines(t, path))
		})
	}
}

func TestDataSource_Compressed(t *testing.T) {
	requireCompressionTools(t)

	writeCompressed := func(t *testing.T, lines int) string {
		t.Helper()
		w := NewFileWritable(filepath.Join(t.TempDir(), "run.log.xz"), FileOptions{})
		for i := 0; i < lines; i++ {
			_, err := fmt.Fprintf(w, "measurement %06d %s\n", i, strings.Repeat("z", 32))
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())
		return w.Path()
	}

	t.Run("MissingFileFailsAtOpen", func(t *testing.T) {
		src := NewDataSource(filepath.Join(t.TempDir(), "missing.log.xz"), SourceOptions{})
		assert.True(t, src.Compressed())
		err := src.Open()
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("TruncatedStreamIsReadError", func(t *testing.T) {
		path := writeCompressed(t, 2000)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0644))

		src := NewDataSource(path, SourceOptions{})
		for src.Scan() {
		}
		var pe *ProcessExitError
		require.ErrorAs(t, src.Err(), &pe)
		assert.Error(t, src.Close())
	})

	t.Run("AbandonedStreamClosesCleanly", func(t *testing.T) {
		path := writeCompressed(t, 100000)

		src := NewDataSource(path, SourceOptions{})
		require.True(t, src.Scan())
		assert.True(t, strings.HasPrefix(src.Text(), "measurement 000000"))
		require.NoError(t, src.Close())
	})
}
