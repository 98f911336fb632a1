package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neehar-mavuduru/perfio/logio"
)

type recordingWriter struct {
	writes []string
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.writes = append(w.writes, string(p))
	return len(p), nil
}

func TestCopyLines(t *testing.T) {
	t.Run("OneWritePerLine", func(t *testing.T) {
		w := &recordingWriter{}
		require.NoError(t, copyLines(context.Background(), w, strings.NewReader("a\nbb\n\nlast")))
		assert.Equal(t, []string{"a\n", "bb\n", "\n", "last"}, w.writes)
	})

	t.Run("IntoMemoryWritable", func(t *testing.T) {
		m := logio.NewMemoryWritable()
		require.NoError(t, copyLines(context.Background(), m, strings.NewReader("x\ny\n")))
		assert.Equal(t, "x\ny\n", m.String())
	})

	t.Run("StopsWhenCancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		w := &recordingWriter{}
		require.NoError(t, copyLines(ctx, w, strings.NewReader("a\nb\n")))
		assert.Empty(t, w.writes)
	})

	t.Run("WriteError", func(t *testing.T) {
		m := logio.NewMemoryWritable()
		require.NoError(t, m.Close())
		err := copyLines(context.Background(), m, strings.NewReader("a\n"))
		assert.True(t, errors.Is(err, logio.ErrClosed))
	})
}

func TestCatOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.log")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0644))

	var out bytes.Buffer
	require.NoError(t, catOne(&out, path, false))
	assert.Equal(t, "one\ntwo\n", out.String())

	err := catOne(io.Discard, filepath.Join(t.TempDir(), "missing.log"), false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStringList(t *testing.T) {
	var s stringList
	require.NoError(t, s.Set("a"))
	require.NoError(t, s.Set("b"))
	assert.Equal(t, "a,b", s.String())
}
