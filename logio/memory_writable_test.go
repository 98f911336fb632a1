package logio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWritable(t *testing.T) {
	t.Run("ReadsBackWhatWasWritten", func(t *testing.T) {
		m := NewMemoryWritable()
		_, err := m.Write([]byte("first\nsec"))
		require.NoError(t, err)
		_, err = m.Write([]byte("ond\nthird"))
		require.NoError(t, err)

		line, err := m.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "first\n", line)

		line, err = m.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "second\n", line)

		line, err = m.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "third", line)

		_, err = m.ReadLine()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("CursorIndependentOfWrites", func(t *testing.T) {
		m := NewMemoryWritable()
		_, _ = m.Write([]byte("a\n"))
		line, err := m.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "a\n", line)
		assert.Equal(t, 0, m.Len())

		_, _ = m.Write([]byte("b\n"))
		assert.Equal(t, 2, m.Len())
		line, err = m.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "b\n", line)
		assert.Equal(t, "a\nb\n", m.String())
	})

	t.Run("Close", func(t *testing.T) {
		m := NewMemoryWritable()
		_, _ = m.Write([]byte("x\n"))
		require.NoError(t, m.Close())
		require.NoError(t, m.Close())

		_, err := m.Write([]byte("y"))
		assert.ErrorIs(t, err, ErrClosed)
		_, err = m.ReadLine()
		assert.ErrorIs(t, err, ErrClosed)
		assert.Empty(t, m.String())
	})
}
