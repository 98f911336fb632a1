package pathutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}
}

func TestFindFiles(t *testing.T) {
	t.Run("MatchesBaseNamesRecursively", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "onionperf.tgen.log", "a/b/onionperf.torctl.log.xz", "a/notes.txt")

		paths, err := FindFiles(root, []string{`tgen\.log`, `torctl\.log`})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "a/b/onionperf.torctl.log.xz"),
			filepath.Join(root, "onionperf.tgen.log"),
		}, paths)
	})

	t.Run("StdinSentinel", func(t *testing.T) {
		paths, err := FindFiles("/some/dir/-", []string{"anything"})
		require.NoError(t, err)
		assert.Equal(t, []string{"-"}, paths)
	})

	t.Run("InvalidPattern", func(t *testing.T) {
		_, err := FindFiles(t.TempDir(), []string{"("})
		assert.Error(t, err)
	})

	t.Run("MissingRoot", func(t *testing.T) {
		_, err := FindFiles(filepath.Join(t.TempDir(), "missing"), []string{"x"})
		assert.Error(t, err)
	})
}

func TestFindFilePairs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "x.tgen.log", "x.torctl.log", "x.both.tgen.torctl", "readme")

	pairs, err := FindFilePairs(root, []string{`tgen`}, []string{`torctl`})
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	both := filepath.Join(root, "x.both.tgen.torctl")
	assert.Equal(t, FilePair{A: []string{both}, B: []string{both}}, pairs[0])
	assert.Equal(t, []string{filepath.Join(root, "x.tgen.log")}, pairs[1].A)
	assert.Empty(t, pairs[1].B)
	assert.Empty(t, pairs[2].A)
	assert.Equal(t, []string{filepath.Join(root, "x.torctl.log")}, pairs[2].B)
}

func TestGlob(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "archive/run_1.log.xz", "deep/archive/run_2.log.xz", "run.log")

	matches, err := Glob(filepath.Join(root, "**", "*.xz"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestEnsureDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a", "b", "c")
	require.NoError(t, EnsureDir(p))
	assert.DirExists(t, p)
	require.NoError(t, EnsureDir(p))
}

func TestFindBinary(t *testing.T) {
	t.Run("ExplicitPathMustExist", func(t *testing.T) {
		_, err := FindBinary(filepath.Join(t.TempDir(), "nope"), "nope")
		assert.ErrorIs(t, err, ErrBinaryNotFound)
	})

	t.Run("NotInPath", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		_, err := FindBinary("", "definitely-not-a-binary")
		assert.ErrorIs(t, err, ErrBinaryNotFound)
	})

	t.Run("ExplicitExecutable", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "tool")
		require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"), 0755))
		got, err := FindBinary(p, "tool")
		require.NoError(t, err)
		assert.Equal(t, p, got)
	})
}

func TestDates(t *testing.T) {
	a := time.Date(2024, 3, 9, 1, 2, 3, 0, time.UTC)
	b := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-09", DateString(a))
	assert.Equal(t, "", DateString(time.Time{}))
	assert.True(t, DatesMatch(a, b))
	assert.False(t, DatesMatch(a, b.AddDate(0, 0, 1)))

	secs, err := TimestampToSeconds("1500000000.5")
	require.NoError(t, err)
	assert.Equal(t, 1500000000.5, secs)

	_, err = TimestampToSeconds("soon")
	assert.Error(t, err)
}
