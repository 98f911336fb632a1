package logio

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotator(t *testing.T) {
	t.Run("RotateNowPublishesArchive", func(t *testing.T) {
		dir := t.TempDir()
		w := NewFileWritable(filepath.Join(dir, "run.log"), FileOptions{})
		defer w.Close()

		completed := make(chan string, 4)
		var tick atomic.Int64
		r := NewRotator(w, RotatorConfig{
			Completed: completed,
			Now: func() time.Time {
				return rotateTime.Add(time.Duration(tick.Add(1)) * time.Second)
			},
		})
		r.Start()
		defer r.Stop()

		_, err := w.WriteString("before\n")
		require.NoError(t, err)
		r.RotateNow()

		select {
		case archivePath := <-completed:
			assert.Equal(t, filepath.Join(dir, "archive", "run_2024-01-01_00:00:01.log"), archivePath)
			assert.Equal(t, "before\n", readFile(t, archivePath))
		case <-time.After(5 * time.Second):
			t.Fatal("no archive published")
		}
	})

	t.Run("PeriodicRotation", func(t *testing.T) {
		w := NewFileWritable(filepath.Join(t.TempDir(), "run.log"), FileOptions{})
		defer w.Close()

		completed := make(chan string, 4)
		var tick atomic.Int64
		r := NewRotator(w, RotatorConfig{
			Interval:  10 * time.Millisecond,
			Completed: completed,
			Now: func() time.Time {
				return rotateTime.Add(time.Duration(tick.Add(1)) * time.Second)
			},
		})
		assert.Equal(t, time.Second, r.config.Interval)

		_, err := w.WriteString("x\n")
		require.NoError(t, err)
		r.Start()

		select {
		case archivePath := <-completed:
			assert.FileExists(t, archivePath)
		case <-time.After(5 * time.Second):
			t.Fatal("no periodic rotation")
		}
		r.Stop()
		r.Stop()
	})

	t.Run("FullChannelDoesNotBlock", func(t *testing.T) {
		w := NewFileWritable(filepath.Join(t.TempDir(), "run.log"), FileOptions{})
		defer w.Close()

		completed := make(chan string)
		var tick atomic.Int64
		r := NewRotator(w, RotatorConfig{
			Completed: completed,
			Now: func() time.Time {
				return rotateTime.Add(time.Duration(tick.Add(1)) * time.Second)
			},
		})

		_, err := w.WriteString("x\n")
		require.NoError(t, err)
		r.rotate()
		assert.Equal(t, int64(1), w.Stats().Rotations)
	})
}
