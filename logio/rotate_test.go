package logio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArchivePath(t *testing.T) {
	ts := time.Date(2023, 11, 5, 7, 8, 9, 0, time.UTC)

	tests := []struct {
		path string
		want string
	}{
		{"run.log", "archive/run_2023-11-05_07:08:09.log"},
		{"run.log.xz", "archive/run_2023-11-05_07:08:09.log.xz"},
		{"/var/log/onionperf.tgen.log", "/var/log/archive/onionperf_2023-11-05_07:08:09.tgen.log"},
		{"data/run", "data/archive/run_2023-11-05_07:08:09"},
		{"data/.hidden", "data/archive/.hidden_2023-11-05_07:08:09"},
		{"data/.hidden.log", "data/archive/.hidden_2023-11-05_07:08:09.log"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), ArchivePath(tt.path, ts))
		})
	}
}
