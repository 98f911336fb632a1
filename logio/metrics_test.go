package logio

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	w := NewFileWritable(filepath.Join(t.TempDir(), "run.log"), FileOptions{})
	_, err := w.WriteString("hello\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	c := NewCollector(w)
	assert.Equal(t, 5, testutil.CollectAndCount(c))

	expected := `
# HELP perfio_sink_bytes_written_total Bytes written to the sink
# TYPE perfio_sink_bytes_written_total counter
perfio_sink_bytes_written_total{path="` + w.Path() + `"} 6
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "perfio_sink_bytes_written_total"))
}
