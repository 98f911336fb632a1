package tgen

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenModel(t *testing.T) {
	m := NewListenModel("")
	g := m.Graph()

	require.Len(t, g.Nodes(), 1)
	assert.Equal(t, map[string]string{
		"serverport": "8888",
		"loglevel":   "info",
		"heartbeat":  "1 minute",
	}, g.Node("start").Attrs)
	assert.Empty(t, g.Edges())
}

func TestTorperfModel(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		g := NewTorperfModel("", nil, "").Graph()

		start := g.Node("start")
		require.NotNil(t, start)
		assert.Equal(t, "8889", start.Attrs["serverport"])
		assert.Equal(t, "127.0.0.1:8888", start.Attrs["peers"])
		assert.NotContains(t, start.Attrs, "socksproxy")
	})

	t.Run("Structure", func(t *testing.T) {
		g := NewTorperfModel("8889", []string{"a:8888", "b.onion:8890"}, "localhost:9001").Graph()

		assert.Equal(t, "a:8888,b.onion:8890", g.Node("start").Attrs["peers"])
		assert.Equal(t, "localhost:9001", g.Node("start").Attrs["socksproxy"])
		assert.Equal(t, "5 minutes", g.Node("pause").Attrs["time"])
		assert.Equal(t, map[string]string{
			"type":     "get",
			"protocol": "tcp",
			"size":     "1 MiB",
			"timeout":  "1795 seconds",
			"stallout": "1800 seconds",
		}, g.Node("transfer1m").Attrs)

		assert.Equal(t, []string{"pause"}, g.Successors("start"))
		assert.Equal(t, []string{"pause", "transfer50k", "transfer1m", "transfer5m"}, g.Successors("pause"))

		assert.False(t, g.Edge("start", "pause").Weighted)
		assert.False(t, g.Edge("pause", "pause").Weighted)
		assert.Equal(t, 12.0, g.Edge("pause", "transfer50k").W)
		assert.Equal(t, 2.0, g.Edge("pause", "transfer1m").W)
		assert.Equal(t, 1.0, g.Edge("pause", "transfer5m").W)
	})
}

func TestGraphML_RoundTrip(t *testing.T) {
	original := NewTorperfModel("8889", []string{"example.com:8888"}, "localhost:9001")

	s, err := DumpToString(original)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "<?xml"))
	assert.Contains(t, s, `xmlns="http://graphml.graphdrawing.org/xmlns"`)
	assert.Contains(t, s, `edgedefault="directed"`)
	assert.Contains(t, s, `for="edge" attr.name="weight" attr.type="double"`)
	assert.Contains(t, s, ">12.0<")

	loaded, err := LoadFromString(s)
	require.NoError(t, err)
	assert.Equal(t, graphSummary(original.Graph()), graphSummary(loaded.Graph()))

	again, err := DumpToString(loaded)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestReadGraphML(t *testing.T) {
	t.Run("NetworkxOutput", func(t *testing.T) {
		doc := `<?xml version='1.0' encoding='utf-8'?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <key attr.name="weight" attr.type="string" for="edge" id="d3" />
  <key attr.name="time" attr.type="string" for="node" id="d1" />
  <key attr.name="size" attr.type="string" for="node" id="d0" />
  <graph edgedefault="directed">
    <node id="pause"><data key="d1">5 minutes</data></node>
    <node id="transfer50k"><data key="d0">50 KiB</data></node>
    <edge source="pause" target="transfer50k"><data key="d3">12.0</data></edge>
    <edge source="pause" target="pause" />
  </graph>
</graphml>`
		m, err := LoadFromString(doc)
		require.NoError(t, err)
		g := m.Graph()

		assert.Equal(t, "5 minutes", g.Node("pause").Attrs["time"])
		assert.Equal(t, "50 KiB", g.Node("transfer50k").Attrs["size"])
		assert.Equal(t, 12.0, g.Edge("pause", "transfer50k").W)
		assert.True(t, g.HasEdge("pause", "pause"))
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name string
			doc  string
		}{
			{"NotXML", "not xml at all"},
			{"WrongRoot", `<gexf><graph/></gexf>`},
			{"Undirected", `<graphml><graph edgedefault="undirected"/></graphml>`},
			{"BadWeight", `<graphml><key id="w" for="edge" attr.name="weight"/><graph edgedefault="directed"><edge source="a" target="b"><data key="w">heavy</data></edge></graph></graphml>`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := LoadFromString(tt.doc)
				assert.Error(t, err)
			})
		}
	})
}

func TestDumpToFile(t *testing.T) {
	t.Run("Truncates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "graph.xml")
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("stale", 10000)), 0644))

		require.NoError(t, DumpToFile(NewListenModel("9999"), path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "stale")

		m, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "9999", m.Graph().Node("start").Attrs["serverport"])
	})

	t.Run("Compressed", func(t *testing.T) {
		for _, bin := range []string{"xz", "dd"} {
			if _, err := exec.LookPath(bin); err != nil {
				t.Skipf("%s not available", bin)
			}
		}
		path := filepath.Join(t.TempDir(), "graph.xml.xz")
		require.NoError(t, DumpToFile(NewTorperfModel("", nil, ""), path))

		m, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Len(t, m.Graph().Nodes(), 5)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.xml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDumpExampleTorperf(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graphs")
	require.NoError(t, DumpExampleTorperf(dir, "example.com", "abcdef.onion"))

	server, err := LoadFromFile(filepath.Join(dir, ServerGraphFile))
	require.NoError(t, err)
	assert.Equal(t, "8888", server.Graph().Node("start").Attrs["serverport"])

	client, err := LoadFromFile(filepath.Join(dir, ClientGraphFile))
	require.NoError(t, err)
	start := client.Graph().Node("start").Attrs
	assert.Equal(t, "8889", start["serverport"])
	assert.Equal(t, "example.com:8888,abcdef.onion:8890", start["peers"])
	assert.Equal(t, "localhost:9001", start["socksproxy"])
}

type edgeSummary struct {
	From, To string
	Weight   float64
	Weighted bool
}

type summary struct {
	Nodes []map[string]string
	Edges []edgeSummary
}

func graphSummary(g *Graph) summary {
	var nodes []map[string]string
	for _, n := range g.Nodes() {
		attrs := map[string]string{"": n.Name}
		for k, v := range n.Attrs {
			attrs[k] = v
		}
		nodes = append(nodes, attrs)
	}
	var edges []edgeSummary
	for _, e := range g.Edges() {
		edges = append(edges, edgeSummary{e.F.Name, e.T.Name, e.W, e.Weighted})
	}
	return summary{Nodes: nodes, Edges: edges}
}
