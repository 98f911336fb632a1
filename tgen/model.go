package tgen

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/neehar-mavuduru/perfio/logio"
	"github.com/neehar-mavuduru/perfio/pathutil"
)

// Model is anything holding a tgen action graph.
type Model interface {
	Graph() *Graph
}

// Generator is a Model built from parameters rather than loaded.
type Generator interface {
	Model
	Generate() *Graph
}

var (
	_ Generator = (*ListenModel)(nil)
	_ Generator = (*TorperfModel)(nil)
	_ Model     = (*LoadedModel)(nil)
)

// DumpToString serializes the model graph as GraphML.
func DumpToString(m Model) (string, error) {
	var buf bytes.Buffer
	if err := WriteGraphML(&buf, m.Graph()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DumpToFile writes the model graph to path, replacing its contents. A
// path ending in ".xz" is compressed.
func DumpToFile(m Model, path string) error {
	w := logio.NewFileWritable(path, logio.FileOptions{Truncate: true})
	if err := WriteGraphML(w, m.Graph()); err != nil {
		w.Close()
		return fmt.Errorf("dump %s: %w", path, err)
	}
	return w.Close()
}

// LoadedModel wraps a graph read from GraphML.
type LoadedModel struct {
	graph *Graph
}

// Graph implements Model.
func (m *LoadedModel) Graph() *Graph { return m.graph }

// LoadFromFile reads a model from path; "-" reads standard input and
// compressed files are decompressed.
func LoadFromFile(path string) (*LoadedModel, error) {
	src := logio.NewDataSource(path, logio.SourceOptions{})
	defer src.Close()

	r, err := src.Reader()
	if err != nil {
		return nil, err
	}
	g, err := ReadGraphML(r)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &LoadedModel{graph: g}, nil
}

// LoadFromString reads a model from GraphML text.
func LoadFromString(s string) (*LoadedModel, error) {
	g, err := ReadGraphML(strings.NewReader(s))
	if err != nil {
		return nil, err
	}
	return &LoadedModel{graph: g}, nil
}

// ListenModel is a server graph that only accepts incoming transfers.
type ListenModel struct {
	Port  string
	graph *Graph
}

// NewListenModel builds a listener on port (default "8888").
func NewListenModel(port string) *ListenModel {
	if port == "" {
		port = "8888"
	}
	m := &ListenModel{Port: port}
	m.graph = m.Generate()
	return m
}

// Graph implements Model.
func (m *ListenModel) Graph() *Graph { return m.graph }

// Generate builds the listener graph.
func (m *ListenModel) Generate() *Graph {
	g := NewGraph()
	g.AddNode("start", map[string]string{
		"serverport": m.Port,
		"loglevel":   "info",
		"heartbeat":  "1 minute",
	})
	return g
}

// TorperfModel is the client graph fetching 50 KiB, 1 MiB and 5 MiB files
// from Servers with 12:2:1 probability, pausing five minutes between
// transfers.
type TorperfModel struct {
	Port       string
	Servers    []string
	SocksProxy string // empty connects directly
	graph      *Graph
}

// NewTorperfModel builds a torperf client graph. Defaults are port "8889"
// and a single server at 127.0.0.1:8888.
func NewTorperfModel(port string, servers []string, socksProxy string) *TorperfModel {
	if port == "" {
		port = "8889"
	}
	if len(servers) == 0 {
		servers = []string{"127.0.0.1:8888"}
	}
	m := &TorperfModel{Port: port, Servers: servers, SocksProxy: socksProxy}
	m.graph = m.Generate()
	return m
}

// Graph implements Model.
func (m *TorperfModel) Graph() *Graph { return m.graph }

// Generate builds the torperf graph.
func (m *TorperfModel) Generate() *Graph {
	g := NewGraph()

	start := map[string]string{
		"serverport": m.Port,
		"peers":      strings.Join(m.Servers, ","),
		"loglevel":   "info",
		"heartbeat":  "1 minute",
	}
	if m.SocksProxy != "" {
		start["socksproxy"] = m.SocksProxy
	}
	g.AddNode("start", start)
	g.AddNode("pause", map[string]string{"time": "5 minutes"})
	g.AddNode("transfer50k", transfer("50 KiB", "295 seconds", "300 seconds"))
	g.AddNode("transfer1m", transfer("1 MiB", "1795 seconds", "1800 seconds"))
	g.AddNode("transfer5m", transfer("5 MiB", "3595 seconds", "3600 seconds"))

	g.AddEdge("start", "pause")
	// The pause restarts itself while one transfer runs concurrently.
	g.AddEdge("pause", "pause")
	g.AddWeightedEdge("pause", "transfer50k", 12)
	g.AddWeightedEdge("pause", "transfer1m", 2)
	g.AddWeightedEdge("pause", "transfer5m", 1)
	return g
}

func transfer(size, timeout, stallout string) map[string]string {
	return map[string]string{
		"type":     "get",
		"protocol": "tcp",
		"size":     size,
		"timeout":  timeout,
		"stallout": stallout,
	}
}

// Example torperf file names written by DumpExampleTorperf.
const (
	ServerGraphFile = "tgen.server.torperf.graphml.xml"
	ClientGraphFile = "tgen.client.torperf.graphml.xml"
)

// DumpExampleTorperf writes a listener on 8888 and a client that reaches
// it both over domainName:8888 and onionName:8890 through a local SOCKS
// proxy on 9001.
func DumpExampleTorperf(dir, domainName, onionName string) error {
	dir, err := pathutil.Abs(dir)
	if err != nil {
		return err
	}
	if err := pathutil.EnsureDir(dir); err != nil {
		return err
	}

	server := NewListenModel("8888")
	client := NewTorperfModel("8889", []string{
		domainName + ":8888",
		onionName + ":8890",
	}, "localhost:9001")

	if err := DumpToFile(server, filepath.Join(dir, ServerGraphFile)); err != nil {
		return err
	}
	return DumpToFile(client, filepath.Join(dir, ClientGraphFile))
}
