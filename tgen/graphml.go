package tgen

import (
	"encoding/xml"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphMLDoc struct {
	XMLName xml.Name
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// WriteGraphML serializes g as a directed GraphML document. Keys are
// assigned in sorted attribute order so output is deterministic.
func WriteGraphML(w io.Writer, g *Graph) error {
	nodes := g.Nodes()
	edges := g.Edges()

	var nodeAttrs, edgeAttrs []string
	for _, n := range nodes {
		for k := range n.Attrs {
			nodeAttrs = appendUnique(nodeAttrs, k)
		}
	}
	for _, e := range edges {
		if e.Weighted {
			edgeAttrs = appendUnique(edgeAttrs, WeightAttr)
		}
		for k := range e.Attrs {
			edgeAttrs = appendUnique(edgeAttrs, k)
		}
	}
	slices.Sort(nodeAttrs)
	slices.Sort(edgeAttrs)

	doc := graphMLDoc{
		XMLName: xml.Name{Space: graphMLNamespace, Local: "graphml"},
		Graph:   graphMLGraph{EdgeDefault: "directed"},
	}
	nodeKeys := make(map[string]string, len(nodeAttrs))
	edgeKeys := make(map[string]string, len(edgeAttrs))
	for _, name := range nodeAttrs {
		id := fmt.Sprintf("d%d", len(doc.Keys))
		nodeKeys[name] = id
		doc.Keys = append(doc.Keys, graphMLKey{ID: id, For: "node", Name: name, Type: "string"})
	}
	for _, name := range edgeAttrs {
		id := fmt.Sprintf("d%d", len(doc.Keys))
		edgeKeys[name] = id
		typ := "string"
		if name == WeightAttr {
			typ = "double"
		}
		doc.Keys = append(doc.Keys, graphMLKey{ID: id, For: "edge", Name: name, Type: typ})
	}

	for _, n := range nodes {
		gn := graphMLNode{ID: n.Name}
		for _, name := range nodeAttrs {
			if v, ok := n.Attrs[name]; ok {
				gn.Data = append(gn.Data, graphMLData{Key: nodeKeys[name], Value: v})
			}
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, gn)
	}
	for _, e := range edges {
		ge := graphMLEdge{Source: e.F.Name, Target: e.T.Name}
		for _, name := range edgeAttrs {
			switch {
			case name == WeightAttr && e.Weighted:
				ge.Data = append(ge.Data, graphMLData{Key: edgeKeys[name], Value: formatWeight(e.W)})
			case name != WeightAttr:
				if v, ok := e.Attrs[name]; ok {
					ge.Data = append(ge.Data, graphMLData{Key: edgeKeys[name], Value: v})
				}
			}
		}
		doc.Graph.Edges = append(doc.Graph.Edges, ge)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode graphml: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadGraphML parses a GraphML document. Only directed graphs are
// accepted; a non-numeric weight is an error.
func ReadGraphML(r io.Reader) (*Graph, error) {
	var doc graphMLDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graphml: %w", err)
	}
	if doc.XMLName.Local != "graphml" {
		return nil, fmt.Errorf("decode graphml: unexpected root element %q", doc.XMLName.Local)
	}
	if ed := doc.Graph.EdgeDefault; ed != "" && ed != "directed" {
		return nil, fmt.Errorf("decode graphml: unsupported edgedefault %q", ed)
	}

	keys := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		keys[k.ID] = k.Name
	}
	keyName := func(id string) string {
		if name, ok := keys[id]; ok && name != "" {
			return name
		}
		return id
	}

	g := NewGraph()
	for _, n := range doc.Graph.Nodes {
		attrs := make(map[string]string, len(n.Data))
		for _, d := range n.Data {
			attrs[keyName(d.Key)] = d.Value
		}
		g.AddNode(n.ID, attrs)
	}
	for _, e := range doc.Graph.Edges {
		var edge *Edge
		attrs := make(map[string]string)
		for _, d := range e.Data {
			name := keyName(d.Key)
			if name != WeightAttr {
				attrs[name] = d.Value
				continue
			}
			w, err := strconv.ParseFloat(strings.TrimSpace(d.Value), 64)
			if err != nil {
				return nil, fmt.Errorf("decode graphml: edge %s->%s: bad weight %q", e.Source, e.Target, d.Value)
			}
			edge = g.AddWeightedEdge(e.Source, e.Target, w)
		}
		if edge == nil {
			edge = g.AddEdge(e.Source, e.Target)
		}
		for k, v := range attrs {
			edge.Attrs[k] = v
		}
	}
	return g, nil
}

// formatWeight keeps one decimal for whole numbers, as tgen configs do.
func formatWeight(w float64) string {
	if w == float64(int64(w)) {
		return strconv.FormatFloat(w, 'f', 1, 64)
	}
	return strconv.FormatFloat(w, 'g', -1, 64)
}

func appendUnique(s []string, v string) []string {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
