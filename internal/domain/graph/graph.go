package graph

import "github.com/kailas-cloud/investigo/internal/domain/criterion"

// Node is an entity value seen in one or more records.
type Node struct {
	ID              string         `json:"id"`
	Type            criterion.Type `json:"type"`
	DisplayValue    string         `json:"display_value"`
	OccurrenceCount int            `json:"occurrence_count"`
	SourceTables    []string       `json:"source_tables"`
	Connections     []string       `json:"connections"`
}

// Edge is an undirected co-occurrence between two nodes. Source sorts before Target.
type Edge struct {
	Source            string   `json:"source"`
	Target            string   `json:"target"`
	Weight            int      `json:"weight"`
	EvidenceRecordIDs []string `json:"evidence_record_ids"`
}

// Cluster is a group of strongly connected nodes.
type Cluster struct {
	ID          string   `json:"id"`
	NodeIDs     []string `json:"node_ids"`
	Size        int      `json:"size"`
	TotalWeight int      `json:"total_weight"`
}

// Graph is the co-occurrence graph derived from a result set.
type Graph struct {
	Nodes    []Node    `json:"nodes"`
	Edges    []Edge    `json:"edges"`
	Clusters []Cluster `json:"clusters"`
}

// NodeID returns the identifier of the node for a normalized value.
func NodeID(t criterion.Type, normalized string) string {
	return string(t) + ":" + normalized
}

// EdgeKey returns the canonical ordering of two node ids.
func EdgeKey(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// Node returns the node with id, if present.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge returns the edge between a and b in either order, if present.
func (g Graph) Edge(a, b string) (Edge, bool) {
	s, t := EdgeKey(a, b)
	for _, e := range g.Edges {
		if e.Source == s && e.Target == t {
			return e, true
		}
	}
	return Edge{}, false
}

// Empty returns a graph with non-nil empty collections.
func Empty() Graph {
	return Graph{Nodes: []Node{}, Edges: []Edge{}, Clusters: []Cluster{}}
}
