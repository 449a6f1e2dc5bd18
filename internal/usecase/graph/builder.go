package graph

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	domgraph "github.com/kailas-cloud/investigo/internal/domain/graph"
	"github.com/kailas-cloud/investigo/internal/domain/record"
	"github.com/kailas-cloud/investigo/internal/domain/result"
)

// MinClusterEdgeWeight is the co-occurrence count an edge needs to pull a neighbour into a cluster.
const MinClusterEdgeWeight = 2

type nodeAcc struct {
	node   domgraph.Node
	tables map[string]bool
	conns  map[string]bool
}

type edgeKey struct{ a, b string }

type builder struct {
	nodes     map[string]*nodeAcc
	nodeOrder []string
	edges     map[edgeKey]*domgraph.Edge
	edgeOrder []edgeKey
}

// Build derives the co-occurrence graph of the entity values found in results.
func Build(results []result.CrossReferenced) domgraph.Graph {
	b := &builder{
		nodes: make(map[string]*nodeAcc),
		edges: make(map[edgeKey]*domgraph.Edge),
	}
	for _, r := range results {
		b.addRecord(r.ID, r.Table, r.Record)
	}
	g := b.graph()
	g.Clusters = Clusters(g)
	return g
}

func (b *builder) addRecord(id, table string, rec record.Record) {
	var ids []string
	seen := make(map[string]bool)
	for _, f := range rec.Fields() {
		t, ok := criterion.FieldType(f.Key)
		if !ok {
			continue
		}
		raw := strings.TrimSpace(record.Stringify(f.Value))
		norm := criterion.Normalize(t, raw)
		if norm == "" {
			continue
		}
		nid := domgraph.NodeID(t, norm)
		if seen[nid] {
			continue
		}
		seen[nid] = true
		ids = append(ids, nid)
		b.touchNode(nid, t, raw, table)
	}

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			b.link(ids[i], ids[j], id)
		}
	}
}

func (b *builder) touchNode(id string, t criterion.Type, raw, table string) {
	n, ok := b.nodes[id]
	if !ok {
		n = &nodeAcc{
			node:   domgraph.Node{ID: id, Type: t, DisplayValue: raw},
			tables: make(map[string]bool),
			conns:  make(map[string]bool),
		}
		b.nodes[id] = n
		b.nodeOrder = append(b.nodeOrder, id)
	}
	n.node.OccurrenceCount++
	if !n.tables[table] {
		n.tables[table] = true
		n.node.SourceTables = append(n.node.SourceTables, table)
	}
}

func (b *builder) link(x, y, recordID string) {
	s, t := domgraph.EdgeKey(x, y)
	k := edgeKey{s, t}
	e, ok := b.edges[k]
	if !ok {
		e = &domgraph.Edge{Source: s, Target: t}
		b.edges[k] = e
		b.edgeOrder = append(b.edgeOrder, k)
	}
	e.Weight++
	e.EvidenceRecordIDs = append(e.EvidenceRecordIDs, recordID)

	b.connect(x, y)
	b.connect(y, x)
}

func (b *builder) connect(from, to string) {
	n := b.nodes[from]
	if n.conns[to] {
		return
	}
	n.conns[to] = true
	n.node.Connections = append(n.node.Connections, to)
}

func (b *builder) graph() domgraph.Graph {
	g := domgraph.Empty()
	for _, id := range b.nodeOrder {
		n := b.nodes[id].node
		if n.Connections == nil {
			n.Connections = []string{}
		}
		g.Nodes = append(g.Nodes, n)
	}
	for _, k := range b.edgeOrder {
		g.Edges = append(g.Edges, *b.edges[k])
	}
	return g
}

// Clusters groups nodes greedily: each node that has not yet seeded a cluster
// seeds one and absorbs its direct neighbours over edges of weight >= 2.
// Only seeds are marked, so a node may appear in several clusters.
// Single-node groups are dropped.
func Clusters(g domgraph.Graph) []domgraph.Cluster {
	weights := make(map[edgeKey]int, len(g.Edges))
	for _, e := range g.Edges {
		weights[edgeKey{e.Source, e.Target}] = e.Weight
	}
	weight := func(a, b string) int {
		s, t := domgraph.EdgeKey(a, b)
		return weights[edgeKey{s, t}]
	}

	seeded := make(map[string]bool, len(g.Nodes))
	clusters := []domgraph.Cluster{}
	for _, n := range g.Nodes {
		if seeded[n.ID] {
			continue
		}
		seeded[n.ID] = true

		members := []string{n.ID}
		for _, nb := range n.Connections {
			if !seeded[nb] && weight(n.ID, nb) >= MinClusterEdgeWeight {
				members = append(members, nb)
			}
		}
		if len(members) < 2 {
			continue
		}

		total := 0
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				total += weight(members[i], members[j])
			}
		}
		clusters = append(clusters, domgraph.Cluster{
			ID:          fmt.Sprintf("cluster-%d", len(clusters)+1),
			NodeIDs:     members,
			Size:        len(members),
			TotalWeight: total,
		})
	}
	return clusters
}
