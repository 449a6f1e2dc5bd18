package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	domgraph "github.com/kailas-cloud/investigo/internal/domain/graph"
	dominsight "github.com/kailas-cloud/investigo/internal/domain/insight"
)

// Thresholds for rule-based insights.
const (
	TopFindings          = 5
	TopConnections       = 5
	LargeResultSet       = 100
	LargeClusterSize     = 5
	SharedIdentifierName = 2
)

// RuleBased derives insights from counts and graph structure alone.
// It never fails and never returns nil lists.
func RuleBased(in Input) dominsight.Insights {
	ins := dominsight.Insights{
		Summary:         summary(in),
		KeyFindings:     keyFindings(in.Graph),
		RedFlags:        redFlags(in.Graph),
		Recommendations: recommendations(in),
		Connections:     connections(in.Graph),
		Source:          dominsight.SourceRuleBased,
	}
	ins.Normalize()
	return ins
}

func summary(in Input) string {
	if len(in.Results) == 0 {
		return fmt.Sprintf("No records matched %s.", plural(len(in.Criteria), "search criterion", "search criteria"))
	}

	tables := make(map[string]bool)
	exact := 0
	for _, r := range in.Results {
		tables[r.Table] = true
		if r.IsExactMatch {
			exact++
		}
	}
	s := fmt.Sprintf("Found %s across %s for %s; %s.",
		plural(len(in.Results), "unique record", "unique records"),
		plural(len(tables), "table", "tables"),
		plural(len(in.Criteria), "criterion", "criteria"),
		plural(exact, "exact match", "exact matches"))
	if n := len(in.Graph.Clusters); n > 0 {
		s += fmt.Sprintf(" The records form %s.", plural(n, "entity cluster", "entity clusters"))
	}
	return s
}

func keyFindings(g domgraph.Graph) []string {
	nodes := append([]domgraph.Node(nil), g.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].OccurrenceCount > nodes[j].OccurrenceCount })

	out := []string{}
	for _, n := range nodes {
		if len(out) == TopFindings {
			break
		}
		out = append(out, fmt.Sprintf("%s %q appears in %s from %s",
			label(n.Type), n.DisplayValue,
			plural(n.OccurrenceCount, "record", "records"),
			strings.Join(n.SourceTables, ", ")))
	}
	return out
}

func redFlags(g domgraph.Graph) []string {
	byID := make(map[string]domgraph.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	out := []string{}
	for _, n := range g.Nodes {
		if !n.Type.IsIdentifier() {
			continue
		}
		if names := namesAcrossRecords(g, n, byID); len(names) >= SharedIdentifierName {
			out = append(out, fmt.Sprintf("%s %q is shared by %d different names: %s",
				label(n.Type), n.DisplayValue, len(names), strings.Join(names, ", ")))
		}
	}
	for _, c := range g.Clusters {
		if c.Size >= LargeClusterSize {
			out = append(out, fmt.Sprintf("%s links %d entities through %d co-occurrences",
				c.ID, c.Size, c.TotalWeight))
		}
	}
	return out
}

// namesAcrossRecords returns the names linked to identifier n when they
// come from different records and no single name appears in all of them.
// Several name fields on one row (holder and account name) are one person.
func namesAcrossRecords(g domgraph.Graph, n domgraph.Node, byID map[string]domgraph.Node) []string {
	var names []string
	records := make(map[string]bool)
	var coverage []int
	for _, c := range n.Connections {
		peer, ok := byID[c]
		if !ok || peer.Type != criterion.Name {
			continue
		}
		e, ok := g.Edge(n.ID, c)
		if !ok {
			continue
		}
		own := make(map[string]bool, len(e.EvidenceRecordIDs))
		for _, r := range e.EvidenceRecordIDs {
			own[r] = true
			records[r] = true
		}
		names = append(names, peer.DisplayValue)
		coverage = append(coverage, len(own))
	}
	if len(records) < 2 {
		return nil
	}
	for _, cov := range coverage {
		if cov == len(records) {
			return nil
		}
	}
	return names
}

func recommendations(in Input) []string {
	out := []string{}
	n := len(in.Results)
	switch {
	case n == 0:
		out = append(out, "Broaden the search or verify the spelling of names and identifiers.")
	case n > LargeResultSet:
		out = append(out, fmt.Sprintf("Narrow your search with additional identifiers; %d records matched.", n))
	}
	if c := len(in.Graph.Clusters); c > 0 {
		out = append(out, fmt.Sprintf("Investigate the %s for related records.", plural(c, "entity cluster", "entity clusters")))
	}
	if in.EarlyTerminated {
		out = append(out, "Fetching stopped early after enough confident matches; rerun with early termination disabled for full coverage.")
	}
	if in.Incomplete {
		out = append(out, "The search was interrupted; retry to fetch the remaining criteria.")
	}
	for _, c := range in.Criteria {
		if c.Role() == criterion.RoleSearch && !c.IsActive() {
			out = append(out, fmt.Sprintf("Add a name or identifier alongside %s %q, which is too broad to query on its own.",
				label(c.Type()), c.RawValue()))
		}
	}
	if in.FailedSearches > 0 {
		out = append(out, fmt.Sprintf("%s failed; results may be partial.", plural(in.FailedSearches, "search", "searches")))
	}
	return out
}

func connections(g domgraph.Graph) []string {
	edges := append([]domgraph.Edge(nil), g.Edges...)
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Weight > edges[j].Weight })

	out := []string{}
	for _, e := range edges {
		if len(out) == TopConnections {
			break
		}
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		out = append(out, fmt.Sprintf("%s %q and %s %q appear together in %s",
			label(src.Type), src.DisplayValue,
			label(dst.Type), dst.DisplayValue,
			plural(e.Weight, "record", "records")))
	}
	return out
}

func label(t criterion.Type) string {
	return strings.ReplaceAll(string(t), "_", " ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
