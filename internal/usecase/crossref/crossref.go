package crossref

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	"github.com/kailas-cloud/investigo/internal/domain/page"
	"github.com/kailas-cloud/investigo/internal/domain/record"
	"github.com/kailas-cloud/investigo/internal/domain/result"
)

// matchBonus rewards records matched by several criteria.
const matchBonus = 0.3

// Options tune result assembly.
type Options struct {
	// StrictFilters drops records that match none of the filter criteria.
	StrictFilters bool
}

// Attributed is a hit together with the criterion whose search returned it.
type Attributed struct {
	Criterion criterion.Criterion
	Hit       page.Hit
}

// Score computes sum(weight * priority multiplier * (1 + 0.3 * matchCount)).
func Score(matched []criterion.Criterion) float64 {
	bonus := 1 + matchBonus*float64(len(matched))
	var total float64
	for _, c := range matched {
		total += c.Weight() * c.Priority().Multiplier() * bonus
	}
	return total
}

// CrossReference deduplicates attributed hits and returns ranked results.
func CrossReference(criteria []criterion.Criterion, hits []Attributed, opts Options) []result.CrossReferenced {
	s := NewStore()
	for _, h := range hits {
		s.Add(h.Criterion, h.Hit)
	}
	return s.Results(criteria, opts)
}

// Results returns the ranked view: exact matches first, then by score, ties in arrival order.
func (s *Store) Results(criteria []criterion.Criterion, opts Options) []result.CrossReferenced {
	active := make(map[string]bool)
	var filters []criterion.Criterion
	for _, c := range criteria {
		switch {
		case c.IsActive():
			active[c.ID()] = true
		case c.Role() == criterion.RoleFilter:
			filters = append(filters, c)
		}
	}

	stored := s.snapshot()
	out := make([]result.CrossReferenced, 0, len(stored))
	for _, st := range stored {
		fm := filterMatches(st.Record(), filters)
		if opts.StrictFilters && len(filters) > 0 && len(fm) == 0 {
			continue
		}
		out = append(out, view(st, active, fm))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsExactMatch != out[j].IsExactMatch {
			return out[i].IsExactMatch
		}
		return out[i].MatchScore > out[j].MatchScore
	})
	return out
}

func view(st *result.Stored, active map[string]bool, fm []result.FilterMatch) result.CrossReferenced {
	matched := st.Matched()
	ids := make([]string, len(matched))
	hits := 0
	explanations := make([]string, 0, len(matched)+len(fm)+1)
	for i, c := range matched {
		ids[i] = c.ID()
		if active[c.ID()] {
			hits++
		}
		explanations = append(explanations,
			fmt.Sprintf("matched %s %q (%s)", c.Type(), c.RawValue(), c.Priority()))
	}
	exact := len(active) > 0 && hits == len(active) && len(matched) == len(active)
	if exact {
		explanations = append(explanations, fmt.Sprintf("matches all %d search criteria", len(active)))
	}
	for _, f := range fm {
		explanations = append(explanations, fmt.Sprintf("field %s contains %q", f.Field, f.Value))
	}
	if fm == nil {
		fm = []result.FilterMatch{}
	}

	return result.CrossReferenced{
		ID:              st.ID(),
		Table:           st.Table(),
		Record:          st.Record(),
		MatchedCriteria: ids,
		MatchCount:      st.MatchCount(),
		MatchScore:      st.Score(),
		IsExactMatch:    exact,
		Explanations:    explanations,
		FilterMatches:   fm,
		EntitySignature: Signature(st.Record()),
	}
}

// filterMatches finds filter values contained in any field of rec.
func filterMatches(rec record.Record, filters []criterion.Criterion) []result.FilterMatch {
	var out []result.FilterMatch
	for _, f := range filters {
		want := f.NormalizedValue()
		if want == "" {
			continue
		}
		for _, field := range rec.Fields() {
			got := criterion.Normalize(f.Type(), record.Stringify(field.Value))
			if got != "" && strings.Contains(got, want) {
				out = append(out, result.FilterMatch{
					CriterionID: f.ID(),
					Field:       field.Key,
					Value:       f.RawValue(),
				})
				break
			}
		}
	}
	return out
}

var signatureTypes = []criterion.Type{criterion.Phone, criterion.Email, criterion.GovernmentID}

// Signature names the entity a record describes by its strongest identifier, e.g. "phone:9748247177".
// Results are keyed by RecordID, not by signature: two rows about the same
// person stay separate results and share a signature so callers can group them.
func Signature(rec record.Record) string {
	for _, t := range signatureTypes {
		for _, f := range rec.Fields() {
			ft, ok := criterion.FieldType(f.Key)
			if !ok || ft != t {
				continue
			}
			if v := criterion.Normalize(t, record.Stringify(f.Value)); v != "" {
				return string(t) + ":" + v
			}
		}
	}
	return ""
}
