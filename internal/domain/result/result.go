package result

import (
	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	"github.com/kailas-cloud/investigo/internal/domain/record"
)

// Stored is the single accumulated copy of a distinct record within one search.
// It is mutated in place by the cross-referencer as matches arrive.
type Stored struct {
	id      string
	table   string
	rec     record.Record
	matched []criterion.Criterion
	score   float64
	seq     int
}

// NewStored creates an empty accumulation for a record first seen at position seq.
func NewStored(id, table string, rec record.Record, seq int) *Stored {
	return &Stored{id: id, table: table, rec: rec, seq: seq}
}

// ID returns the content-derived identifier (table:hash).
func (s *Stored) ID() string { return s.id }

// Table returns the source table.
func (s *Stored) Table() string { return s.table }

// Record returns the stored record.
func (s *Stored) Record() record.Record { return s.rec }

// Seq returns the insertion order.
func (s *Stored) Seq() int { return s.seq }

// MatchCount returns the number of distinct criteria that matched.
func (s *Stored) MatchCount() int { return len(s.matched) }

// Score returns the last computed relevance score.
func (s *Stored) Score() float64 { return s.score }

// SetScore stores the relevance score.
func (s *Stored) SetScore(v float64) { s.score = v }

// Matched returns a copy of the matched criteria in arrival order.
func (s *Stored) Matched() []criterion.Criterion {
	out := make([]criterion.Criterion, len(s.matched))
	copy(out, s.matched)
	return out
}

// HasMatch reports whether the criterion id already matched.
func (s *Stored) HasMatch(id string) bool {
	for _, c := range s.matched {
		if c.ID() == id {
			return true
		}
	}
	return false
}

// AddMatch records a criterion match. Returns false if it was already present.
func (s *Stored) AddMatch(c criterion.Criterion) bool {
	if s.HasMatch(c.ID()) {
		return false
	}
	s.matched = append(s.matched, c)
	return true
}

// FilterMatch is a filter criterion found in a record field.
type FilterMatch struct {
	CriterionID string `json:"criterion_id"`
	Field       string `json:"field"`
	Value       string `json:"value"`
}

// CrossReferenced is the read-only output view of a stored result.
type CrossReferenced struct {
	ID              string        `json:"id"`
	Table           string        `json:"table"`
	Record          record.Record `json:"record"`
	MatchedCriteria []string      `json:"matched_criteria"`
	MatchCount      int           `json:"match_count"`
	MatchScore      float64       `json:"match_score"`
	IsExactMatch    bool          `json:"is_exact_match"`
	Explanations    []string      `json:"explanations"`
	FilterMatches   []FilterMatch `json:"filter_matches"`
	EntitySignature string        `json:"entity_signature,omitempty"`
}
