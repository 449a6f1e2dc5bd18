package crossref

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
	"github.com/kailas-cloud/investigo/internal/domain/page"
	"github.com/kailas-cloud/investigo/internal/domain/record"
	"github.com/kailas-cloud/investigo/internal/domain/result"
)

// highConfidenceMatches is how many P1/P2 matches make a record a confident hit.
const highConfidenceMatches = 2

// Store accumulates hits from all criteria of one search. Safe for concurrent use.
type Store struct {
	mu             sync.Mutex
	byID           map[string]*result.Stored
	order          []*result.Stored
	highConfidence int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]*result.Stored)}
}

// RecordID returns the content-derived id of a record: table:first 16 hex chars of sha256.
func RecordID(table string, rec record.Record) string {
	h := sha256.New()
	h.Write([]byte(table))
	h.Write(rec.Canonical())
	return table + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Add attributes a hit to criterion c. Re-adding the same pair is a no-op.
// Returns true if the match was new.
func (s *Store) Add(c criterion.Criterion, hit page.Hit) bool {
	id := RecordID(hit.Table, hit.Record)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byID[id]
	if !ok {
		st = result.NewStored(id, hit.Table, hit.Record, len(s.order))
		s.byID[id] = st
		s.order = append(s.order, st)
	}

	wasConfident := isHighConfidence(st)
	if !st.AddMatch(c) {
		return false
	}
	st.SetScore(Score(st.Matched()))
	if !wasConfident && isHighConfidence(st) {
		s.highConfidence++
	}
	return true
}

// HighConfidenceCount returns how many records matched at least two P1/P2 criteria.
func (s *Store) HighConfidenceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highConfidence
}

// Len returns the number of distinct records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// snapshot returns stored results in insertion order.
func (s *Store) snapshot() []*result.Stored {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*result.Stored, len(s.order))
	copy(out, s.order)
	return out
}

func isHighConfidence(st *result.Stored) bool {
	n := 0
	for _, c := range st.Matched() {
		if c.IsHighConfidence() {
			n++
		}
	}
	return n >= highConfidenceMatches
}
