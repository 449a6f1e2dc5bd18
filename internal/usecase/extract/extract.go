package extract

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
)

// Maximum words taken after a cue.
const (
	maxNameWords     = 3
	maxCompanyWords  = 4
	maxLocationWords = 2
)

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

type candidate struct {
	typ criterion.Type
	raw string
}

// scanner walks one query, recording which byte ranges are already claimed.
type scanner struct {
	query  string
	tokens []span
	used   []span
	found  []candidate
}

// Extract finds criteria in a free-text query and classifies them.
// It never fails: a query with no recognizable value becomes one keyword criterion.
func Extract(query string) []criterion.Criterion {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}

	s := newScanner(q)
	s.values()
	s.companies()
	s.names()
	s.locations()
	s.keywords()

	if len(s.found) == 0 {
		s.found = append(s.found, candidate{typ: criterion.Keyword, raw: q})
	}
	return build(s.found)
}

func newScanner(q string) *scanner {
	s := &scanner{query: q}
	for _, loc := range token.FindAllStringIndex(q, -1) {
		s.tokens = append(s.tokens, span{loc[0], loc[1]})
	}
	return s
}

func (s *scanner) isUsed(sp span) bool {
	for _, u := range s.used {
		if u.overlaps(sp) {
			return true
		}
	}
	return false
}

func (s *scanner) claim(t criterion.Type, raw string, sp span) {
	s.used = append(s.used, sp)
	s.found = append(s.found, candidate{typ: t, raw: raw})
}

func (s *scanner) text(sp span) string { return s.query[sp.start:sp.end] }

func (s *scanner) values() {
	for _, p := range valuePatterns {
		for _, m := range p.regex.FindAllStringSubmatchIndex(s.query, -1) {
			whole := span{m[0], m[1]}
			val := span{m[2*p.group], m[2*p.group+1]}
			if val.start < 0 || s.isUsed(whole) {
				continue
			}
			if p.digitBounded && !s.digitBounded(val) {
				continue
			}
			if p.minDigits > 0 || p.maxDigits > 0 {
				n := countDigits(s.text(val))
				if n < p.minDigits || (p.maxDigits > 0 && n > p.maxDigits) {
					continue
				}
			}
			s.used = append(s.used, whole)
			s.found = append(s.found, candidate{typ: p.typ, raw: strings.TrimSpace(s.text(val))})
		}
	}
}

func (s *scanner) digitBounded(sp span) bool {
	if sp.start > 0 && isDigit(s.query[sp.start-1]) {
		return false
	}
	if sp.end < len(s.query) && isDigit(s.query[sp.end]) {
		return false
	}
	return true
}

func (s *scanner) companies() {
	for _, m := range companyCue.FindAllStringIndex(s.query, -1) {
		cue := span{m[0], m[1]}
		if s.isUsed(cue) {
			continue
		}
		ph, ok := s.phrase(cue.end, maxCompanyWords, false)
		if !ok {
			continue
		}
		s.claim(criterion.Company, s.text(ph), span{cue.start, ph.end})
	}
}

func (s *scanner) names() {
	for _, m := range nameCue.FindAllStringIndex(s.query, -1) {
		cue := span{m[0], m[1]}
		if s.isUsed(cue) {
			continue
		}
		ph, ok := s.phrase(cue.end, maxNameWords, true)
		if !ok {
			continue
		}
		typ := criterion.Name
		if hasCorporateWord(s.text(ph)) {
			typ = criterion.Company
		}
		s.claim(typ, s.text(ph), span{cue.start, ph.end})
	}

	for _, m := range properNoun.FindAllStringIndex(s.query, -1) {
		s.properNounRuns(span{m[0], m[1]})
	}
}

// properNounRuns splits a capitalized run at stop words and places, keeping
// pieces of at least two words as names.
func (s *scanner) properNounRuns(within span) {
	var run []span
	flush := func() {
		if len(run) >= 2 {
			sp := span{run[0].start, run[len(run)-1].end}
			s.claim(criterion.Name, s.text(sp), sp)
		}
		run = run[:0]
	}
	for _, tok := range s.tokens {
		if tok.start < within.start || tok.end > within.end {
			continue
		}
		lower := strings.ToLower(s.text(tok))
		if s.isUsed(tok) || stopWords[lower] || isKnownPlace(lower) {
			flush()
			continue
		}
		run = append(run, tok)
	}
	flush()
}

func (s *scanner) locations() {
	for _, m := range locationCue.FindAllStringIndex(s.query, -1) {
		cue := span{m[0], m[1]}
		if s.isUsed(cue) {
			continue
		}
		ph, ok := s.phrase(cue.end, maxLocationWords, false)
		if !ok {
			continue
		}
		words := s.tokensIn(ph)
		if len(words) == 2 && !isKnownPlace(criterion.Normalize(criterion.Location, s.text(ph))) {
			ph = words[0]
		}
		raw := s.text(ph)
		if weakLocationCue(s.text(cue)) && !isKnownPlace(criterion.Normalize(criterion.Location, raw)) && !isCapitalized(raw) {
			continue
		}
		s.claim(criterion.Location, raw, span{cue.start, ph.end})
	}

	// known places mentioned without a cue
	for i := 0; i < len(s.tokens); i++ {
		tok := s.tokens[i]
		if s.isUsed(tok) {
			continue
		}
		if i+1 < len(s.tokens) {
			pair := span{tok.start, s.tokens[i+1].end}
			if !s.isUsed(pair) && onlySpaces(s.query[tok.end:s.tokens[i+1].start]) &&
				isKnownPlace(criterion.Normalize(criterion.Location, s.text(pair))) {
				s.claim(criterion.Location, s.text(pair), pair)
				i++
				continue
			}
		}
		if isKnownPlace(strings.ToLower(s.text(tok))) {
			s.claim(criterion.Location, s.text(tok), tok)
		}
	}
}

func (s *scanner) keywords() {
	for _, m := range quoted.FindAllStringSubmatchIndex(s.query, -1) {
		whole := span{m[0], m[1]}
		if s.isUsed(whole) {
			continue
		}
		raw := strings.TrimSpace(s.query[m[2]:m[3]])
		if raw == "" {
			continue
		}
		s.claim(criterion.Keyword, raw, whole)
	}
}

// phrase collects up to max plain words starting right after pos.
// It stops at stop words, claimed text, punctuation and, when stopAtPlaces is set, known places.
func (s *scanner) phrase(pos, limit int, stopAtPlaces bool) (span, bool) {
	var first, last span
	n := 0
	prevEnd := pos
	for _, tok := range s.tokens {
		if tok.start < pos {
			continue
		}
		if !onlySpaces(s.query[prevEnd:tok.start]) {
			break
		}
		if n > 0 && tok.start == prevEnd {
			break
		}
		txt := s.text(tok)
		lower := strings.ToLower(txt)
		if !word.MatchString(txt) || stopWords[lower] || s.isUsed(tok) {
			break
		}
		if stopAtPlaces && isKnownPlace(lower) {
			break
		}
		if n == 0 {
			first = tok
		}
		last = tok
		prevEnd = tok.end
		n++
		if n == limit {
			break
		}
	}
	if n == 0 {
		return span{}, false
	}
	return span{first.start, last.end}, true
}

func (s *scanner) tokensIn(sp span) []span {
	var out []span
	for _, tok := range s.tokens {
		if tok.start >= sp.start && tok.end <= sp.end {
			out = append(out, tok)
		}
	}
	return out
}

// build dedupes candidates, assigns ids and classifies.
func build(found []candidate) []criterion.Criterion {
	seen := make(map[string]bool, len(found))
	out := make([]criterion.Criterion, 0, len(found))
	for _, c := range found {
		norm := criterion.Normalize(c.typ, c.raw)
		if norm == "" {
			continue
		}
		key := string(c.typ) + ":" + norm
		if seen[key] {
			continue
		}
		seen[key] = true
		id := fmt.Sprintf("c%d", len(out)+1)
		out = append(out, criterion.New(id, c.typ, c.raw, Classify(c.typ, norm)))
	}
	return promote(out)
}

func weakLocationCue(cue string) bool {
	switch strings.ToLower(cue) {
	case "in", "at", "near":
		return true
	default:
		return false
	}
}

func hasCorporateWord(s string) bool {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if corporateWords[strings.Trim(w, ".")] {
			return true
		}
	}
	return false
}

func isCapitalized(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

func onlySpaces(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			n++
		}
	}
	return n
}
