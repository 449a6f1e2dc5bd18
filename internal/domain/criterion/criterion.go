package criterion

import (
	"encoding/json"
	"fmt"
)

// Type is the kind of value a criterion carries.
type Type string

// Criterion types.
const (
	Phone        Type = "phone"
	Email        Type = "email"
	GovernmentID Type = "government_id"
	Account      Type = "account"
	Name         Type = "name"
	Company      Type = "company"
	Location     Type = "location"
	Keyword      Type = "keyword"
)

var typeWeights = map[Type]float64{
	Phone:        1.0,
	Email:        1.0,
	GovernmentID: 1.0,
	Account:      0.9,
	Name:         0.7,
	Company:      0.6,
	Keyword:      0.4,
	Location:     0.3,
}

// Types lists all criterion types.
func Types() []Type {
	return []Type{Phone, Email, GovernmentID, Account, Name, Company, Location, Keyword}
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	_, ok := typeWeights[t]
	return ok
}

// IsIdentifier reports whether values of t point at a single entity.
func (t Type) IsIdentifier() bool {
	switch t {
	case Phone, Email, GovernmentID, Account:
		return true
	default:
		return false
	}
}

// Weight returns the importance weight used in match scoring.
func (t Type) Weight() float64 { return typeWeights[t] }

// Priority orders criteria from most (P1) to least (P5) selective.
type Priority int

// Priorities.
const (
	P1 Priority = iota + 1
	P2
	P3
	P4
	P5
)

func (p Priority) String() string { return fmt.Sprintf("P%d", int(p)) }

// Multiplier returns the score multiplier: P1=5 down to P5=1.
func (p Priority) Multiplier() float64 {
	if p < P1 || p > P5 {
		return 0
	}
	return float64(int(P5) + 1 - int(p))
}

// MarshalJSON encodes the priority as "P1".."P5".
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Role tells the fetcher whether a criterion drives a backend query.
type Role string

// Roles.
const (
	RoleSearch Role = "search"
	RoleFilter Role = "filter"
)

// Classification is the classifier verdict for one criterion.
type Classification struct {
	Priority    Priority `json:"priority"`
	Role        Role     `json:"role"`
	Selectivity float64  `json:"selectivity"`
	Reason      string   `json:"reason"`
}

// Criterion is one extracted, classified search term (immutable value object).
type Criterion struct {
	id         string
	typ        Type
	raw        string
	normalized string
	class      Classification
}

// New creates a Criterion, normalizing raw for its type.
func New(id string, t Type, raw string, c Classification) Criterion {
	return Criterion{id: id, typ: t, raw: raw, normalized: Normalize(t, raw), class: c}
}

// ID returns the criterion identifier.
func (c Criterion) ID() string { return c.id }

// Type returns the criterion type.
func (c Criterion) Type() Type { return c.typ }

// RawValue returns the text as found in the query.
func (c Criterion) RawValue() string { return c.raw }

// NormalizedValue returns the canonical form used for search and matching.
func (c Criterion) NormalizedValue() string { return c.normalized }

// Priority returns the classified priority.
func (c Criterion) Priority() Priority { return c.class.Priority }

// Role returns the classified role.
func (c Criterion) Role() Role { return c.class.Role }

// Selectivity returns the specificity score: 1 identifies one entity, near 0 matches most records.
func (c Criterion) Selectivity() float64 { return c.class.Selectivity }

// Reason returns the classifier explanation.
func (c Criterion) Reason() string { return c.class.Reason }

// Weight returns the importance weight of the criterion type.
func (c Criterion) Weight() float64 { return c.typ.Weight() }

// Classification returns the full classifier verdict.
func (c Criterion) Classification() Classification { return c.class }

// Key identifies the criterion by type and normalized value.
func (c Criterion) Key() string { return string(c.typ) + ":" + c.normalized }

// IsActive reports whether the criterion is sent to the search backend.
func (c Criterion) IsActive() bool {
	return c.class.Role == RoleSearch && c.class.Priority < P5
}

// IsHighConfidence reports whether the criterion counts toward early termination.
func (c Criterion) IsHighConfidence() bool {
	return c.class.Priority == P1 || c.class.Priority == P2
}

// WithClassification returns a copy carrying a different verdict.
func (c Criterion) WithClassification(cl Classification) Criterion {
	c.class = cl
	return c
}

type criterionJSON struct {
	ID               string   `json:"id"`
	Type             Type     `json:"type"`
	RawValue         string   `json:"raw_value"`
	NormalizedValue  string   `json:"normalized_value"`
	Priority         Priority `json:"priority"`
	Role             Role     `json:"role"`
	Selectivity      float64  `json:"selectivity"`
	ImportanceWeight float64  `json:"importance_weight"`
	Reason           string   `json:"reason"`
}

// MarshalJSON encodes the criterion view.
func (c Criterion) MarshalJSON() ([]byte, error) {
	return json.Marshal(criterionJSON{
		ID:               c.id,
		Type:             c.typ,
		RawValue:         c.raw,
		NormalizedValue:  c.normalized,
		Priority:         c.class.Priority,
		Role:             c.class.Role,
		Selectivity:      c.class.Selectivity,
		ImportanceWeight: c.Weight(),
		Reason:           c.class.Reason,
	})
}
