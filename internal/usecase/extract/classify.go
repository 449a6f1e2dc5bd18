package extract

import (
	"strings"

	"github.com/kailas-cloud/investigo/internal/domain/criterion"
)

// minSingleNameLen is the shortest one-word name still worth a backend query.
const minSingleNameLen = 5

// rule is one row of the classification table.
type rule struct {
	name  string
	match func(t criterion.Type, normalized string) bool
	class criterion.Classification
}

func isType(types ...criterion.Type) func(criterion.Type, string) bool {
	return func(t criterion.Type, _ string) bool {
		for _, want := range types {
			if t == want {
				return true
			}
		}
		return false
	}
}

// rules are evaluated top to bottom; the first match wins.
var rules = []rule{
	{
		name:  "phone",
		match: isType(criterion.Phone),
		class: criterion.Classification{
			Priority: criterion.P1, Role: criterion.RoleSearch, Selectivity: 0.98,
			Reason: "phone numbers identify a single subscriber",
		},
	},
	{
		name:  "email",
		match: isType(criterion.Email),
		class: criterion.Classification{
			Priority: criterion.P1, Role: criterion.RoleSearch, Selectivity: 0.98,
			Reason: "email addresses identify a single owner",
		},
	},
	{
		name:  "government_id",
		match: isType(criterion.GovernmentID),
		class: criterion.Classification{
			Priority: criterion.P1, Role: criterion.RoleSearch, Selectivity: 0.95,
			Reason: "government ids are unique per person",
		},
	},
	{
		name:  "account",
		match: isType(criterion.Account),
		class: criterion.Classification{
			Priority: criterion.P2, Role: criterion.RoleSearch, Selectivity: 0.9,
			Reason: "account numbers are unique per institution",
		},
	},
	{
		name: "high_population_location",
		match: func(t criterion.Type, v string) bool {
			return t == criterion.Location && isHighPopulation(v)
		},
		class: criterion.Classification{
			Priority: criterion.P5, Role: criterion.RoleFilter, Selectivity: 0.05,
			Reason: "large population area, used to filter results only",
		},
	},
	{
		name: "full_name",
		match: func(t criterion.Type, v string) bool {
			return t == criterion.Name && len(strings.Fields(v)) >= 2
		},
		class: criterion.Classification{
			Priority: criterion.P3, Role: criterion.RoleSearch, Selectivity: 0.6,
			Reason: "multi-word names narrow results to a few people",
		},
	},
	{
		name: "distinctive_single_name",
		match: func(t criterion.Type, v string) bool {
			return t == criterion.Name && len([]rune(v)) >= minSingleNameLen
		},
		class: criterion.Classification{
			Priority: criterion.P3, Role: criterion.RoleSearch, Selectivity: 0.4,
			Reason: "single name long enough to search on",
		},
	},
	{
		name:  "short_single_name",
		match: isType(criterion.Name),
		class: criterion.Classification{
			Priority: criterion.P4, Role: criterion.RoleFilter, Selectivity: 0.15,
			Reason: "short single name matches too many records",
		},
	},
	{
		name:  "company",
		match: isType(criterion.Company),
		class: criterion.Classification{
			Priority: criterion.P4, Role: criterion.RoleFilter, Selectivity: 0.5,
			Reason: "employer narrows results found by other criteria",
		},
	},
	{
		name:  "location",
		match: isType(criterion.Location),
		class: criterion.Classification{
			Priority: criterion.P4, Role: criterion.RoleFilter, Selectivity: 0.3,
			Reason: "smaller area, used to filter results",
		},
	},
}

var fallback = criterion.Classification{
	Priority: criterion.P4, Role: criterion.RoleFilter, Selectivity: 0.2,
	Reason: "generic keyword",
}

// Classify returns the verdict for a normalized value of type t.
func Classify(t criterion.Type, normalized string) criterion.Classification {
	for _, r := range rules {
		if r.match(t, normalized) {
			return r.class
		}
	}
	return fallback
}

// promote turns the most selective filter into a search criterion when
// nothing else would reach the backend. P5 filters are chosen only when
// nothing else exists and keep P5, so the fetcher suppresses them.
func promote(criteria []criterion.Criterion) []criterion.Criterion {
	best := -1
	for i, c := range criteria {
		if c.Role() == criterion.RoleSearch {
			return criteria
		}
		if best < 0 || outranks(c, criteria[best]) {
			best = i
		}
	}
	if best < 0 {
		return criteria
	}

	cl := criteria[best].Classification()
	cl.Role = criterion.RoleSearch
	if cl.Priority == criterion.P5 {
		cl.Reason += "; promoted to search but suppressed because the value is too broad to query"
	} else {
		cl.Reason += "; promoted to search because no other criterion queries the backend"
	}
	criteria[best] = criteria[best].WithClassification(cl)
	return criteria
}

func outranks(a, b criterion.Criterion) bool {
	if aBroad, bBroad := a.Priority() >= criterion.P5, b.Priority() >= criterion.P5; aBroad != bBroad {
		return bBroad
	}
	return a.Selectivity() > b.Selectivity()
}
