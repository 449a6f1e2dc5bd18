package insight

// Source names the path that produced a set of insights.
type Source string

// Insight sources.
const (
	SourceAnalysis  Source = "analysis_backend"
	SourceRuleBased Source = "rule_based"
)

// Insights is the human-readable analysis of a search.
type Insights struct {
	Summary         string   `json:"summary"`
	KeyFindings     []string `json:"key_findings"`
	RedFlags        []string `json:"red_flags"`
	Recommendations []string `json:"recommendations"`
	Connections     []string `json:"connections"`
	Source          Source   `json:"source"`
}

// Normalize replaces nil lists with empty ones so encoders emit [].
func (i *Insights) Normalize() {
	if i.KeyFindings == nil {
		i.KeyFindings = []string{}
	}
	if i.RedFlags == nil {
		i.RedFlags = []string{}
	}
	if i.Recommendations == nil {
		i.Recommendations = []string{}
	}
	if i.Connections == nil {
		i.Connections = []string{}
	}
}
