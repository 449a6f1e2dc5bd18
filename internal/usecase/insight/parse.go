package insight

import (
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/investigo/internal/domain"
	dominsight "github.com/kailas-cloud/investigo/internal/domain/insight"
)

// TryParseStructuredInsights extracts insights from a free-text analysis reply.
// It takes the first balanced {...} object in text, repairing it if needed,
// and returns nil when no object with a non-empty summary is found.
func TryParseStructuredInsights(text string) *dominsight.Insights {
	ins, err := parseStructured(text)
	if err != nil {
		return nil
	}
	return ins
}

func parseStructured(text string) (*dominsight.Insights, error) {
	obj, ok := firstObject(text)
	if !ok {
		start := strings.IndexByte(text, '{')
		if start < 0 {
			return nil, fmt.Errorf("no object in reply: %w", domain.ErrMalformedAnalysis)
		}
		// unterminated, usually a truncated reply
		obj = text[start:]
	}

	if !gjson.Valid(obj) {
		repaired, err := jsonrepair.JSONRepair(obj)
		if err != nil {
			return nil, fmt.Errorf("repair reply: %w: %w", domain.ErrMalformedAnalysis, err)
		}
		if !gjson.Valid(repaired) {
			return nil, fmt.Errorf("repaired reply is not JSON: %w", domain.ErrMalformedAnalysis)
		}
		obj = repaired
	}

	root := gjson.Parse(obj)
	if !root.IsObject() {
		return nil, fmt.Errorf("reply is not an object: %w", domain.ErrMalformedAnalysis)
	}
	summary := root.Get("summary")
	if summary.Type != gjson.String || strings.TrimSpace(summary.Str) == "" {
		return nil, fmt.Errorf("missing summary: %w", domain.ErrMalformedAnalysis)
	}

	return &dominsight.Insights{
		Summary:         strings.TrimSpace(summary.Str),
		KeyFindings:     stringList(root, "key_findings", "keyFindings"),
		RedFlags:        stringList(root, "red_flags", "redFlags"),
		Recommendations: stringList(root, "recommendations"),
		Connections:     stringList(root, "connections"),
	}, nil
}

// firstObject returns the first balanced {...} substring, skipping braces inside strings.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// stringList reads the first present key as a list of strings.
// Non-string items are kept as their JSON text; a bare string becomes a one-item list.
func stringList(root gjson.Result, keys ...string) []string {
	out := []string{}
	for _, k := range keys {
		v := root.Get(k)
		if !v.Exists() {
			continue
		}
		if !v.IsArray() {
			if s := strings.TrimSpace(v.String()); s != "" && v.Type == gjson.String {
				out = append(out, s)
			}
			return out
		}
		v.ForEach(func(_, item gjson.Result) bool {
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
			return true
		})
		return out
	}
	return out
}
