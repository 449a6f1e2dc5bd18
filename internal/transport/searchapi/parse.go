package searchapi

import (
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/investigo/internal/domain/page"
	"github.com/kailas-cloud/investigo/internal/domain/record"
)

// parsePage decodes {results: {<table>: [record...]}, has_more, next_cursor}.
// Tables and record fields keep the order of the payload.
func parsePage(body []byte) (page.Page, error) {
	if !gjson.ValidBytes(body) {
		return page.Page{}, eris.New("searchapi: response is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return page.Page{}, eris.Errorf("searchapi: expected object, got %s", root.Type)
	}

	results := root.Get("results")
	if results.Exists() && results.Type != gjson.Null && !results.IsObject() {
		return page.Page{}, eris.Errorf("searchapi: results must be an object keyed by table, got %s", results.Type)
	}

	var p page.Page
	results.ForEach(func(table, rows gjson.Result) bool {
		rows.ForEach(func(_, row gjson.Result) bool {
			if row.IsObject() {
				p.Hits = append(p.Hits, page.Hit{Table: table.String(), Record: record.FromResult(row)})
			}
			return true
		})
		return true
	})
	p.HasMore = root.Get("has_more").Bool()
	if cur := root.Get("next_cursor"); cur.Type != gjson.Null {
		p.NextCursor = cur.String()
	}
	return p, nil
}
