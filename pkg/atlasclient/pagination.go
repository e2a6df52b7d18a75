package atlasclient

import (
	"context"
	"encoding/json"
	"math"
)

// pageEnvelope is the common Atlas paginated-response shape.
type pageEnvelope struct {
	Results        json.RawMessage `json:"results"`
	TotalCount     int             `json:"totalCount"`
	ResultsPerPage int             `json:"resultsPerPage"`
	ItemsPerPage   int             `json:"itemsPerPage"`
}

const itemsPerPage = 500

// listResults fetches every page of a paginated list endpoint and returns
// the concatenation of each page's "results" array, decoded as T.
// pathForPage is called with (pageNum, itemsPerPage) and must return the
// path for that page.
func listResults[T any](ctx context.Context, c *Client, base, acceptMediaType string, pathForPage func(pageNum, perPage int) string) ([]T, error) {
	var all []T
	pageNum := 1
	for {
		path := pathForPage(pageNum, itemsPerPage)

		var envelope pageEnvelope
		if err := c.getJSON(ctx, base, path, acceptMediaType, &envelope); err != nil {
			return nil, err
		}

		var page []T
		if len(envelope.Results) > 0 {
			if err := json.Unmarshal(envelope.Results, &page); err != nil {
				return nil, &DecodeError{Path: path, Err: err}
			}
		}
		all = append(all, page...)

		perPage := envelope.ResultsPerPage
		if perPage == 0 {
			perPage = envelope.ItemsPerPage
		}

		if envelope.TotalCount > 0 && perPage > 0 {
			totalPages := int(math.Ceil(float64(envelope.TotalCount) / float64(perPage)))
			if pageNum >= totalPages {
				return all, nil
			}
		} else if len(page) < itemsPerPage {
			// No totals in the envelope: fall back to "continue while the
			// page returned at least as many items as requested".
			return all, nil
		}
		pageNum++
	}
}
