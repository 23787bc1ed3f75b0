package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// MaxPageSize is the largest page the query endpoint returns.
const MaxPageSize = 100

// QueryPage fetches one page of database results starting at cursor. An
// empty cursor starts from the beginning. Rate limiting is enforced by the
// Client (3 req/s by default).
func QueryPage(ctx context.Context, c Client, dbID string, filter notionapi.Filter, cursor string, pageSize int) (*notionapi.DatabaseQueryResponse, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	req := &notionapi.DatabaseQueryRequest{
		Filter:      filter,
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    pageSize,
	}
	resp, err := c.QueryDatabase(ctx, dbID, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: query page")
	}
	return resp, nil
}
