package verify

import (
	"context"

	"github.com/sells-group/factsync/pkg/google"
	"github.com/sells-group/factsync/pkg/jina"
)

// GoogleSearcher searches through the Custom Search API.
func GoogleSearcher(c google.Client) Searcher {
	return SearcherFunc(func(ctx context.Context, query string, n int) ([]SearchResult, error) {
		resp, err := c.Search(ctx, google.SearchRequest{Query: query, Num: n})
		if err != nil {
			return nil, err
		}
		out := make([]SearchResult, 0, len(resp.Items))
		for _, it := range resp.Items {
			out = append(out, SearchResult{Title: it.Title, Snippet: it.Snippet, URL: it.Link})
		}
		return out, nil
	})
}

// JinaSearcher searches through Jina Search. The description is used as the
// snippet, falling back to page content.
func JinaSearcher(c jina.Client) Searcher {
	return SearcherFunc(func(ctx context.Context, query string, n int) ([]SearchResult, error) {
		resp, err := c.Search(ctx, query, jina.WithLimit(n))
		if err != nil {
			return nil, err
		}
		out := make([]SearchResult, 0, len(resp.Data))
		for _, d := range resp.Data {
			snippet := d.Description
			if snippet == "" {
				snippet = d.Content
			}
			out = append(out, SearchResult{Title: d.Title, Snippet: snippet, URL: d.URL})
		}
		return out, nil
	})
}
