package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/factsync/pkg/google"
	googlemocks "github.com/sells-group/factsync/pkg/google/mocks"
	"github.com/sells-group/factsync/pkg/jina"
)

func TestGoogleSearcher(t *testing.T) {
	gc := googlemocks.NewMockClient(t)
	gc.On("Search", mock.Anything, google.SearchRequest{Query: "005930 삼성전자", Num: 3}).
		Return(&google.SearchResponse{Items: []google.Item{
			{Title: "삼성전자 주가", Snippet: "005930 KOSPI", Link: "https://example.com/a"},
		}}, nil)

	got, err := GoogleSearcher(gc).Search(context.Background(), "005930 삼성전자", 3)
	require.NoError(t, err)
	assert.Equal(t, []SearchResult{{Title: "삼성전자 주가", Snippet: "005930 KOSPI", URL: "https://example.com/a"}}, got)
}

func TestGoogleSearcher_Error(t *testing.T) {
	gc := googlemocks.NewMockClient(t)
	gc.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("google: unexpected status 429"))

	_, err := GoogleSearcher(gc).Search(context.Background(), "q", 3)
	assert.EqualError(t, err, "google: unexpected status 429")
}

type fakeJina struct {
	resp  *jina.SearchResponse
	err   error
	query string
}

func (f *fakeJina) Search(_ context.Context, query string, _ ...jina.SearchOption) (*jina.SearchResponse, error) {
	f.query = query
	return f.resp, f.err
}

func TestJinaSearcher(t *testing.T) {
	fj := &fakeJina{resp: &jina.SearchResponse{Data: []jina.SearchResult{
		{Title: "Alphabet", Description: "Alphabet Inc.", URL: "https://a"},
		{Title: "GOOGL", Content: "Class A shares"},
	}}}

	got, err := JinaSearcher(fj).Search(context.Background(), "GOOGL Alphabet", 3)
	require.NoError(t, err)
	assert.Equal(t, "GOOGL Alphabet", fj.query)
	require.Len(t, got, 2)
	assert.Equal(t, "Alphabet Inc.", got[0].Snippet)
	assert.Equal(t, "Class A shares", got[1].Snippet)
}

func TestJinaSearcher_FeedsVerifier(t *testing.T) {
	fj := &fakeJina{resp: &jina.SearchResponse{Data: []jina.SearchResult{
		{Title: "ABC Corp annual report", Description: "ABC Corp, ticker XYZ"},
	}}}
	v := New(JinaSearcher(fj), NewRunBudget(1))

	out := v.Verify(context.Background(), "XYZ", "ABC Corp", "XYZ Inc")
	assert.Equal(t, "Verified", out.Verdict.String())
}
