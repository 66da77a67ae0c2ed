package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

const resultsPage = `<html><body>
<div class="result result--ad">
	<a class="result__a" href="https://ads.example.com/buy">Buy now</a>
</div>
<div class="result">
	<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fen.wikipedia.org%2Fwiki%2FTide">Tide - Wikipedia</a>
</div>
<div class="result">
	<a class="result__a" href="https://oceanservice.noaa.gov/facts/tides.html">What are tides?</a>
</div>
<div class="result">
	<a class="result__a" href="javascript:void(0)">Broken</a>
</div>
<div class="result">
	<a class="result__a" href="https://example.com/third">Third result</a>
</div>
</body></html>`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *DuckDuckGoProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider := NewDuckDuckGoProvider(testUserAgent, arbor.NewLogger())
	provider.endpoint = server.URL + "/html/"
	return provider
}

func TestSearchParsesResults(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "why do tides happen", r.URL.Query().Get("q"))
		w.Write([]byte(resultsPage))
	})

	candidates, err := provider.Search(context.Background(), "why do tides happen", 10)
	require.NoError(t, err)

	require.Len(t, candidates, 3)
	assert.Equal(t, "Tide - Wikipedia", candidates[0].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Tide", candidates[0].Href)
	assert.Equal(t, "https://oceanservice.noaa.gov/facts/tides.html", candidates[1].Href)
	assert.Equal(t, "https://example.com/third", candidates[2].Href)
}

func TestSearchRespectsMaxResults(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsPage))
	})

	candidates, err := provider.Search(context.Background(), "tides", 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestSearchSkipsDuplicateHrefs(t *testing.T) {
	page := `<html><body>
<div class="result"><a class="result__a" href="https://example.com/same">First mention</a></div>
<div class="result"><a class="result__a" href="https://example.com/same">Second mention</a></div>
<div class="result"><a class="result__a" href="https://example.com/other">Other page</a></div>
</body></html>`

	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	})

	candidates, err := provider.Search(context.Background(), "anything", 10)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "https://example.com/same", candidates[0].Href)
	assert.Equal(t, "First mention", candidates[0].Title)
	assert.Equal(t, "https://example.com/other", candidates[1].Href)
}

func TestSearchErrorStatus(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := provider.Search(context.Background(), "tides", 10)
	assert.Error(t, err)
}

func TestResolveRedirect(t *testing.T) {
	target := "https://en.wikipedia.org/wiki/Tide"
	wrapped := "//duckduckgo.com/l/?uddg=" + url.QueryEscape(target)
	assert.Equal(t, target, resolveRedirect(wrapped))

	assert.Equal(t, "https://example.com/page", resolveRedirect("https://example.com/page"))
	assert.Empty(t, resolveRedirect("javascript:void(0)"))
	assert.Empty(t, resolveRedirect("//duckduckgo.com/l/?other=1"))
}
