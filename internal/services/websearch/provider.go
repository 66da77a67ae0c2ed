package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/models"
)

const duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoProvider returns search candidates from the DuckDuckGo HTML
// endpoint. No API key required; results come back as server-rendered HTML.
type DuckDuckGoProvider struct {
	client    *http.Client
	endpoint  string
	userAgent string
	logger    arbor.ILogger
}

// NewDuckDuckGoProvider creates a search provider with its own short-lived
// HTTP client.
func NewDuckDuckGoProvider(userAgent string, logger arbor.ILogger) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		client:    &http.Client{Timeout: 10 * time.Second},
		endpoint:  duckDuckGoEndpoint,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Search queries DuckDuckGo and returns up to maxResults candidates in
// result order. Ad results and repeated hrefs are skipped; downstream chunk
// ids are derived from the href, so each candidate must be unique within
// the batch.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]models.SearchCandidate, error) {
	endpoint := p.endpoint + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	var candidates []models.SearchCandidate
	seen := make(map[string]bool)
	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}

		link := s.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, ok := link.Attr("href")
		if !ok || title == "" {
			return true
		}

		href = resolveRedirect(href)
		if href == "" || seen[href] {
			return true
		}
		seen[href] = true

		candidates = append(candidates, models.SearchCandidate{Title: title, Href: href})
		return len(candidates) < maxResults
	})

	p.logger.Debug().
		Str("query", query).
		Int("candidates", len(candidates)).
		Msg("Web search completed")

	return candidates, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=... redirect links to the
// target URL. Direct links pass through unchanged.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if strings.Contains(parsed.Host, "duckduckgo.com") && parsed.Path == "/l/" {
		target := parsed.Query().Get("uddg")
		if target == "" {
			return ""
		}
		return target
	}

	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}
