package websearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/respondeo/internal/models"
)

// maxBodySize bounds how much of a page is read before conversion.
const maxBodySize = 2 * 1024 * 1024

var (
	leadingWhitespace  = regexp.MustCompile(`(?m)^[^\S\n]+`)
	excessiveNewlines  = regexp.MustCompile(`\n{4,}`)
	strippedContainers = "script, style, head, nav, footer, aside, noscript, iframe"
)

// Fetcher concurrently retrieves and cleans a bounded set of web pages. Each
// fetch runs as its own task with its own timeout; a failed or timed-out URL
// becomes a text-less result and never delays or fails the rest of the
// batch.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter
	converter *md.Converter
	logger    arbor.ILogger
}

// NewFetcher creates a fetcher. timeout is the per-URL budget;
// requestsPerSecond bounds how fast the fan-out hits the network.
func NewFetcher(timeout time.Duration, requestsPerSecond int, userAgent string, logger arbor.ILogger) *Fetcher {
	converter := md.NewConverter("", true, nil)
	// Links and images carry no answerable text; keep only their content.
	converter.AddRules(
		md.Rule{
			Filter: []string{"a"},
			Replacement: func(content string, selec *goquery.Selection, options *md.Options) *string {
				return md.String(content)
			},
		},
		md.Rule{
			Filter: []string{"img"},
			Replacement: func(content string, selec *goquery.Selection, options *md.Options) *string {
				return md.String("")
			},
		},
	)

	return &Fetcher{
		client:    &http.Client{Timeout: timeout + time.Second},
		timeout:   timeout,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		converter: converter,
		logger:    logger,
	}
}

// FetchAll retrieves every candidate concurrently and returns exactly one
// result per candidate, in input order, regardless of completion order or
// individual failures. All tasks are joined before returning.
func (f *Fetcher) FetchAll(ctx context.Context, candidates []models.SearchCandidate) []models.FetchResult {
	results := make([]models.FetchResult, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate models.SearchCandidate) {
			defer wg.Done()
			results[i] = f.fetchOne(ctx, candidate)
		}(i, candidate)
	}
	wg.Wait()

	fetched := 0
	for _, r := range results {
		if r.Err == nil {
			fetched++
		}
	}
	f.logger.Debug().
		Int("candidates", len(candidates)).
		Int("fetched", fetched).
		Msg("Fetch batch completed")

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, candidate models.SearchCandidate) models.FetchResult {
	result := models.FetchResult{Href: candidate.Href, Title: candidate.Title}

	if err := f.limiter.Wait(ctx); err != nil {
		result.Err = &models.FetchError{URL: candidate.Href, Err: err}
		return result
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	text, err := f.fetchAndClean(fetchCtx, candidate.Href)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &models.TimeoutError{Stage: "fetch", Budget: f.timeout}
		}
		result.Err = &models.FetchError{URL: candidate.Href, Err: err}
		f.logger.Debug().Err(result.Err).Str("url", candidate.Href).Msg("Fetch failed")
		return result
	}

	result.Text = text
	return result
}

func (f *Fetcher) fetchAndClean(ctx context.Context, href string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", err
	}

	return f.cleanHTML(string(body))
}

// cleanHTML reduces a page to readable markdown text: scripts, styles and
// chrome removed, then whitespace normalized.
func (f *Fetcher) cleanHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find(strippedContainers).Remove()

	selection := doc.Find("body")
	if selection.Length() == 0 {
		selection = doc.Selection
	}

	markdown := f.converter.Convert(selection)
	return NormalizeWhitespace(markdown), nil
}

// NormalizeWhitespace strips the leading blank run on every line and
// collapses runs of four or more newlines to exactly two blank lines.
func NormalizeWhitespace(text string) string {
	text = leadingWhitespace.ReplaceAllString(text, "")
	return excessiveNewlines.ReplaceAllString(text, "\n\n\n")
}
