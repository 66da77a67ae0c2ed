package models

// SearchCandidate is one web search hit selected for fetching.
type SearchCandidate struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// FetchResult is the outcome of fetching one candidate URL. The fetcher is
// length-preserving: a timeout or transport error yields a result with Err
// set and no text, never a dropped entry. Absent text is a filtering signal
// for the caller, not an error for the batch.
type FetchResult struct {
	Href  string `json:"href"`
	Title string `json:"title"`
	Text  string `json:"text,omitempty"`
	Err   error  `json:"-"`
}

// HasText reports whether the fetch produced usable text of at least
// minLength characters.
func (r FetchResult) HasText(minLength int) bool {
	return r.Err == nil && len(r.Text) >= minLength
}
