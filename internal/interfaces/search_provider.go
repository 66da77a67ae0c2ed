package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// SearchProvider returns candidate pages for a query from a web search
// backend.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchCandidate, error)
}
