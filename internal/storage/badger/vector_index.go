package badger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// VectorRecord is one embedded chunk in the persistent index.
type VectorRecord struct {
	ID        string `badgerhold:"key"`
	Embedding []float32
	Content   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// VectorIndex implements the persistent vector index on Badger. Writes are
// synced before Add returns, so a chunk reported as indexed survives a
// process restart. Search is a linear scan over all records; embeddings are
// unit length so the inner product is the cosine similarity.
type VectorIndex struct {
	db       *BadgerDB
	embedder interfaces.EmbeddingService
	logger   arbor.ILogger

	mu sync.Mutex
}

// NewVectorIndex creates the persistent index service.
func NewVectorIndex(db *BadgerDB, embedder interfaces.EmbeddingService, logger arbor.ILogger) interfaces.VectorIndex {
	return &VectorIndex{
		db:       db,
		embedder: embedder,
		logger:   logger,
	}
}

// Add embeds the documents, upserts one record per document and syncs the
// store before returning. Returned ids follow input order.
func (s *VectorIndex) Add(ctx context.Context, docs []*models.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.WithTitle().Content
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &models.IndexError{Op: "add", Err: fmt.Errorf("failed to embed documents: %w", err)}
	}
	if len(embeddings) != len(docs) {
		return nil, &models.IndexError{Op: "add", Err: fmt.Errorf("embedding count mismatch: %d documents, %d vectors", len(docs), len(embeddings))}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	ids := make([]string, len(docs))
	for i, doc := range docs {
		id := doc.SplitID()
		if id == "" {
			id = common.NewVectorID()
		}
		record := VectorRecord{
			ID:        id,
			Embedding: embeddings[i],
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			CreatedAt: now,
		}
		if err := s.db.Store().Upsert(id, &record); err != nil {
			return nil, &models.IndexError{Op: "add", Err: fmt.Errorf("failed to store record %s: %w", id, err)}
		}
		ids[i] = id
	}

	if err := s.Persist(); err != nil {
		return nil, err
	}

	s.logger.Debug().Int("documents", len(docs)).Msg("Added documents to vector index")
	return ids, nil
}

// SimilaritySearch embeds the query and scans every record. Results are
// ranked best first; scores at exactly the threshold are kept.
func (s *VectorIndex) SimilaritySearch(ctx context.Context, query string, k int, threshold float64) ([]interfaces.ScoredChunk, error) {
	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &models.IndexError{Op: "search", Err: fmt.Errorf("failed to embed query: %w", err)}
	}

	var records []VectorRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, &models.IndexError{Op: "search", Err: fmt.Errorf("failed to scan index: %w", err)}
	}

	scored := make([]interfaces.ScoredChunk, 0, len(records))
	for _, record := range records {
		score := common.DotProduct(queryVec, record.Embedding)
		if score >= threshold {
			scored = append(scored, interfaces.ScoredChunk{
				Chunk: models.NewDocument(record.Content, record.Metadata),
				Score: score,
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}

	s.logger.Debug().
		Int("records", len(records)).
		Int("matches", len(scored)).
		Msg("Vector similarity search completed")

	return scored, nil
}

// Delete removes records by id. Missing ids are skipped.
func (s *VectorIndex) Delete(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		err := s.db.Store().Delete(id, VectorRecord{})
		if err != nil && err != badgerhold.ErrNotFound {
			return &models.IndexError{Op: "delete", Err: fmt.Errorf("failed to delete record %s: %w", id, err)}
		}
	}
	return s.Persist()
}

// Persist syncs the underlying store to disk.
func (s *VectorIndex) Persist() error {
	if err := s.db.Store().Badger().Sync(); err != nil {
		return &models.IndexError{Op: "persist", Err: err}
	}
	return nil
}
