package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// CachedEmbedder wraps an embedding service with a content-addressed cache.
// Document embeddings are looked up by a hash of model and text, so
// re-uploading a file or re-fetching a page never re-embeds unchanged
// chunks. Queries are not cached: they rarely repeat exactly and would only
// grow the store.
type CachedEmbedder struct {
	inner  interfaces.EmbeddingService
	kv     interfaces.KeyValueStorage
	logger arbor.ILogger
}

// NewCachedEmbedder wraps inner with the cache.
func NewCachedEmbedder(inner interfaces.EmbeddingService, kv interfaces.KeyValueStorage, logger arbor.ILogger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		kv:     kv,
		logger: logger,
	}
}

// EmbedQuery passes through to the wrapped service.
func (s *CachedEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return s.inner.EmbedQuery(ctx, query)
}

// EmbedDocuments returns cached vectors where available and embeds only the
// misses. Output order follows input order.
func (s *CachedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIndexes []int

	for i, text := range texts {
		cached, err := s.kv.Get(s.cacheKey(text))
		if err != nil {
			return nil, fmt.Errorf("embedding cache read failed: %w", err)
		}
		if cached == nil {
			missTexts = append(missTexts, text)
			missIndexes = append(missIndexes, i)
			continue
		}

		vector, err := decodeVector(cached)
		if err != nil {
			// Corrupt entry, treat as a miss and overwrite.
			s.logger.Warn().Err(err).Msg("Discarding corrupt embedding cache entry")
			missTexts = append(missTexts, text)
			missIndexes = append(missIndexes, i)
			continue
		}
		vectors[i] = vector
	}

	if len(missTexts) > 0 {
		fresh, err := s.inner.EmbedDocuments(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, vector := range fresh {
			vectors[missIndexes[j]] = vector
			if err := s.kv.Set(s.cacheKey(missTexts[j]), encodeVector(vector)); err != nil {
				return nil, fmt.Errorf("embedding cache write failed: %w", err)
			}
		}
	}

	s.logger.Debug().
		Int("texts", len(texts)).
		Int("cache_hits", len(texts)-len(missTexts)).
		Msg("Document embeddings resolved")

	return vectors, nil
}

// ModelName returns the wrapped model identifier.
func (s *CachedEmbedder) ModelName() string {
	return s.inner.ModelName()
}

// Dimension returns the wrapped embedding dimension.
func (s *CachedEmbedder) Dimension() int {
	return s.inner.Dimension()
}

// cacheKey addresses an entry by model and content, so a model change never
// serves stale vectors.
func (s *CachedEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(s.inner.ModelName() + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// encodeVector packs a vector as little-endian float32 bits.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks a vector encoded by encodeVector.
func decodeVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding encoding: %d bytes", len(data))
	}
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vector, nil
}
