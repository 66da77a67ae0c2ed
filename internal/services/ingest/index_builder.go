package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/segment"
	"github.com/ternarybob/respondeo/internal/services/summary"
)

const (
	windowSize  = 400
	txtOverlap  = 20
	htmlOverlap = 30
)

// IndexBuilder turns uploaded files into searchable index entries: it
// segments the file by type, adds the chunks to the persistent vector index
// and records the file with its summary and chunk ids so the whole upload
// can be removed later.
type IndexBuilder struct {
	index     interfaces.VectorIndex
	files     interfaces.FileStore
	summaries *summary.Service
	converter *md.Converter
	logger    arbor.ILogger
}

func NewIndexBuilder(
	index interfaces.VectorIndex,
	files interfaces.FileStore,
	summaries *summary.Service,
	logger arbor.ILogger,
) *IndexBuilder {
	return &IndexBuilder{
		index:     index,
		files:     files,
		summaries: summaries,
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// AddFile indexes an uploaded file. Supported extensions are .md, .txt and
// .html; malformed bytes yield a DecodeError. A file already present is
// replaced: its old index entries are removed first.
func (b *IndexBuilder) AddFile(ctx context.Context, name string, data []byte) (int, error) {
	if !utf8.Valid(data) {
		return 0, &models.DecodeError{Name: name}
	}

	chunks, err := b.segmentFile(name, string(data))
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("file %s produced no indexable text", name)
	}

	// Re-upload replaces the previous version.
	if err := b.RemoveFile(name); err != nil {
		return 0, err
	}

	fileSummary, err := b.summaries.Summarize(ctx, name, string(data))
	if err != nil {
		return 0, err
	}

	vectorIDs, err := b.index.Add(ctx, chunks)
	if err != nil {
		return 0, err
	}

	if err := b.files.SaveFile(name, fileSummary); err != nil {
		return 0, err
	}
	if err := b.files.SaveChunks(name, vectorIDs); err != nil {
		return 0, err
	}

	b.logger.Info().
		Str("file", name).
		Int("chunks", len(chunks)).
		Msg("File indexed")

	return len(chunks), nil
}

// RemoveFile deletes a file's vector records and its file-store rows.
// Removing an unknown file is a no-op.
func (b *IndexBuilder) RemoveFile(name string) error {
	ids, err := b.files.ChunkIDs(name)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		if err := b.index.Delete(ids); err != nil {
			return err
		}
	}
	if err := b.files.DeleteFile(name); err != nil {
		return err
	}

	if len(ids) > 0 {
		b.logger.Info().
			Str("file", name).
			Int("chunks", len(ids)).
			Msg("File removed from index")
	}
	return nil
}

// segmentFile splits the file by extension: markdown by headers, plain text
// by window, HTML reduced to markdown first.
func (b *IndexBuilder) segmentFile(name, content string) ([]*models.Document, error) {
	meta := map[string]string{models.MetaFileName: name}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		segmenter := segment.NewSegmenter(b.logger)
		return segmenter.Segment(models.NewDocument(content, meta))

	case ".txt", "":
		segmenter := segment.NewSegmenter(b.logger).WithWindow(windowSize, txtOverlap)
		return segmenter.SegmentWindow(models.NewDocument(content, meta))

	case ".html", ".htm":
		markdown, err := b.converter.ConvertString(content)
		if err != nil {
			return nil, &models.DecodeError{Name: name, Err: err}
		}
		segmenter := segment.NewSegmenter(b.logger).WithWindow(windowSize, htmlOverlap)
		return segmenter.Segment(models.NewDocument(markdown, meta))

	default:
		return nil, fmt.Errorf("unsupported file type: %s", name)
	}
}
