package badger

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/respondeo/internal/interfaces"
)

// FileRecord is one uploaded file with its summary and the vector-record
// ids of its indexed chunks.
type FileRecord struct {
	Name       string `badgerhold:"key"`
	Summary    string
	VectorIDs  []string
	UploadedAt time.Time
}

// FileStore implements the FileStore interface on Badger.
type FileStore struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewFileStore creates a new FileStore instance.
func NewFileStore(db *BadgerDB, logger arbor.ILogger) interfaces.FileStore {
	return &FileStore{
		db:     db,
		logger: logger,
	}
}

// ListFiles returns the known files in upload order.
func (s *FileStore) ListFiles() ([]interfaces.FileSummary, error) {
	var records []FileRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UploadedAt.Before(records[j].UploadedAt)
	})

	summaries := make([]interfaces.FileSummary, len(records))
	for i, r := range records {
		summaries[i] = interfaces.FileSummary{Name: r.Name, Summary: r.Summary}
	}
	return summaries, nil
}

// SaveFile records or replaces a file. Re-uploading keeps the original
// upload time so the listing order is stable.
func (s *FileStore) SaveFile(name, summary string) error {
	record := FileRecord{
		Name:       name,
		Summary:    summary,
		UploadedAt: time.Now(),
	}

	var existing FileRecord
	if err := s.db.Store().Get(name, &existing); err == nil {
		record.UploadedAt = existing.UploadedAt
		record.VectorIDs = existing.VectorIDs
	}

	if err := s.db.Store().Upsert(name, &record); err != nil {
		return fmt.Errorf("failed to save file %s: %w", name, err)
	}
	return nil
}

// SaveChunks records the vector ids produced when the file was indexed.
func (s *FileStore) SaveChunks(fileName string, vectorIDs []string) error {
	var record FileRecord
	err := s.db.Store().Get(fileName, &record)
	if err == badgerhold.ErrNotFound {
		return fmt.Errorf("unknown file %s", fileName)
	}
	if err != nil {
		return fmt.Errorf("failed to load file %s: %w", fileName, err)
	}

	record.VectorIDs = vectorIDs
	if err := s.db.Store().Upsert(fileName, &record); err != nil {
		return fmt.Errorf("failed to save chunks for %s: %w", fileName, err)
	}
	return nil
}

// ChunkIDs returns the vector ids recorded for a file.
func (s *FileStore) ChunkIDs(fileName string) ([]string, error) {
	var record FileRecord
	err := s.db.Store().Get(fileName, &record)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load file %s: %w", fileName, err)
	}
	return record.VectorIDs, nil
}

// DeleteFile removes the file record. Unknown files are a no-op.
func (s *FileStore) DeleteFile(name string) error {
	err := s.db.Store().Delete(name, FileRecord{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete file %s: %w", name, err)
	}
	return nil
}
