package chat

import (
	"sync"

	"github.com/ternarybob/respondeo/internal/models"
)

// OutputSink accumulates the provenance and debug records of one turn. The
// orchestrator and its subordinate stages append; the caller drains after
// the token stream is exhausted. Draining reads and clears atomically, so
// each record is delivered exactly once.
type OutputSink struct {
	mu    sync.Mutex
	files []models.EvidenceRef
	debug []models.DebugRecord
}

func NewOutputSink() *OutputSink {
	return &OutputSink{}
}

// AddFiles appends provenance records in order.
func (s *OutputSink) AddFiles(refs ...models.EvidenceRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, refs...)
}

// AddDebug appends a named debug record.
func (s *OutputSink) AddDebug(name string, content any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debug = append(s.debug, models.DebugRecord{Name: name, Content: content})
}

// DrainFiles returns the accumulated provenance records and clears them.
func (s *OutputSink) DrainFiles() []models.EvidenceRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := s.files
	s.files = nil
	return files
}

// DrainDebug returns the accumulated debug records and clears them.
func (s *OutputSink) DrainDebug() []models.DebugRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	debug := s.debug
	s.debug = nil
	return debug
}
