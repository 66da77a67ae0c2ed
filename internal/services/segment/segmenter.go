package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/respondeo/internal/models"
)

// Window-split defaults, in runes.
const (
	DefaultWindowSize = 400
	DefaultOverlap    = 20
)

// maxHeaderLevel caps how deep structural headers are recorded (H1..H4).
const maxHeaderLevel = 4

// Segmenter splits documents into titled, header-aware chunks. Markdown
// headings up to four levels deep define the split boundaries; unstructured
// text falls back to fixed-size sliding-window splitting. Segmentation is a
// pure transform: the same document always yields the same split_id
// sequence.
type Segmenter struct {
	windowSize int
	overlap    int
	parser     goldmark.Markdown
	logger     arbor.ILogger
}

// NewSegmenter creates a segmenter with the default window configuration.
func NewSegmenter(logger arbor.ILogger) *Segmenter {
	return &Segmenter{
		windowSize: DefaultWindowSize,
		overlap:    DefaultOverlap,
		parser:     goldmark.New(),
		logger:     logger,
	}
}

// WithWindow overrides the sliding-window size and overlap.
func (s *Segmenter) WithWindow(size, overlap int) *Segmenter {
	s.windowSize = size
	s.overlap = overlap
	return s
}

// Segment splits a document on its markdown headers. Documents without
// headers are window-split instead. Each chunk inherits the parent metadata
// plus the header levels in scope and a split_id of the form
// "{parentID}-{index}".
func (s *Segmenter) Segment(doc *models.Document) ([]*models.Document, error) {
	if !utf8.ValidString(doc.Content) {
		return nil, &models.DecodeError{Name: parentID(doc)}
	}

	headings := s.collectHeadings(doc.Content)
	if len(headings) == 0 {
		return s.windowSplit(doc), nil
	}

	source := doc.Content
	var chunks []*models.Document
	headers := map[string]string{}

	appendChunk := func(content string, headerSnapshot map[string]string) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		chunk := models.NewDocument(content, doc.Metadata)
		for key, value := range headerSnapshot {
			chunk.Metadata[key] = value
		}
		chunks = append(chunks, chunk)
	}

	// Text before the first heading becomes a chunk without header metadata.
	appendChunk(source[:headings[0].lineStart], nil)

	for i, h := range headings {
		headers[fmt.Sprintf("H%d", h.level)] = h.title
		for deeper := h.level + 1; deeper <= maxHeaderLevel; deeper++ {
			delete(headers, fmt.Sprintf("H%d", deeper))
		}

		end := len(source)
		if i+1 < len(headings) {
			end = headings[i+1].lineStart
		}
		appendChunk(source[h.contentStart:end], headers)
	}

	assignSplitIDs(doc, chunks)

	s.logger.Debug().
		Str("parent", parentID(doc)).
		Int("headings", len(headings)).
		Int("chunks", len(chunks)).
		Msg("Segmented document on headers")

	return chunks, nil
}

type headingInfo struct {
	level        int
	title        string
	lineStart    int // byte offset of the heading line
	contentStart int // byte offset just past the heading text
}

// collectHeadings parses the markdown and returns the top-level headings of
// level 1..4 in document order. Parsing the AST, rather than scanning lines,
// keeps hash characters inside code fences from acting as split points.
func (s *Segmenter) collectHeadings(content string) []headingInfo {
	source := []byte(content)
	root := s.parser.Parser().Parse(text.NewReader(source))

	var headings []headingInfo
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := node.(*ast.Heading)
		if !ok || heading.Level > maxHeaderLevel {
			continue
		}
		lines := heading.Lines()
		if lines.Len() == 0 {
			continue
		}
		first := lines.At(0)
		last := lines.At(lines.Len() - 1)
		headings = append(headings, headingInfo{
			level:        heading.Level,
			title:        strings.TrimSpace(string(heading.Text(source))),
			lineStart:    lineStartBefore(source, first.Start),
			contentStart: lineEndAfter(source, last.Stop),
		})
	}
	return headings
}

// SegmentWindow splits a document into overlapping fixed-size windows
// regardless of structure. Used for plain text, where hash characters are
// not headings.
func (s *Segmenter) SegmentWindow(doc *models.Document) ([]*models.Document, error) {
	if !utf8.ValidString(doc.Content) {
		return nil, &models.DecodeError{Name: parentID(doc)}
	}
	return s.windowSplit(doc), nil
}

// windowSplit divides unstructured text into overlapping fixed-size rune
// windows.
func (s *Segmenter) windowSplit(doc *models.Document) []*models.Document {
	runes := []rune(doc.Content)
	step := s.windowSize - s.overlap
	if step <= 0 {
		step = s.windowSize
	}

	var chunks []*models.Document
	for start := 0; start < len(runes); start += step {
		end := start + s.windowSize
		if end > len(runes) {
			end = len(runes)
		}
		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			chunks = append(chunks, models.NewDocument(content, doc.Metadata))
		}
		if end == len(runes) {
			break
		}
	}

	assignSplitIDs(doc, chunks)
	return chunks
}

// assignSplitIDs stamps each chunk with "{parentID}-{index}". The sequence
// is stable across re-splits of the same parent.
func assignSplitIDs(parent *models.Document, chunks []*models.Document) {
	id := parentID(parent)
	for i, chunk := range chunks {
		chunk.Metadata[models.MetaSplitID] = fmt.Sprintf("%s-%d", id, i)
	}
}

func parentID(doc *models.Document) string {
	if v := doc.Metadata[models.MetaURL]; v != "" {
		return v
	}
	if v := doc.Metadata[models.MetaFileName]; v != "" {
		return v
	}
	if v := doc.Metadata[models.MetaTitle]; v != "" {
		return v
	}
	return "doc"
}

// lineStartBefore walks back from offset to the start of its line.
func lineStartBefore(source []byte, offset int) int {
	start := offset
	for start > 0 && source[start-1] != '\n' {
		start--
	}
	return start
}

// lineEndAfter walks forward from offset past the end of its line, so
// closing hash sequences of ATX headings never leak into section content.
func lineEndAfter(source []byte, offset int) int {
	end := offset
	for end < len(source) && source[end] != '\n' {
		end++
	}
	return end
}
