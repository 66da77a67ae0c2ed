package models

import "strings"

// Metadata keys used on documents and chunks throughout the pipeline.
const (
	MetaURL      = "url"
	MetaTitle    = "title"
	MetaFileName = "file_name"
	MetaSplitID  = "split_id"
)

// HeaderKeys are the metadata keys for the up-to-four structural header
// levels recorded by the segmenter, in nesting order.
var HeaderKeys = []string{"H1", "H2", "H3", "H4"}

// Document is a unit of text moving through the pipeline: a fetched web
// page, an uploaded file, or a chunk produced by segmentation. Chunks carry
// a split_id in their metadata, unique within the originating batch.
type Document struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// NewDocument creates a document with a copy of the given metadata so callers
// can reuse their maps.
func NewDocument(content string, metadata map[string]string) *Document {
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	return &Document{Content: content, Metadata: meta}
}

// SplitID returns the chunk identifier, empty for unsegmented documents.
func (d *Document) SplitID() string {
	return d.Metadata[MetaSplitID]
}

// TitleLine reconstructs the markdown title line for a chunk by joining the
// header levels present in its metadata. A chunk prefixed with this line is
// self-describing when read in isolation.
func (d *Document) TitleLine() string {
	var parts []string
	for _, key := range HeaderKeys {
		if v, ok := d.Metadata[key]; ok && v != "" {
			parts = append(parts, v)
		}
	}
	return "# " + strings.Join(parts, " - ")
}

// WithTitle returns a copy of the document with its title line prepended to
// the content. Used when embedding chunks so the vector reflects the
// document structure, not just the local text.
func (d *Document) WithTitle() *Document {
	doc := NewDocument(d.TitleLine()+"\n"+d.Content, d.Metadata)
	return doc
}
