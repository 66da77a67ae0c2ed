package interfaces

// FileSummary is the short digest of an uploaded file shown to the action
// router when it decides whether a question can be answered from files.
type FileSummary struct {
	Name    string
	Summary string
}

// FileStore tracks uploaded files and the vector-record ids of their chunks,
// so a file's index entries can be removed when the file is deleted.
type FileStore interface {
	// ListFiles returns the known files with their summaries, in upload order.
	ListFiles() ([]FileSummary, error)

	// SaveFile records (or replaces) a file and its summary.
	SaveFile(name, summary string) error

	// SaveChunks records the vector ids produced when the file was indexed.
	SaveChunks(fileName string, vectorIDs []string) error

	// ChunkIDs returns the vector ids recorded for a file, in chunk order.
	ChunkIDs(fileName string) ([]string, error)

	// DeleteFile removes the file record and its chunk rows. Removing an
	// unknown file is a no-op.
	DeleteFile(name string) error
}
