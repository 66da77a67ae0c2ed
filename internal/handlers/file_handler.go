package handlers

import (
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/services/ingest"
)

// maxUploadBytes bounds a single uploaded file.
const maxUploadBytes = 10 << 20

// FileHandler manages uploaded files: upload indexes the file into the
// vector store, delete removes its chunks again.
type FileHandler struct {
	builder *ingest.IndexBuilder
	files   interfaces.FileStore
	logger  arbor.ILogger
}

func NewFileHandler(builder *ingest.IndexBuilder, files interfaces.FileStore, logger arbor.ILogger) *FileHandler {
	return &FileHandler{
		builder: builder,
		files:   files,
		logger:  logger,
	}
}

// ListHandler handles GET /api/files
func (h *FileHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	files, err := h.files.ListFiles()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list files")
		WriteError(w, http.StatusInternalServerError, "Failed to list files")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
		"count": len(files),
	})
}

// UploadHandler handles POST /api/files multipart uploads. The form field
// "file" carries the document; re-uploading a name replaces its index
// entries.
func (h *FileHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "File field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		WriteError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	name := path.Base(header.Filename)
	chunks, err := h.builder.AddFile(r.Context(), name, data)
	if err != nil {
		h.logger.Error().Err(err).Str("file", name).Msg("Failed to index uploaded file")
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.logger.Info().
		Str("file", name).
		Int("chunks", chunks).
		Msg("File uploaded and indexed")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"file":   name,
		"chunks": chunks,
	})
}

// DeleteHandler handles DELETE /api/files/{name}
func (h *FileHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if name == "" || strings.Contains(name, "/") {
		WriteError(w, http.StatusBadRequest, "File name is required")
		return
	}

	if err := h.builder.RemoveFile(name); err != nil {
		h.logger.Error().Err(err).Str("file", name).Msg("Failed to remove file")
		WriteError(w, http.StatusInternalServerError, "Failed to remove file")
		return
	}

	h.logger.Info().Str("file", name).Msg("File removed")
	WriteSuccess(w, "File removed")
}
