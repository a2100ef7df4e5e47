package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// handleExtract parses an uploaded document synchronously. The document is
// either the raw request body or the "file" part of a multipart form.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	var (
		src      io.Reader = r.Body
		filename string
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		src = file
		filename = sanitizeFilename(header.Filename)
	}

	data, err := io.ReadAll(io.LimitReader(src, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read document", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		jsonError(w, "empty document", http.StatusBadRequest)
		return
	}

	scriptsOnly := r.URL.Query().Get("scripts_only") == "true"
	res := s.orchestrator.Extract(string(data), scriptsOnly)

	s.log.Info("extracted document",
		"filename", filename,
		"bytes", len(data),
		"chunks", res.Summary.Chunks,
		"error_chunks", res.Summary.ErrorChunks,
	)

	writeJSON(w, http.StatusOK, res)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
