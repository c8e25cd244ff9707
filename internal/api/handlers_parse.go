package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/ocrserve/internal/document"
	"github.com/dgallion1/ocrserve/internal/pageload"
)

// parseResponse decorates the document result with request-level fields the
// core does not model.
type parseResponse struct {
	document.DocumentResult
	Filename string `json:"filename"`
	// Text is the plain text extracted from the document HTML.
	Text string `json:"text,omitempty"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	// Limit total request size, with headroom for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

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

	filename := sanitizeFilename(header.Filename)
	if !pageload.IsSupportedExtension(filename) {
		jsonError(w, "Unsupported file type. Allowed: "+allowedExtensions(), http.StatusBadRequest)
		return
	}

	suffix := strings.ToLower(filepath.Ext(filename))
	tmp, err := os.CreateTemp("", "ocrserve-upload-*"+suffix)
	if err != nil {
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	tmp.Close()
	if err != nil {
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	if written > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	pageRange := r.URL.Query().Get("page_range")

	result, err := s.runner.Run(r.Context(), tmpPath, pageRange)
	if err != nil {
		s.log.Error("ocr failed", "filename", filename, "error", err)
		jsonError(w, "OCR failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := parseResponse{
		DocumentResult: result,
		Filename:       filename,
		Text:           htmlText(result.HTML),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func allowedExtensions() string {
	exts := make([]string, 0, len(pageload.SupportedExtensions))
	for ext := range pageload.SupportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
