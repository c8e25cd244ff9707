package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgallion1/ocrserve/internal/config"
	"github.com/dgallion1/ocrserve/internal/document"
	"github.com/dgallion1/ocrserve/internal/inference"
	"github.com/dgallion1/ocrserve/internal/pageload"
	"github.com/dgallion1/ocrserve/internal/pipeline"
)

type stubEngine struct {
	results []document.PageResult
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Generate(ctx context.Context, batch []inference.BatchItem) ([]document.PageResult, error) {
	return s.results, nil
}

func newTestServer(t *testing.T, pages []pageload.PageImage, results []document.PageResult) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		EngineKind:     "tesseract",
		MaxUploadBytes: 1 << 20,
		StaticDir:      t.TempDir(),
	}
	runner := &pipeline.Runner{
		Load: func(path string, opts pageload.Options) ([]pageload.PageImage, error) {
			return pages, nil
		},
		Engines: inference.NewHolder(func() (inference.Engine, error) {
			return &stubEngine{results: results}, nil
		}),
		Stats:      inference.NewEngineStats(0),
		Log:        log,
		PromptType: "ocr_layout",
	}
	return NewServer(runner, runner.Stats, log, cfg)
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleParse_Success(t *testing.T) {
	tc := 7
	srv := newTestServer(t,
		[]pageload.PageImage{{PNG: []byte{1}}},
		[]document.PageResult{{
			Markdown:   "# Scanned",
			HTML:       "<h1>Scanned</h1>",
			TokenCount: &tc,
			Chunks: []any{
				map[string]any{"type": "heading", "text": "Scanned", "bbox": []any{0.0, 0.0, 50.0, 10.0}},
			},
		}},
	)

	body, contentType := multipartUpload(t, "file", "page.png", []byte("fake-png"))
	req := httptest.NewRequest(http.MethodPost, "/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Markdown        string              `json:"markdown"`
		Structure       []document.Chunk    `json:"structure"`
		Pages           []document.PageMeta `json:"pages"`
		NumPages        int                 `json:"num_pages"`
		TotalTokenCount int                 `json:"total_token_count"`
		Filename        string              `json:"filename"`
		Text            string              `json:"text"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Filename != "page.png" {
		t.Errorf("expected filename page.png, got %q", resp.Filename)
	}
	if resp.NumPages != 1 || len(resp.Pages) != 1 {
		t.Errorf("expected 1 page, got %d/%d", resp.NumPages, len(resp.Pages))
	}
	if resp.TotalTokenCount != 7 {
		t.Errorf("expected 7 tokens, got %d", resp.TotalTokenCount)
	}
	if len(resp.Structure) != 1 || resp.Structure[0].Type != "heading" {
		t.Errorf("unexpected structure %+v", resp.Structure)
	}
	if resp.Text != "Scanned" {
		t.Errorf("expected plain text Scanned, got %q", resp.Text)
	}
}

func TestHandleParse_UnsupportedExtension(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	body, contentType := multipartUpload(t, "file", "report.docx", []byte("zzz"))
	req := httptest.NewRequest(http.MethodPost, "/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unsupported file type") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandleParse_MissingFile(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/parse", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleParse_EmptyLoadReturnsErrorResult(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	body, contentType := multipartUpload(t, "file", "blank.pdf", []byte("%PDF-"))
	req := httptest.NewRequest(http.MethodPost, "/parse", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	// Total loading failure is a well-formed 200 response with an error field.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp document.DocumentResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != document.MsgNoPages {
		t.Errorf("expected %q, got %q", document.MsgNoPages, resp.Error)
	}
	if resp.NumPages != 0 {
		t.Errorf("expected 0 pages, got %d", resp.NumPages)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandleIndexRedirects(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/static/index.html" {
		t.Errorf("unexpected redirect target %q", loc)
	}
}

func TestAuthMiddleware_RejectsWithoutKey(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	srv.cfg.APIKey = "secret"
	srv.setupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/stats/ocr", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/ocr", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		"scan.png":         "scan.png",
		"":                 "unnamed",
		".":                "unnamed",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
