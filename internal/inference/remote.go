package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dgallion1/ocrserve/internal/document"
)

// RemoteEngine calls an external OCR model server over HTTP.
type RemoteEngine struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemoteEngine creates a client for a model server at baseURL.
func NewRemoteEngine(baseURL string, timeout time.Duration) *RemoteEngine {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &RemoteEngine{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (e *RemoteEngine) Name() string { return "remote" }

type generateItem struct {
	Image      string `json:"image"` // base64-encoded PNG
	PromptType string `json:"prompt_type"`
}

type generateRequest struct {
	Items []generateItem `json:"items"`
}

type generatePage struct {
	Markdown   string `json:"markdown"`
	HTML       string `json:"html"`
	TokenCount *int   `json:"token_count"`
	// Chunk shapes vary across model versions; keep them raw for the
	// document normalizer.
	Chunks []any    `json:"chunks"`
	Images []string `json:"images"`
	Error  string   `json:"error"`
}

type generateResponse struct {
	Results []generatePage `json:"results"`
	Error   string         `json:"error"`
}

// Generate submits the batch and maps the response one-to-one onto
// PageResults. A result count that differs from the batch size is an error:
// page numbering is positional and cannot survive a mismatch.
func (e *RemoteEngine) Generate(ctx context.Context, batch []BatchItem) ([]document.PageResult, error) {
	items := make([]generateItem, 0, len(batch))
	for _, it := range batch {
		items = append(items, generateItem{
			Image:      base64.StdEncoding.EncodeToString(it.Image.PNG),
			PromptType: it.PromptType,
		})
	}

	body, err := json.Marshal(generateRequest{Items: items})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("model server: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp generateResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != "" {
		return nil, fmt.Errorf("model server error: %s", apiResp.Error)
	}
	if len(apiResp.Results) != len(batch) {
		return nil, fmt.Errorf("model server returned %d results for %d pages", len(apiResp.Results), len(batch))
	}

	results := make([]document.PageResult, 0, len(apiResp.Results))
	for _, page := range apiResp.Results {
		results = append(results, document.PageResult{
			Markdown:   page.Markdown,
			HTML:       page.HTML,
			TokenCount: page.TokenCount,
			Chunks:     page.Chunks,
			Images:     page.Images,
			Error:      page.Error,
		})
	}
	return results, nil
}

// Close releases idle connections.
func (e *RemoteEngine) Close() {
	e.httpClient.CloseIdleConnections()
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
