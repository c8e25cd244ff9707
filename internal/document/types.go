package document

// PageResult is the inference engine's output for one page. Its position in
// the batch defines the 1-based page number; page numbers are never re-derived
// from content.
type PageResult struct {
	Markdown string
	HTML     string

	// TokenCount is nil when the engine did not report one.
	TokenCount *int

	// Chunks holds raw structural records in whatever shape the engine
	// produced them (JSON maps from a remote engine, typed structs from a
	// local one). NormalizeChunk turns each into a Chunk.
	Chunks []any

	// Images holds opaque references to page images the engine extracted.
	Images []string

	// Error carries a per-page inference failure. It never aborts
	// aggregation of the other pages.
	Error string
}

// Chunk is one normalized structural element of a page layout.
type Chunk struct {
	Page int    `json:"page"`
	Type string `json:"type"`
	// Bbox is [x0,y0,x1,y1] rounded to 2 decimals, or nil when the raw
	// record carried no usable bounding box (serialized as JSON null).
	Bbox []float64 `json:"bbox"`
	Text string    `json:"text"`
}

// PageMeta summarizes one page without its full text content.
type PageMeta struct {
	PageNum    int    `json:"page_num"`
	TokenCount *int   `json:"token_count"`
	NumChunks  int    `json:"num_chunks"`
	NumImages  int    `json:"num_images"`
	Error      string `json:"error,omitempty"`
}

// DocumentResult is the aggregated document-level response body.
type DocumentResult struct {
	Markdown        string     `json:"markdown"`
	HTML            string     `json:"html"`
	Structure       []Chunk    `json:"structure"`
	Pages           []PageMeta `json:"pages"`
	NumPages        int        `json:"num_pages"`
	TotalTokenCount int        `json:"total_token_count"`
	// Error is set only when zero pages could be loaded from the file.
	Error string `json:"error,omitempty"`
}

// MsgNoPages is the sole request-level error the aggregator produces.
const MsgNoPages = "No pages could be loaded from the file"
