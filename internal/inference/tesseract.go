package inference

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/yuin/goldmark"

	"github.com/dgallion1/ocrserve/internal/document"
)

// TesseractEngine runs OCR locally through the gosseract client. It is the
// default engine for single-host deployments without a model server.
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed engine with optional
// language hints (e.g. "eng", "deu").
func NewTesseractEngine(languages []string) *TesseractEngine {
	return &TesseractEngine{
		languages:     languages,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// paragraphChunk is one recognized paragraph with its pixel bounding box.
type paragraphChunk struct {
	Kind        string
	Content     string
	BoundingBox [4]float64
	Confidence  float64
}

// Generate recognizes each page sequentially with one client per page. A
// page whose recognition fails produces a PageResult carrying the error;
// only context cancellation aborts the batch.
func (e *TesseractEngine) Generate(ctx context.Context, batch []BatchItem) ([]document.PageResult, error) {
	results := make([]document.PageResult, 0, len(batch))
	for _, item := range batch {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		results = append(results, e.recognizePage(item))
	}
	return results, nil
}

func (e *TesseractEngine) recognizePage(item BatchItem) document.PageResult {
	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(item.Image.PNG); err != nil {
		return document.PageResult{Error: fmt.Sprintf("set image: %s", err)}
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return document.PageResult{Error: fmt.Sprintf("set languages: %s", err)}
		}
	}

	text, err := c.Text()
	if err != nil {
		return document.PageResult{Error: fmt.Sprintf("recognize: %s", err)}
	}
	text = strings.TrimSpace(text)

	res := document.PageResult{Markdown: text}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &htmlBuf); err == nil {
		res.HTML = strings.TrimSpace(htmlBuf.String())
	}

	tokens := EstimateTokens(text)
	res.TokenCount = &tokens

	// Paragraph-level boxes; word-level is too noisy for document structure.
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_PARA)
	if err == nil {
		for _, b := range boxes {
			content := strings.TrimSpace(b.Word)
			if content == "" {
				continue
			}
			res.Chunks = append(res.Chunks, paragraphChunk{
				Kind:    "paragraph",
				Content: content,
				BoundingBox: [4]float64{
					float64(b.Box.Min.X),
					float64(b.Box.Min.Y),
					float64(b.Box.Max.X),
					float64(b.Box.Max.Y),
				},
				Confidence: b.Confidence,
			})
		}
	}
	return res
}
