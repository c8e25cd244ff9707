package inference

import (
	"context"
	"sync"

	"github.com/dgallion1/ocrserve/internal/document"
	"github.com/dgallion1/ocrserve/internal/pageload"
)

// BatchItem pairs one page image with the prompt flavor the engine should
// apply to it.
type BatchItem struct {
	Image      pageload.PageImage
	PromptType string
}

// Engine runs OCR inference over a batch of page images. Implementations
// must return results order-preserving and one-to-one with the input batch;
// a page-level failure belongs in PageResult.Error, not in the returned
// error, which is reserved for whole-batch transport or setup failures.
type Engine interface {
	Name() string
	Generate(ctx context.Context, batch []BatchItem) ([]document.PageResult, error)
}

// Holder lazily constructs a single shared Engine on first use. The engine
// holds expensive compute resources, so construction is deferred until the
// first request that needs it and the result is reused for the process
// lifetime.
type Holder struct {
	once   sync.Once
	build  func() (Engine, error)
	engine Engine
	err    error
}

// NewHolder wraps an engine constructor.
func NewHolder(build func() (Engine, error)) *Holder {
	return &Holder{build: build}
}

// Get returns the shared engine, constructing it on the first call. A failed
// construction is sticky: subsequent calls return the same error.
func (h *Holder) Get() (Engine, error) {
	h.once.Do(func() {
		h.engine, h.err = h.build()
	})
	return h.engine, h.err
}
