package pageload

import (
	"path/filepath"
	"strings"
)

// PageImage is one decoded page rasterized to an encoded PNG. Its position in
// the returned sequence is its only identity.
type PageImage struct {
	PNG    []byte
	Width  int
	Height int
}

// Options controls page loading.
type Options struct {
	// PageRange selects PDF pages, e.g. "1-5,7,9-12". Empty means all pages.
	// Ignored for single-image files.
	PageRange string
	// DPI is the PDF rasterization resolution. Zero uses DefaultDPI.
	DPI int
	// PdftoppmPath overrides the pdftoppm binary location.
	PdftoppmPath string
}

// DefaultDPI is the PDF render resolution used when none is configured.
const DefaultDPI = 200

// SupportedExtensions lists file extensions this service accepts.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".tiff": true,
	".bmp":  true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Load converts a file into an ordered sequence of page images. A file from
// which nothing could be decoded yields an empty sequence and no error;
// errors are reserved for unreadable files and malformed options.
func Load(path string, opts Options) ([]PageImage, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return loadPDF(path, opts)
	}
	return loadImage(path)
}
