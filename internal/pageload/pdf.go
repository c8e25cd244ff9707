package pageload

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/fumiama/imgsz"
	pdflib "github.com/ledongthuc/pdf"
)

// loadPDF rasterizes the selected pages of a PDF via pdftoppm. The page count
// comes from parsing the PDF itself, which also rejects files that merely
// carry a .pdf extension. Pages that fail to render are skipped; if no page
// renders, the result is an empty sequence rather than an error.
func loadPDF(path string, opts Options) ([]PageImage, error) {
	numPages, err := pdfPageCount(path)
	if err != nil {
		// Not a readable PDF: nothing to decode.
		return nil, nil
	}

	pages, err := ParsePageRange(opts.PageRange, numPages)
	if err != nil {
		return nil, err
	}

	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	bin := opts.PdftoppmPath
	if bin == "" {
		bin = "pdftoppm"
	}

	tmpDir, err := os.MkdirTemp("", "ocrserve-render-*")
	if err != nil {
		return nil, fmt.Errorf("create render dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var images []PageImage
	for _, pageNum := range pages {
		img, err := renderPDFPage(bin, path, tmpDir, pageNum, dpi)
		if err != nil {
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

func pdfPageCount(path string) (int, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := reader.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return n, nil
}

// renderPDFPage shells out to pdftoppm for a single page and reads the PNG it
// produces.
func renderPDFPage(bin, path, tmpDir string, pageNum, dpi int) (PageImage, error) {
	prefix := filepath.Join(tmpDir, "page-"+strconv.Itoa(pageNum))
	cmd := exec.Command(bin,
		"-f", strconv.Itoa(pageNum),
		"-l", strconv.Itoa(pageNum),
		"-r", strconv.Itoa(dpi),
		"-png",
		path, prefix,
	)
	if err := cmd.Run(); err != nil {
		return PageImage{}, fmt.Errorf("pdftoppm page %d: %w", pageNum, err)
	}

	data, err := readRenderedPage(prefix)
	if err != nil {
		return PageImage{}, err
	}

	img := PageImage{PNG: data}
	if sz, _, err := imgsz.DecodeSize(bytes.NewReader(data)); err == nil {
		img.Width = int(sz.Width)
		img.Height = int(sz.Height)
	}
	return img, nil
}

// readRenderedPage finds the file pdftoppm wrote. The tool picks its own
// page-number suffix (zero-padded by total page count), so glob for it.
func readRenderedPage(prefix string) ([]byte, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("rendered page not found for %s", prefix)
	}
	return os.ReadFile(matches[0])
}
