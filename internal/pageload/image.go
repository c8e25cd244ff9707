package pageload

import (
	"bytes"
	"image"
	"image/png"
	"os"

	// Raster decoders beyond png.
	_ "image/gif"
	_ "image/jpeg"

	"github.com/fumiama/imgsz"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxImagePixels caps decode work for absurdly large rasters.
const maxImagePixels = 100_000_000

// loadImage decodes a single raster file into a one-page sequence,
// re-encoded as PNG for the inference engine. Undecodable or oversized files
// yield an empty sequence, not an error.
func loadImage(path string) ([]PageImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Cheap dimension probe before the full pixel decode. Formats the
	// probe cannot sniff still go through the real decoders below.
	if sz, _, err := imgsz.DecodeSize(bytes.NewReader(data)); err == nil {
		if int64(sz.Width)*int64(sz.Height) > maxImagePixels {
			return nil, nil
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}

	page := PageImage{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}
	if format == "png" {
		page.PNG = data
	} else {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, nil
		}
		page.PNG = buf.Bytes()
	}
	return []PageImage{page}, nil
}
