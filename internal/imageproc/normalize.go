package imageproc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"
)

// CanvasSize is the fixed square edge of every processed image.
const CanvasSize = 1080

const jpegQuality = 90

var ErrUnknownFormat = errors.New("unknown image format")

// DetectFormat reads the magic bytes and returns the image format.
func DetectFormat(data []byte) (string, error) {
	if len(data) < 12 {
		return "", errors.New("data too short to determine format")
	}

	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "jpeg", nil
	}
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "png", nil
	}
	if string(data[0:6]) == "GIF87a" || string(data[0:6]) == "GIF89a" {
		return "gif", nil
	}
	if string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "webp", nil
	}

	return "", ErrUnknownFormat
}

// Decode sniffs the format and decodes the raster. JPEG, PNG, GIF and
// WebP are supported.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}

	format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}

	reader := bytes.NewReader(data)

	var img image.Image
	switch format {
	case "jpeg":
		img, err = jpeg.Decode(reader)
	case "png":
		img, err = png.Decode(reader)
	case "gif":
		img, err = gif.Decode(reader)
	case "webp":
		img, err = webp.Decode(reader)
	}
	if err != nil {
		return nil, errors.New("failed to decode " + format + " image: " + err.Error())
	}

	return img, nil
}

// Normalize maps an arbitrary raster onto a CanvasSize square: the
// image is scaled to fit entirely inside the canvas preserving aspect
// ratio (contain semantics, no cropping), then centered on an opaque
// white background. Transparency blends onto the white.
func Normalize(img image.Image) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	if w != CanvasSize || h != CanvasSize {
		scale := math.Min(float64(CanvasSize)/float64(w), float64(CanvasSize)/float64(h))
		newW := int(math.Max(1, math.Round(float64(w)*scale)))
		newH := int(math.Max(1, math.Round(float64(h)*scale)))
		img = imaging.Resize(img, newW, newH, imaging.Lanczos)
	}

	canvas := imaging.New(CanvasSize, CanvasSize, color.White)
	return imaging.OverlayCenter(canvas, img, 1.0)
}

// SaveJPEG encodes img to path as a quality-90 JPEG.
func SaveJPEG(img image.Image, path string) error {
	return imaging.Save(img, path, imaging.JPEGQuality(jpegQuality))
}
