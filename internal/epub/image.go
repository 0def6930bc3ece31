package epub

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	defaultJPEGQuality = 85
	defaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

// mediaTypes maps lower-case file extensions to image MIME types.
var mediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
}

// MediaTypeFor derives an image MIME type from the extension of name,
// defaulting to image/jpeg.
func MediaTypeFor(name string) string {
	if mt, ok := mediaTypes[strings.ToLower(path.Ext(name))]; ok {
		return mt
	}
	return "image/jpeg"
}

// DataURI encodes data as an RFC 2397 data URI.
func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ImageOptimizer downscales raster images wider than MaxWidth before they
// are embedded. A zero MaxWidth disables it.
type ImageOptimizer struct {
	MaxWidth    int
	JPEGQuality int
	MaxPixels   int // Total pixel count limit for decode (width * height)
}

// NewImageOptimizer creates an image optimizer with defaults.
func NewImageOptimizer(maxWidth int) *ImageOptimizer {
	return &ImageOptimizer{
		MaxWidth:    maxWidth,
		JPEGQuality: defaultJPEGQuality,
		MaxPixels:   defaultMaxPixels,
	}
}

// Optimize returns the image to embed and its media type. Images that are
// already narrow enough, vector, animated, or undecodable are returned as-is;
// the returned error is informational and never prevents embedding.
func (o *ImageOptimizer) Optimize(mediaType string, input []byte) ([]byte, string, error) {
	if o == nil || o.MaxWidth <= 0 {
		return input, mediaType, nil
	}
	format := mediaTypeToFormat(mediaType)
	if format == "" {
		return input, mediaType, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return input, mediaType, fmt.Errorf("image decode failed: %w", err)
	}
	if cfg.Width <= o.MaxWidth {
		return input, mediaType, nil
	}
	if pixels := uint64(cfg.Width) * uint64(cfg.Height); o.MaxPixels > 0 && pixels > uint64(o.MaxPixels) {
		return input, mediaType, fmt.Errorf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
	}

	if format == "gif" {
		if animated, err := isAnimatedGIF(input); err == nil && animated {
			return input, mediaType, nil
		}
	}

	src, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return input, mediaType, fmt.Errorf("image decode failed: %w", err)
	}
	resized := imaging.Resize(src, o.MaxWidth, 0, imaging.Lanczos)

	if format == "png" && hasAlpha(resized) {
		data, err := encodePNG(resized)
		if err != nil {
			return input, mediaType, fmt.Errorf("png encode failed: %w", err)
		}
		return data, "image/png", nil
	}

	quality := o.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}
	data, err := encodeJPEG(resized, quality)
	if err != nil {
		return input, mediaType, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return data, "image/jpeg", nil
}

func mediaTypeToFormat(mediaType string) string {
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg":
		return "jpeg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	default:
		return ""
	}
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAnimatedGIF(data []byte) (bool, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	return len(g.Image) > 1, nil
}

func hasAlpha(img image.Image) bool {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a < 0xFFFF {
				return true
			}
		}
	}
	return false
}
