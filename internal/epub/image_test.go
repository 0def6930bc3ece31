package epub

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int, transparent bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	alpha := uint8(255)
	if transparent {
		alpha = 128
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: alpha})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestImageOptimizer_Disabled(t *testing.T) {
	input := testPNG(t, 100, 10, false)

	for _, o := range []*ImageOptimizer{nil, NewImageOptimizer(0)} {
		data, mediaType, err := o.Optimize("image/png", input)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}
		if !bytes.Equal(data, input) || mediaType != "image/png" {
			t.Fatalf("Optimize() changed input with optimizer %+v", o)
		}
	}
}

func TestImageOptimizer_Downscale(t *testing.T) {
	tests := []struct {
		name          string
		transparent   bool
		wantMediaType string
	}{
		{"opaque png becomes jpeg", false, "image/jpeg"},
		{"transparent png stays png", true, "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := testPNG(t, 200, 100, tt.transparent)

			data, mediaType, err := NewImageOptimizer(50).Optimize("image/png", input)
			if err != nil {
				t.Fatalf("Optimize() error = %v", err)
			}
			if mediaType != tt.wantMediaType {
				t.Fatalf("mediaType = %q, want %q", mediaType, tt.wantMediaType)
			}
			cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("DecodeConfig() error = %v", err)
			}
			if cfg.Width != 50 || cfg.Height != 25 {
				t.Fatalf("size = %dx%d, want 50x25", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestImageOptimizer_Passthrough(t *testing.T) {
	narrow := testPNG(t, 20, 20, false)
	tests := []struct {
		name      string
		mediaType string
		input     []byte
		wantErr   bool
	}{
		{"narrow enough", "image/png", narrow, false},
		{"vector", "image/svg+xml", []byte("<svg/>"), false},
		{"undecodable", "image/jpeg", []byte("not an image"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mediaType, err := NewImageOptimizer(50).Optimize(tt.mediaType, tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Optimize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !bytes.Equal(data, tt.input) || mediaType != tt.mediaType {
				t.Fatalf("Optimize() = %d bytes %q, want input unchanged", len(data), mediaType)
			}
		})
	}
}

func TestDataURI(t *testing.T) {
	if got := DataURI("image/png", []byte("abc")); got != "data:image/png;base64,YWJj" {
		t.Fatalf("DataURI() = %q, want %q", got, "data:image/png;base64,YWJj")
	}
}
