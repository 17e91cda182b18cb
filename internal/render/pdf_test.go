package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 0x20, G: 0x60, B: 0xa0, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("cannot encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestPDFFromImage_WrapsPNG(t *testing.T) {
	data, err := PDFFromImage(testPNG(t, 40, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("expected pdf magic, got %.8q", data)
	}
	if !bytes.Contains(data, []byte("%%EOF")) {
		t.Error("expected pdf trailer")
	}
}

func TestPDFFromImage_RejectsGarbage(t *testing.T) {
	if _, err := PDFFromImage([]byte("definitely not a png")); err == nil {
		t.Error("expected an error for non-image input")
	}
}

func TestPDFFromText_ProducesDocument(t *testing.T) {
	data, err := PDFFromText("Chart Error: missing `c` or `chart` parameter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("expected pdf magic, got %.8q", data)
	}
}
