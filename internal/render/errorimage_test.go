package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestErrorImage_DecodesWithInk(t *testing.T) {
	data, err := ErrorImage("Chart Error: boom")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}

	b := img.Bounds()
	if b.Dy() != errorImageHeight {
		t.Errorf("expected height %d, got %d", errorImageHeight, b.Dy())
	}
	if b.Dx() < errorImageMinWidth {
		t.Errorf("expected width of at least %d, got %d", errorImageMinWidth, b.Dx())
	}

	ink := false
	for y := b.Min.Y; y < b.Max.Y && !ink; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r>>8 != 0xff || g>>8 != 0xff || bl>>8 != 0xff {
				ink = true
				break
			}
		}
	}
	if !ink {
		t.Error("expected rendered text pixels")
	}
}

func TestErrorImage_WidthTracksMessage(t *testing.T) {
	short, err := ErrorImage("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	long, err := ErrorImage(strings.Repeat("long message ", 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	huge, err := ErrorImage(strings.Repeat("long message ", 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	shortCfg, _ := png.DecodeConfig(bytes.NewReader(short))
	longCfg, _ := png.DecodeConfig(bytes.NewReader(long))
	hugeCfg, _ := png.DecodeConfig(bytes.NewReader(huge))

	if shortCfg.Width != errorImageMinWidth {
		t.Errorf("short message should use the minimum width, got %d", shortCfg.Width)
	}
	if longCfg.Width <= shortCfg.Width {
		t.Errorf("longer message should widen the image, got %d <= %d", longCfg.Width, shortCfg.Width)
	}
	if hugeCfg.Width != errorImageMaxWidth {
		t.Errorf("width should cap at %d, got %d", errorImageMaxWidth, hugeCfg.Width)
	}
}
