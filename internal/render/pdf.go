package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"

	"github.com/go-pdf/fpdf"
)

// PDFFromImage wraps PNG bytes in a single-page PDF whose page matches
// the image dimensions. Pixels are treated as CSS pixels at 96 dpi.
func PDFFromImage(pngData []byte) ([]byte, error) {
	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("cannot read image for pdf: %w", err)
	}

	widthPt := float64(imgCfg.Width) * 72.0 / 96.0
	heightPt := float64(imgCfg.Height) * 72.0 / 96.0

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: widthPt, Ht: heightPt},
	})
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("chart", opts, bytes.NewReader(pngData))
	pdf.ImageOptions("chart", 0, 0, widthPt, heightPt, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("cannot write pdf: %w", err)
	}
	return out.Bytes(), nil
}

// PDFFromText renders a plain message on an A4 page. Used when a PDF was
// requested but no image could be produced.
func PDFFromText(msg string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 14)
	pdf.MultiCell(0, 8, msg, "", "L", false)

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("cannot write pdf: %w", err)
	}
	return out.Bytes(), nil
}
