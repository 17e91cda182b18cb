package render

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"chartsrv/internal/domain"
)

// QRCoder renders QR symbols with skip2/go-qrcode. PNG output comes
// straight from the library, SVG is built from the module bitmap.
type QRCoder struct{}

func NewQRCoder() QRCoder {
	return QRCoder{}
}

func (QRCoder) Render(spec domain.QRSpec) ([]byte, error) {
	payload, err := encodePayload(spec.Text, spec.Mode)
	if err != nil {
		return nil, err
	}
	q, err := qrcode.New(payload, recoveryLevel(spec.ECLevel))
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	q.ForegroundColor = parseHexColor(spec.Dark, color.Black)
	q.BackgroundColor = parseHexColor(spec.Light, color.White)
	if spec.Format == domain.FormatSVG {
		return renderQRSVG(q, spec)
	}
	// The library only knows a fixed four module quiet zone, so any
	// positive margin keeps it and zero drops it.
	if spec.Margin <= 0 {
		q.DisableBorder = true
	}
	return q.PNG(spec.Size)
}

// encodePayload maps the text into the byte sequence handed to the
// encoder. Kanji mode re-encodes the text as Shift JIS so Japanese
// readers that assume SJIS payloads decode it correctly.
func encodePayload(text string, mode domain.SegmentMode) (string, error) {
	if mode != domain.SegmentKanji {
		return text, nil
	}
	sjis, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), text)
	if err != nil {
		return "", fmt.Errorf("shift-jis mapping: %w", err)
	}
	return sjis, nil
}

func recoveryLevel(ecLevel string) qrcode.RecoveryLevel {
	switch strings.ToUpper(ecLevel) {
	case "L":
		return qrcode.Low
	case "Q":
		return qrcode.High
	case "H":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// parseHexColor accepts 3, 6 or 8 hex digits with an optional leading
// '#'. Unparsable values fall back instead of failing the render.
func parseHexColor(s string, fallback color.Color) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var c color.RGBA
	var err error
	switch len(s) {
	case 3:
		_, err = fmt.Sscanf(s, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 0x11
		c.G *= 0x11
		c.B *= 0x11
		c.A = 0xff
	case 6:
		_, err = fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B)
		c.A = 0xff
	case 8:
		_, err = fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		return fallback
	}
	if err != nil {
		return fallback
	}
	return c
}

func colorToHex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// renderQRSVG writes the module grid as an SVG document. The viewBox is
// in module units and horizontal runs of dark modules are merged into
// single rects to keep the output small.
func renderQRSVG(q *qrcode.QRCode, spec domain.QRSpec) ([]byte, error) {
	q.DisableBorder = true
	grid := q.Bitmap()
	if len(grid) == 0 {
		return nil, fmt.Errorf("qr encode: empty bitmap")
	}
	margin := spec.Margin
	if margin < 0 {
		margin = 0
	}
	total := len(grid) + 2*margin

	var b bytes.Buffer
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\" shape-rendering=\"crispEdges\">\n",
		spec.Size, spec.Size, total, total)
	if bg, ok := q.BackgroundColor.(color.RGBA); !ok || bg.A != 0 {
		fmt.Fprintf(&b, "<rect width=\"%d\" height=\"%d\" fill=\"%s\"/>\n", total, total, colorToHex(q.BackgroundColor))
	}
	fg := colorToHex(q.ForegroundColor)
	for y, row := range grid {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			fmt.Fprintf(&b, "<rect x=\"%d\" y=\"%d\" width=\"%d\" height=\"1\" fill=\"%s\"/>\n",
				start+margin, y+margin, x-start, fg)
		}
	}
	b.WriteString("</svg>")
	return b.Bytes(), nil
}
