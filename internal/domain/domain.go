// Package domain contains the core request model for the render gateway.
// Keep this package free of transport (HTTP) and infrastructure
// (Redis/Chrome/Postgres) concerns.
package domain

// Format identifies the negotiated output encoding of a render request.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

// SegmentMode selects how QR text is handed to the symbol encoder. Kanji
// segments carry Shift-JIS mapped bytes instead of the default byte payload.
type SegmentMode string

const (
	SegmentByte  SegmentMode = "byte"
	SegmentKanji SegmentMode = "kanji"
)

// Defaults and limits applied during request normalization. Dimension and
// size parsing is deliberately permissive: a value that does not parse (or
// falls outside its bound) falls back to the default instead of failing the
// request.
const (
	DefaultChartWidth      = 500
	DefaultChartHeight     = 300
	DefaultChartBackground = "transparent"

	DefaultQRSize   = 150
	MaxQRSize       = 3000
	DefaultQRMargin = 4
	DefaultQRDark   = "000000"
	DefaultQRLight  = "ffffff"
)

// OutputKind distinguishes the two render pipelines.
type OutputKind int

const (
	KindChart OutputKind = iota
	KindQR
)

// RenderRequest is one normalized render job. Built fresh per HTTP
// request, consumed synchronously by the dispatch pipeline and discarded
// with the response; nothing here is shared across requests.
type RenderRequest struct {
	Kind   OutputKind
	Format Format
	Chart  ChartSpec
	QR     QRSpec
}

// ChartSpec is a validated chart render request. The definition string is
// untrusted and opaque at this layer; only the renderer interprets it.
type ChartSpec struct {
	Definition string
	Width      int
	Height     int
	Background string
}

// QRSpec is a validated QR render request. Text is fully percent-decoded.
// Mode is structural: SegmentKanji means the renderer must map the text
// through Shift-JIS and emit a Kanji-mode segment rather than byte mode.
type QRSpec struct {
	Text    string
	Mode    SegmentMode
	Format  Format
	Margin  int
	Size    int
	ECLevel string
	Dark    string
	Light   string
}
