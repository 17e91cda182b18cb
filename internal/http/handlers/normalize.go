package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"chartsrv/internal/domain"
)

// normalizeChart builds a chart render request from raw parameters. The
// definition is the only mandatory field; malformed dimensions fall back
// to their defaults rather than failing the request.
func normalizeChart(p *params) (domain.RenderRequest, error) {
	req := domain.RenderRequest{Kind: domain.KindChart, Format: chartFormat(p)}

	def := p.get("c", "chart")
	if def == "" {
		return req, domain.ErrMissingChart
	}
	req.Chart = domain.ChartSpec{
		Definition: def,
		Width:      positiveIntOrDefault(p.get("w", "width"), domain.DefaultChartWidth),
		Height:     positiveIntOrDefault(p.get("h", "height"), domain.DefaultChartHeight),
		Background: stringOrDefault(p.get("backgroundColor", "bkg"), domain.DefaultChartBackground),
	}
	return req, nil
}

// chartFormat is resolved before validation so failure artifacts already
// match the format the client asked for.
func chartFormat(p *params) domain.Format {
	if p.get("f", "format") == "pdf" {
		return domain.FormatPDF
	}
	return domain.FormatPNG
}

// normalizeQR builds a QR render request. Text is decoded a second time
// here: the HTTP layer already unescaped the query value once, and this
// pass mirrors the gateway's historical double-decode, including its
// failure mode for stray percent signs.
func normalizeQR(p *params) (domain.RenderRequest, error) {
	req := domain.RenderRequest{Kind: domain.KindQR, Format: domain.FormatPNG}

	raw := p.get("text")
	if raw == "" {
		return req, domain.ErrMissingText
	}
	text, err := url.PathUnescape(raw)
	if err != nil {
		return req, domain.ErrMalformedURI
	}

	spec := domain.QRSpec{
		Text:    text,
		Mode:    domain.SegmentByte,
		Format:  domain.FormatPNG,
		Margin:  marginOrDefault(p.get("margin")),
		Size:    sizeOrDefault(p.get("size")),
		ECLevel: p.get("ecLevel"),
		Dark:    stringOrDefault(p.get("dark"), domain.DefaultQRDark),
		Light:   stringOrDefault(p.get("light"), domain.DefaultQRLight),
	}
	if p.get("format") == "svg" {
		spec.Format = domain.FormatSVG
	}
	if p.get("mode") == "sjis" {
		spec.Mode = domain.SegmentKanji
	}

	req.Format = spec.Format
	req.QR = spec
	return req, nil
}

func positiveIntOrDefault(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// sizeOrDefault admits sizes in (0, 3000]. Anything else, including a
// value just past the bound, falls back to the default.
func sizeOrDefault(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 || n > domain.MaxQRSize {
		return domain.DefaultQRSize
	}
	return n
}

func marginOrDefault(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return domain.DefaultQRMargin
	}
	return n
}

func stringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
