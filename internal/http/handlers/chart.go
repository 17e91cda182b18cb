// Package handlers contains the HTTP dispatch pipeline: normalize the
// request, render through the adapter, answer with bytes. Every failure
// still produces an artifact in the format the client asked for.
package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"chartsrv/internal/config"
	"chartsrv/internal/domain"
	"chartsrv/internal/infra/logging"
	"chartsrv/internal/render"
)

const (
	contentTypePNG = "image/png"
	contentTypeSVG = "image/svg+xml"
	contentTypePDF = "application/pdf"

	cacheControlOneWeek = "public, max-age=604800"
)

// ChartService serves the chart rendering path.
type ChartService struct {
	cfg      config.Config
	renderer render.ChartRenderer
	cache    *ChartCache
}

// NewChartService wires the chart pipeline. cache may be nil to disable
// artifact caching.
func NewChartService(cfg config.Config, renderer render.ChartRenderer, cache *ChartCache) *ChartService {
	return &ChartService{cfg: cfg, renderer: renderer, cache: cache}
}

// HandleChart serves GET and POST /chart. The render runs on a background
// context: a client hanging up mid-render does not cancel the tab, the
// result is simply dropped with the connection.
func (s *ChartService) HandleChart(c *fiber.Ctx) error {
	req, err := normalizeChart(newParams(c))
	if err != nil {
		logging.Warn("Chart request rejected", "error", err.Error())
		return writeChartFailure(c, req.Format, err.Error())
	}

	cacheKey := ""
	if s.cache != nil {
		cacheKey = chartCacheKey(req)
		if data, ok := s.cache.Get(cacheKey); ok {
			return writeRendered(c, chartContentType(req.Format), data)
		}
	}

	data, err := s.renderer.RenderPNG(context.Background(), req.Chart)
	if err != nil {
		logging.Error("Chart render failed", "error", err.Error())
		return writeChartFailure(c, req.Format, err.Error())
	}

	if req.Format == domain.FormatPDF {
		data, err = render.PDFFromImage(data)
		if err != nil {
			logging.Error("PDF conversion failed", "error", err.Error())
			return writeChartFailure(c, req.Format, err.Error())
		}
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, data)
	}
	return writeRendered(c, chartContentType(req.Format), data)
}

func chartContentType(f domain.Format) string {
	if f == domain.FormatPDF {
		return contentTypePDF
	}
	return contentTypePNG
}

func writeRendered(c *fiber.Ctx, contentType string, data []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, cacheControlOneWeek)
	return c.Send(data)
}
