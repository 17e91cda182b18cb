package handlers

import (
	"github.com/gofiber/fiber/v2"

	"chartsrv/internal/domain"
	"chartsrv/internal/infra/logging"
	"chartsrv/internal/render"
)

// QRService serves the QR rendering path. It is not rate limited.
type QRService struct {
	coder render.QRRenderer
}

func NewQRService(coder render.QRRenderer) *QRService {
	return &QRService{coder: coder}
}

// HandleQR serves GET /qr.
func (s *QRService) HandleQR(c *fiber.Ctx) error {
	req, err := normalizeQR(newParams(c))
	if err != nil {
		logging.Warn("QR request rejected", "error", err.Error())
		return writeQRFailure(c, err.Error())
	}

	data, err := s.coder.Render(req.QR)
	if err != nil {
		logging.Error("QR render failed", "error", err.Error())
		return writeQRFailure(c, err.Error())
	}

	contentType := contentTypePNG
	if req.Format == domain.FormatSVG {
		contentType = contentTypeSVG
	}
	return writeRendered(c, contentType, data)
}
