package handlers

import (
	"github.com/gofiber/fiber/v2"

	"chartsrv/internal/domain"
	"chartsrv/internal/infra/logging"
	"chartsrv/internal/render"
)

// writeChartFailure answers with a rendered artifact in the requested
// format so a viewer that expects an image or a PDF never receives a
// bare error body. Validation and render failures both map to 500;
// existing callers depend on that status. Image artifacts carry the
// "Chart Error:" prefix, PDF artifacts carry the message alone.
func writeChartFailure(c *fiber.Ctx, format domain.Format, msg string) error {
	if format == domain.FormatPDF {
		data, err := render.PDFFromText(msg)
		if err != nil {
			return writePlainFailure(c, msg, err)
		}
		c.Set(fiber.HeaderContentType, contentTypePDF)
		return c.Status(fiber.StatusInternalServerError).Send(data)
	}

	full := "Chart Error: " + msg
	data, err := render.ErrorImage(full)
	if err != nil {
		return writePlainFailure(c, full, err)
	}
	c.Set(fiber.HeaderContentType, contentTypePNG)
	return c.Status(fiber.StatusInternalServerError).Send(data)
}

// writeQRFailure always answers with a PNG artifact, regardless of the
// format the client requested.
func writeQRFailure(c *fiber.Ctx, msg string) error {
	full := "Chart Error: " + msg

	data, err := render.ErrorImage(full)
	if err != nil {
		return writePlainFailure(c, full, err)
	}
	c.Set(fiber.HeaderContentType, contentTypePNG)
	return c.Status(fiber.StatusInternalServerError).Send(data)
}

// writePlainFailure is the last resort when even the failure artifact
// cannot be produced.
func writePlainFailure(c *fiber.Ctx, msg string, err error) error {
	logging.Error("Failed to render failure artifact", "error", err.Error())
	return c.Status(fiber.StatusInternalServerError).SendString(msg)
}
