// Package render contains the renderer adapters the dispatch pipeline
// calls with validated specs: the Chart.js screenshot renderer, the QR
// symbol renderer, PDF composition and the failure-artifact generators.
// The pipeline treats all of them as black boxes returning bytes.
package render

import (
	"context"

	"chartsrv/internal/domain"
)

// ChartRenderer turns a chart spec into PNG bytes.
type ChartRenderer interface {
	RenderPNG(ctx context.Context, spec domain.ChartSpec) ([]byte, error)
}

// QRRenderer turns a QR spec into image bytes in the requested format.
type QRRenderer interface {
	Render(spec domain.QRSpec) ([]byte, error)
}
