package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	errorImagePad      = 12
	errorImageMinWidth = 200
	errorImageHeight   = 60
	errorImageMaxWidth = 1200
)

// ErrorImage renders the message as black text on white. Image clients
// cannot show a JSON body, so failures come back as a picture too.
func ErrorImage(msg string) ([]byte, error) {
	face := basicfont.Face7x13

	width := font.MeasureString(face, msg).Ceil() + 2*errorImagePad
	if width < errorImageMinWidth {
		width = errorImageMinWidth
	}
	if width > errorImageMaxWidth {
		width = errorImageMaxWidth
	}

	img := image.NewRGBA(image.Rect(0, 0, width, errorImageHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	metrics := face.Metrics()
	baseline := (errorImageHeight-(metrics.Ascent+metrics.Descent).Ceil())/2 + metrics.Ascent.Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(errorImagePad, baseline),
	}
	d.DrawString(msg)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
