package pixvec

import (
	"bytes"
	"fmt"
	"image"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Rasterizer is the drawing surface capability used to render vector markup
// into a pixel buffer. The production implementation paints through a
// scanline rasterizer; tests substitute a double returning synthetic buffers.
type Rasterizer interface {
	Rasterize(markup []byte, width, height int) (*image.NRGBA, error)
}

// svgRasterizer renders SVG markup with the oksvg parser and the
// rasterx scanline engine.
type svgRasterizer struct{}

func (svgRasterizer) Rasterize(markup []byte, width, height int) (*image.NRGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("could not parse the SVG markup: %v", err)
	}

	// Scale the drawing to cover the full target surface.
	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	dasher := rasterx.NewDasher(width, height, scanner)
	icon.Draw(dasher, 1.0)

	return imgToNRGBA(img), nil
}
