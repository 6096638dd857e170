package pixvec

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSvgRasterizer_RendersMarkup(t *testing.T) {
	assert := assert.New(t)

	markup := []byte(`<svg width="10" height="10" viewBox="0 0 10 10" xmlns="http://www.w3.org/2000/svg">
		<rect x="0" y="0" width="10" height="10" fill="#FF0000"/>
	</svg>`)

	img, err := svgRasterizer{}.Rasterize(markup, 10, 10)
	assert.NoError(err)
	assert.Equal(10, img.Bounds().Dx())
	assert.Equal(10, img.Bounds().Dy())

	c := img.NRGBAAt(5, 5)
	assert.Greater(c.R, uint8(200))
	assert.Less(c.G, uint8(60))
	assert.Less(c.B, uint8(60))
	assert.Greater(c.A, uint8(200))
}

func TestSvgRasterizer_InvalidMarkup(t *testing.T) {
	_, err := svgRasterizer{}.Rasterize([]byte("this is not svg markup"), 10, 10)
	if err == nil {
		t.Fatal("expected an error for invalid markup")
	}
}

func TestVectorToRaster_JPEGPaintsWhiteBackground(t *testing.T) {
	assert := assert.New(t)

	// The double renders a fully transparent surface; the opaque target
	// format has to composite it over white.
	p := &Processor{
		Width:      4,
		Height:     4,
		Quality:    1.0,
		Rasterizer: &stubRasterizer{},
	}

	art, err := p.VectorToRaster([]byte("<svg/>"), FormatJPEG)
	assert.NoError(err)
	assert.Equal(FormatJPEG, art.Format)

	img, kind, err := image.Decode(bytes.NewReader(art.Bytes()))
	assert.NoError(err)
	assert.Equal("jpeg", kind)

	r, g, b, _ := img.At(1, 1).RGBA()
	assert.GreaterOrEqual(r>>8, uint32(250))
	assert.GreaterOrEqual(g>>8, uint32(250))
	assert.GreaterOrEqual(b>>8, uint32(250))
}

func TestVectorToRaster_PNGKeepsTransparency(t *testing.T) {
	assert := assert.New(t)

	p := &Processor{
		Width:      4,
		Height:     4,
		Quality:    1.0,
		Rasterizer: &stubRasterizer{},
	}

	art, err := p.VectorToRaster([]byte("<svg/>"), FormatPNG)
	assert.NoError(err)

	img, kind, err := image.Decode(bytes.NewReader(art.Bytes()))
	assert.NoError(err)
	assert.Equal("png", kind)

	_, _, _, a := img.At(1, 1).RGBA()
	assert.Equal(uint32(0), a)
}

func TestVectorToRaster_QualityRange(t *testing.T) {
	p := &Processor{Width: 4, Height: 4, Quality: 2.0, Rasterizer: &stubRasterizer{}}
	if _, err := p.VectorToRaster([]byte("<svg/>"), FormatPNG); err == nil {
		t.Error("expected an error for a quality factor above 1.0")
	}

	p = &Processor{Width: 4, Height: 4, Quality: 0.05, Rasterizer: &stubRasterizer{}}
	if _, err := p.VectorToRaster([]byte("<svg/>"), FormatPNG); err == nil {
		t.Error("expected an error for a quality factor below 0.1")
	}
}

func TestVectorToRaster_Dimensions(t *testing.T) {
	p := &Processor{Width: 0, Height: 4, Quality: 1.0, Rasterizer: &stubRasterizer{}}
	if _, err := p.VectorToRaster([]byte("<svg/>"), FormatPNG); err == nil {
		t.Error("expected an error for a zero width")
	}
}

func TestVectorToRaster_RejectsVectorTarget(t *testing.T) {
	p := &Processor{Width: 4, Height: 4, Quality: 1.0, Rasterizer: &stubRasterizer{}}
	if _, err := p.VectorToRaster([]byte("<svg/>"), FormatSVG); err == nil {
		t.Error("expected an error for a vector target format")
	}
}
