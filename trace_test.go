package pixvec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// solidBuffer builds a width x height RGBA buffer filled with a single color.
func solidBuffer(width, height int, r, g, b, a uint8) []uint8 {
	pix := make([]uint8, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = r
		pix[i+1] = g
		pix[i+2] = b
		pix[i+3] = a
	}
	return pix
}

// setPixel overwrites a single pixel of a row-major RGBA buffer.
func setPixel(pix []uint8, width, x, y int, r, g, b, a uint8) {
	off := (y*width + x) * 4
	pix[off] = r
	pix[off+1] = g
	pix[off+2] = b
	pix[off+3] = a
}

func TestTrace_AllWhiteEmitsNoPaths(t *testing.T) {
	assert := assert.New(t)

	for _, threshold := range []int{0, 128, 255} {
		markup, err := Trace(solidBuffer(16, 16, 255, 255, 255, 255), 16, 16, threshold)
		assert.NoError(err)

		paths, err := ExtractPaths(strings.NewReader(markup))
		assert.NoError(err)
		assert.Empty(paths, "threshold %d should not produce any path", threshold)
	}
}

func TestTrace_BlackSquare(t *testing.T) {
	assert := assert.New(t)

	markup, err := Trace(solidBuffer(8, 8, 0, 0, 0, 255), 8, 8, 128)
	assert.NoError(err)

	paths, err := ExtractPaths(strings.NewReader(markup))
	assert.NoError(err)
	assert.Len(paths, 1)

	// The 8x8 buffer samples to a 2x2 grid, all four points belong to one region.
	d := paths[0]
	assert.True(strings.HasPrefix(d, "M"))
	assert.True(strings.HasSuffix(d, "Z"))
	assert.Equal(3, strings.Count(d, "L"))

	assert.Contains(markup, `fill="rgb(0,0,0)"`)
	assert.Contains(markup, `fill-opacity="1"`)
	assert.Contains(markup, `width="8"`)
	assert.Contains(markup, `height="8"`)
}

func TestTrace_Deterministic(t *testing.T) {
	assert := assert.New(t)

	pix := solidBuffer(32, 32, 200, 200, 200, 255)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if (x*31+y*17)%5 == 0 {
				setPixel(pix, 32, x, y, uint8(x*7), uint8(y*5), 10, 255)
			}
		}
	}

	first, err := Trace(pix, 32, 32, 128)
	assert.NoError(err)
	second, err := Trace(pix, 32, 32, 128)
	assert.NoError(err)
	assert.Equal(first, second)
}

func TestTrace_RegionPointCap(t *testing.T) {
	assert := assert.New(t)

	// A 100x100 black buffer samples into a 25x25 grid, well above the cap.
	markup, err := Trace(solidBuffer(100, 100, 0, 0, 0, 255), 100, 100, 128)
	assert.NoError(err)

	paths, err := ExtractPaths(strings.NewReader(markup))
	assert.NoError(err)
	assert.NotEmpty(paths)

	for _, d := range paths {
		assert.LessOrEqual(strings.Count(d, "L"), maxRegionPoints-1)
	}
}

func TestTrace_TinyRegionsAreDiscarded(t *testing.T) {
	assert := assert.New(t)

	// Only two sample points are dark, which is below the minimum region size.
	pix := solidBuffer(8, 8, 255, 255, 255, 255)
	setPixel(pix, 8, 0, 0, 0, 0, 0, 255)
	setPixel(pix, 8, 4, 0, 0, 0, 0, 255)

	markup, err := Trace(pix, 8, 8, 128)
	assert.NoError(err)

	paths, err := ExtractPaths(strings.NewReader(markup))
	assert.NoError(err)
	assert.Empty(paths)
}

func TestTrace_TransparentInkIsSkipped(t *testing.T) {
	assert := assert.New(t)

	markup, err := Trace(solidBuffer(8, 8, 0, 0, 0, 100), 8, 8, 128)
	assert.NoError(err)

	paths, err := ExtractPaths(strings.NewReader(markup))
	assert.NoError(err)
	assert.Empty(paths)
}

func TestTrace_OriginSampleColor(t *testing.T) {
	assert := assert.New(t)

	// The seed sample is dark red, the rest of the region dark gray. The fill
	// has to come from the seed sample, not from a region average.
	pix := solidBuffer(8, 8, 30, 30, 30, 255)
	setPixel(pix, 8, 0, 0, 90, 10, 10, 255)

	markup, err := Trace(pix, 8, 8, 128)
	assert.NoError(err)
	assert.Contains(markup, `fill="rgb(90,10,10)"`)
}

func TestTrace_ShortBufferFailsFast(t *testing.T) {
	_, err := Trace(make([]uint8, 10), 8, 8, 128)
	if err == nil {
		t.Fatal("expected an error for a pixel buffer shorter than width*height*4")
	}
}

func TestTrace_InvalidArguments(t *testing.T) {
	pix := solidBuffer(8, 8, 0, 0, 0, 255)

	if _, err := Trace(pix, 0, 8, 128); err == nil {
		t.Error("expected an error for a zero width")
	}
	if _, err := Trace(pix, 8, 8, 300); err == nil {
		t.Error("expected an error for an out of range threshold")
	}
}
