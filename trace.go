package pixvec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
)

const (
	// traceStride is the sampling interval of the pixel grid, in pixels.
	traceStride = 4
	// maxRegionPoints caps the number of points collected per region.
	maxRegionPoints = 50
	// minRegionPoints is the smallest region which still emits a path.
	minRegionPoints = 3
	// minSeedAlpha is the alpha value a seed sample has to exceed.
	minSeedAlpha = 128
)

// gridPoint is a sampled coordinate on the trace grid.
type gridPoint struct {
	x, y int
}

// Trace approximates a raster image as an SVG document. The pixel buffer is
// expected to hold width*height RGBA quadruples in row-major order with the
// origin at the top-left corner. Samples darker than the brightness threshold
// are grown into regions through a depth-first flood fill and each region is
// emitted as a closed polygon path filled with the seed sample's color.
// The output is deterministic for a fixed buffer and threshold.
func Trace(pix []uint8, width, height, threshold int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("invalid trace dimensions: %dx%d", width, height)
	}
	if threshold < 0 || threshold > 255 {
		return "", fmt.Errorf("brightness threshold %d is outside the [0, 255] range", threshold)
	}
	if len(pix) < width*height*4 {
		return "", fmt.Errorf("pixel buffer too short: got %d bytes, need %d", len(pix), width*height*4)
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height)

	visited := make(map[int]struct{})
	for y := 0; y < height; y += traceStride {
		for x := 0; x < width; x += traceStride {
			if _, ok := visited[y*width+x]; ok {
				continue
			}
			off := (y*width + x) * 4
			if brightness(pix, off) >= threshold || pix[off+3] <= minSeedAlpha {
				continue
			}
			region := traceRegion(pix, width, height, threshold, visited, gridPoint{x, y})
			if len(region) < minRegionPoints {
				continue
			}
			canvas.Path(pathData(region), fillStyle(pix, off))
		}
	}
	canvas.End()

	return buf.String(), nil
}

// traceRegion grows a single region from the seed point using an explicit
// stack. Points rejected on brightness grounds are left unvisited so they can
// seed or join another region later; this means the same point may be pushed
// more than once before it is finally consumed.
func traceRegion(pix []uint8, width, height, threshold int, visited map[int]struct{}, seed gridPoint) []gridPoint {
	stack := []gridPoint{seed}
	var region []gridPoint

	for len(stack) > 0 && len(region) < maxRegionPoints {
		pt := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if pt.x < 0 || pt.y < 0 || pt.x >= width || pt.y >= height {
			continue
		}
		key := pt.y*width + pt.x
		if _, ok := visited[key]; ok {
			continue
		}
		if brightness(pix, key*4) >= threshold {
			continue
		}
		visited[key] = struct{}{}
		region = append(region, pt)

		for dy := -traceStride; dy <= traceStride; dy += traceStride {
			for dx := -traceStride; dx <= traceStride; dx += traceStride {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, gridPoint{pt.x + dx, pt.y + dy})
			}
		}
	}

	return region
}

// brightness returns the unweighted mean of the R, G and B channels
// of the pixel starting at off.
func brightness(pix []uint8, off int) int {
	return (int(pix[off]) + int(pix[off+1]) + int(pix[off+2])) / 3
}

// pathData renders a region as a closed polygon in collection order.
func pathData(region []gridPoint) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "M%d,%d", region[0].x, region[0].y)
	for _, pt := range region[1:] {
		fmt.Fprintf(&sb, " L%d,%d", pt.x, pt.y)
	}
	sb.WriteString(" Z")
	return sb.String()
}

// fillStyle builds the fill attributes of a path from the seed
// sample the region was grown from.
func fillStyle(pix []uint8, off int) string {
	opacity := strconv.FormatFloat(float64(pix[off+3])/255.0, 'g', -1, 64)
	return fmt.Sprintf(`fill="rgb(%d,%d,%d)" fill-opacity="%s"`,
		pix[off], pix[off+1], pix[off+2], opacity)
}
