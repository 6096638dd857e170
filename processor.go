package pixvec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/pixvec/pixvec/utils"
)

var (
	// ErrBusy is returned when a conversion is started while
	// another one is still in flight on the same processor.
	ErrBusy = errors.New("a conversion is already in progress")

	// ErrUnsupportedInput is returned for files which are neither
	// vector markup nor a recognized raster format.
	ErrUnsupportedInput = errors.New("unsupported input file type")
)

// Processor options
type Processor struct {
	Width      int
	Height     int
	Quality    float64
	Threshold  int
	MaxDim     int
	Format     Format
	Name       string
	Rasterizer Rasterizer
	Logger     *log.Logger

	busy      int32
	store     *Store
	storeOnce sync.Once
}

// Artifacts returns the artifact store owned by the processor.
func (p *Processor) Artifacts() *Store {
	p.storeOnce.Do(func() {
		p.store = NewStore()
	})
	return p.store
}

// Convert classifies the named input by its declared metadata and runs the
// matching conversion direction: vector markup is rasterized to the target
// bitmap format, raster data is traced into an SVG document.
func (p *Processor) Convert(r io.Reader, filename, mimeType string) (*Artifact, error) {
	switch Classify(mimeType, filename) {
	case KindVector:
		markup, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("could not read the vector markup: %v", err)
		}
		return p.VectorToRaster(markup, p.Format)
	case KindRaster:
		src, _, err := image.Decode(r)
		if err != nil {
			p.logf("could not decode the raster image: %v", err)
			return nil, fmt.Errorf("could not decode the raster image: %v", err)
		}
		return p.RasterToVector(src)
	}
	return nil, ErrUnsupportedInput
}

// VectorToRaster renders the SVG markup onto an offscreen surface of exactly
// Width x Height pixels and encodes it into the requested bitmap format.
// Formats without an alpha channel are composited over an opaque white
// background first. The produced artifact replaces any prior artifact of the
// same format; on failure the conversion is logged and the store is left
// untouched.
func (p *Processor) VectorToRaster(markup []byte, format Format) (*Artifact, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.release()

	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions: %dx%d", p.Width, p.Height)
	}
	if p.Quality < 0.1 || p.Quality > 1.0 {
		return nil, fmt.Errorf("quality factor %v is outside the [0.1, 1.0] range", p.Quality)
	}
	if format == FormatSVG || format == "" {
		return nil, fmt.Errorf("%q is not a raster target format", format)
	}

	r := p.Rasterizer
	if r == nil {
		r = svgRasterizer{}
	}

	img, err := r.Rasterize(markup, p.Width, p.Height)
	if err != nil {
		p.logf("rasterization aborted: %v", err)
		return nil, err
	}

	var out image.Image = img
	if !format.HasAlpha() {
		bg := imaging.New(p.Width, p.Height, color.White)
		out = imaging.Overlay(bg, img, image.Point{}, 1.0)
	}

	var buf bytes.Buffer
	if err := encodeImg(&buf, out, format, p.Quality); err != nil {
		p.logf("encoding aborted: %v", err)
		return nil, err
	}

	art := newArtifact(p.baseName()+format.Ext(), format, buf.Bytes())
	p.Artifacts().Put(art)
	return art, nil
}

// RasterToVector approximates the raster image as an SVG document through
// the flood-fill tracer and stores it as an artifact. Images larger than
// MaxDim on either axis are downscaled first to keep the trace grid small.
func (p *Processor) RasterToVector(src image.Image) (*Artifact, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.release()

	img := imgToNRGBA(src)
	if p.MaxDim > 0 {
		bounds := img.Bounds()
		if utils.Max(bounds.Dx(), bounds.Dy()) > p.MaxDim {
			img = imaging.Fit(img, p.MaxDim, p.MaxDim, imaging.Lanczos)
		}
	}

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	markup, err := Trace(imgToPix(img), width, height, p.Threshold)
	if err != nil {
		p.logf("tracing aborted: %v", err)
		return nil, err
	}

	art := newArtifact(p.baseName()+FormatSVG.Ext(), FormatSVG, []byte(markup))
	p.Artifacts().Put(art)
	return art, nil
}

// acquire claims the single in-flight conversion slot.
func (p *Processor) acquire() error {
	if !atomic.CompareAndSwapInt32(&p.busy, 0, 1) {
		return ErrBusy
	}
	return nil
}

// release frees the conversion slot.
func (p *Processor) release() {
	atomic.StoreInt32(&p.busy, 0)
}

// baseName returns the output file name without its extension.
func (p *Processor) baseName() string {
	if p.Name != "" {
		return p.Name
	}
	return "image"
}

func (p *Processor) logf(format string, args ...interface{}) {
	if p.Logger != nil {
		p.Logger.Printf(format, args...)
	}
}
