package pixvec

import (
	"mime"
	"path/filepath"
	"strings"
)

// Kind routes an uploaded file to one of the two conversion directions.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindVector
	KindRaster
)

// svgMediaType is the declared MIME type of SVG documents.
const svgMediaType = "image/svg+xml"

// String returns the human readable name of the file kind.
func (k Kind) String() string {
	switch k {
	case KindVector:
		return "vector"
	case KindRaster:
		return "raster"
	}
	return "unrecognized"
}

// Classify decides the conversion direction of a file from its declared
// MIME type and file name. The metadata is trusted as supplied, no content
// sniffing is performed.
func Classify(mimeType, filename string) Kind {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mt = parsed
	}

	if mt == svgMediaType || strings.EqualFold(filepath.Ext(filename), ".svg") {
		return KindVector
	}
	if strings.HasPrefix(mt, "image/") {
		return KindRaster
	}
	return KindUnrecognized
}
