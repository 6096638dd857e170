/*
Package pixvec is a bidirectional vector/raster image conversion library.
It rasterizes SVG markup into bitmap formats and approximates bitmaps as
SVG documents through a grid-sampled flood-fill tracer.

The package provides a command line interface, supporting various flags for
both conversion directions. To check the supported commands type:

	$ pixvec --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/pixvec/pixvec"
	)

	func main() {
		p := &pixvec.Processor{
			// Initialize struct variables
		}

		if _, err := p.Convert(in, "drawing.svg", "image/svg+xml"); err != nil {
			fmt.Printf("Error converting image: %s", err.Error())
		}
	}
*/
package pixvec
