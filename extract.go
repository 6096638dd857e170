package pixvec

import (
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// ExtractPaths parses SVG markup and collects the geometry data of every
// path element in document order, descending through nested groups.
// Elements without a "d" attribute are skipped and do not shift the order
// of the remaining entries.
func ExtractPaths(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var paths []string
	for {
		t, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not parse the SVG markup: %w", err)
		}

		se, ok := t.(xml.StartElement)
		if !ok || se.Name.Local != "path" {
			continue
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "d" {
				paths = append(paths, attr.Value)
				break
			}
		}
	}

	return paths, nil
}
