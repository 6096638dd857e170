package pixvec

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Format tags a converted artifact with its encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
	FormatSVG  Format = "svg"
)

// ParseFormat maps a user supplied format name or file extension
// to one of the supported encodings.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png", ".png":
		return FormatPNG, nil
	case "jpg", "jpeg", ".jpg", ".jpeg":
		return FormatJPEG, nil
	case "bmp", ".bmp":
		return FormatBMP, nil
	case "svg", ".svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("%q is not a supported output format", s)
}

// Ext returns the file extension used for artifacts of this format.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// HasAlpha reports whether the encoding carries an alpha channel. Encodings
// without one get composited over an opaque white background.
func (f Format) HasAlpha() bool {
	return f == FormatPNG || f == FormatSVG
}

// Artifact is a named conversion output held for download.
type Artifact struct {
	Name   string
	Format Format

	mu       sync.Mutex
	data     []byte
	released bool
}

// newArtifact wraps the encoded bytes into an artifact. The artifact takes
// ownership of the slice.
func newArtifact(name string, format Format, data []byte) *Artifact {
	return &Artifact{Name: name, Format: format, data: data}
}

// Bytes returns a copy of the encoded data, or nil once released.
func (a *Artifact) Bytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return nil
	}
	out := make([]byte, len(a.data))
	copy(out, a.data)
	return out
}

// Len returns the encoded size in bytes.
func (a *Artifact) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.data)
}

// WriteTo writes the encoded data to w.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return 0, fmt.Errorf("artifact %s has been released", a.Name)
	}
	n, err := w.Write(a.data)
	return int64(n), err
}

// Release drops the underlying data. It is idempotent and safe to call
// on artifacts still referenced elsewhere; readers observe an empty artifact.
func (a *Artifact) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.data = nil
	a.released = true
}

// Store holds at most one artifact per encoding. A new artifact replaces the
// previous entry of the same format; entries of other formats are retained.
type Store struct {
	mu      sync.Mutex
	entries map[Format]*Artifact
}

// NewStore instantiates an empty artifact store.
func NewStore() *Store {
	return &Store{entries: make(map[Format]*Artifact)}
}

// Put installs the artifact, releasing the superseded entry of the
// same format if one exists.
func (s *Store) Put(a *Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[a.Format]; ok {
		prev.Release()
	}
	s.entries[a.Format] = a
}

// Get returns the artifact stored for the given format.
func (s *Store) Get(f Format) (*Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.entries[f]
	return a, ok
}

// Len returns the number of stored artifacts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Formats lists the encodings currently held, in stable order.
func (s *Store) Formats() []Format {
	s.mu.Lock()
	defer s.mu.Unlock()

	formats := make([]Format, 0, len(s.entries))
	for f := range s.entries {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
