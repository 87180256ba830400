package export

import (
	"fmt"
	"math"
	"strings"
)

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
	GIF  Format = "gif"
)

// Formats lists every supported format, lossless ones first.
var Formats = []Format{PNG, WebP, GIF, JPEG}

// ParseFormat accepts a format name or a file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	case "gif":
		return GIF, nil
	}
	return "", &ConfigError{Field: "format", Value: s}
}

// UnmarshalText lets configurations spell the format as an extension.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f Format) Valid() bool {
	switch f {
	case PNG, JPEG, WebP, GIF:
		return true
	}
	return false
}

// Extension is the file extension, without the dot.
func (f Format) Extension() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

func (f Format) MIME() string {
	return "image/" + string(f)
}

// Lossy reports whether Quality applies to the format.
func (f Format) Lossy() bool {
	return f == JPEG
}

// DefaultFilename is the stem used when none is configured.
const DefaultFilename = "sprite-sheet"

type Config struct {
	Format Format `json:"format"`
	// Quality in [0, 1]. Only used by lossy formats.
	Quality  float64 `json:"quality"`
	Filename string  `json:"filename"`
}

var Default = Config{
	Format:   PNG,
	Quality:  1,
	Filename: DefaultFilename,
}

type ConfigError struct {
	Field string
	Value interface{}
}

func (e *ConfigError) Error() string {
	switch e.Field {
	case "format":
		return fmt.Sprintf("export: unsupported format %q", e.Value)
	case "quality":
		return fmt.Sprintf("export: quality must be between 0 and 1, got %v", e.Value)
	default:
		return fmt.Sprintf("export: invalid %s %v", e.Field, e.Value)
	}
}

func (c Config) Validate() error {
	if !c.Format.Valid() {
		return &ConfigError{Field: "format", Value: string(c.Format)}
	}
	if math.IsNaN(c.Quality) || c.Quality < 0 || c.Quality > 1 {
		return &ConfigError{Field: "quality", Value: c.Quality}
	}
	return nil
}

// FileName is the stem plus the format's extension. An empty stem falls
// back to DefaultFilename.
func (c Config) FileName() string {
	stem := strings.TrimSpace(c.Filename)
	if stem == "" {
		stem = DefaultFilename
	}
	return stem + "." + c.Format.Extension()
}

// JPEGQuality maps Quality onto the 1..100 scale of image/jpeg.
func (c Config) JPEGQuality() int {
	q := int(math.Round(c.Quality * 100))
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Format   *Format  `json:"format,omitempty"`
	Quality  *float64 `json:"quality,omitempty"`
	Filename *string  `json:"filename,omitempty"`
}

func (c Config) Apply(p Patch) (Config, error) {
	n := c
	if p.Format != nil {
		n.Format = *p.Format
	}
	if p.Quality != nil {
		n.Quality = *p.Quality
	}
	if p.Filename != nil {
		n.Filename = *p.Filename
	}
	if err := n.Validate(); err != nil {
		return c, err
	}
	return n, nil
}
