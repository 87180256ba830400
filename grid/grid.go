// Package grid describes the fixed-size cell layout that a sprite sheet is
// composed on, and computes the canvas size and the position of each cell.
//
// A grid of C columns and R rows of W×H cells separated by a gap of G pixels
// is C·W + (C−1)·G pixels wide and R·H + (R−1)·G pixels tall. Cells are
// filled left to right, top to bottom.
package grid

import (
	"fmt"
	"image"
)

// Config holds the grid parameters. It is a value type; use Apply to derive
// a validated copy from a partial update.
type Config struct {
	Columns    int `json:"columns"`
	Rows       int `json:"rows"`
	CellWidth  int `json:"cellWidth"`
	CellHeight int `json:"cellHeight"`
	Gap        int `json:"gap"`
}

// Default is the layout a fresh session starts with.
var Default = Config{
	Columns:    4,
	Rows:       4,
	CellWidth:  64,
	CellHeight: 64,
	Gap:        0,
}

// ConfigError reports a grid parameter outside of its permitted range.
type ConfigError struct {
	Field string
	Value int
	Min   int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("grid: %s must be at least %d, got %d", e.Field, e.Min, e.Value)
}

// Validate returns a *ConfigError for the first field out of range.
func (c Config) Validate() error {
	checks := []struct {
		field string
		value int
		min   int
	}{
		{"columns", c.Columns, 1},
		{"rows", c.Rows, 1},
		{"cellWidth", c.CellWidth, 1},
		{"cellHeight", c.CellHeight, 1},
		{"gap", c.Gap, 0},
	}
	for _, ch := range checks {
		if ch.value < ch.min {
			return &ConfigError{Field: ch.field, Value: ch.value, Min: ch.min}
		}
	}
	return nil
}

// Size returns the total canvas size.
func (c Config) Size() image.Point {
	return image.Pt(
		c.Columns*c.CellWidth+(c.Columns-1)*c.Gap,
		c.Rows*c.CellHeight+(c.Rows-1)*c.Gap,
	)
}

// Bounds returns the canvas rectangle, anchored at the origin.
func (c Config) Bounds() image.Rectangle {
	return image.Rectangle{Max: c.Size()}
}

// Capacity is the number of cells, and so the number of sprites that can be
// drawn.
func (c Config) Capacity() int {
	return c.Rows * c.Columns
}

// CellOrigin returns the top-left corner of the i-th cell (0-based).
//
// Columns must be at least 1; Validate guarantees that.
func (c Config) CellOrigin(i int) image.Point {
	row, col := i/c.Columns, i%c.Columns
	return image.Pt(col*(c.CellWidth+c.Gap), row*(c.CellHeight+c.Gap))
}

// CellRect returns the rectangle covered by the i-th cell.
func (c Config) CellRect(i int) image.Rectangle {
	o := c.CellOrigin(i)
	return image.Rect(o.X, o.Y, o.X+c.CellWidth, o.Y+c.CellHeight)
}

// Separators returns the x positions of the vertical and the y positions of
// the horizontal separator lines, one per internal column and row boundary.
// Lines sit in the middle of the gap.
func (c Config) Separators() (xs, ys []int) {
	half := (c.Gap + 1) / 2
	for i := 1; i < c.Columns; i++ {
		xs = append(xs, i*(c.CellWidth+c.Gap)-half)
	}
	for i := 1; i < c.Rows; i++ {
		ys = append(ys, i*(c.CellHeight+c.Gap)-half)
	}
	return xs, ys
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Columns    *int `json:"columns,omitempty"`
	Rows       *int `json:"rows,omitempty"`
	CellWidth  *int `json:"cellWidth,omitempty"`
	CellHeight *int `json:"cellHeight,omitempty"`
	Gap        *int `json:"gap,omitempty"`
}

// Apply merges p into a copy of c and validates the result. On error the
// returned Config is c, unchanged.
func (c Config) Apply(p Patch) (Config, error) {
	n := c
	if p.Columns != nil {
		n.Columns = *p.Columns
	}
	if p.Rows != nil {
		n.Rows = *p.Rows
	}
	if p.CellWidth != nil {
		n.CellWidth = *p.CellWidth
	}
	if p.CellHeight != nil {
		n.CellHeight = *p.CellHeight
	}
	if p.Gap != nil {
		n.Gap = *p.Gap
	}
	if err := n.Validate(); err != nil {
		return c, err
	}
	return n, nil
}

func (c Config) String() string {
	sz := c.Size()
	return fmt.Sprintf("%dx%d cells of %dx%d, gap %d (%dx%d px)", c.Columns, c.Rows, c.CellWidth, c.CellHeight, c.Gap, sz.X, sz.Y)
}
