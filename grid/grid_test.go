package grid

import (
	"fmt"
	"image"
	"testing"

	"badc0de.net/pkg/go-spritesheet/ttesting"
)

func TestSize(t *testing.T) {
	for cols := 1; cols <= 5; cols++ {
		for rows := 1; rows <= 5; rows++ {
			for _, gap := range []int{0, 1, 3, 8} {
				c := Config{Columns: cols, Rows: rows, CellWidth: 17, CellHeight: 9, Gap: gap}
				sz := c.Size()
				name := fmt.Sprintf("%dx%d gap %d", cols, rows, gap)
				ttesting.AssertEqualInt(t, name+" width", sz.X, cols*17+(cols-1)*gap)
				ttesting.AssertEqualInt(t, name+" height", sz.Y, rows*9+(rows-1)*gap)
			}
		}
	}
}

func TestCellOrigin(t *testing.T) {
	c := Config{Columns: 3, Rows: 2, CellWidth: 10, CellHeight: 20, Gap: 2}

	ttesting.AssertEqualPoint(t, "first", c.CellOrigin(0), image.Pt(0, 0))
	ttesting.AssertEqualPoint(t, "end of first row", c.CellOrigin(2), image.Pt(24, 0))
	ttesting.AssertEqualPoint(t, "start of second row", c.CellOrigin(3), image.Pt(0, 22))
	ttesting.AssertEqualPoint(t, "last", c.CellOrigin(5), image.Pt(24, 22))

	if got, want := c.CellRect(4), image.Rect(12, 22, 22, 42); got != want {
		t.Errorf("CellRect(4) = %v; want %v", got, want)
	}
	if !c.CellRect(5).In(c.Bounds()) {
		t.Errorf("last cell %v outside canvas %v", c.CellRect(5), c.Bounds())
	}
	ttesting.AssertEqualInt(t, "capacity", c.Capacity(), 6)
}

func TestValidate(t *testing.T) {
	if err := Default.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := []struct {
		c     Config
		field string
	}{
		{Config{Columns: 0, Rows: 1, CellWidth: 1, CellHeight: 1}, "columns"},
		{Config{Columns: 1, Rows: 0, CellWidth: 1, CellHeight: 1}, "rows"},
		{Config{Columns: 1, Rows: 1, CellWidth: 0, CellHeight: 1}, "cellWidth"},
		{Config{Columns: 1, Rows: 1, CellWidth: 1, CellHeight: -3}, "cellHeight"},
		{Config{Columns: 1, Rows: 1, CellWidth: 1, CellHeight: 1, Gap: -1}, "gap"},
	}
	for _, b := range bad {
		err := b.c.Validate()
		cerr, ok := err.(*ConfigError)
		if !ok {
			t.Errorf("%+v: got %v; want *ConfigError", b.c, err)
			continue
		}
		if cerr.Field != b.field {
			t.Errorf("%+v: error names %q; want %q", b.c, cerr.Field, b.field)
		}
	}
}

func TestApply(t *testing.T) {
	cols, zero, gap := 2, 0, 5

	c, err := Default.Apply(Patch{Columns: &cols, Gap: &gap})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	ttesting.AssertEqualInt(t, "columns", c.Columns, 2)
	ttesting.AssertEqualInt(t, "gap", c.Gap, 5)
	ttesting.AssertEqualInt(t, "rows kept", c.Rows, Default.Rows)

	rejected, err := c.Apply(Patch{Rows: &zero, CellWidth: &cols})
	if err == nil {
		t.Fatalf("Apply accepted zero rows")
	}
	if rejected != c {
		t.Errorf("rejected patch changed config: %+v", rejected)
	}
}

func TestSeparators(t *testing.T) {
	xs, ys := Config{Columns: 3, Rows: 1, CellWidth: 10, CellHeight: 10, Gap: 4}.Separators()
	if len(xs) != 2 || xs[0] != 12 || xs[1] != 26 {
		t.Errorf("xs = %v; want [12 26]", xs)
	}
	if len(ys) != 0 {
		t.Errorf("ys = %v; want none", ys)
	}

	xs, ys = Config{Columns: 1, Rows: 1, CellWidth: 10, CellHeight: 10}.Separators()
	if len(xs)+len(ys) != 0 {
		t.Errorf("single cell grid has separators %v %v", xs, ys)
	}
}
