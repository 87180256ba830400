package imageprint

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"badc0de.net/pkg/go-spritesheet/ttesting"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{0xff, 0xff, 0xff, 0xff})
	// (1, 0) stays transparent.
	return img
}

func TestPrintNoColor(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{W: &buf, Mode: NoColor}
	if err := p.Print(testImage(), "x.png"); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if got, want := buf.String(), "##  \n"; got != want {
		t.Errorf("got %q; want %q", got, want)
	}
}

func TestPrintTrueColor(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{W: &buf, Mode: TrueColor, Blanks: true}
	if err := p.Print(testImage(), "x.png"); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "\x1b[48;2;255;255;255m  \x1b[0m") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\x1b[0m\n") {
		t.Errorf("line not reset: %q", buf.String())
	}
}

func TestPrintITerm(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{W: &buf, Mode: ITerm}
	if err := p.Print(testImage(), "sheet.png"); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if !strings.Contains(buf.String(), "\033]1337;File=name=c2hlZXQucG5n;inline=1;") {
		t.Errorf("missing iterm header in %q", buf.String())
	}
}

func TestFit(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))

	got := Fit(img, TermSize{WSRow: 50, WSCol: 80}, TrueColor)
	ttesting.AssertEqualPoint(t, "cells", got.Bounds().Size(), image.Pt(40, 20))

	got = Fit(img, TermSize{WSRow: 50, WSCol: 80, WSXPixel: 400, WSYPixel: 400}, RasTerm)
	ttesting.AssertEqualPoint(t, "pixels", got.Bounds().Size(), image.Pt(200, 100))

	got = Fit(img, TermSize{}, TrueColor)
	ttesting.AssertEqualPoint(t, "unknown size", got.Bounds().Size(), image.Pt(400, 200))
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{TrueColor, Color256, NoColor, ITerm, RasTerm} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("vga"); err == nil {
		t.Errorf("ParseMode accepted vga")
	}
}
