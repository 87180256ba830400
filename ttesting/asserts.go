package ttesting

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func AssertEqualInt(t *testing.T, name string, got, want int) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %d; want %d", got, want)
		}
	})
}

func AssertEqualPoint(t *testing.T, name string, got, want image.Point) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if got != want {
			t.Errorf("got %v; want %v", got, want)
		}
	})
}

func AssertInDelta(t *testing.T, name string, got, want, delta float64) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		if math.Abs(got-want) > delta {
			t.Errorf("got %f; want %f (±%f)", got, want, delta)
		}
	})
}

// AssertColorAt checks the color of a single pixel, compared in 8-bit RGBA.
func AssertColorAt(t *testing.T, name string, img image.Image, x, y int, want color.Color) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
		w := color.RGBAModel.Convert(want).(color.RGBA)
		if got != w {
			t.Errorf("pixel at %d,%d: got %v; want %v", x, y, got, w)
		}
	})
}
