//go:build !go1.13 || windows
// +build !go1.13 windows

package imageprint

import (
	"image"

	"github.com/pkg/errors"
)

const DefaultSixelColors = 64

func (p *Printer) printRasTerm(img image.Image) error {
	return errors.New("imageprint: rasterm not supported below Go 1.13 or on windows")
}
