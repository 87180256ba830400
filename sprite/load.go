package sprite

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/ioutil"
	"path/filepath"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/ftrvxmtrx/tga"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var errEmptyImage = errors.New("image has no pixels")

// DecodeError is returned when source bytes are not a recognized raster
// format, or are corrupt. No sprite is produced.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("sprite: cannot decode %q: %v", e.Name, e.Err)
}

// Cause lets errors.Cause from github.com/pkg/errors reach the decoder error.
func (e *DecodeError) Cause() error { return e.Err }

func (e *DecodeError) Unwrap() error { return e.Err }

// Load decodes data and returns a new sprite with a fresh random id. The
// source bytes are kept on the sprite.
func Load(name string, data []byte) (*Sprite, error) {
	return LoadWithID(uuid.New().String(), name, data)
}

// LoadWithID is Load with a caller-supplied id. It is used to re-derive
// sprites of a saved session from their source bytes.
func LoadWithID(id, name string, data []byte) (*Sprite, error) {
	img, format, err := Decode(data)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, &DecodeError{Name: name, Err: errEmptyImage}
	}

	glog.V(2).Infof("sprite %s: decoded %q (%s, %dx%d)", id, name, format, b.Dx(), b.Dy())

	return &Sprite{
		ID:     id,
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
		Source: data,
		handle: NewHandle(img),
	}, nil
}

// ErrFormat is the cause of a DecodeError for data no decoder claims.
var ErrFormat = errors.New("unknown image format")

type decoder struct {
	name   string
	magics []string
	decode func(io.Reader) (image.Image, error)
}

// decoders are matched by magic, in order. '?' matches any byte. TGA has no
// magic and is tried last on whatever is left.
//
// The registry behind image.Decode is not used: the tga package registers
// itself with an empty magic from its init, which happens before image/png
// and friends register, so image.Decode would hand every input to tga.
var decoders = []decoder{
	{"png", []string{"\x89PNG\r\n\x1a\n"}, png.Decode},
	{"jpeg", []string{"\xff\xd8"}, jpeg.Decode},
	{"gif", []string{"GIF87a", "GIF89a"}, gif.Decode},
	{"bmp", []string{"BM????\x00\x00\x00\x00"}, bmp.Decode},
	{"tiff", []string{"II*\x00", "MM\x00*"}, tiff.Decode},
	{"webp", []string{"RIFF????WEBPVP8"}, webp.Decode},
}

func matches(magic string, data []byte) bool {
	if len(data) < len(magic) {
		return false
	}
	for i := 0; i < len(magic); i++ {
		if magic[i] != '?' && magic[i] != data[i] {
			return false
		}
	}
	return true
}

// Decode decodes data with the first decoder whose magic matches, falling
// back to TGA. It returns the decoder name ("png", "jpeg", "tga"...).
func Decode(data []byte) (image.Image, string, error) {
	for _, d := range decoders {
		for _, m := range d.magics {
			if matches(m, data) {
				img, err := d.decode(bytes.NewReader(data))
				return img, d.name, err
			}
		}
	}
	img, err := tga.Decode(bytes.NewReader(data))
	if err != nil {
		glog.V(2).Infof("not tga either: %v", err)
		return nil, "", ErrFormat
	}
	return img, "tga", nil
}

// LoadFile reads and decodes the file at path. The sprite is named after the
// file's base name.
func LoadFile(path string) (*Sprite, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "sprite: reading %s", path)
	}
	return Load(filepath.Base(path), data)
}

// LoadFiles loads every path in turn. A file that fails to load is logged
// and skipped; its error is returned alongside the sprites that did load.
func LoadFiles(paths []string) ([]*Sprite, []error) {
	var (
		sprites []*Sprite
		errs    []error
	)
	for _, p := range paths {
		s, err := LoadFile(p)
		if err != nil {
			glog.Errorf("skipping %s: %v", p, err)
			errs = append(errs, err)
			continue
		}
		sprites = append(sprites, s)
	}
	return sprites, errs
}
