package export

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
)

// A Deliverer hands a finished blob to the user.
type Deliverer interface {
	Deliver(b *Blob) error
}

// DirDeliverer writes blobs into a directory, named by Blob.Name.
type DirDeliverer struct {
	Dir string
}

func (d DirDeliverer) Deliver(b *Blob) error {
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", d.Dir)
	}
	p := d.Path(b)
	if err := ioutil.WriteFile(p, b.Data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", p)
	}
	glog.Infof("wrote %s (%d bytes)", p, len(b.Data))
	return nil
}

// Path is where b is written. Directory components of the blob name are
// ignored.
func (d DirDeliverer) Path(b *Blob) string {
	return filepath.Join(d.Dir, filepath.Base(b.Name))
}

// ResponseDeliverer sends the blob as an HTTP attachment.
type ResponseDeliverer struct {
	W http.ResponseWriter
}

func (d ResponseDeliverer) Deliver(b *Blob) error {
	ServeBlob(d.W, b)
	return nil
}

// ServeBlob writes b as a download.
func ServeBlob(w http.ResponseWriter, b *Blob) {
	w.Header().Set("Content-Type", b.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(b.Name)))
	w.WriteHeader(http.StatusOK)
	w.Write(b.Data)
}

// Deliver hands b to d and only logs a failure; once an export has been
// produced nothing is waiting on its delivery.
func Deliver(d Deliverer, b *Blob) {
	if err := d.Deliver(b); err != nil {
		glog.Errorf("delivering %s: %v", b.Name, err)
	}
}

// DataURL returns b as a data: URL, for embedding in a page.
func (b *Blob) DataURL() (string, error) {
	text, err := dataurl.New(b.Data, b.MIME).MarshalText()
	if err != nil {
		return "", errors.Wrap(err, "encoding data url")
	}
	return string(text), nil
}
