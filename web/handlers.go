package web

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/net/trace"

	"badc0de.net/pkg/go-spritesheet/animation"
	"badc0de.net/pkg/go-spritesheet/compositor"
	"badc0de.net/pkg/go-spritesheet/export"
	"badc0de.net/pkg/go-spritesheet/grid"
	"badc0de.net/pkg/go-spritesheet/schedule"
	"badc0de.net/pkg/go-spritesheet/session"
	"badc0de.net/pkg/go-spritesheet/sprite"
)

// DefaultMaxUpload caps the size of one upload request.
const DefaultMaxUpload = 32 << 20

type Options struct {
	// Preview draws /sheet.png; Export draws /export. Zero values mean
	// compositor.DefaultOptions and export.RendererOptions.
	Preview *compositor.Options
	Export  *compositor.Options
	// Scheduler drives the debounced preview and the animation player.
	Scheduler schedule.Scheduler
	Debounce  time.Duration
	// FrameBox is the edge of the square animation frames are fitted into.
	FrameBox  int
	MaxUpload int64
}

// Handler serves one session over HTTP.
type Handler struct {
	sess      *session.Session
	preview   *compositor.Renderer
	exporter  *compositor.Renderer
	previewer *compositor.Previewer
	player    *animation.Player
	box       int
	maxUpload int64

	sheetLock sync.Mutex
	sheet     *image.RGBA
	sheetSig  uint32

	frameLock sync.Mutex
	frame     *image.RGBA

	unsubscribe func()
}

// NewHandler constructs a web handler for sess. Call Close when done to stop
// the preview and the animation player.
func NewHandler(sess *session.Session, opts Options) (*Handler, error) {
	previewOpts := compositor.DefaultOptions()
	if opts.Preview != nil {
		previewOpts = *opts.Preview
	}
	exportOpts := export.RendererOptions()
	if opts.Export != nil {
		exportOpts = *opts.Export
	}
	if opts.FrameBox <= 0 {
		opts.FrameBox = compositor.DefaultPreviewBox
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}

	h := &Handler{
		sess:      sess,
		preview:   compositor.New(previewOpts),
		exporter:  compositor.New(exportOpts),
		box:       opts.FrameBox,
		maxUpload: opts.MaxUpload,
	}

	player, err := animation.NewPlayer(sess.Animation(), sess.Sprites, animation.Options{
		Scheduler: opts.Scheduler,
		Box:       opts.FrameBox,
		OnFrame:   h.setFrame,
		OnCommit:  h.commitFrame,
	})
	if err != nil {
		return nil, err
	}
	h.player = player

	h.previewer = compositor.NewPreviewer(h.preview, opts.Debounce, opts.Scheduler, h.setSheet)
	h.unsubscribe = sess.Subscribe(func(ev session.Event) {
		if ev.Change.Affects() {
			h.triggerPreview()
		}
	})
	h.triggerPreview()
	return h, nil
}

// Close stops background rendering and playback.
func (h *Handler) Close() {
	h.unsubscribe()
	h.previewer.Close()
	h.player.Close()
}

func (h *Handler) triggerPreview() {
	snap := h.sess.Snapshot()
	h.previewer.Trigger(snap.Ordered(), snap.Grid)
}

func (h *Handler) setSheet(p compositor.Preview) {
	if p.Err != nil {
		return
	}
	h.sheetLock.Lock()
	defer h.sheetLock.Unlock()
	h.sheet = p.Image
	h.sheetSig = session.Signature(p.Sprites, p.Grid)
}

// cachedSheet returns the last preview if it was drawn from sig.
func (h *Handler) cachedSheet(sig uint32) *image.RGBA {
	h.sheetLock.Lock()
	defer h.sheetLock.Unlock()
	if h.sheet != nil && h.sheetSig == sig {
		return h.sheet
	}
	return nil
}

func (h *Handler) setFrame(_ int, img *image.RGBA) {
	h.frameLock.Lock()
	defer h.frameLock.Unlock()
	h.frame = img
}

func (h *Handler) commitFrame(frame int) {
	playing := false
	if _, err := h.sess.UpdateAnimation(animation.Patch{CurrentFrame: &frame, Playing: &playing}); err != nil {
		glog.Errorf("committing animation frame %d: %v", frame, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		glog.Errorf("writing response: %v", err)
	}
}

func readJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type uploadError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadResponse struct {
	Added  []*sprite.Sprite `json:"added"`
	Errors []uploadError    `json:"errors,omitempty"`
}

func (h *Handler) uploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		http.Error(w, "bad upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		http.Error(w, "no files in field \"file\"", http.StatusBadRequest)
		return
	}

	resp := uploadResponse{Added: []*sprite.Sprite{}}
	for _, fh := range files {
		s, err := loadUpload(fh)
		if err != nil {
			glog.Errorf("upload %q: %v", fh.Filename, err)
			resp.Errors = append(resp.Errors, uploadError{Name: fh.Filename, Error: err.Error()})
			continue
		}
		if err := h.sess.AddSprite(s); err != nil {
			resp.Errors = append(resp.Errors, uploadError{Name: fh.Filename, Error: err.Error()})
			continue
		}
		resp.Added = append(resp.Added, s)
	}
	writeJSON(w, http.StatusOK, resp)
}

func loadUpload(fh *multipart.FileHeader) (*sprite.Sprite, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening upload")
	}
	defer f.Close()
	data, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "reading upload")
	}
	return sprite.Load(fh.Filename, data)
}

type spritesResponse struct {
	Sprites []*sprite.Sprite `json:"sprites"`
	Order   []string         `json:"order"`
}

func (h *Handler) listHandler(w http.ResponseWriter, r *http.Request) {
	order := h.sess.Order()
	if order == nil {
		order = []string{}
	}
	writeJSON(w, http.StatusOK, spritesResponse{Sprites: h.sess.Sprites(), Order: order})
}

func (h *Handler) removeHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.sess.RemoveSprite(id) {
		http.Error(w, "no such sprite", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearHandler(w http.ResponseWriter, r *http.Request) {
	h.sess.ClearSprites()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) orderHandler(w http.ResponseWriter, r *http.Request) {
	var order []string
	if err := readJSON(r, &order); err != nil {
		http.Error(w, "order must be a JSON array of sprite ids", http.StatusBadRequest)
		return
	}
	h.sess.Reorder(order)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) moveHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Target string `json:"target"`
	}
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "bad move request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !h.sess.MoveSprite(req.ID, req.Target) {
		http.Error(w, "no such sprite in order", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) gridSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, h.sess.Grid())
		return
	}
	var p grid.Patch
	if err := readJSON(r, &p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := h.sess.UpdateGrid(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) animationSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, h.sess.Animation())
		return
	}
	var p animation.Patch
	if err := readJSON(r, &p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := h.sess.UpdateAnimation(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Already validated by the session.
	if p.FrameRate != nil {
		h.player.SetFrameRate(*p.FrameRate)
	}
	if p.CurrentFrame != nil {
		h.player.SetFrame(*p.CurrentFrame)
	}
	if p.Playing != nil {
		if *p.Playing {
			h.player.Play()
		} else {
			h.player.Stop()
		}
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) exportSettingsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, h.sess.Export())
		return
	}
	var p export.Patch
	if err := readJSON(r, &p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := h.sess.UpdateExport(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) sheetHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.sess.Snapshot()
	sig := snap.Signature()

	generation := 1 // bump if the way we generate it changes
	mime := "image/png"
	etag := fmt.Sprintf(`W/"sheet:%d:%08x:%s"`, generation, sig, mime)
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	img := h.cachedSheet(sig)
	if img == nil {
		var err error
		img, err = h.preview.Render(r.Context(), snap.Ordered(), snap.Grid)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.setSheet(compositor.Preview{Image: img, Sprites: snap.Ordered(), Grid: snap.Grid})
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	png.Encode(w, img)
}

func (h *Handler) frameHandler(w http.ResponseWriter, r *http.Request) {
	var img *image.RGBA
	if n := r.URL.Query().Get("n"); n != "" {
		idx, err := strconv.Atoi(n)
		if err != nil || idx < 0 {
			http.Error(w, "n not a frame number", http.StatusBadRequest)
			return
		}
		sprites := h.sess.Sprites()
		if len(sprites) == 0 {
			http.Error(w, "no sprites", http.StatusNotFound)
			return
		}
		img, err = compositor.RenderFrame(sprites[idx%len(sprites)], h.box)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	} else {
		h.frameLock.Lock()
		img = h.frame
		h.frameLock.Unlock()
		if img == nil {
			http.Error(w, "no frame drawn yet", http.StatusNotFound)
			return
		}
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	png.Encode(w, img)
}

func (h *Handler) animationGIFHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.sess.Snapshot()

	generation := 1 // bump if the way we generate it changes
	mime := "image/gif"
	etag := fmt.Sprintf(`W/"animation:%d:%08x:%d:%d:%s"`, generation, snap.Signature(), snap.Animation.FrameRate, h.box, mime)
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	blob, err := export.AnimatedGIF(r.Context(), snap.Ordered(), h.box, snap.Animation.FrameRate, snap.Export.Filename)
	if err != nil {
		http.Error(w, err.Error(), exportStatus(err))
		return
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	w.Write(blob.Data)
}

type playbackResponse struct {
	State  string           `json:"state"`
	Frame  int              `json:"frame"`
	Config animation.Config `json:"config"`
}

func (h *Handler) toggleHandler(w http.ResponseWriter, r *http.Request) {
	state := h.player.Toggle()
	if state == animation.Playing {
		playing := true
		if _, err := h.sess.UpdateAnimation(animation.Patch{Playing: &playing}); err != nil {
			glog.Errorf("marking animation as playing: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, playbackResponse{
		State:  state.String(),
		Frame:  h.player.Frame(),
		Config: h.sess.Animation(),
	})
}

func (h *Handler) exportHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.sess.Snapshot()

	tr := trace.New("spritesheet.export", snap.Export.FileName())
	defer tr.Finish()
	tr.LazyPrintf("%d sprites on %v", len(snap.Ordered()), snap.Grid)

	blob, err := export.Export(r.Context(), h.exporter, snap.Ordered(), snap.Grid, snap.Export)
	if err != nil {
		tr.LazyPrintf("failed: %v", err)
		tr.SetError()
		glog.Errorf("export: %v", err)
		http.Error(w, err.Error(), exportStatus(err))
		return
	}
	tr.LazyPrintf("encoded %d bytes", len(blob.Data))

	if r.URL.Query().Get("as") == "dataurl" {
		u, err := blob.DataURL()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, u)
		return
	}
	export.Deliver(export.ResponseDeliverer{W: w}, blob)
}

func exportStatus(err error) int {
	if errors.Cause(err) == export.ErrNoSprites {
		return http.StatusConflict
	}
	if _, ok := errors.Cause(err).(*export.ConfigError); ok {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sprites", h.uploadHandler).Methods(http.MethodPost)
	r.HandleFunc("/sprites", h.listHandler).Methods(http.MethodGet)
	r.HandleFunc("/sprites", h.clearHandler).Methods(http.MethodDelete)
	r.HandleFunc("/sprites/{id}", h.removeHandler).Methods(http.MethodDelete)
	r.HandleFunc("/order", h.orderHandler).Methods(http.MethodPut)
	r.HandleFunc("/order/move", h.moveHandler).Methods(http.MethodPost)
	r.HandleFunc("/settings/grid", h.gridSettingsHandler).Methods(http.MethodGet, http.MethodPatch)
	r.HandleFunc("/settings/animation", h.animationSettingsHandler).Methods(http.MethodGet, http.MethodPatch)
	r.HandleFunc("/settings/export", h.exportSettingsHandler).Methods(http.MethodGet, http.MethodPatch)
	r.HandleFunc("/sheet.png", h.sheetHandler).Methods(http.MethodGet)
	r.HandleFunc("/frame.png", h.frameHandler).Methods(http.MethodGet)
	r.HandleFunc("/animation.gif", h.animationGIFHandler).Methods(http.MethodGet)
	r.HandleFunc("/animation/toggle", h.toggleHandler).Methods(http.MethodPost)
	r.HandleFunc("/export", h.exportHandler).Methods(http.MethodGet)
}
