// Command spritesheetweb serves a single sprite sheet session over HTTP.
package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/common-nighthawk/go-figure"
	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "golang.org/x/net/trace"

	"badc0de.net/pkg/go-spritesheet/compositor"
	"badc0de.net/pkg/go-spritesheet/session"
	"badc0de.net/pkg/go-spritesheet/store"
	"badc0de.net/pkg/go-spritesheet/web"
)

var (
	listenAddress = flag.String("listen_address", ":8080", "http listen address for spritesheetweb")
	debugAddress  = flag.String("debug_address", "", "if set, serve /debug/requests on this address")
	debounce      = flag.Duration("debounce", 100*time.Millisecond, "delay between a change and the preview re-render")
	frameBox      = flag.Int("box", compositor.DefaultPreviewBox, "edge of the square animation frames are drawn into")
	maxUpload     = flag.Int64("max_upload", web.DefaultMaxUpload, "largest accepted upload in bytes")
	dbPath        = flag.String("db", "", "session database; if set, -session is loaded from it on start")
	sessionName   = flag.String("session", "", "name of the saved session to start from")
)

func loadSession() *session.Session {
	if *dbPath == "" || *sessionName == "" {
		return session.New()
	}
	st, err := store.Open(*dbPath)
	if err != nil {
		glog.Exitf("opening %s: %v", *dbPath, err)
	}
	defer st.Close()
	state, err := st.Load(*sessionName)
	if err != nil {
		glog.Exitf("loading session %q: %v", *sessionName, err)
	}
	glog.Infof("loaded session %q with %d sprites", *sessionName, len(state.Sprites))
	return session.NewFrom(state)
}

func main() {
	flagutil.Parse()
	defer glog.Flush()

	glog.Info("\n" + figure.NewFigure("spritesheet", "", true).String())

	h, err := web.NewHandler(loadSession(), web.Options{
		Debounce:  *debounce,
		FrameBox:  *frameBox,
		MaxUpload: *maxUpload,
	})
	if err != nil {
		glog.Exit(err)
	}
	defer h.Close()

	r := mux.NewRouter()
	h.RegisterRoutes(r)

	if *debugAddress != "" {
		go func() {
			glog.Errorf("debug listener: %v", http.ListenAndServe(*debugAddress, http.DefaultServeMux))
		}()
	}

	glog.Infof("listening on %s", *listenAddress)
	glog.Fatal(http.ListenAndServe(*listenAddress,
		handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(os.Stderr, r))))
}
