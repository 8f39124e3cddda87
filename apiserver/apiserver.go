// Package apiserver serves a preview of a prepared render over HTTP: the
// base canvas, single composited frames and a summary of the layers.
package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/fogleman/gg"
	"github.com/gorilla/mux"

	"musicgraph/logger"
	"musicgraph/videogenerator"
)

// LayerInfo describes one layer of the frame store.
type LayerInfo struct {
	Key    string `json:"key"`
	Tier   string `json:"tier"`
	Track  string `json:"track"`
	From   string `json:"from"`
	To     string `json:"to,omitempty"`
	Extent int    `json:"extent"`
}

// Summary is the /layers response.
type Summary struct {
	Frames    int         `json:"frames"`
	FrameRate int         `json:"frame_rate"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Layers    []LayerInfo `json:"layers"`
}

// Server answers preview requests from a compositor.
type Server struct {
	c *videogenerator.Compositor
}

// New returns a preview server for c.
func New(c *videogenerator.Compositor) *Server {
	return &Server{c: c}
}

// Handler returns the preview routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/base.png", s.base).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/frames/{index:[0-9]+}.png", s.frame).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/layers", s.layers).Methods(http.MethodGet, http.MethodOptions)
	r.Use(mux.CORSMethodMiddleware(r))
	return r
}

func cors(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	return r.Method == http.MethodOptions
}

func (s *Server) base(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	writePNG(w, s.c.Scene.Base)
}

func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || i >= s.c.Count() {
		http.Error(w, "frame out of range", http.StatusNotFound)
		return
	}
	writePNG(w, s.c.Render(i))
}

func (s *Server) layers(w http.ResponseWriter, r *http.Request) {
	if cors(w, r) {
		return
	}
	b := s.c.Scene.Bounds()
	sum := Summary{
		Frames:    s.c.Count(),
		FrameRate: s.c.Theme.FrameRate(),
		Width:     b.Dx(),
		Height:    b.Dy(),
		Layers:    []LayerInfo{},
	}
	for _, l := range s.c.Frames.Layers() {
		sum.Layers = append(sum.Layers, LayerInfo{
			Key:    l.Key.String(),
			Tier:   l.Key.Tier.String(),
			Track:  l.Key.Track,
			From:   l.Key.From,
			To:     l.Key.To,
			Extent: l.Extent(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sum)
}

func writePNG(w http.ResponseWriter, img *image.RGBA) {
	w.Header().Set("Content-Type", "image/png")
	if err := gg.NewContextForRGBA(img).EncodePNG(w); err != nil {
		logger.Logger().Warn("writing preview image", "err", err)
	}
}

// Run serves the preview on addr until ctx is done.
func Run(ctx context.Context, addr string, c *videogenerator.Compositor) error {
	srv := &http.Server{Addr: addr, Handler: New(c).Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Logger().Info("running preview server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
