// Package web serves the dashboard as a JSON API for a browser front end, with layout change
// streams over server-sent events and a websocket for live drags.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vibetab/internal/applog"
	"vibetab/internal/dashboard"
	"vibetab/internal/layout"
	"vibetab/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

type ServerConfig struct {
	Dashboard *dashboard.Dashboard
	Logger    *slog.Logger

	// ReadOnly rejects every mutating request with 403.
	ReadOnly bool
	// Token, when set, must accompany every request except /health and /docs.
	Token string
}

type Server struct {
	cfg    ServerConfig
	d      *dashboard.Dashboard
	logger *slog.Logger
	hub    *resourceHub
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Dashboard == nil {
		return nil, errors.New("web: missing dashboard")
	}
	return &Server{
		cfg:    cfg,
		d:      cfg.Dashboard,
		logger: applog.OrDiscard(cfg.Logger),
		hub:    newResourceHub(),
	}, nil
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Get("/docs", s.handleDocs)
	r.Get("/docs/{topic}", s.handleDocs)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/events", s.handleEvents)
		r.Get("/ws", s.handleWS)
		r.Get("/layout", s.handleLayout)
		r.Get("/grid", s.handleGrid)
		r.Get("/kinds", s.handleKinds)
		r.Get("/widgets/{id}", s.handleWidget)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Use(s.writable)
		r.Post("/layout/reset", s.handleLayoutReset)
		r.Put("/layout", s.handleLayoutImport)
		r.Post("/widgets", s.handleWidgetAdd)
		r.Patch("/widgets/{id}", s.handleWidgetUpdate)
		r.Delete("/widgets/{id}", s.handleWidgetRemove)
		r.Post("/widgets/{id}/align", s.handleWidgetAlign)
		r.Put("/widgets/{id}/config", s.handleWidgetConfig)
		r.Delete("/widgets/{id}/config", s.handleWidgetConfigReset)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)
		r.Put("/viewport", s.handleViewport)
		r.Put("/grid/cell-size", s.handleCellSize)
		r.Post("/grid/reset-zoom", s.handleResetZoom)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing or invalid token", Code: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.ReadOnly {
			s.writeError(w, errReadOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// changed tells event and websocket subscribers that the layout or grid moved.
func (s *Server) changed() {
	s.hub.broadcast()
}

type layoutVM struct {
	Layout  string                `json:"layout"`
	Grid    dashboard.Grid        `json:"grid"`
	History dashboard.HistoryInfo `json:"history"`
	Items   []model.Item          `json:"items"`
}

func (s *Server) layoutVM(projected bool) layoutVM {
	items := s.d.Items()
	if projected {
		items = s.d.Projected()
	}
	return layoutVM{Layout: s.d.Layout(), Grid: s.d.Grid(), History: s.d.History(), Items: items}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	projected := r.URL.Query().Get("projected") == "1" || r.URL.Query().Get("projected") == "true"
	writeJSON(w, http.StatusOK, s.layoutVM(projected))
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.d.Grid())
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	reg := s.d.Kinds()
	type kindVM struct {
		Name        string          `json:"name"`
		DefaultSize model.Size      `json:"defaultSize"`
		MinSize     model.Size      `json:"minSize"`
		Config      json.RawMessage `json:"config"`
	}
	out := []kindVM{}
	for _, name := range reg.Names() {
		k, _ := reg.Get(name)
		out = append(out, kindVM{Name: name, DefaultSize: k.DefaultSize(), MinSize: k.MinSize(), Config: k.DefaultConfig()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	it, err := s.d.Item(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleLayoutReset(w http.ResponseWriter, r *http.Request) {
	if err := s.d.ResetLayout(); err != nil {
		s.writeError(w, err)
		return
	}
	s.changed()
	writeJSON(w, http.StatusOK, s.layoutVM(false))
}

func (s *Server) handleLayoutImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []model.Item `json:"items"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if err := s.d.Import(body.Items); err != nil {
		s.writeError(w, err)
		return
	}
	s.changed()
	writeJSON(w, http.StatusOK, s.layoutVM(false))
}

func (s *Server) handleWidgetAdd(w http.ResponseWriter, r *http.Request) {
	var req dashboard.NewWidget
	if !s.decode(w, r, &req) {
		return
	}
	it, err := s.d.Add(req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.changed()
	writeJSON(w, http.StatusCreated, it)
}

// widgetPatch is a partial geometry change. Cell fields and pixel deltas may not be mixed.
type widgetPatch struct {
	layout.Geometry
	DxPx   *int         `json:"dxPx,omitempty"`
	DyPx   *int         `json:"dyPx,omitempty"`
	DwPx   *int         `json:"dwPx,omitempty"`
	DhPx   *int         `json:"dhPx,omitempty"`
	Locked *bool        `json:"locked,omitempty"`
	Policy model.Policy `json:"policy,omitempty"`
}

func (s *Server) handleWidgetUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p widgetPatch
	if !s.decode(w, r, &p) {
		return
	}
	policy, ok := model.ParsePolicy(string(p.Policy))
	if !ok {
		s.writeError(w, fmt.Errorf("%w: unknown policy %q", layout.ErrInvalid, p.Policy))
		return
	}
	it, err := s.d.Apply(id, dashboard.Change{
		Geometry: p.Geometry,
		DxPx:     p.DxPx,
		DyPx:     p.DyPx,
		DwPx:     p.DwPx,
		DhPx:     p.DhPx,
		Locked:   p.Locked,
		Policy:   policy,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.changed()
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleWidgetRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.d.Remove(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.changed()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWidgetAlign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Anchor string `json:"anchor"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	anchor, ok := model.ParseAnchor(strings.ToLower(strings.TrimSpace(body.Anchor)))
	if !ok {
		s.writeError(w, fmt.Errorf("%w: unknown anchor %q", layout.ErrInvalid, body.Anchor))
		return
	}
	it, err := s.d.Align(chi.URLParam(r, "id"), anchor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.changed()
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleWidgetConfig(w http.ResponseWriter, r *http.Request) {
	var cfg json.RawMessage
	if !s.decode(w, r, &cfg) {
		return
	}
	it, err := s.d.SetConfig(chi.URLParam(r, "id"), cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.changed()
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleWidgetConfigReset(w http.ResponseWriter, r *http.Request) {
	it, err := s.d.ResetConfig(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.changed()
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	applied := s.d.Undo()
	if applied {
		s.changed()
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied, "layout": s.layoutVM(false)})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	applied := s.d.Redo()
	if applied {
		s.changed()
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied, "layout": s.layoutVM(false)})
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var vp struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if !s.decode(w, r, &vp) {
		return
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		s.writeError(w, fmt.Errorf("%w: viewport must be positive", layout.ErrInvalid))
		return
	}
	g := s.d.ResizeViewport(vp.Width, vp.Height)
	s.changed()
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleCellSize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BaseCellPx int `json:"baseCellPx"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	g := s.d.SetBaseCellPx(body.BaseCellPx)
	s.changed()
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleResetZoom(w http.ResponseWriter, r *http.Request) {
	g := s.d.ResetZoom()
	s.changed()
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error(), Code: "bad_request"})
		return false
	}
	return true
}
