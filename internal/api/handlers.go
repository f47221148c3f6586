package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/cheeseburger9309/AstraSim/internal/catalog"
	"github.com/cheeseburger9309/AstraSim/internal/httputil"
	"github.com/cheeseburger9309/AstraSim/internal/observer"
	"github.com/cheeseburger9309/AstraSim/internal/picking"
	"github.com/cheeseburger9309/AstraSim/internal/render"
	"github.com/cheeseburger9309/AstraSim/internal/tracker"
	"github.com/cheeseburger9309/AstraSim/internal/tle"
)

const (
	maxSearchLimit = 500
	maxBodyBytes   = 1 << 16
)

type catalogResponse struct {
	Source     string          `json:"source"`
	LoadedAt   time.Time       `json:"loaded_at"`
	AgeSeconds int             `json:"age_seconds"`
	Epochs     tle.EpochRange  `json:"epochs"`
	Stats      catalog.Stats   `json:"stats"`
	Query      string          `json:"query"`
	Results    []catalog.Match `json:"results"`
}

// handleCatalog serves search results and analytics.
// GET /api/v1/catalog?q=starlink&limit=20
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.store.Get()
	if cat == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog not loaded")
		return
	}

	limit := catalog.DefaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSearchLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit parameter, must be 1-%d", maxSearchLimit))
			return
		}
		limit = n
	}
	q := r.URL.Query().Get("q")

	writeJSON(w, http.StatusOK, catalogResponse{
		Source:     string(cat.Source()),
		LoadedAt:   cat.LoadedAt().UTC(),
		AgeSeconds: int(s.store.AgeSeconds()),
		Epochs:     cat.Epochs(),
		Stats:      cat.Stats(),
		Query:      q,
		Results:    cat.Search(q, limit),
	})
}

// GET /api/v1/filters
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	f, err := s.session.Filters(r.Context())
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// POST /api/v1/filters/{category}
func (s *Server) handleToggleFilter(w http.ResponseWriter, r *http.Request) {
	c, err := catalog.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	visible, err := s.session.ToggleFilter(r.Context(), c)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": c, "visible": visible})
}

type cameraRequest struct {
	Eye     *mgl32.Vec3 `json:"eye"`
	Target  *mgl32.Vec3 `json:"target"`
	Up      *mgl32.Vec3 `json:"up"`
	FovYDeg float32     `json:"fov_deg"`
	Near    float32     `json:"near"`
	Far     float32     `json:"far"`
}

type pickRequest struct {
	X        float32          `json:"x"`
	Y        float32          `json:"y"`
	Viewport picking.Viewport `json:"viewport"`
	Camera   *cameraRequest   `json:"camera"`
	// Zoom applies zoom steps to the camera first: positive zooms in.
	Zoom int `json:"zoom"`
}

func (p pickRequest) camera() picking.Camera {
	cam := picking.DefaultCamera()
	if c := p.Camera; c != nil {
		if c.Eye != nil {
			cam.Eye = *c.Eye
		}
		if c.Target != nil {
			cam.Target = *c.Target
		}
		if c.Up != nil {
			cam.Up = *c.Up
		}
		if c.FovYDeg > 0 && c.FovYDeg < 180 {
			cam.FovYDeg = c.FovYDeg
		}
		if c.Near > 0 {
			cam.Near = c.Near
		}
		if c.Far > cam.Near {
			cam.Far = c.Far
		}
	}
	for i := 0; i < p.Zoom; i++ {
		cam.ZoomIn()
	}
	for i := 0; i > p.Zoom; i-- {
		cam.ZoomOut()
	}
	return cam
}

// handlePick resolves a pointer event against the current frame.
// POST /api/v1/pick
func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Viewport.Width <= 0 || req.Viewport.Height <= 0 {
		writeError(w, http.StatusBadRequest, "viewport width and height must be positive")
		return
	}
	if req.Zoom < -20 || req.Zoom > 20 {
		writeError(w, http.StatusBadRequest, "zoom must be within -20..20")
		return
	}

	res, err := s.session.Click(r.Context(), req.X, req.Y, req.Viewport, req.camera())
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/v1/selection
func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	d, err := s.session.Details(r.Context())
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// PUT /api/v1/selection/{index}: selects, and is idempotent.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.selectIndex(w, r, s.session.SelectIndex)
}

// POST /api/v1/selection/{index}: a catalog-list click, which toggles.
func (s *Server) handleToggleSelect(w http.ResponseWriter, r *http.Request) {
	s.selectIndex(w, r, s.session.ToggleIndex)
}

func (s *Server) selectIndex(w http.ResponseWriter, r *http.Request, apply func(context.Context, int) (render.Selection, error)) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	sel, err := apply(r.Context(), idx)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// DELETE /api/v1/selection
func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ClearSelection(r.Context()); err != nil {
		s.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type observerRequest struct {
	LatDeg *float64 `json:"lat"`
	LonDeg *float64 `json:"lon"`
	AltM   float64  `json:"alt_m"`
}

// PUT /api/v1/observer
func (s *Server) handleSetObserver(w http.ResponseWriter, r *http.Request) {
	var req observerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LatDeg == nil || req.LonDeg == nil {
		writeError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}
	loc := observer.Location{LatDeg: *req.LatDeg, LonDeg: *req.LonDeg, AltM: req.AltM, Source: "manual"}
	if err := loc.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.session.SetObserver(r.Context(), loc); err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// handleLocateObserver places the observer at the caller's GeoIP location,
// or at the default when it cannot be found.
// POST /api/v1/observer/locate
func (s *Server) handleLocateObserver(w http.ResponseWriter, r *http.Request) {
	ip := httputil.ClientAddr(r, s.trustProxy)
	loc := observer.Resolve(r.Context(), s.locator, ip, s.logger)
	if err := s.session.SetObserver(r.Context(), loc); err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrNoSuchObject):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrNotRunning):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Warn("session command failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
