// Package stream implements Server-Sent Events (SSE) streaming of tracking
// frames. Clients connect via GET /api/v1/stream/frames and receive the
// render state of every object once per tick.
//
// SSE message format:
//
//	data: {"type":"frame","seq":42,"t":"2026-10-07T12:00:00Z","obj":[...]}\n\n
//
// First message is always metadata describing the catalog, so frame entries
// only need to carry indices:
//
//	data: {"type":"metadata","connection_id":"...","objects":[...]}\n\n
//
// Keep-alive comments (:\n\n) are sent every KeepaliveInterval while no
// frame is written. A slow client skips frames; it always receives the most
// recent one.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cheeseburger9309/AstraSim/internal/catalog"
	"github.com/cheeseburger9309/AstraSim/internal/httputil"
	"github.com/cheeseburger9309/AstraSim/internal/metrics"
	"github.com/cheeseburger9309/AstraSim/internal/render"
	"github.com/cheeseburger9309/AstraSim/internal/tracker"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // Max concurrent streams per IP (default: 10).
	MaxConcurrent      int           // Max concurrent streams overall (default: 1000).
	KeepaliveInterval  time.Duration // Keep-alive ping interval (default: 30s).
	TrustProxy         bool          // Take the client address from X-Forwarded-For.
}

// Source publishes frames. *tracker.Session satisfies it.
type Source interface {
	Frame() *tracker.Frame
	Changed() <-chan struct{}
	Catalog() *catalog.Catalog
}

// Handler manages SSE streaming connections.
type Handler struct {
	source  Source
	config  Config
	limiter *streamLimiter
	logger  *slog.Logger
	now     func() time.Time

	closing   chan struct{}
	closeOnce sync.Once
}

// NewHandler creates a new streaming handler.
func NewHandler(source Source, config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP <= 0 {
		config.MaxConcurrentPerIP = 10
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1000
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	return &Handler{
		source:  source,
		config:  config,
		limiter: newStreamLimiter(config.MaxConcurrentPerIP, config.MaxConcurrent),
		logger:  logger,
		now:     time.Now,
		closing: make(chan struct{}),
	}
}

// Close ends every open stream and turns new requests away with 503. It is
// registered to run when the HTTP server shuts down, since Shutdown does
// not cancel the context of a request that is still being served.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// HandleFrames serves the SSE frame stream.
// GET /api/v1/stream/frames?every=1
func (h *Handler) HandleFrames(w http.ResponseWriter, r *http.Request) {
	every := 1
	if v := r.URL.Query().Get("every"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 60 {
			writeError(w, http.StatusBadRequest, "invalid every parameter, must be 1-60")
			return
		}
		every = n
	}

	select {
	case <-h.closing:
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	default:
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if !h.limiter.acquire(ip) {
		metrics.IncStreamErrors("rate_limit")
		h.logger.Warn("stream rate limit exceeded",
			"remote_ip", ip,
			"current_count", h.limiter.count(ip),
		)
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}

	connID := uuid.NewString()
	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	startTime := time.Now()
	h.logger.Info("stream connected",
		"connection_id", connID,
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"every", every,
	)

	c := &client{
		w:      w,
		ip:     ip,
		id:     connID,
		logger: h.logger,
	}

	defer func() {
		h.limiter.release(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"connection_id", connID,
			"remote_ip", ip,
			"messages", c.messagesSent,
			"bytes", c.bytesSent,
			"duration_seconds", int(time.Since(startTime).Seconds()),
		)
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	c.flusher = flusher

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The server's WriteTimeout would cut a long-lived stream; each write
	// sets its own deadline instead.
	c.rc = http.NewResponseController(w)
	if err := c.rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	// Jittered retry interval (3-7s) spreads reconnects after a restart.
	fmt.Fprintf(w, "retry: %d\n\n", 3000+rand.Intn(4000))
	flusher.Flush()

	if err := c.sendJSON(h.metadata(connID)); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error (metadata)", "connection_id", connID, "error", err)
		return
	}

	keepalive := time.NewTicker(h.config.KeepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	changed := h.source.Changed()
	var lastSeq uint64

	// A frame published before the client connected is sent right away.
	if f := h.source.Frame(); f != nil {
		if err := h.sendFrame(c, f); err != nil {
			return
		}
		lastSeq = f.Seq
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-h.closing:
			h.logger.Debug("stream closed by shutdown", "connection_id", connID)
			return

		case <-changed:
			changed = h.source.Changed()
			f := h.source.Frame()
			if f == nil || f.Seq == lastSeq {
				continue
			}
			if every > 1 && f.Seq%uint64(every) != 0 {
				continue
			}
			if f.Seq > lastSeq+1 && lastSeq != 0 && every == 1 {
				h.logger.Debug("stream skipped frames", "connection_id", connID, "from", lastSeq, "to", f.Seq)
			}
			if err := h.sendFrame(c, f); err != nil {
				return
			}
			lastSeq = f.Seq
			keepalive.Reset(h.config.KeepaliveInterval)

		case <-keepalive.C:
			if err := c.sendKeepalive(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "connection_id", connID, "error", err)
				return
			}
		}
	}
}

func (h *Handler) sendFrame(c *client, f *tracker.Frame) error {
	data, err := json.Marshal(buildFrameMessage(f))
	if err != nil {
		metrics.IncStreamErrors("marshal_error")
		h.logger.Warn("stream marshal error", "connection_id", c.id, "error", err)
		return nil
	}
	if err := c.sendRaw(data); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error", "connection_id", c.id, "error", err)
		return err
	}
	return nil
}

func (h *Handler) metadata(connID string) metadataMessage {
	cat := h.source.Catalog()
	objects := make([]objectInfo, cat.Len())
	for i, o := range cat.Objects() {
		objects[i] = objectInfo{
			Index:    o.Index,
			Name:     o.Name,
			NORADID:  o.Record.NORADID,
			Category: o.Category,
			Color:    o.Color,
		}
	}
	msg := metadataMessage{
		Type:         "metadata",
		ConnectionID: connID,
		Source:       string(cat.Source()),
		Objects:      objects,
	}
	if loaded := cat.LoadedAt(); !loaded.IsZero() {
		msg.LoadedAt = loaded.UTC().Format(time.RFC3339)
		msg.CatalogAge = int(h.now().Sub(loaded).Seconds())
	}
	return msg
}

// buildFrameMessage formats a frame into the SSE payload. Slots that have
// never been written are left out; hidden objects are sent with scale 0.
func buildFrameMessage(f *tracker.Frame) frameMessage {
	states := f.Batch.States()
	objs := make([]objectPayload, 0, len(states))
	for i, s := range states {
		if !s.Written {
			continue
		}
		objs = append(objs, objectPayload{
			I: i,
			P: [3]float32{s.Position.X(), s.Position.Y(), s.Position.Z()},
			S: s.Scale,
			V: s.Visible,
		})
	}
	return frameMessage{
		Type:      "frame",
		Seq:       f.Seq,
		T:         f.Time.UTC().Format(time.RFC3339),
		Selection: f.Selection,
		Visible:   f.Stats.Visible,
		Obj:       objs,
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// SSE message payload types.

type metadataMessage struct {
	Type         string       `json:"type"`
	ConnectionID string       `json:"connection_id"`
	Source       string       `json:"source"`
	LoadedAt     string       `json:"loaded_at,omitempty"`
	CatalogAge   int          `json:"catalog_age_seconds"`
	Objects      []objectInfo `json:"objects"`
}

type objectInfo struct {
	Index    int              `json:"i"`
	Name     string           `json:"name"`
	NORADID  int              `json:"norad_id"`
	Category catalog.Category `json:"category"`
	Color    catalog.Color    `json:"color"`
}

type frameMessage struct {
	Type      string           `json:"type"`
	Seq       uint64           `json:"seq"`
	T         string           `json:"t"`
	Selection render.Selection `json:"selection"`
	Visible   int              `json:"visible"`
	Obj       []objectPayload  `json:"obj"`
}

type objectPayload struct {
	I int        `json:"i"`
	P [3]float32 `json:"p"`
	S float32    `json:"s"`
	V bool       `json:"v"`
}
