package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrasim_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrasim_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	catalogObjects = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "astrasim_catalog_objects",
			Help: "Objects in the active catalog by category.",
		},
		[]string{"category"},
	)

	catalogLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrasim_catalog_loads_total",
			Help: "Catalog loads by the source that finally served them.",
		},
		[]string{"source"},
	)

	tickDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "astrasim_tick_duration_seconds",
			Help:    "Time spent propagating and batching one tracking tick.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	propagationMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astrasim_propagation_misses_total",
			Help: "Object propagations that produced no usable position.",
		},
	)

	objectsVisible = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "astrasim_objects_visible",
			Help: "Objects visible under the current filters in the last frame.",
		},
	)

	picksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrasim_picks_total",
			Help: "Pointer picks by outcome (select, deselect, miss).",
		},
		[]string{"result"},
	)

	passPredictionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "astrasim_pass_prediction_duration_seconds",
			Help:    "Duration of one 24-hour pass prediction.",
			Buckets: prometheus.DefBuckets,
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrasim_stream_connections_total",
			Help: "Frame stream connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "astrasim_streams_active",
			Help: "Currently open frame streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astrasim_stream_messages_total",
			Help: "SSE data messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astrasim_stream_bytes_total",
			Help: "Bytes written to frame streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrasim_stream_errors_total",
			Help: "Frame stream errors by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		catalogObjects,
		catalogLoadsTotal,
		tickDurationSeconds,
		propagationMissesTotal,
		objectsVisible,
		picksTotal,
		passPredictionSeconds,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetCatalogObjects records the object count of one category.
func SetCatalogObjects(category string, n int) {
	catalogObjects.WithLabelValues(category).Set(float64(n))
}

// IncCatalogLoad counts a catalog load served by source.
func IncCatalogLoad(source string) {
	catalogLoadsTotal.WithLabelValues(source).Inc()
}

// ObserveTick records the duration of one tracking tick.
func ObserveTick(d time.Duration) {
	tickDurationSeconds.Observe(d.Seconds())
}

// AddPropagationMisses counts objects without a position in a tick.
func AddPropagationMisses(n int) {
	if n > 0 {
		propagationMissesTotal.Add(float64(n))
	}
}

// SetObjectsVisible records how many objects the last frame showed.
func SetObjectsVisible(n int) {
	objectsVisible.Set(float64(n))
}

// IncPick counts a pointer pick by outcome.
func IncPick(result string) {
	picksTotal.WithLabelValues(result).Inc()
}

// ObservePassPrediction records the duration of a pass prediction job.
func ObservePassPrediction(d time.Duration) {
	passPredictionSeconds.Observe(d.Seconds())
}

// IncStreamConnections counts a stream connect or disconnect.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamsActive marks a stream as opened.
func IncStreamsActive() {
	streamsActive.Inc()
}

// DecStreamsActive marks a stream as closed.
func DecStreamsActive() {
	streamsActive.Dec()
}

// IncStreamMessages counts one sent SSE data message.
func IncStreamMessages() {
	streamMessagesTotal.Inc()
}

// AddStreamBytes counts bytes written to a stream.
func AddStreamBytes(n int64) {
	streamBytesTotal.Add(float64(n))
}

// IncStreamErrors counts a stream error by reason.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// knownRoutes are the fixed paths reported under their own label.
var knownRoutes = map[string]bool{
	"/":                       true,
	"/healthz":                true,
	"/readyz":                 true,
	"/metrics":                true,
	"/api/v1/catalog":         true,
	"/api/v1/filters":         true,
	"/api/v1/pick":            true,
	"/api/v1/selection":       true,
	"/api/v1/observer":        true,
	"/api/v1/observer/locate": true,
	"/api/v1/stream/frames":   true,
}

// paramPrefixes collapse parameterised paths to one label each.
var paramPrefixes = []struct {
	prefix string
	label  string
}{
	{"/api/v1/filters/", "/api/v1/filters/{category}"},
	{"/api/v1/selection/", "/api/v1/selection/{index}"},
}

// normalizeRoute maps a request path to a bounded label set so that scanners
// and per-object paths cannot blow up metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	for _, p := range paramPrefixes {
		if rest, ok := strings.CutPrefix(path, p.prefix); ok && rest != "" && !strings.Contains(rest, "/") {
			return p.label
		}
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets SSE handlers flush through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := normalizeRoute(r.URL.Path)
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
