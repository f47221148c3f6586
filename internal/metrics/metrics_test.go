package metrics

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/catalog", "/api/v1/catalog"},
		{"/api/v1/pick", "/api/v1/pick"},
		{"/api/v1/selection", "/api/v1/selection"},
		{"/api/v1/stream/frames", "/api/v1/stream/frames"},

		{"/api/v1/filters/debris", "/api/v1/filters/{category}"},
		{"/api/v1/filters/starlink", "/api/v1/filters/{category}"},
		{"/api/v1/selection/42", "/api/v1/selection/{index}"},
		{"/api/v1/selection/7", "/api/v1/selection/{index}"},

		{"/api/v1/selection/7/extra", "other"},
		{"/api/v1/filters/", "other"},
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizeRoute(tt.path); got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 distinct selection indices produce
// exactly one path label.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[normalizeRoute("/api/v1/selection/"+strconv.Itoa(i))] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestMiddlewareCountsNormalizedRoute(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/selection/{index}", "PUT", "418"))
	for _, p := range []string{"/api/v1/selection/1", "/api/v1/selection/2"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, p, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/api/v1/selection/{index}", "PUT", "418"))

	if after-before != 2 {
		t.Errorf("request counter grew by %v, want 2", after-before)
	}
}

func TestDomainCounters(t *testing.T) {
	SetCatalogObjects("debris", 3)
	if got := testutil.ToFloat64(catalogObjects.WithLabelValues("debris")); got != 3 {
		t.Errorf("catalog objects gauge = %v, want 3", got)
	}

	before := testutil.ToFloat64(propagationMissesTotal)
	AddPropagationMisses(0)
	AddPropagationMisses(4)
	if got := testutil.ToFloat64(propagationMissesTotal) - before; got != 4 {
		t.Errorf("misses grew by %v, want 4", got)
	}

	beforePick := testutil.ToFloat64(picksTotal.WithLabelValues("miss"))
	IncPick("miss")
	if got := testutil.ToFloat64(picksTotal.WithLabelValues("miss")) - beforePick; got != 1 {
		t.Errorf("miss picks grew by %v, want 1", got)
	}

	ObserveTick(3 * time.Millisecond)
	if n := testutil.CollectAndCount(tickDurationSeconds); n != 1 {
		t.Errorf("tick histogram collected %d series, want 1", n)
	}
}
