package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	enabled := Middleware(Config{Enabled: true, Token: "s3cret"})(ok)
	disabled := Middleware(Config{})(ok)

	tests := []struct {
		name    string
		handler http.Handler
		method  string
		path    string
		header  string
		want    int
	}{
		{"disabled write", disabled, http.MethodPost, "/api/v1/pick", "", http.StatusNoContent},
		{"read is public", enabled, http.MethodGet, "/api/v1/catalog", "", http.StatusNoContent},
		{"stream is public", enabled, http.MethodGet, "/api/v1/stream/frames", "", http.StatusNoContent},
		{"probe is public", enabled, http.MethodGet, "/healthz", "", http.StatusNoContent},
		{"write without token", enabled, http.MethodPost, "/api/v1/pick", "", http.StatusUnauthorized},
		{"write with wrong token", enabled, http.MethodPut, "/api/v1/selection/0", "Bearer nope", http.StatusUnauthorized},
		{"write with other scheme", enabled, http.MethodDelete, "/api/v1/selection", "Basic s3cret", http.StatusUnauthorized},
		{"write with empty bearer", enabled, http.MethodPost, "/api/v1/filters/debris", "Bearer ", http.StatusUnauthorized},
		{"write with token", enabled, http.MethodPost, "/api/v1/filters/debris", "Bearer s3cret", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			tt.handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if w.Code == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 without WWW-Authenticate")
			}
		})
	}
}
