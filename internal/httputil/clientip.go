// Package httputil holds request helpers shared by the HTTP handlers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address as text. With trustProxy set the
// leftmost X-Forwarded-For entry wins, then X-Real-IP; otherwise only the
// connection's remote address is used. Enable trustProxy only behind a
// reverse proxy that overwrites those headers.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientAddr is ClientIP parsed as an IP. It returns nil when the address
// is not a literal IP.
func ClientAddr(r *http.Request, trustProxy bool) net.IP {
	return net.ParseIP(ClientIP(r, trustProxy))
}
