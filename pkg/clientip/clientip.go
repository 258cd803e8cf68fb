package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the client IP from the request. It trusts
// r.RemoteAddr only, never proxy headers: the backend terminates its own
// TLS with no CDN in front, so a forwarded header is attacker-controlled.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
