package httpapi

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

var clientIPHeaders = []string{"Fly-Client-IP", "X-Forwarded-For", "X-Real-IP"}

// resolveClientIP returns the first parseable address among the proxy headers,
// falling back to the socket peer.
func resolveClientIP(r *http.Request) string {
	for _, h := range clientIPHeaders {
		if ip, ok := parseClientIP(r.Header.Get(h)); ok {
			return ip
		}
	}
	ip, _ := parseClientIP(r.RemoteAddr)
	return ip
}

func parseClientIP(raw string) (string, bool) {
	first, _, _ := strings.Cut(raw, ",")
	first = strings.TrimSpace(first)
	if host, _, err := net.SplitHostPort(first); err == nil {
		first = host
	}
	addr, err := netip.ParseAddr(first)
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
