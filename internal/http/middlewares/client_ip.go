package middlewares

import (
	"net"
	"net/http"
	"strings"
)

// remoteIP es el host de la conexión TCP.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// forwardedIP toma el primer salto de X-Forwarded-For; sin header cae en remoteIP.
func forwardedIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		first, _, _ := strings.Cut(xf, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return remoteIP(r)
}
