package websocket

import (
	"net/http"
	"net/url"
)

// NewCheckOrigin allows same-origin requests and clients without an Origin
// header. In development any localhost origin is accepted as well.
func NewCheckOrigin(isDevelopment bool) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if u.Host == r.Host {
			return true
		}

		host := u.Hostname()
		return isDevelopment && (host == "localhost" || host == "127.0.0.1")
	}
}
