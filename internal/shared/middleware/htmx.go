package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const htmxKey contextKey = "htmx"

// HTMXRequest describes the htmx headers of a request.
type HTMXRequest struct {
	Enabled bool
	Boosted bool
	Target  string
}

func parseHTMX(r *http.Request) HTMXRequest {
	return HTMXRequest{
		Enabled: r.Header.Get("HX-Request") == "true",
		Boosted: r.Header.Get("HX-Boosted") == "true",
		Target:  r.Header.Get("HX-Target"),
	}
}

// HTMX records the htmx headers in the request context. Responses vary on
// HX-Request because htmx requests get fragments instead of full pages.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "HX-Request")
		ctx := context.WithValue(r.Context(), htmxKey, parseHTMX(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HTMXInfo returns what HTMX recorded, or parses the headers when the
// middleware did not run.
func HTMXInfo(r *http.Request) HTMXRequest {
	if v, ok := r.Context().Value(htmxKey).(HTMXRequest); ok {
		return v
	}
	return parseHTMX(r)
}

// IsHTMX reports whether htmx issued the request. Boosted navigation asks
// for whole pages, so it does not count.
func IsHTMX(r *http.Request) bool {
	info := HTMXInfo(r)
	return info.Enabled && !info.Boosted
}
