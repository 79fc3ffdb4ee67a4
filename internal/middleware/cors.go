// Package middleware provides HTTP middleware for the console.
package middleware

import (
	"net/http"
	"net/url"
)

// originPolicy answers which browser origins the console trusts besides its
// own.
type originPolicy struct {
	named    map[string]bool
	wildcard bool
}

func newOriginPolicy(allowedOrigins []string) originPolicy {
	p := originPolicy{named: make(map[string]bool, len(allowedOrigins))}
	for _, o := range allowedOrigins {
		if o == "*" {
			p.wildcard = true
			continue
		}
		p.named[o] = true
	}
	return p
}

// sameHost reports whether origin points at the host the request was sent to.
func sameHost(origin string, r *http.Request) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Host == r.Host
}

// CORS returns middleware that sets CORS headers for cross-origin readers of
// the JSON endpoints. Credentials are only offered to origins named
// explicitly; a "*" entry allows anonymous reads.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			named := policy.named[origin]

			if origin != "" && (named || policy.wildcard) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
				h.Add("Vary", "Origin")
				if named {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
