package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	slogctx "github.com/veqryn/slog-context"
)

// LogContext prepends the request id, method and path to the request context.
// A logger built on slogctx.NewHandler adds them to every record written with
// a *Context call. It must run after chi's RequestID middleware.
func LogContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := slogctx.Prepend(r.Context(),
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
