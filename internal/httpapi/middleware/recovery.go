package middleware

import (
	"log"
	"net/http"
	"runtime/debug"
)

// Recovery catches panics in downstream handlers and converts them into
// a 500 response instead of crashing the server.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("panic recovered: %v\npath=%s method=%s\n%s", rec, r.URL.Path, r.Method, debug.Stack())
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
