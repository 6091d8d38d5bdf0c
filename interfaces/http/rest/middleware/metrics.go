package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HTTPObserver receives one observation per served request
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, duration time.Duration)
}

// Metrics reports every request to observer, labelled by the matched chi
// route pattern so path parameters do not explode cardinality
func Metrics(observer HTTPObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			observer.ObserveHTTP(r.Method, route, ww.Status(), time.Since(start))
		})
	}
}
