package middleware

import "net/http"

type routeSetter interface {
	SetRoute(string)
}

// WithRoute records pattern on the logging writer so request logs group by
// route rather than by raw path.
func WithRoute(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if setter, ok := w.(routeSetter); ok {
			setter.SetRoute(pattern)
		}
		next.ServeHTTP(w, r)
	})
}

// Handle registers h on mux under pattern, tagged with that pattern.
func Handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, WithRoute(pattern, h))
}
