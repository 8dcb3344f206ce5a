package middleware

import (
	"net/http"
	"time"

	"sagiri-relay/backend/global"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
	route  string
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

func (w *statusWriter) SetRoute(pattern string) { w.route = pattern }

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(sw, r)
		duration := time.Since(start)
		route := sw.route
		if route == "" {
			route = r.URL.Path
		}
		ev := global.Logger.Info()
		if sw.status >= 500 {
			ev = global.Logger.Error()
		} else if isPollRoute(route) && sw.status < 400 {
			// agents poll these several times a second
			ev = global.Logger.Debug()
		}
		ev.Str("ip", r.RemoteAddr).Str("method", r.Method).Str("route", route).Str("path", r.URL.Path).Int("status", sw.status).Int64("bytes", sw.bytes).Dur("duration", duration).Msg("request")
	})
}

var pollRoutes = map[string]struct{}{
	"GET /commands/pending":                {},
	"GET /devices/{id}/screen":             {},
	"POST /devices/{id}/screen":            {},
	"GET /devices/{id}/pointer":            {},
	"GET /devices/{id}/pointer/result":     {},
	"GET /devices/{id}/keyboard/pending":   {},
	"GET /devices/{id}/audio/{direction}":  {},
	"POST /devices/{id}/audio/{direction}": {},
}

func isPollRoute(route string) bool {
	_, ok := pollRoutes[route]
	return ok
}
