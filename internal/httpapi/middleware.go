package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"riego/internal/observability"

	"github.com/gorilla/handlers"
)

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sr := observability.NewStatusRecorder(w)
		next.ServeHTTP(sr, r)

		level := slog.LevelInfo
		if sr.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// recoveryLogger adapts slog to handlers.RecoveryHandlerLogger.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	slog.Error("http handler panic", "panic", fmt.Sprint(v...))
}

// Wrap applies the standard middleware chain around mux.
func Wrap(mux http.Handler, metrics *observability.Metrics) http.Handler {
	h := metrics.WrapHandler(mux)
	h = requestLogger(h)
	h = handlers.CompressHandler(h)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(h)
}
