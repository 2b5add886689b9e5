package server

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/advisor/internal/common"
)

// Paths exempt from rate limiting.
var unlimitedPaths = []string{"/api/health", "/metrics"}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

// wrapResponse returns w as a statusRecorder, reusing an existing one so
// stacked middleware observe the same counts.
func wrapResponse(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// Flush passes through so streamable MCP responses are not buffered.
func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func recoveryMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				logger.Error().
					Str("panic", fmt.Sprint(rec)).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("correlation_id", common.CorrelationID(r.Context())).
					Msg("Recovered from handler panic")
				WriteErrorWithCode(w, http.StatusInternalServerError, "Internal server error", CodeInternal)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Correlation-ID, Mcp-Session-Id")
		h.Set("Access-Control-Expose-Headers", "X-Correlation-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// correlationIDMiddleware takes the caller's X-Request-ID or X-Correlation-ID,
// or generates a short id, and exposes it to the service through the request
// context.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = r.Header.Get("X-Correlation-ID")
		}
		if id == "" {
			id = uuid.NewString()[:8]
		}
		w.Header().Set("X-Correlation-ID", id)

		ctx := common.WithRequestContext(r.Context(), &common.RequestContext{CorrelationID: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitMiddleware applies one token bucket to the whole server. A
// non-positive rate disables it.
func rateLimitMiddleware(rps float64, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}
		limiter := rate.NewLimiter(rate.Limit(rps), max(burst, 1))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(unlimitedPaths, r.URL.Path) && !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware writes one line per request: trace for success, info for
// client errors, error for server errors.
func loggingMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrapResponse(w)
			next.ServeHTTP(rw, r)

			event := logger.Trace()
			switch {
			case rw.statusCode >= 500:
				event = logger.Error()
			case rw.statusCode >= 400:
				event = logger.Info()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routeLabel(r)).
				Str("query", r.URL.RawQuery).
				Int("status", rw.statusCode).
				Int("bytes", rw.bytesWritten).
				Dur("duration", time.Since(start)).
				Str("correlation_id", w.Header().Get("X-Correlation-ID")).
				Msg("HTTP request")
		})
	}
}

// applyMiddleware builds the stack. Listed innermost first; recovery runs
// outermost.
func applyMiddleware(mux http.Handler, s *Server) http.Handler {
	cfg := s.app.Config.Server
	stack := []func(http.Handler) http.Handler{
		metricsMiddleware(s.metrics),
		loggingMiddleware(s.logger),
		rateLimitMiddleware(cfg.RateLimit, cfg.Burst),
		correlationIDMiddleware,
		corsMiddleware,
		recoveryMiddleware(s.logger),
	}
	h := mux
	for _, mw := range stack {
		h = mw(h)
	}
	return h
}
