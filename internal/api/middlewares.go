package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/observability/metrics"
	"github.com/stakevault-io/staking-pool-service/internal/observability/tracing"
)

// withTracing attaches a trace ID to the request context so every log line
// emitted while serving the request carries it. The ID is echoed back to the
// caller for cross-referencing reports against logs.
func withTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := tracing.InjectTraceID(r.Context())
		w.Header().Set("X-Trace-Id", tracing.TraceID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRequestMetrics observes request duration labelled by the chi route
// pattern rather than the raw URL, keeping the metric cardinality bounded.
func withRequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.StartServerRequestDurationTimer(r.Method)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		timer(chi.RouteContext(r.Context()).RoutePattern(), ww.Status())
	})
}

func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(startTime)).
			Msg("request served")
	})
}
