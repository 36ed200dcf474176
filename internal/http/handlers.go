package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true

	if s.state.Loaded() {
		checks["state"] = "ok"
	} else {
		checks["state"] = "not loaded"
		ready = false
	}

	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			checks["backend"] = err.Error()
			ready = false
		} else {
			checks["backend"] = "ok"
		}
	}

	status, label := http.StatusOK, "ready"
	if !ready {
		status, label = http.StatusServiceUnavailable, "not ready"
	}
	writeJSON(w, r, status, map[string]any{"status": label, "checks": checks})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	traceMetrics := s.trace.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	analyzeMetrics := s.analyzeLimiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	dash := s.state.Dashboard()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_microseconds Average response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP registros_total Entries currently held\n")
	fmt.Fprintf(w, "# TYPE registros_total gauge\n")
	fmt.Fprintf(w, "registros_total %d\n\n", len(s.state.Entries()))

	fmt.Fprintf(w, "# HELP lecturas_total Year-to-date readings\n")
	fmt.Fprintf(w, "# TYPE lecturas_total gauge\n")
	fmt.Fprintf(w, "lecturas_total %d\n\n", dash.GrandTotal)

	fmt.Fprintf(w, "# HELP pendientes Pending readings counter\n")
	fmt.Fprintf(w, "# TYPE pendientes gauge\n")
	fmt.Fprintf(w, "pendientes %d\n\n", dash.Pendientes)

	if s.analyzeCache != nil {
		stats := s.analyzeCache.Stats()
		fmt.Fprintf(w, "# HELP analyze_cache_hits_total Analysis cache hits\n")
		fmt.Fprintf(w, "# TYPE analyze_cache_hits_total counter\n")
		fmt.Fprintf(w, "analyze_cache_hits_total %d\n\n", stats.Hits)

		fmt.Fprintf(w, "# HELP analyze_cache_misses_total Analysis cache misses\n")
		fmt.Fprintf(w, "# TYPE analyze_cache_misses_total counter\n")
		fmt.Fprintf(w, "analyze_cache_misses_total %d\n\n", stats.Misses)

		fmt.Fprintf(w, "# HELP analyze_cache_entries Current analysis cache entries\n")
		fmt.Fprintf(w, "# TYPE analyze_cache_entries gauge\n")
		fmt.Fprintf(w, "analyze_cache_entries %d\n\n", stats.Size)
	}

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total{scope=\"api\"} %d\n", limitMetrics.TotalHits)
	fmt.Fprintf(w, "rate_limit_hits_total{scope=\"analyze\"} %d\n\n", analyzeMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", limitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP blocked_requests_total Requests rejected by method\n")
	fmt.Fprintf(w, "# TYPE blocked_requests_total counter\n")
	fmt.Fprintf(w, "blocked_requests_total %d\n\n", securityMetrics.BlockedRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", time.Since(s.startTime).Seconds())
}
