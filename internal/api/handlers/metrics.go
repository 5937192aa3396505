package handlers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// MetricsHandler exports a small plaintext metrics snapshot in the
// Prometheus exposition format. Counters are process-local.
type MetricsHandler struct {
	startedAt time.Time
	requests  atomic.Int64
}

func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{startedAt: time.Now()}
}

// CountRequest is called by the router on every request.
func (h *MetricsHandler) CountRequest() {
	h.requests.Add(1)
}

func (h *MetricsHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "# HELP signpost_up Is the server up\n")
	fmt.Fprintf(w, "# TYPE signpost_up gauge\n")
	fmt.Fprintf(w, "signpost_up 1\n")
	fmt.Fprintf(w, "# HELP signpost_uptime_seconds Seconds since the process started\n")
	fmt.Fprintf(w, "# TYPE signpost_uptime_seconds counter\n")
	fmt.Fprintf(w, "signpost_uptime_seconds %d\n", int64(time.Since(h.startedAt).Seconds()))
	fmt.Fprintf(w, "# HELP signpost_http_requests_total Requests handled since start\n")
	fmt.Fprintf(w, "# TYPE signpost_http_requests_total counter\n")
	fmt.Fprintf(w, "signpost_http_requests_total %d\n", h.requests.Load())
}
