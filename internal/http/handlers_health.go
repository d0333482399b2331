package http

import "net/http"

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports the process can serve. Upstream sheets are not
// probed here; their failures surface per request as 502.
func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleStatus exposes request, rate-limit and detection counters plus
// whatever the Status hook reports.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"requests":   s.tracer.TotalRequests(),
		"rateLimit":  s.limiter.GetMetrics(),
		"suspicious": s.detector.GetMetrics(),
	}
	if s.status != nil {
		for k, v := range s.status() {
			out[k] = v
		}
	}
	writeJSON(w, http.StatusOK, out)
}
