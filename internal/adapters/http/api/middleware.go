package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/okian/pitchmap/pkg/logger"
	"github.com/okian/pitchmap/pkg/metrics"
)

// instrument records Prometheus metrics and a debug record per request.
func (s *Server) instrument(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw, elapsed := observe(w, r, next, endpoint)
		s.logger.Debug(r.Context(), "request served",
			logger.String("endpoint", endpoint),
			logger.String("method", r.Method),
			logger.Int("status", rw.statusCode),
			logger.Int("bytes", rw.bytes),
			logger.Duration("elapsed", elapsed),
			logger.String("request_id", chimiddleware.GetReqID(r.Context())))
	}
}

func observe(w http.ResponseWriter, r *http.Request, next http.HandlerFunc, endpoint string) (*responseWriter, time.Duration) {
	start := time.Now()
	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
	next.ServeHTTP(rw, r)
	elapsed := time.Since(start)

	status := strconv.Itoa(rw.statusCode)
	metrics.RecordHTTPRequest(endpoint, r.Method, status)
	metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(elapsed.Microseconds())/1000)
	if rw.statusCode >= http.StatusBadRequest {
		metrics.RecordErrorByComponent("http", errorType(rw.statusCode))
	}
	return rw, elapsed
}

// errorType buckets an error status for the error counters.
func errorType(status int) string {
	switch {
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusUnprocessableEntity:
		return "data_integrity"
	default:
		return "client_error"
	}
}

// responseWriter captures the status and body size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	if err != nil {
		return n, fmt.Errorf("writing response: %w", err)
	}
	return n, nil
}

// Hijack lets the playback handler upgrade to a WebSocket through the wrapper.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}
