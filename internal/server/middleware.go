package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sms-otp-authenticator/internal/telemetry"
)

// requestMetadata is the JSON shape stored in Event.Detail for http_request events.
type requestMetadata struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	Status     int    `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
	RequestID  string `json:"request_id,omitempty"`
}

// RequestTelemetry returns middleware that emits an http_request event after each request.
// Best-effort: emit failures are logged by EmitAsync and never affect the response. If
// emitter is nil, the middleware no-ops. skipPaths holds URL paths that are not emitted.
func RequestTelemetry(emitter telemetry.EventEmitter, skipPaths map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if emitter == nil || skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			meta := requestMetadata{
				Method:     r.Method,
				Route:      route,
				Status:     status,
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   r.RemoteAddr,
				RequestID:  middleware.GetReqID(r.Context()),
			}
			metaJSON, _ := json.Marshal(meta)
			ev := telemetry.NewEvent(telemetry.EventHTTPRequest, "", "")
			ev.Result = strconv.Itoa(status)
			ev.Detail = string(metaJSON)
			telemetry.EmitAsync(emitter, r.Context(), ev)
		})
	}
}
