// Package handler serves the readiness probe for Kubernetes and load balancers.
package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger checks a backend dependency (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

// PingContext calls f.
func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Handler reports SERVING when every configured backend answers a ping.
type Handler struct {
	checks map[string]Pinger
}

// NewHandler returns a health Handler. Nil pingers are skipped, so a deployment without a
// database or Redis is healthy as long as the process is up.
func NewHandler(checks map[string]Pinger) *Handler {
	h := &Handler{checks: make(map[string]Pinger, len(checks))}
	for name, p := range checks {
		if p != nil {
			h.checks[name] = p
		}
	}
	return h
}

type response struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	resp := response{Status: "SERVING"}
	for name, p := range h.checks {
		if err := p.PingContext(ctx); err != nil {
			log.Printf("health: %s ping failed: %v", name, err)
			resp.Failed = append(resp.Failed, name)
		}
	}
	code := http.StatusOK
	if len(resp.Failed) > 0 {
		sort.Strings(resp.Failed)
		resp.Status = "NOT_SERVING"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
