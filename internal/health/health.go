// Package health serves the liveness and readiness probes.
//
// /healthz answers 200 while the process can serve HTTP and reports build
// information. /readyz answers 200 only when every [Checker] passes; the
// service is not ready until its first index generation is published.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named readiness probe. Check returns nil when healthy.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Info   map[string]string `json:"info,omitempty"`
}

// Handler serves both probes. The checker list is fixed at construction.
type Handler struct {
	checkers []Checker

	// Info, when set, adds key/value details to /healthz, such as the live
	// generation sequence.
	Info func() map[string]string
}

// New returns a handler evaluating checkers on each /readyz request.
func New(checkers ...Checker) *Handler {
	return &Handler{checkers: append([]Checker(nil), checkers...)}
}

// Healthz always answers 200.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	res := result{Status: "ok"}
	if h.Info != nil {
		res.Info = h.Info()
	}
	writeJSON(w, http.StatusOK, res)
}

// Readyz runs all checkers concurrently, each with its own deadline.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	errs := make([]error, len(h.checkers))
	var wg sync.WaitGroup
	for i, c := range h.checkers {
		wg.Go(func() {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()
			errs[i] = c.Check(ctx)
		})
	}
	wg.Wait()

	res := result{Status: "ok", Checks: make(map[string]string, len(h.checkers))}
	status := http.StatusOK
	for i, c := range h.checkers {
		if errs[i] != nil {
			res.Checks[c.Name] = "fail: " + errs[i].Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[c.Name] = "ok"
	}
	writeJSON(w, status, res)
}

// Register adds GET /healthz and GET /readyz to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
