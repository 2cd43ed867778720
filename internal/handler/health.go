package handler

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// HandleHealth runs every check with a short timeout and answers 200 when
// all pass, 503 with the names of the failing checks otherwise.
//
// HTTP: GET /healthz
func HandleHealth(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	names := slices.Sorted(maps.Keys(checks))

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		var failed []string
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.Error("health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
				failed = append(failed, name)
			}
		}

		if len(failed) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Failed: failed})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
