package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobfeed/internal/logger"
)

const pingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready   bool   `json:"ready"`
	Storage string `json:"storage"`
	Error   string `json:"error,omitempty"`
}

// Readyz reports ready once the bookmark backend answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := d.Storage.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed",
				logger.String("storage", d.StorageKind),
				logger.Error(err))
			writeJSON(w, d.Logger, http.StatusServiceUnavailable, readyzResponse{
				Storage: d.StorageKind,
				Error:   err.Error(),
			})
			return
		}

		writeJSON(w, d.Logger, http.StatusOK, readyzResponse{Ready: true, Storage: d.StorageKind})
	}
}
