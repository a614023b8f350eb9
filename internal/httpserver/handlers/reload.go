package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobfeed/internal/logger"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload asks the refresh worker for an immediate feed refresh and
// returns without waiting for it.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.RefreshTrigger == nil {
			writeError(w, d.Logger, http.StatusServiceUnavailable, "refresh worker is not running")
			return
		}

		select {
		case d.RefreshTrigger <- struct{}{}:
			d.Logger.Info("manual feed refresh triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusAccepted, reloadResponse{
				Triggered: true,
				Message:   "refresh triggered",
			})
		default:
			d.Logger.Warn("feed refresh already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusTooManyRequests, reloadResponse{
				Message: "refresh already pending, please wait",
			})
		}
	}
}
