package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/jobfeed/internal/feed"
	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/deps"
)

type componentStatus struct {
	OK        bool   `json:"ok"`
	Backend   string `json:"backend,omitempty"`
	Page      *int   `json:"page,omitempty"`
	Jobs      *int   `json:"jobs,omitempty"`
	Bookmarks *int   `json:"bookmarks,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Impact    string `json:"impact,omitempty"`
	Error     string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra is an operator view of storage and feed health.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"storage": checkStorage(r.Context(), d),
			"feed":    feedStatus(d.Feed.State(), len(d.Feed.Bookmarks())),
		}

		writeJSON(w, d.Logger, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode: storage down is critical (bookmarks cannot persist), a feed
// error is degraded, anything else is ok.
func determineMode(components map[string]componentStatus) string {
	if s, ok := components["storage"]; ok && !s.OK {
		return "critical"
	}
	if f, ok := components["feed"]; ok && !f.OK {
		return "degraded"
	}
	return "ok"
}

func checkStorage(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.Storage.Ping(ctx); err != nil {
		return componentStatus{
			Backend: d.StorageKind,
			Impact:  "bookmarks-not-persisted",
			Error:   err.Error(),
		}
	}
	return componentStatus{OK: true, Backend: d.StorageKind}
}

func feedStatus(s feed.State, bookmarks int) componentStatus {
	jobs := len(s.Jobs)
	c := componentStatus{
		OK:        s.LastError == "",
		Page:      &s.Page,
		Jobs:      &jobs,
		Bookmarks: &bookmarks,
		Phase:     string(s.Phase),
	}
	if s.LastError != "" {
		c.Impact = "feed-stale"
		c.Error = s.LastError
	}
	return c
}
