package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/jobfeed/internal/domain"
	"github.com/MrSnakeDoc/jobfeed/internal/feed"
	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobfeed/internal/logger"
)

type feedResponse struct {
	View    feed.View        `json:"view"`
	Page    int              `json:"page"`
	HasMore bool             `json:"has_more"`
	Phase   feed.Phase       `json:"phase"`
	Loading bool             `json:"loading"`
	Error   string           `json:"error,omitempty"`
	Banner  string           `json:"banner,omitempty"` // error shown above a non-empty list
	Jobs    []domain.Summary `json:"jobs"`
}

func newFeedResponse(s feed.State, bookmarked func(int64) bool) feedResponse {
	resp := feedResponse{
		View:    s.View(),
		Page:    s.Page,
		HasMore: s.HasMore,
		Phase:   s.Phase,
		Loading: s.Loading(),
		Error:   s.LastError,
		Jobs:    make([]domain.Summary, 0, len(s.Jobs)),
	}
	if resp.View == feed.ViewList {
		resp.Banner = s.LastError
	}
	for _, j := range s.Jobs {
		resp.Jobs = append(resp.Jobs, domain.Summarize(j, bookmarked(j.ID)))
	}
	return resp
}

// bookmarkedSet snapshots membership once per response.
func bookmarkedSet(ctrl *feed.Controller) func(int64) bool {
	ids := make(map[int64]struct{})
	for _, j := range ctrl.Bookmarks() {
		ids[j.ID] = struct{}{}
	}
	return func(id int64) bool {
		_, ok := ids[id]
		return ok
	}
}

func Jobs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Logger, http.StatusOK, newFeedResponse(d.Feed.State(), bookmarkedSet(d.Feed)))
	}
}

// MoreJobs loads the next page. Fetch failures are reported in the feed view,
// not as an HTTP error, since the list keeps its previous jobs.
func MoreJobs(d deps.Deps) http.HandlerFunc {
	return feedOperation(d, "load more", d.Feed.LoadMore)
}

func RefreshJobs(d deps.Deps) http.HandlerFunc {
	return feedOperation(d, "refresh", d.Feed.Refresh)
}

func feedOperation(d deps.Deps, name string, op func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The feed is shared; a client hanging up must not record a
		// cancellation as the feed error.
		ctx := context.WithoutCancel(r.Context())
		if err := op(ctx); err != nil {
			d.Logger.Debug("feed operation failed", logger.String("op", name), logger.Error(err))
		}
		writeJSON(w, d.Logger, http.StatusOK, newFeedResponse(d.Feed.State(), bookmarkedSet(d.Feed)))
	}
}

// JobDetails looks the id up in the feed first, then in the bookmarks.
func JobDetails(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobID(w, r, d.Logger)
		if !ok {
			return
		}

		job, found := d.Feed.Find(id)
		if !found {
			writeError(w, d.Logger, http.StatusNotFound, "job not found")
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, domain.Describe(job, d.Feed.IsBookmarked(id)))
	}
}
