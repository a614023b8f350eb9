package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/jobfeed/internal/bookmark"
	"github.com/MrSnakeDoc/jobfeed/internal/domain"
	"github.com/MrSnakeDoc/jobfeed/internal/feed"
	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/deps"
)

const maxJobBody = 1 << 20

type bookmarksResponse struct {
	Count     int              `json:"count"`
	Bookmarks []domain.Summary `json:"bookmarks"`
}

type toggleResponse struct {
	ID         int64  `json:"id,omitempty"`
	Bookmarked bool   `json:"bookmarked"`
	Error      string `json:"error,omitempty"`
}

// Bookmarks re-reads the set from storage, the way the bookmarks screen does
// each time it is shown.
func Bookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saved := d.Feed.LoadBookmarks(r.Context())

		resp := bookmarksResponse{
			Count:     len(saved),
			Bookmarks: make([]domain.Summary, 0, len(saved)),
		}
		for _, j := range saved {
			resp.Bookmarks = append(resp.Bookmarks, domain.Summarize(j, true))
		}
		writeJSON(w, d.Logger, http.StatusOK, resp)
	}
}

// ToggleBookmark takes the full job record as body.
func ToggleBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJobBody))
		if err != nil {
			writeError(w, d.Logger, http.StatusRequestEntityTooLarge, "job record too large")
			return
		}

		job, on, err := d.Feed.ToggleBookmark(r.Context(), body)
		if errors.Is(err, domain.ErrInvalidJob) {
			writeError(w, d.Logger, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeToggle(w, d, job.ID, on, err)
	}
}

// ToggleBookmarkByID toggles a job already known to the feed or the set.
func ToggleBookmarkByID(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobID(w, r, d.Logger)
		if !ok {
			return
		}

		on, err := d.Feed.ToggleBookmarkByID(r.Context(), id)
		if errors.Is(err, feed.ErrUnknownJob) {
			writeError(w, d.Logger, http.StatusNotFound, "job not found")
			return
		}
		writeToggle(w, d, id, on, err)
	}
}

func writeToggle(w http.ResponseWriter, d deps.Deps, id int64, on bool, err error) {
	switch {
	case err == nil:
		writeJSON(w, d.Logger, http.StatusOK, toggleResponse{ID: id, Bookmarked: on})
	case errors.Is(err, bookmark.ErrPersist):
		writeJSON(w, d.Logger, http.StatusInternalServerError, toggleResponse{
			ID:         id,
			Bookmarked: on,
			Error:      "bookmark could not be saved",
		})
	default:
		writeError(w, d.Logger, http.StatusInternalServerError, err.Error())
	}
}

func RemoveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobID(w, r, d.Logger)
		if !ok {
			return
		}

		if err := d.Feed.RemoveBookmark(r.Context(), id); err != nil {
			writeError(w, d.Logger, http.StatusInternalServerError, "bookmark could not be removed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
