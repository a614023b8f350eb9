package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Get("/api/bookmarks", handlers.Bookmarks(d))

	write := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	write.Post("/api/bookmarks", handlers.ToggleBookmark(d))
	write.Post("/api/bookmarks/{id}/toggle", handlers.ToggleBookmarkByID(d))
	write.Delete("/api/bookmarks/{id}", handlers.RemoveBookmark(d))
}
