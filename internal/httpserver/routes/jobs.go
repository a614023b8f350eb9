package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/deps"
	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/jobfeed/internal/httpserver/mw"
)

func init() { Register(registerJobs) }

func registerJobs(r chi.Router, d deps.Deps) {
	limited := r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:      d.RateLimitBurst,
			PerMinute:  d.RateLimitPerMin,
			MaxEntries: 10_000,
			TrustProxy: d.TrustProxy,
			Logger:     d.Logger,
		}),
	)

	r.Get("/api/jobs", handlers.Jobs(d))
	r.Get("/api/jobs/{id}", handlers.JobDetails(d))
	limited.Post("/api/jobs/more", handlers.MoreJobs(d))
	limited.Post("/api/jobs/refresh", handlers.RefreshJobs(d))
}
