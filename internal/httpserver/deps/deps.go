package deps

import (
	"time"

	"github.com/MrSnakeDoc/jobfeed/internal/feed"
	"github.com/MrSnakeDoc/jobfeed/internal/logger"
	"github.com/MrSnakeDoc/jobfeed/internal/store"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	AllowedHosts    []string         // Host headers allowed on mutating routes, empty = any
	AllowedCIDRS    []string         // IPs allowed to reach healthz/readyz/infra and /reload
	TrustProxy      bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateLimitBurst  int              // per-IP burst for fetch-triggering routes
	RateLimitPerMin int              // per-IP refill rate for fetch-triggering routes
	Feed            *feed.Controller // feed page state and bookmark set
	Storage         store.KV         // bookmark backend, pinged by readyz/infra
	StorageKind     string           // "badger" | "redis" | "memory"
	RefreshTrigger  chan struct{}    // operator-requested feed refresh, nil if no refresher runs
}
