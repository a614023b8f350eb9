package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/jobfeed/internal/logger"
)

// Refresher is the feed operation run for each trigger.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// FeedRefresher runs operator-requested feed refreshes one at a time, off
// the request path. It never refreshes on its own.
type FeedRefresher struct {
	feed          Refresher
	logger        logger.Logger
	manualTrigger chan struct{}
	stopCh        chan struct{}
	stopOnce      sync.Once
	done          chan struct{}
}

func NewFeedRefresher(feed Refresher, log logger.Logger, manualTrigger chan struct{}) *FeedRefresher {
	return &FeedRefresher{
		feed:          feed,
		logger:        log,
		manualTrigger: manualTrigger,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start runs the loop in the background until Stop or ctx is done.
func (fr *FeedRefresher) Start(ctx context.Context) {
	go func() {
		defer close(fr.done)
		for {
			select {
			case <-fr.manualTrigger:
				fr.run(ctx)
			case <-fr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (fr *FeedRefresher) run(ctx context.Context) {
	fr.logger.Info("manual feed refresh triggered")
	start := time.Now()
	if err := fr.feed.Refresh(ctx); err != nil {
		fr.logger.Error("manual feed refresh failed", logger.Error(err))
		return
	}
	fr.logger.Info("manual feed refresh done", logger.Duration("took", time.Since(start)))
}

// Stop ends the loop and waits for an in-progress refresh to return.
func (fr *FeedRefresher) Stop() {
	fr.stopOnce.Do(func() { close(fr.stopCh) })
	<-fr.done
}
