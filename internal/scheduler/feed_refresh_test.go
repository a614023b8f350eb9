package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobfeed/internal/logger"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
	ran   chan struct{}
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls.Add(1)
	select {
	case c.ran <- struct{}{}:
	default:
	}
	return c.err
}

func waitRun(t *testing.T, ran <-chan struct{}) {
	t.Helper()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run")
	}
}

func TestFeedRefresherManualTrigger(t *testing.T) {
	r := &countingRefresher{ran: make(chan struct{}, 4)}
	trigger := make(chan struct{}, 1)

	fr := NewFeedRefresher(r, logger.Nop(), trigger)
	fr.Start(context.Background())

	trigger <- struct{}{}
	waitRun(t, r.ran)

	fr.Stop()
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestFeedRefresherRefreshErrorKeepsLoopAlive(t *testing.T) {
	r := &countingRefresher{ran: make(chan struct{}, 4), err: errors.New("upstream down")}
	trigger := make(chan struct{}, 1)

	fr := NewFeedRefresher(r, logger.Nop(), trigger)
	fr.Start(context.Background())

	trigger <- struct{}{}
	waitRun(t, r.ran)
	trigger <- struct{}{}
	waitRun(t, r.ran)
	fr.Stop()

	require.Equal(t, int32(2), r.calls.Load())
}

func TestFeedRefresherStopsWithContext(t *testing.T) {
	r := &countingRefresher{ran: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())

	fr := NewFeedRefresher(r, logger.Nop(), make(chan struct{}))
	fr.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		fr.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancel")
	}
	assert.Zero(t, r.calls.Load())
}
