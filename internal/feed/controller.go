package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/jobfeed/internal/domain"
	"github.com/MrSnakeDoc/jobfeed/internal/jobsapi"
	"github.com/MrSnakeDoc/jobfeed/internal/logger"
)

// ErrUnknownJob is returned when an id is neither in the feed nor bookmarked.
var ErrUnknownJob = errors.New("unknown job")

// Fetcher retrieves one page of the listing.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) (jobsapi.Page, error)
}

// BookmarkStore persists the whole bookmark set.
type BookmarkStore interface {
	Load(ctx context.Context) []domain.Job
	Save(ctx context.Context, bookmarks []domain.Job) error
}

// Controller owns the feed page state and the in-memory bookmark set.
//
// mu guards all fields below it and is never held across network or storage
// I/O. bmMu serializes bookmark mutations end to end (mutate, persist,
// revert) so a failed write can restore the exact previous set.
type Controller struct {
	api   Fetcher
	store BookmarkStore
	log   logger.Logger

	bmMu sync.Mutex

	mu       sync.Mutex
	page     int
	jobs     []domain.Job
	hasMore  bool
	lastErr  string
	phase    Phase
	gen      uint64 // generation of the latest issued fetch
	inflight uint64 // generation holding the loading flag, 0 when idle
	saved    []domain.Job
}

func NewController(api Fetcher, store BookmarkStore, log logger.Logger) *Controller {
	return &Controller{
		api:     api,
		store:   store,
		log:     log,
		page:    1,
		hasMore: true,
		phase:   PhaseIdle,
		saved:   []domain.Job{},
	}
}

// Start is the feed view startup: load bookmarks, then fetch page 1 as a refresh.
func (c *Controller) Start(ctx context.Context) error {
	c.LoadBookmarks(ctx)
	return c.FetchPage(ctx, 1, true)
}

// FetchPage loads one page and merges it into the feed.
//
// Without refresh it is a no-op while another fetch is in flight, and for
// page > 1 once the listing is known to be exhausted. A refresh always runs;
// any older fetch still in flight is then stale and its result is dropped.
// The returned error is also recorded as the state's LastError.
func (c *Controller) FetchPage(ctx context.Context, page int, refresh bool) error {
	c.mu.Lock()
	if c.inflight != 0 && !refresh {
		c.mu.Unlock()
		c.log.Debug("fetch skipped, already loading", logger.Int("page", page))
		return nil
	}
	if !c.hasMore && page > 1 && !refresh {
		c.mu.Unlock()
		c.log.Debug("fetch skipped, no more jobs", logger.Int("page", page))
		return nil
	}

	c.gen++
	gen := c.gen
	c.inflight = gen
	if page > 1 {
		c.phase = PhaseLoadingMore
	} else {
		c.phase = PhaseLoading
	}
	if page == 1 || refresh {
		c.lastErr = ""
	}
	c.mu.Unlock()

	defer c.release(gen)

	p, err := c.api.FetchPage(ctx, page)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.log.Info("dropping stale jobs page",
			logger.Int("page", page),
			logger.Uint64("generation", gen),
			logger.Uint64("latest", c.gen))
		return nil
	}

	if err != nil {
		c.lastErr = err.Error()
		c.hasMore = true
		c.log.Error("failed to fetch jobs", logger.Int("page", page), logger.Error(err))
		return err
	}

	replace := page == 1 || refresh
	switch {
	case len(p.Jobs) > 0:
		if replace {
			c.jobs = p.Jobs
		} else {
			c.jobs = append(c.jobs, p.Jobs...)
		}
		c.page = page
		c.hasMore = true
	case p.RawCount == 0:
		c.hasMore = false
		c.log.Info("no more jobs from API", logger.Int("page", page))
	default:
		c.log.Info("page had items but no valid jobs, next page can still be requested",
			logger.Int("page", page),
			logger.Int("raw", p.RawCount))
	}

	if replace && len(p.Jobs) == 0 {
		c.jobs = nil
		c.page = 1
	}

	return nil
}

// release drops the loading flag if gen still holds it. A newer fetch that
// took over the flag keeps it.
func (c *Controller) release(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight == gen {
		c.inflight = 0
		c.phase = PhaseIdle
	}
}

// LoadMore fetches the page after the current one when idle and more may exist.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.inflight != 0 || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	next := c.page + 1
	c.mu.Unlock()

	return c.FetchPage(ctx, next, false)
}

// Refresh re-opens pagination and replaces the feed with a fresh page 1.
func (c *Controller) Refresh(ctx context.Context) error {
	c.log.Info("refreshing jobs list")

	c.mu.Lock()
	c.hasMore = true
	c.mu.Unlock()

	return c.FetchPage(ctx, 1, true)
}

// State returns a snapshot of the feed.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Page:      c.page,
		Jobs:      append([]domain.Job(nil), c.jobs...),
		HasMore:   c.hasMore,
		LastError: c.lastErr,
		Phase:     c.phase,
	}
}

// Find looks a job up in the feed first, then in the bookmark set.
func (c *Controller) Find(id int64) (domain.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := indexOf(c.jobs, id); i >= 0 {
		return c.jobs[i], true
	}
	if i := indexOf(c.saved, id); i >= 0 {
		return c.saved[i], true
	}
	return domain.Job{}, false
}

// LoadBookmarks replaces the in-memory set with what is persisted.
func (c *Controller) LoadBookmarks(ctx context.Context) []domain.Job {
	c.bmMu.Lock()
	defer c.bmMu.Unlock()

	loaded := c.store.Load(ctx)

	c.mu.Lock()
	c.saved = loaded
	c.mu.Unlock()

	c.log.Debug("bookmarks loaded", logger.Int("count", len(loaded)))
	return append([]domain.Job(nil), loaded...)
}

// Bookmarks returns a copy of the in-memory bookmark set.
func (c *Controller) Bookmarks() []domain.Job {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]domain.Job(nil), c.saved...)
}

// IsBookmarked is derived from the bookmark set on every call.
func (c *Controller) IsBookmarked(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return indexOf(c.saved, id) >= 0
}

// ToggleBookmark decodes a job snapshot and toggles its membership.
// A record without a numeric id fails with domain.ErrInvalidJob and changes nothing.
func (c *Controller) ToggleBookmark(ctx context.Context, raw json.RawMessage) (domain.Job, bool, error) {
	job, err := domain.ParseJob(raw)
	if err != nil {
		c.log.Warn("cannot bookmark invalid item", logger.Error(err))
		return domain.Job{}, false, err
	}
	on, err := c.Toggle(ctx, job)
	return job, on, err
}

// ToggleBookmarkByID toggles a job known to the feed or the bookmark set.
func (c *Controller) ToggleBookmarkByID(ctx context.Context, id int64) (bool, error) {
	job, ok := c.Find(id)
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownJob, id)
	}
	return c.Toggle(ctx, job)
}

// Toggle removes job from the set when its id is present, otherwise appends
// the snapshot, then persists. If persisting fails the previous set is
// restored and the error returned. bookmarked is the resulting membership.
func (c *Controller) Toggle(ctx context.Context, job domain.Job) (bookmarked bool, err error) {
	c.bmMu.Lock()
	defer c.bmMu.Unlock()

	c.mu.Lock()
	prev := c.saved
	idx := indexOf(prev, job.ID)
	var next []domain.Job
	if idx >= 0 {
		next = without(prev, idx)
	} else {
		next = append(append(make([]domain.Job, 0, len(prev)+1), prev...), job)
	}
	c.saved = next
	c.mu.Unlock()

	if err := c.store.Save(ctx, next); err != nil {
		c.mu.Lock()
		c.saved = prev
		c.mu.Unlock()
		c.log.Error("bookmark not saved, reverted", logger.Int64("id", job.ID), logger.Error(err))
		return idx >= 0, err
	}

	c.log.Info("bookmark toggled", logger.Int64("id", job.ID), logger.Bool("bookmarked", idx < 0))
	return idx < 0, nil
}

// RemoveBookmark drops id from the set. Removing an absent id is a no-op.
func (c *Controller) RemoveBookmark(ctx context.Context, id int64) error {
	c.bmMu.Lock()
	defer c.bmMu.Unlock()

	c.mu.Lock()
	prev := c.saved
	idx := indexOf(prev, id)
	if idx < 0 {
		c.mu.Unlock()
		return nil
	}
	next := without(prev, idx)
	c.saved = next
	c.mu.Unlock()

	if err := c.store.Save(ctx, next); err != nil {
		c.mu.Lock()
		c.saved = prev
		c.mu.Unlock()
		return err
	}

	c.log.Info("bookmark removed", logger.Int64("id", id))
	return nil
}

func indexOf(jobs []domain.Job, id int64) int {
	for i := range jobs {
		if jobs[i].ID == id {
			return i
		}
	}
	return -1
}

// without returns a new slice; the input stays untouched for a possible revert.
func without(jobs []domain.Job, idx int) []domain.Job {
	out := make([]domain.Job, 0, len(jobs)-1)
	out = append(out, jobs[:idx]...)
	return append(out, jobs[idx+1:]...)
}
