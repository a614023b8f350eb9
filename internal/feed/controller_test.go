package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobfeed/internal/bookmark"
	"github.com/MrSnakeDoc/jobfeed/internal/domain"
	"github.com/MrSnakeDoc/jobfeed/internal/jobsapi"
	"github.com/MrSnakeDoc/jobfeed/internal/logger"
	"github.com/MrSnakeDoc/jobfeed/internal/store/memory"
)

type response struct {
	page jobsapi.Page
	err  error
	gate chan struct{} // when set, the fetch blocks until it is closed
}

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[int][]response
	calls     []int
	started   chan int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[int][]response),
		started:   make(chan int, 16),
	}
}

// on queues a response for page; queued responses are served in order.
func (f *fakeFetcher) on(page int, r response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[page] = append(f.responses[page], r)
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page int) (jobsapi.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, page)
	queue := f.responses[page]
	if len(queue) == 0 {
		f.mu.Unlock()
		return jobsapi.Page{}, fmt.Errorf("unexpected fetch of page %d", page)
	}
	r := queue[0]
	f.responses[page] = queue[1:]
	f.mu.Unlock()

	f.started <- page
	if r.gate != nil {
		<-r.gate
	}
	return r.page, r.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func jobs(t *testing.T, from, n int) []domain.Job {
	t.Helper()
	out := make([]domain.Job, 0, n)
	for i := from; i < from+n; i++ {
		j, err := domain.ParseJob([]byte(fmt.Sprintf(`{"id":%d,"title":"Job %d"}`, i, i)))
		require.NoError(t, err)
		out = append(out, j)
	}
	return out
}

func validPage(t *testing.T, from, n int) jobsapi.Page {
	return jobsapi.Page{RawCount: n, Jobs: jobs(t, from, n)}
}

type fixture struct {
	ctrl    *Controller
	fetcher *fakeFetcher
	kv      *memory.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	kv := memory.New()
	fetcher := newFakeFetcher()
	log := logger.Nop()
	return fixture{
		ctrl:    NewController(fetcher, bookmark.NewStore(kv, log), log),
		fetcher: fetcher,
		kv:      kv,
	}
}

func TestInitialState(t *testing.T) {
	f := newFixture(t)

	s := f.ctrl.State()
	assert.Equal(t, 1, s.Page)
	assert.True(t, s.HasMore)
	assert.Empty(t, s.Jobs)
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, ViewEmpty, s.View())
}

func TestPaginationMerge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fetcher.on(1, response{page: validPage(t, 1, 20)})
	f.fetcher.on(2, response{page: jobsapi.Page{RawCount: 15, Jobs: jobs(t, 21, 10)}})

	require.NoError(t, f.ctrl.Start(ctx))
	require.NoError(t, f.ctrl.LoadMore(ctx))

	s := f.ctrl.State()
	assert.Len(t, s.Jobs, 30)
	assert.Equal(t, 2, s.Page)
	assert.True(t, s.HasMore)
	assert.Equal(t, int64(1), s.Jobs[0].ID)
	assert.Equal(t, int64(30), s.Jobs[29].ID)
	assert.Equal(t, ViewList, s.View())
}

func TestNoDedupAcrossPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fetcher.on(1, response{page: validPage(t, 1, 3)})
	f.fetcher.on(2, response{page: validPage(t, 3, 2)})

	require.NoError(t, f.ctrl.FetchPage(ctx, 1, false))
	require.NoError(t, f.ctrl.LoadMore(ctx))

	assert.Len(t, f.ctrl.State().Jobs, 5)
}

func TestTerminalPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fetcher.on(1, response{page: validPage(t, 1, 20)})
	f.fetcher.on(2, response{page: jobsapi.Page{}})

	require.NoError(t, f.ctrl.FetchPage(ctx, 1, false))
	require.NoError(t, f.ctrl.LoadMore(ctx))

	s := f.ctrl.State()
	assert.False(t, s.HasMore)
	assert.Equal(t, 1, s.Page)
	assert.Len(t, s.Jobs, 20)

	calls := f.fetcher.callCount()
	require.NoError(t, f.ctrl.LoadMore(ctx))
	require.NoError(t, f.ctrl.FetchPage(ctx, 3, false))
	assert.Equal(t, calls, f.fetcher.callCount(), "no request after the terminal page")
}

func TestAllInvalidPageKeepsPaginationOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fetcher.on(1, response{page: validPage(t, 1, 5)})
	f.fetcher.on(2, response{page: jobsapi.Page{RawCount: 4}})
	f.fetcher.on(2, response{page: validPage(t, 6, 2)})

	require.NoError(t, f.ctrl.FetchPage(ctx, 1, false))
	require.NoError(t, f.ctrl.LoadMore(ctx))

	s := f.ctrl.State()
	assert.True(t, s.HasMore)
	assert.Equal(t, 1, s.Page, "page only advances on valid records")
	assert.Len(t, s.Jobs, 5)

	require.NoError(t, f.ctrl.LoadMore(ctx))
	assert.Len(t, f.ctrl.State().Jobs, 7)
}

func TestErrorWithExistingData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fetcher.on(1, response{page: validPage(t, 1, 20)})
	f.fetcher.on(2, response{err: &jobsapi.HTTPStatusError{Code: 503}})

	require.NoError(t, f.ctrl.FetchPage(ctx, 1, false))
	err := f.ctrl.LoadMore(ctx)
	require.Error(t, err)

	s := f.ctrl.State()
	assert.Len(t, s.Jobs, 20)
	assert.Equal(t, "Server error (503). Please try again later.", s.LastError)
	assert.True(t, s.HasMore)
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Equal(t, ViewList, s.View())
}

func TestErrorWithoutData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fetcher.on(1, response{err: &jobsapi.NetworkError{Err: errors.New("connection refused")}})
	f.fetcher.on(1, response{page: validPage(t, 1, 2)})

	require.Error(t, f.ctrl.Start(ctx))
	s := f.ctrl.State()
	assert.Equal(t, ViewError, s.View())
	assert.Contains(t, s.LastError, "connection refused")

	require.NoError(t, f.ctrl.Refresh(ctx))
	s = f.ctrl.State()
	assert.Empty(t, s.LastError, "a page-1 fetch clears the previous error")
	assert.Len(t, s.Jobs, 2)
}

func TestRefreshResetsToPageOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fetcher.on(1, response{page: validPage(t, 1, 10)})
	f.fetcher.on(2, response{page: validPage(t, 11, 10)})
	f.fetcher.on(3, response{page: validPage(t, 21, 10)})
	f.fetcher.on(1, response{page: validPage(t, 100, 4)})

	require.NoError(t, f.ctrl.FetchPage(ctx, 1, false))
	require.NoError(t, f.ctrl.LoadMore(ctx))
	require.NoError(t, f.ctrl.LoadMore(ctx))
	require.Equal(t, 3, f.ctrl.State().Page)

	require.NoError(t, f.ctrl.Refresh(ctx))

	s := f.ctrl.State()
	assert.Equal(t, 1, s.Page)
	require.Len(t, s.Jobs, 4)
	assert.Equal(t, int64(100), s.Jobs[0].ID)
}

func TestRefreshReopensExhaustedFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fetcher.on(1, response{page: jobsapi.Page{}})
	f.fetcher.on(1, response{page: validPage(t, 1, 3)})

	require.NoError(t, f.ctrl.FetchPage(ctx, 1, false))
	assert.False(t, f.ctrl.State().HasMore)
	assert.Equal(t, ViewEmpty, f.ctrl.State().View())

	require.NoError(t, f.ctrl.Refresh(ctx))
	s := f.ctrl.State()
	assert.True(t, s.HasMore)
	assert.Len(t, s.Jobs, 3)
}

func TestFetchSkippedWhileLoading(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gate := make(chan struct{})
	f.fetcher.on(1, response{page: validPage(t, 1, 3), gate: gate})

	done := make(chan error, 1)
	go func() { done <- f.ctrl.FetchPage(ctx, 1, false) }()
	<-f.fetcher.started

	s := f.ctrl.State()
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, ViewLoading, s.View())

	require.NoError(t, f.ctrl.LoadMore(ctx))
	require.NoError(t, f.ctrl.FetchPage(ctx, 2, false))
	assert.Equal(t, 1, f.fetcher.callCount())

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, PhaseIdle, f.ctrl.State().Phase)
}

func TestStaleResponseDiscardedAfterRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gate := make(chan struct{})
	f.fetcher.on(1, response{page: validPage(t, 1, 5)})
	f.fetcher.on(2, response{page: validPage(t, 6, 5), gate: gate})
	f.fetcher.on(1, response{page: validPage(t, 50, 2)})

	require.NoError(t, f.ctrl.FetchPage(ctx, 1, false))

	done := make(chan error, 1)
	go func() { done <- f.ctrl.LoadMore(ctx) }()
	require.Equal(t, 1, <-f.fetcher.started)
	require.Equal(t, 2, <-f.fetcher.started)
	assert.Equal(t, PhaseLoadingMore, f.ctrl.State().Phase)

	require.NoError(t, f.ctrl.Refresh(ctx))
	assert.Equal(t, PhaseIdle, f.ctrl.State().Phase)

	close(gate)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("load more did not return")
	}

	s := f.ctrl.State()
	assert.Equal(t, 1, s.Page)
	require.Len(t, s.Jobs, 2, "the stale page 2 must not be appended")
	assert.Equal(t, int64(50), s.Jobs[0].ID)
	assert.Equal(t, PhaseIdle, s.Phase)
}

func TestStaleFetchDoesNotReleaseNewerLoadingFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	oldGate := make(chan struct{})
	newGate := make(chan struct{})
	f.fetcher.on(1, response{page: validPage(t, 1, 1), gate: oldGate})
	f.fetcher.on(1, response{page: validPage(t, 2, 1), gate: newGate})

	oldDone := make(chan error, 1)
	go func() { oldDone <- f.ctrl.FetchPage(ctx, 1, false) }()
	<-f.fetcher.started

	newDone := make(chan error, 1)
	go func() { newDone <- f.ctrl.Refresh(ctx) }()
	<-f.fetcher.started

	close(oldGate)
	require.NoError(t, <-oldDone)
	assert.Equal(t, PhaseLoading, f.ctrl.State().Phase, "refresh still owns the loading flag")

	close(newGate)
	require.NoError(t, <-newDone)
	s := f.ctrl.State()
	assert.Equal(t, PhaseIdle, s.Phase)
	require.Len(t, s.Jobs, 1)
	assert.Equal(t, int64(2), s.Jobs[0].ID)
}

func TestToggleBookmarkIdempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	raw := json.RawMessage(`{"id":9,"title":"Plumber"}`)

	job, on, err := f.ctrl.ToggleBookmark(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, int64(9), job.ID)
	assert.True(t, on)
	assert.True(t, f.ctrl.IsBookmarked(9))

	_, off, err := f.ctrl.ToggleBookmark(ctx, raw)
	require.NoError(t, err)
	assert.False(t, off)
	assert.False(t, f.ctrl.IsBookmarked(9))
	assert.Empty(t, f.ctrl.Bookmarks())

	stored, err := f.kv.Get(ctx, bookmark.Key)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(stored))
}

func TestToggleBookmarkPersistsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.ctrl.ToggleBookmark(ctx, json.RawMessage(`{"id":1,"title":"A","extra":{"k":"v"}}`))
	require.NoError(t, err)
	_, _, err = f.ctrl.ToggleBookmark(ctx, json.RawMessage(`{"id":2,"title":"B"}`))
	require.NoError(t, err)

	stored, err := f.kv.Get(ctx, bookmark.Key)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"A","extra":{"k":"v"}},{"id":2,"title":"B"}]`, string(stored))

	// A fresh controller over the same storage sees the same set.
	other := NewController(f.fetcher, bookmark.NewStore(f.kv, logger.Nop()), logger.Nop())
	loaded := other.LoadBookmarks(ctx)
	require.Len(t, loaded, 2)
	assert.True(t, other.IsBookmarked(1))
	assert.True(t, other.IsBookmarked(2))
}

func TestToggleBookmarkRejectsInvalidJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, raw := range []string{`{"id":"9"}`, `{"title":"no id"}`, `null`} {
		_, _, err := f.ctrl.ToggleBookmark(ctx, json.RawMessage(raw))
		assert.ErrorIs(t, err, domain.ErrInvalidJob, raw)
	}
	assert.Empty(t, f.ctrl.Bookmarks())

	_, err := f.kv.Get(ctx, bookmark.Key)
	assert.Error(t, err, "nothing persisted")
}

func TestToggleBookmarkRevertsOnPersistFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.ctrl.ToggleBookmark(ctx, json.RawMessage(`{"id":1}`))
	require.NoError(t, err)

	f.kv.FailWrites(errors.New("quota exceeded"))

	_, on, err := f.ctrl.ToggleBookmark(ctx, json.RawMessage(`{"id":2}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, bookmark.ErrPersist)
	assert.False(t, on)
	assert.False(t, f.ctrl.IsBookmarked(2))

	_, on, err = f.ctrl.ToggleBookmark(ctx, json.RawMessage(`{"id":1}`))
	require.Error(t, err)
	assert.True(t, on, "membership unchanged after a failed removal")
	assert.True(t, f.ctrl.IsBookmarked(1))
	assert.Len(t, f.ctrl.Bookmarks(), 1)
}

func TestToggleBookmarkByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.fetcher.on(1, response{page: validPage(t, 1, 3)})
	require.NoError(t, f.ctrl.FetchPage(ctx, 1, false))

	on, err := f.ctrl.ToggleBookmarkByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, on)

	_, err = f.ctrl.ToggleBookmarkByID(ctx, 404)
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRemoveBookmark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.ctrl.ToggleBookmark(ctx, json.RawMessage(`{"id":1}`))
	require.NoError(t, err)
	_, _, err = f.ctrl.ToggleBookmark(ctx, json.RawMessage(`{"id":2}`))
	require.NoError(t, err)

	require.NoError(t, f.ctrl.RemoveBookmark(ctx, 1))
	require.NoError(t, f.ctrl.RemoveBookmark(ctx, 42))

	got := f.ctrl.Bookmarks()
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestFindPrefersFeedThenBookmarks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.ctrl.ToggleBookmark(ctx, json.RawMessage(`{"id":500,"title":"Saved earlier"}`))
	require.NoError(t, err)

	f.fetcher.on(1, response{page: validPage(t, 1, 2)})
	require.NoError(t, f.ctrl.FetchPage(ctx, 1, false))

	j, ok := f.ctrl.Find(1)
	require.True(t, ok)
	assert.Equal(t, domain.Text("Job 1"), j.Title)

	j, ok = f.ctrl.Find(500)
	require.True(t, ok)
	assert.Equal(t, domain.Text("Saved earlier"), j.Title)

	_, ok = f.ctrl.Find(999)
	assert.False(t, ok)
}
