package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/jobfeed/internal/domain"
	"github.com/MrSnakeDoc/jobfeed/internal/logger"
	"github.com/MrSnakeDoc/jobfeed/internal/store/badger"
	"github.com/MrSnakeDoc/jobfeed/internal/store/memory"
)

func parseJobs(t *testing.T, raws ...string) []domain.Job {
	t.Helper()
	jobs := make([]domain.Job, 0, len(raws))
	for _, raw := range raws {
		j, err := domain.ParseJob([]byte(raw))
		require.NoError(t, err)
		jobs = append(jobs, j)
	}
	return jobs
}

func TestLoadEmptyWhenAbsent(t *testing.T) {
	s := NewStore(memory.New(), logger.Nop())

	got := s.Load(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadInvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "not json"},
		{name: "object", payload: `{"id": 1}`},
		{name: "null", payload: `null`},
		{name: "number", payload: `42`},
		{name: "truncated", payload: `[{"id": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := memory.New()
			require.NoError(t, kv.Set(context.Background(), Key, []byte(tt.payload)))

			got := NewStore(kv, logger.Nop()).Load(context.Background())
			require.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestLoadSkipsInvalidAndDuplicateEntries(t *testing.T) {
	kv := memory.New()
	payload := `[{"id":1,"title":"a"},{"id":"2"},null,{"id":3},{"id":1,"title":"dup"}]`
	require.NoError(t, kv.Set(context.Background(), Key, []byte(payload)))

	got := NewStore(kv, logger.Nop()).Load(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, domain.Text("a"), got[0].Title)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(memory.New(), logger.Nop())
	ctx := context.Background()

	jobs := parseJobs(t,
		`{"id":10,"title":"Tailor","primary_details":{"Place":"Surat"},"extra":[1,2]}`,
		`{"id":11,"company_name":"Stitch Co","salary_min":8000,"salary_max":12000}`,
	)
	require.NoError(t, s.Save(ctx, jobs))

	got := s.Load(ctx)
	require.Len(t, got, 2)
	for i := range jobs {
		want, err := json.Marshal(jobs[i])
		require.NoError(t, err)
		have, err := json.Marshal(got[i])
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(have))
	}
}

func TestSaveOverwritesWholeSet(t *testing.T) {
	kv := memory.New()
	s := NewStore(kv, logger.Nop())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, parseJobs(t, `{"id":1}`, `{"id":2}`)))
	require.NoError(t, s.Save(ctx, parseJobs(t, `{"id":3}`)))

	got := s.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
}

func TestSaveNilStoresEmptyArray(t *testing.T) {
	kv := memory.New()
	s := NewStore(kv, logger.Nop())

	require.NoError(t, s.Save(context.Background(), nil))

	raw, err := kv.Get(context.Background(), Key)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestSaveReportsWriteFailure(t *testing.T) {
	kv := memory.New()
	kv.FailWrites(errors.New("disk full"))
	s := NewStore(kv, logger.Nop())

	err := s.Save(context.Background(), parseJobs(t, `{"id":1}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	assert.Contains(t, err.Error(), "disk full")
}

func TestStoreOnBadger(t *testing.T) {
	kv, err := badger.Open(t.TempDir())
	require.NoError(t, err)
	defer kv.Close()

	s := NewStore(kv, logger.Nop())
	ctx := context.Background()

	assert.Empty(t, s.Load(ctx))
	require.NoError(t, s.Save(ctx, parseJobs(t, `{"id":77,"title":"Security Guard"}`)))

	got := s.Load(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Text("Security Guard"), got[0].Title)
}
