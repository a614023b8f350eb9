package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/MrSnakeDoc/jobfeed/internal/domain"
	"github.com/MrSnakeDoc/jobfeed/internal/logger"
	"github.com/MrSnakeDoc/jobfeed/internal/store"
)

// Key is the persistence slot of the bookmark set. The schema version is part
// of the key: an incompatible format gets a new key instead of a migration.
const Key = "@JobApp:bookmarks_v1"

// ErrPersist wraps every failure to write the bookmark set.
var ErrPersist = errors.New("failed to persist bookmarks")

// Store reads and writes the whole bookmark set as one JSON array.
// It has no concurrency control of its own: concurrent Saves race and the
// last write wins. Callers serialize mutations.
type Store struct {
	kv  store.KV
	log logger.Logger
}

func NewStore(kv store.KV, log logger.Logger) *Store {
	return &Store{
		kv:  kv,
		log: log.With(logger.String("key", Key)),
	}
}

// Load returns the persisted set, or an empty one when nothing usable is
// stored. Read and decode failures are logged, never returned.
func (s *Store) Load(ctx context.Context) []domain.Job {
	data, err := s.kv.Get(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.Job{}
	}
	if err != nil {
		s.log.Error("failed to load bookmarks", logger.Error(err))
		return []domain.Job{}
	}

	jobs, err := decode(data)
	if err != nil {
		s.log.Error("failed to decode bookmarks, starting empty",
			logger.String("size", humanize.Bytes(uint64(len(data)))),
			logger.Error(err))
		return []domain.Job{}
	}

	return s.keepValid(jobs)
}

// Save overwrites the persisted set with bookmarks. A nil slice is stored as
// an empty array. Failures are logged and returned wrapped in ErrPersist.
func (s *Store) Save(ctx context.Context, bookmarks []domain.Job) error {
	if bookmarks == nil {
		bookmarks = []domain.Job{}
	}

	data, err := json.Marshal(bookmarks)
	if err != nil {
		s.log.Error("failed to encode bookmarks", logger.Error(err))
		return fmt.Errorf("%w: encode: %v", ErrPersist, err)
	}

	if err := s.kv.Set(ctx, Key, data); err != nil {
		s.log.Error("failed to save bookmarks", logger.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.log.Debug("bookmarks saved",
		logger.Int("count", len(bookmarks)),
		logger.String("size", humanize.Bytes(uint64(len(data)))))
	return nil
}

// decode accepts only a JSON array. A stored object, scalar or null is an
// error so the caller falls back to an empty set.
func decode(data []byte) ([]json.RawMessage, error) {
	var probe interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if _, ok := probe.([]interface{}); !ok {
		return nil, fmt.Errorf("stored value is %T, not an array", probe)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

// keepValid drops entries without a numeric id and later duplicates of an id.
func (s *Store) keepValid(raws []json.RawMessage) []domain.Job {
	jobs := make([]domain.Job, 0, len(raws))
	seen := make(map[int64]bool, len(raws))

	for i, raw := range raws {
		j, err := domain.ParseJob(raw)
		if err != nil {
			s.log.Warn("skipping invalid stored bookmark",
				logger.Int("index", i),
				logger.Error(err))
			continue
		}
		if seen[j.ID] {
			s.log.Warn("skipping duplicate stored bookmark", logger.Int64("id", j.ID))
			continue
		}
		seen[j.ID] = true
		jobs = append(jobs, j)
	}

	return jobs
}
