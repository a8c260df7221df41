package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mobilecsp/activityscores/internal/domain/model"
)

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the timestamp source used for appended events.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStore implements Source on a mutex-guarded slice. It backs tests
// and deployments that have no durable event database.
type MemoryStore struct {
	mu     sync.RWMutex
	events []model.AttemptEvent
	now    func() time.Time
}

// NewMemoryStore creates an in-memory event source with configuration options.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records a new attempt event.
func (s *MemoryStore) Append(ctx context.Context, e model.AttemptEvent) (model.AttemptEvent, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedOn.IsZero() {
		e.RecordedOn = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return e, nil
}

// Scan streams events for the given users, oldest first.
func (s *MemoryStore) Scan(ctx context.Context, userIDs []string, opts ScanOptions, fn func(model.AttemptEvent) error) error {
	if len(userIDs) == 0 {
		return nil
	}
	opts = opts.withDefaults()

	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	matched := make([]model.AttemptEvent, 0, len(s.events))
	for _, e := range s.events {
		if _, ok := wanted[e.UserID]; ok {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].RecordedOn.Equal(matched[j].RecordedOn) {
			return matched[i].RecordedOn.Before(matched[j].RecordedOn)
		}
		return matched[i].ID < matched[j].ID
	})

	for i, e := range matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
		if opts.Progress != nil && (i+1)%opts.ReportEvery == 0 {
			opts.Progress(i + 1)
		}
	}
	if opts.Progress != nil && len(matched)%opts.ReportEvery != 0 {
		opts.Progress(len(matched))
	}
	return nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
