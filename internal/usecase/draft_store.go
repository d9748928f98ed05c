package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DraftStore keeps drafts for a bounded time. Implementations return copies, so callers
// change a draft only through Update.
type DraftStore interface {
	Save(d *Draft)
	Get(id uuid.UUID, now time.Time) (*Draft, bool)
	Update(id uuid.UUID, now time.Time, fn func(d *Draft) error) (*Draft, error)
	Sweep(now time.Time) int
}

type memoryDraftStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[uuid.UUID]*Draft
}

func NewMemoryDraftStore(ttl time.Duration) DraftStore {
	return &memoryDraftStore{
		ttl:    ttl,
		drafts: make(map[uuid.UUID]*Draft),
	}
}

// submitGrace is how long an in-flight submit may outlive the TTL before its draft is dropped.
const submitGrace = 10 * time.Minute

func (s *memoryDraftStore) expired(d *Draft, now time.Time) bool {
	if s.ttl <= 0 {
		return false
	}
	limit := s.ttl
	if d.Submitting {
		limit += submitGrace
	}
	return now.Sub(d.UpdatedAt) > limit
}

func (s *memoryDraftStore) Save(d *Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *d
	s.drafts[d.ID] = &cp
}

func (s *memoryDraftStore) Get(id uuid.UUID, now time.Time) (*Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return nil, false
	}
	if s.expired(d, now) {
		delete(s.drafts, id)
		return nil, false
	}

	cp := *d
	return &cp, true
}

// Update runs fn on the stored draft under the store lock. fn must not block.
// The draft is only replaced when fn succeeds.
func (s *memoryDraftStore) Update(id uuid.UUID, now time.Time, fn func(d *Draft) error) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok || s.expired(d, now) {
		delete(s.drafts, id)
		return nil, ErrDraftNotFound
	}

	cp := *d
	if err := fn(&cp); err != nil {
		return nil, err
	}
	s.drafts[id] = &cp

	out := cp
	return &out, nil
}

func (s *memoryDraftStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, d := range s.drafts {
		if s.expired(d, now) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}
