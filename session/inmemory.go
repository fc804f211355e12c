package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"financebuddy/core/apperr"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is a hash map keyed by session ID; expiry is checked
// against each entry's ExpiresAt rather than a separate index structure,
// since CleanupExpired already does a full scan (spec.md §4.10 allows
// either shape for "hash map + expiry index").
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return NewInMemoryStoreWithTTL(DefaultTTL)
}

// NewInMemoryStoreWithTTL is NewInMemoryStore with a caller-chosen session
// lifetime (spec.md §6's SESSION_TTL_MINUTES).
func NewInMemoryStoreWithTTL(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context, topic string, count int, userID string) (Session, error) {
	now := s.now()
	sess := Session{
		ID:           uuid.NewString(),
		Topic:        topic,
		Count:        count,
		UserID:       userID,
		Step:         StepInput,
		UserAnswers:  make(map[string]string),
		Explanations: make(map[string]string),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
		Version:      1,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess, nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || sess.expired(s.now()) {
		return Session{}, apperr.New(apperr.KindNotFound, "session: not found: "+id)
	}
	return sess.Clone(), nil
}

// Update applies mutator optimistically: it reads a snapshot, runs mutator
// against it (outside the lock, since mutators may be arbitrarily slow),
// then swaps in the result only if nothing else changed the stored
// session's Version in the meantime (spec.md §4.10's compare-and-swap).
func (s *InMemoryStore) Update(ctx context.Context, id string, mutator Mutator) (Session, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}

	after, err := mutator(before)
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok || current.expired(s.now()) {
		return Session{}, apperr.New(apperr.KindNotFound, "session: not found: "+id)
	}
	if current.Version != before.Version {
		return Session{}, apperr.New(apperr.KindConflict, "CONFLICT: session "+id+" was modified concurrently")
	}

	after.ID = id
	after.Version = before.Version + 1
	s.sessions[id] = after
	return after.Clone(), nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *InMemoryStore) Extend(_ context.Context, id string, minutes int) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.expired(s.now()) {
		return Session{}, apperr.New(apperr.KindNotFound, "session: not found: "+id)
	}

	sess.ExpiresAt = sess.ExpiresAt.Add(time.Duration(minutes) * time.Minute)
	sess.Version++
	s.sessions[id] = sess
	return sess.Clone(), nil
}

func (s *InMemoryStore) CleanupExpired(_ context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}
