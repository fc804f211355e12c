package session

import (
	"context"
	"time"
)

// DefaultTTL is the session lifetime from creation (spec.md §4.10).
const DefaultTTL = 60 * time.Minute

// Mutator transforms a session snapshot into its next state. Update applies
// it optimistically: if the stored session changed underneath the mutator's
// computation, Update fails with CONFLICT instead of applying a stale
// mutation.
type Mutator func(s Session) (Session, error)

// Store is C10.
type Store interface {
	Create(ctx context.Context, topic string, count int, userID string) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Update(ctx context.Context, id string, mutator Mutator) (Session, error)
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, minutes int) (Session, error)
	// CleanupExpired removes every session past its ExpiresAt and returns
	// how many were removed. Calling it repeatedly once the store is clean
	// returns 0 every time.
	CleanupExpired(ctx context.Context) (int, error)
}
