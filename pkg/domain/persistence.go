package domain

import "context"

// MissionStore is a minimal abstraction over durable mission aggregate
// storage. Aggregates are keyed by Mission.Key(). Stores own whole
// aggregates: callers must not mutate a mission concurrently with an
// in-flight store call on it.
type MissionStore interface {
	// Put stores or replaces the aggregate under its identity key.
	Put(ctx context.Context, mission Mission) error
	// Get returns the aggregate stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (Mission, error)
	// Delete removes an aggregate, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// Keys lists stored identity keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
}
