package session

import (
	"context"
	"time"
)

// Store is a TTL-bounded keyed repository of session records.
//
// Load returns (nil, nil) when no live record exists for the key; an
// expired record counts as absent and is evicted as a side effect.
// Save upserts by the record's own key, atomically with respect to
// concurrent readers. Sweep removes every expired record and reports how
// many were dropped.
type Store interface {
	Load(ctx context.Context, key Key) (*Context, error)
	Save(ctx context.Context, sess *Context) error
	Sweep(ctx context.Context, now time.Time) (int, error)
}
