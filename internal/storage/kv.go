package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get when the key has never been written or was removed.
var ErrNotFound = errors.New("storage: key not found")

// KV is a minimal string key-value store. Implementations must treat removing a
// missing key as success.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
