package snapshot

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing was saved under the key yet.
var ErrNotFound = errors.New("snapshot not found")

// Backend stores whole-state snapshots under string keys. Save always
// overwrites the previous value.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}
