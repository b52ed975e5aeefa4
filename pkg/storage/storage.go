package storage

import (
	"context"
	"time"
)

// ObjectStore persists rendered export files and hands out time-limited download URLs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	URL(ctx context.Context, exportID, key string) (string, time.Time, error)
}
