package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Registry is the visited set shared by every dispatch of a crawl session.
// Add is the only synchronisation point preventing duplicate dispatch: it must be an
// atomic check-and-insert reporting whether this call inserted url.
//
// Clear must not be called while a crawl is running; callers own that ordering.
type Registry interface {
	Contains(ctx context.Context, url string) (bool, error)
	Add(ctx context.Context, url string) (bool, error)
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	Close() error
}

func generateID(uniqueKey string) string {
	hash := sha256.Sum256([]byte(uniqueKey))
	return hex.EncodeToString(hash[:8])
}
