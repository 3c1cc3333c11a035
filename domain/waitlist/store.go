package waitlist

import (
	"context"

	"github.com/akeren/waitlist-api/config"
)

//go:generate mockgen -source=store.go -destination=mock_store_test.go -package=waitlist

// WaitlistStore is one storage stage. A DATABASE_ERROR from either method means
// "try the next stage"; success, a duplicate or any other error is final.
type WaitlistStore interface {
	// Name identifies the stage in responses, logs and metrics.
	Name() StorageKind
	// Submit records email and returns the new entry's id.
	Submit(ctx context.Context, email string) (string, error)
	// List returns every entry in the stage's response shape.
	List(ctx context.Context) (*ListWaitlistResponse, error)
}

// StageProvider yields the ordered stages for one request.
type StageProvider interface {
	Stages(ctx context.Context) []WaitlistStore
}

// StageProviderFunc adapts a plain function to StageProvider.
type StageProviderFunc func(ctx context.Context) []WaitlistStore

func (f StageProviderFunc) Stages(ctx context.Context) []WaitlistStore {
	return f(ctx)
}

// DatabaseResolver hands out the process-wide database connection outcome.
type DatabaseResolver interface {
	Resolve(ctx context.Context) config.DatabaseResolution
}
