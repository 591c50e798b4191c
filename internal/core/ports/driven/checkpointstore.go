package driven

import (
	"context"

	"github.com/windward-data/sailtap/internal/core/domain"
)

// CheckpointStore persists bookmark state between runs.
type CheckpointStore interface {
	// Save stores or updates the state for an account.
	Save(ctx context.Context, account string, state *domain.State) error

	// Load retrieves the state for an account.
	// Returns domain.ErrNotFound when no checkpoint exists yet.
	Load(ctx context.Context, account string) (*domain.State, error)

	// Delete removes the state for an account.
	Delete(ctx context.Context, account string) error

	// Close releases resources.
	Close() error
}
