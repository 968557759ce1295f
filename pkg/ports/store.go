package ports

import (
	"context"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
)

// SessionStore defines the interface for persisting transfer sessions.
// This allows for durable execution, enabling "stop & resume" transfers.
type SessionStore interface {
	// Save persists the session record under its ID.
	Save(ctx context.Context, id string, session domain.Session) error

	// Load retrieves the session record for the given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, id string) (domain.Session, error)

	// Remove deletes the session record for the given ID. Removing an
	// absent session is not an error.
	Remove(ctx context.Context, id string) error

	// List returns the IDs of all persisted sessions.
	List(ctx context.Context) ([]string, error)
}
