// Package session maps opaque cookie tokens to signed-in customers.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a session stays valid after it is created.
const DefaultTTL = 24 * time.Hour

// Store is the server-side session table.
type Store interface {
	// Create binds a fresh token to customerID.
	Create(ctx context.Context, customerID uint) (string, error)
	// Lookup returns the bound customer, or false when the token is unknown or expired.
	Lookup(ctx context.Context, token string) (uint, bool, error)
	// Destroy forgets everything stored for token. Unknown tokens are not an error.
	Destroy(ctx context.Context, token string) error
}

func newToken() string {
	return uuid.NewString()
}
