package pending

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no staged registration exists for the email.
// An expired entry is a legitimate terminal state, not a failure of the
// store.
var ErrNotFound = errors.New("pending registration not found")

// Registration is a fully validated account-creation payload staged while
// its verification code is outstanding. The password is staged as a bcrypt
// hash; the cleartext never reaches the cache.
type Registration struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	CPF          string    `json:"cpf,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	City         string    `json:"city,omitempty"`
	District     string    `json:"district,omitempty"`
	Address      string    `json:"address,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Role         string    `json:"role"`
	PasswordHash []byte    `json:"password_hash"`
	StagedAt     time.Time `json:"staged_at"`
}

// Store is the volatile staging area for registrations awaiting code
// confirmation. Keys are normalized email addresses; each operation is
// atomic per key.
type Store interface {
	Put(ctx context.Context, email string, reg Registration, ttl time.Duration) error
	Get(ctx context.Context, email string) (Registration, error)
	Delete(ctx context.Context, email string) error
}
