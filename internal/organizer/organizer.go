package organizer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Profile marks an account as allowed to run campaigns. It is materialized
// lazily on the first privileged action and at most once per account.
type Profile struct {
	ID        string
	AccountID string
	CreatedAt time.Time
}

// Repository persists organizer profiles.
type Repository interface {
	// Ensure creates the profile for the account if missing and returns it
	// either way, reporting whether it was created by this call. The
	// get-or-create must be atomic under concurrent calls for the same
	// account.
	Ensure(ctx context.Context, accountID string) (Profile, bool, error)

	// FindByAccount returns the profile for an account, if any.
	FindByAccount(ctx context.Context, accountID string) (Profile, error)
}

// ErrNoProfile is returned when the account has no organizer profile.
var ErrNoProfile = errors.New("organizer profile not found")

// PostgresRepository stores profiles in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed organizer repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Ensure relies on the unique constraint on account_id: the insert is a
// no-op when the profile already exists, then the select returns the
// winner.
func (r *PostgresRepository) Ensure(ctx context.Context, accountID string) (Profile, bool, error) {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return Profile{}, false, err
	}

	cmd, err := r.db.Exec(ctx, `INSERT INTO organizer_profiles (id, account_id, created_at)
        VALUES ($1, $2, $3) ON CONFLICT (account_id) DO NOTHING`,
		uuid.New(), acctID, time.Now().UTC())
	if err != nil {
		return Profile{}, false, err
	}
	created := cmd.RowsAffected() == 1

	profile, err := r.FindByAccount(ctx, accountID)
	if err != nil {
		return Profile{}, false, err
	}
	return profile, created, nil
}

// FindByAccount fetches the profile for an account.
func (r *PostgresRepository) FindByAccount(ctx context.Context, accountID string) (Profile, error) {
	acctID, err := uuid.Parse(accountID)
	if err != nil {
		return Profile{}, ErrNoProfile
	}
	row := r.db.QueryRow(ctx, `SELECT id, account_id, created_at FROM organizer_profiles WHERE account_id = $1`, acctID)
	var (
		p         Profile
		id        uuid.UUID
		account   uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &account, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNoProfile
		}
		return Profile{}, err
	}
	p.ID = id.String()
	p.AccountID = account.String()
	p.CreatedAt = createdAt.UTC()
	return p, nil
}

type memoryRepository struct {
	mu       sync.Mutex
	profiles map[string]Profile
}

// NewMemoryRepository builds an in-memory organizer repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{profiles: make(map[string]Profile)}
}

func (r *memoryRepository) Ensure(_ context.Context, accountID string) (Profile, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.profiles[accountID]; ok {
		return existing, false, nil
	}
	profile := Profile{ID: uuid.NewString(), AccountID: accountID, CreatedAt: time.Now().UTC()}
	r.profiles[accountID] = profile
	return profile, true, nil
}

func (r *memoryRepository) FindByAccount(_ context.Context, accountID string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[accountID]
	if !ok {
		return Profile{}, ErrNoProfile
	}
	return profile, nil
}
