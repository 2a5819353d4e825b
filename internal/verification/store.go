package verification

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoCode is returned by LatestUnused when no outstanding code exists for
// the (email, purpose) pair.
var ErrNoCode = errors.New("no outstanding verification code")

// Store persists issued codes. Every mutating operation is a single atomic
// conditional update so that concurrent validations cannot both pass the
// attempt ceiling or both consume the same code.
type Store interface {
	// Create marks any outstanding unused code for the same (email, purpose)
	// as used, then inserts the new record. At most one unused code per pair
	// exists afterwards.
	Create(ctx context.Context, code Code) error

	// LatestUnused returns the most recently issued unused code for the
	// pair, regardless of its value. Returns ErrNoCode when absent.
	LatestUnused(ctx context.Context, email string, purpose Purpose) (Code, error)

	// ConsumeIfFresh sets used_at on the identified code only if it is still
	// unused, unexpired at now and below the attempt ceiling. Reports
	// whether the update applied.
	ConsumeIfFresh(ctx context.Context, id string, now time.Time, maxAttempts int) (bool, error)

	// IncrementAttempt adds one failed attempt to the identified code only
	// if it is still unused and below the ceiling. Returns the attempt count
	// after the call and whether the increment applied.
	IncrementAttempt(ctx context.Context, id string, maxAttempts int) (int, bool, error)

	// DeleteIssuedBefore removes records issued before the cutoff regardless
	// of state. Returns the number of rows removed.
	DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a Postgres-backed verification store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create invalidates prior unused codes and inserts the new one in a single
// transaction.
func (s *PostgresStore) Create(ctx context.Context, code Code) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `UPDATE verification_codes SET used_at = $3
        WHERE email = $1 AND purpose = $2 AND used_at IS NULL`,
		code.Email, string(code.Purpose), code.IssuedAt.UTC())
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO verification_codes
        (id, email, purpose, code, issued_at, expires_at, attempts)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		code.ID, code.Email, string(code.Purpose), code.Code,
		code.IssuedAt.UTC(), code.ExpiresAt.UTC(), code.Attempts)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// LatestUnused fetches the newest unused record for the pair.
func (s *PostgresStore) LatestUnused(ctx context.Context, email string, purpose Purpose) (Code, error) {
	row := s.db.QueryRow(ctx, `SELECT id, email, purpose, code, issued_at, expires_at, used_at, attempts
        FROM verification_codes
        WHERE email = $1 AND purpose = $2 AND used_at IS NULL
        ORDER BY issued_at DESC LIMIT 1`, email, string(purpose))
	return scanCode(row)
}

// ConsumeIfFresh applies the terminal success transition conditionally.
func (s *PostgresStore) ConsumeIfFresh(ctx context.Context, id string, now time.Time, maxAttempts int) (bool, error) {
	cmd, err := s.db.Exec(ctx, `UPDATE verification_codes SET used_at = $2
        WHERE id = $1 AND used_at IS NULL AND expires_at >= $2 AND attempts < $3`,
		id, now.UTC(), maxAttempts)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// IncrementAttempt counts one failed guess, guarded by the ceiling.
func (s *PostgresStore) IncrementAttempt(ctx context.Context, id string, maxAttempts int) (int, bool, error) {
	var attempts int
	err := s.db.QueryRow(ctx, `UPDATE verification_codes SET attempts = attempts + 1
        WHERE id = $1 AND used_at IS NULL AND attempts < $2
        RETURNING attempts`,
		id, maxAttempts).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return attempts, true, nil
}

// DeleteIssuedBefore sweeps aged records.
func (s *PostgresStore) DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := s.db.Exec(ctx, `DELETE FROM verification_codes WHERE issued_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanCode(row pgx.Row) (Code, error) {
	var (
		c       Code
		purpose string
		usedAt  *time.Time
	)
	err := row.Scan(&c.ID, &c.Email, &purpose, &c.Code, &c.IssuedAt, &c.ExpiresAt, &usedAt, &c.Attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Code{}, ErrNoCode
		}
		return Code{}, err
	}
	c.Purpose = Purpose(purpose)
	c.IssuedAt = c.IssuedAt.UTC()
	c.ExpiresAt = c.ExpiresAt.UTC()
	if usedAt != nil {
		t := usedAt.UTC()
		c.UsedAt = &t
	}
	return c, nil
}
