package campaign

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no campaign matches the lookup.
var ErrNotFound = errors.New("campaign not found")

// Repository persists campaigns.
type Repository interface {
	Create(ctx context.Context, c Campaign) error
	Get(ctx context.Context, id string) (Campaign, error)
	List(ctx context.Context) ([]Campaign, error)
}

// PostgresRepository stores campaigns in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed campaign repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a campaign record.
func (r *PostgresRepository) Create(ctx context.Context, c Campaign) error {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return err
	}
	organizerID, err := uuid.Parse(c.OrganizerID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO campaigns (id, organizer_id, title, description, goal_cents, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		id, organizerID, c.Title, c.Description, c.GoalCents, c.CreatedAt.UTC())
	return err
}

// Get fetches a campaign by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Campaign, error) {
	campaignID, err := uuid.Parse(id)
	if err != nil {
		return Campaign{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, organizer_id, title, description, goal_cents, created_at
        FROM campaigns WHERE id = $1`, campaignID)
	return scanCampaign(row)
}

// List returns all campaigns, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Campaign, error) {
	rows, err := r.db.Query(ctx, `SELECT id, organizer_id, title, description, goal_cents, created_at
        FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func scanCampaign(row pgx.Row) (Campaign, error) {
	var (
		c           Campaign
		id          uuid.UUID
		organizerID uuid.UUID
		createdAt   time.Time
	)
	if err := row.Scan(&id, &organizerID, &c.Title, &c.Description, &c.GoalCents, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, err
	}
	c.ID = id.String()
	c.OrganizerID = organizerID.String()
	c.CreatedAt = createdAt.UTC()
	return c, nil
}
