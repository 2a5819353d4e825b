package donation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/campaign"
)

// Donation records a contribution from a donor to a campaign.
type Donation struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaign_id"`
	DonorID     string    `json:"donor_id"`
	AmountCents int64     `json:"amount_cents"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository persists donations.
type Repository interface {
	Create(ctx context.Context, d Donation) error
	ListByCampaign(ctx context.Context, campaignID string) ([]Donation, error)
}

// PostgresRepository stores donations in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed donation repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d Donation) error {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return err
	}
	campaignID, err := uuid.Parse(d.CampaignID)
	if err != nil {
		return err
	}
	donorID, err := uuid.Parse(d.DonorID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO donations (id, campaign_id, donor_id, amount_cents, message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		id, campaignID, donorID, d.AmountCents, d.Message, d.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) ListByCampaign(ctx context.Context, campaignID string) ([]Donation, error) {
	id, err := uuid.Parse(campaignID)
	if err != nil {
		return nil, campaign.ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT id, campaign_id, donor_id, amount_cents, message, created_at
        FROM donations WHERE campaign_id = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []Donation
	for rows.Next() {
		var (
			d          Donation
			donationID uuid.UUID
			campID     uuid.UUID
			donorID    uuid.UUID
			createdAt  time.Time
		)
		if err := rows.Scan(&donationID, &campID, &donorID, &d.AmountCents, &d.Message, &createdAt); err != nil {
			return nil, err
		}
		d.ID = donationID.String()
		d.CampaignID = campID.String()
		d.DonorID = donorID.String()
		d.CreatedAt = createdAt.UTC()
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

type memoryRepository struct {
	mu        sync.RWMutex
	donations map[string]Donation
}

// NewMemoryRepository builds an in-memory donation store for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{donations: make(map[string]Donation)}
}

func (r *memoryRepository) Create(_ context.Context, d Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.donations[d.ID] = d
	return nil
}

func (r *memoryRepository) ListByCampaign(_ context.Context, campaignID string) ([]Donation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var donations []Donation
	for _, d := range r.donations {
		if d.CampaignID == campaignID {
			donations = append(donations, d)
		}
	}
	sort.Slice(donations, func(i, j int) bool {
		return donations[i].CreatedAt.After(donations[j].CreatedAt)
	})
	return donations, nil
}

// Service exposes donation operations.
type Service struct {
	repo      Repository
	campaigns campaign.Repository
}

// NewService builds a donation service instance.
func NewService(repo Repository, campaigns campaign.Repository) *Service {
	return &Service{repo: repo, campaigns: campaigns}
}

// CreateInput captures data required to record a donation.
type CreateInput struct {
	CampaignID  string
	DonorID     string
	AmountCents int64
	Message     string
}

// Create validates the donation and records it against an existing
// campaign.
func (s *Service) Create(ctx context.Context, input CreateInput) (Donation, error) {
	if input.AmountCents <= 0 {
		return Donation{}, fmt.Errorf("%w: amount must be positive", account.ErrValidation)
	}
	if _, err := s.campaigns.Get(ctx, input.CampaignID); err != nil {
		return Donation{}, err
	}

	d := Donation{
		ID:          uuid.NewString(),
		CampaignID:  input.CampaignID,
		DonorID:     input.DonorID,
		AmountCents: input.AmountCents,
		Message:     input.Message,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return Donation{}, err
	}
	return d, nil
}

// ListByCampaign returns all donations for a campaign, newest first.
func (s *Service) ListByCampaign(ctx context.Context, campaignID string) ([]Donation, error) {
	if _, err := s.campaigns.Get(ctx, campaignID); err != nil {
		return nil, err
	}
	return s.repo.ListByCampaign(ctx, campaignID)
}
