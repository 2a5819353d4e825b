package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/logging"
	"github.com/acolhe/acolhe/internal/organizer"
)

func newCampaignFixture(t *testing.T) (*Service, organizer.Repository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	organizers := organizer.NewMemoryRepository()
	cache := NewListCache(client, 5*time.Minute, logging.Discard())
	return NewService(NewMemoryRepository(), organizers, cache), organizers, mr
}

func TestCreateEnsuresOrganizerProfile(t *testing.T) {
	svc, organizers, _ := newCampaignFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateInput{
		AccountID: "acct-1",
		Title:     "Winter clothes drive",
		GoalCents: 500_000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	profile, err := organizers.FindByAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("expected a profile to be materialized: %v", err)
	}
	if c.OrganizerID != profile.ID {
		t.Fatalf("campaign bound to wrong organizer: %q vs %q", c.OrganizerID, profile.ID)
	}

	// A second campaign reuses the profile.
	c2, err := svc.Create(ctx, CreateInput{AccountID: "acct-1", Title: "Food baskets", GoalCents: 100})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if c2.OrganizerID != profile.ID {
		t.Fatal("second campaign must reuse the organizer profile")
	}
}

func TestCreateValidates(t *testing.T) {
	svc, _, _ := newCampaignFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{AccountID: "a", GoalCents: 100}); !errors.Is(err, account.ErrValidation) {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{AccountID: "a", Title: "x", GoalCents: 0}); !errors.Is(err, account.ErrValidation) {
		t.Fatalf("expected validation error for zero goal, got %v", err)
	}
}

func TestListServesFromCacheUntilInvalidated(t *testing.T) {
	svc, _, mr := newCampaignFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{AccountID: "a", Title: "First", GoalCents: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 campaign, got %d", len(first))
	}
	if !mr.Exists("campaigns:list:v1") {
		t.Fatal("listing should be cached after a miss")
	}

	// A write drops the cache so the next listing reflects it.
	if _, err := svc.Create(ctx, CreateInput{AccountID: "a", Title: "Second", GoalCents: 200}); err != nil {
		t.Fatalf("create second: %v", err)
	}
	if mr.Exists("campaigns:list:v1") {
		t.Fatal("cache must be invalidated on create")
	}

	second, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list again: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected 2 campaigns after invalidation, got %d", len(second))
	}
}

func TestListWithNilCacheClient(t *testing.T) {
	svc := NewService(NewMemoryRepository(), organizer.NewMemoryRepository(),
		NewListCache(nil, time.Minute, logging.Discard()))
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{AccountID: "a", Title: "Uncached", GoalCents: 100}); err != nil {
		t.Fatalf("create: %v", err)
	}
	campaigns, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(campaigns) != 1 {
		t.Fatalf("expected 1 campaign, got %d", len(campaigns))
	}
}

func TestGetMissing(t *testing.T) {
	svc, _, _ := newCampaignFixture(t)
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
