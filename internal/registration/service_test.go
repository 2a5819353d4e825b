package registration

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/auth"
	"github.com/acolhe/acolhe/internal/logging"
	"github.com/acolhe/acolhe/internal/organizer"
	"github.com/acolhe/acolhe/internal/pending"
	"github.com/acolhe/acolhe/internal/verification"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

type captureNotifier struct {
	mu       sync.Mutex
	lastCode string
	sent     int
	fail     bool
}

func (n *captureNotifier) Send(_ context.Context, _, _, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("smtp down")
	}
	n.lastCode = codePattern.FindString(body)
	n.sent++
	return nil
}

type fixture struct {
	svc      *Service
	accounts account.Repository
	staged   pending.Store
	codes    *verification.Service
	notifier *captureNotifier
}

func newFixture() *fixture {
	logger := logging.Discard()
	notifier := &captureNotifier{}
	accounts := account.NewMemoryRepository()
	staged := pending.NewMemoryStore()
	codes := verification.NewService(verification.NewMemoryStore(), notifier,
		10*time.Minute, 3, 24*time.Hour, logger)
	issuer := auth.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	svc := NewService(accounts, staged, codes, organizer.NewMemoryRepository(), issuer, 15*time.Minute, logger)
	return &fixture{svc: svc, accounts: accounts, staged: staged, codes: codes, notifier: notifier}
}

func validInput() StartInput {
	return StartInput{
		Username: "ana",
		Email:    "a@x.com",
		Password: "Secret123!",
		Name:     "Ana Silva",
		CPF:      "529.982.247-25",
		City:     "Recife",
		Role:     RoleDonor,
	}
}

func TestStartThenConfirmCreatesAccount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.Start(ctx, validInput()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if f.notifier.lastCode == "" {
		t.Fatal("expected a code to be emailed")
	}

	out, err := f.svc.Confirm(ctx, "a@x.com", f.notifier.lastCode)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if out.Account.Username != "ana" || out.Account.Type != account.TypeDonor {
		t.Fatalf("unexpected account: %+v", out.Account)
	}
	if out.Tokens.AccessToken == "" || out.Tokens.RefreshToken == "" {
		t.Fatal("expected a non-empty credential pair")
	}
	if out.Account.CPF != "52998224725" {
		t.Fatalf("expected normalized cpf, got %q", out.Account.CPF)
	}

	// The staged payload is gone and the code is burnt.
	if _, err := f.staged.Get(ctx, "a@x.com"); !errors.Is(err, pending.ErrNotFound) {
		t.Fatalf("expected staged payload to be deleted, got %v", err)
	}
	if _, err := f.svc.Confirm(ctx, "a@x.com", f.notifier.lastCode); !errors.Is(err, verification.ErrInvalidCode) {
		t.Fatalf("expected second confirm to report invalid code, got %v", err)
	}
}

func TestStartRejectsTakenEmailWithoutSideEffects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	existing := account.Account{
		ID:       "3f0e8a1a-92c9-4d77-8f65-19d53a4da0a1",
		Username: "taken",
		Email:    "a@x.com",
		Type:     account.TypeDonor,
	}
	if err := f.accounts.Create(ctx, existing); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	err := f.svc.Start(ctx, validInput())
	if !errors.Is(err, account.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.notifier.sent != 0 {
		t.Fatal("no code may be issued for a conflicting payload")
	}
	if _, err := f.staged.Get(ctx, "a@x.com"); !errors.Is(err, pending.ErrNotFound) {
		t.Fatal("no payload may be staged for a conflicting payload")
	}
}

func TestStartValidatesPayload(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := map[string]func(*StartInput){
		"missing username": func(in *StartInput) { in.Username = "" },
		"bad email":        func(in *StartInput) { in.Email = "not-an-email" },
		"weak password":    func(in *StartInput) { in.Password = "short" },
		"bad cpf":          func(in *StartInput) { in.CPF = "123.456.789-00" },
		"unknown role":     func(in *StartInput) { in.Role = "admin" },
	}
	for name, mutate := range cases {
		in := validInput()
		mutate(&in)
		if err := f.svc.Start(ctx, in); !errors.Is(err, account.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
	if f.notifier.sent != 0 {
		t.Fatal("invalid payloads must not trigger issuance")
	}
}

func TestConfirmWithLapsedPayloadIsTerminal(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.Start(ctx, validInput()); err != nil {
		t.Fatalf("start: %v", err)
	}
	code := f.notifier.lastCode

	// Simulate the cache entry lapsing while the code is still live.
	if err := f.staged.Delete(ctx, "a@x.com"); err != nil {
		t.Fatalf("delete staged: %v", err)
	}

	if _, err := f.svc.Confirm(ctx, "a@x.com", code); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}

	// The code stays used: no resurrection.
	if _, err := f.codes.Validate(ctx, "a@x.com", code, verification.PurposeRegistration); !errors.Is(err, verification.ErrInvalidCode) {
		t.Fatalf("expected code to stay consumed, got %v", err)
	}
}

func TestConfirmOrganizerCreatesProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := validInput()
	in.Role = RoleOrganizer
	if err := f.svc.Start(ctx, in); err != nil {
		t.Fatalf("start: %v", err)
	}

	out, err := f.svc.Confirm(ctx, "a@x.com", f.notifier.lastCode)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if out.Organizer == nil {
		t.Fatal("expected organizer profile to be created")
	}
	if out.Account.Type != account.TypeDonor {
		t.Fatalf("organizer accounts are stored as donors, got %q", out.Account.Type)
	}
	if out.Organizer.AccountID != out.Account.ID {
		t.Fatalf("profile bound to wrong account: %+v", out.Organizer)
	}
}

func TestConfirmLosesUniquenessRace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.Start(ctx, validInput()); err != nil {
		t.Fatalf("start: %v", err)
	}
	code := f.notifier.lastCode

	// A concurrent registration confirms the same username first.
	rival := account.Account{
		ID:       "95b7a9e5-1f26-4b6f-9f3e-6f2f0f4dd0b2",
		Username: "ana",
		Email:    "rival@x.com",
		Type:     account.TypeDonor,
	}
	if err := f.accounts.Create(ctx, rival); err != nil {
		t.Fatalf("seed rival: %v", err)
	}

	if _, err := f.svc.Confirm(ctx, "a@x.com", code); !errors.Is(err, account.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// The code is burnt and the payload is not restaged as new.
	if _, err := f.codes.Validate(ctx, "a@x.com", code, verification.PurposeRegistration); !errors.Is(err, verification.ErrInvalidCode) {
		t.Fatalf("expected code to stay consumed, got %v", err)
	}
}

func TestRepeatedStartReissues(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if err := f.svc.Start(ctx, validInput()); err != nil {
		t.Fatalf("first start: %v", err)
	}
	first := f.notifier.lastCode

	if err := f.svc.Start(ctx, validInput()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	second := f.notifier.lastCode

	if first != second {
		if _, err := f.svc.Confirm(ctx, "a@x.com", first); !errors.Is(err, verification.ErrInvalidCode) {
			t.Fatalf("first code must be invalid after re-start, got %v", err)
		}
	}
	if _, err := f.svc.Confirm(ctx, "a@x.com", second); err != nil {
		t.Fatalf("second code must confirm: %v", err)
	}
}
