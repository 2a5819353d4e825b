package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/acolhe/acolhe/internal/logging"
)

type captureNotifier struct {
	mu      sync.Mutex
	lastTo  string
	lastSub string
	sent    int
	fail    bool
}

func (n *captureNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("smtp down")
	}
	n.lastTo = to
	n.lastSub = subject
	n.sent++
	return nil
}

func newTestService(notifier *captureNotifier) (*Service, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := &now
	svc := NewService(NewMemoryStore(), notifier, 10*time.Minute, 3, 24*time.Hour, logging.Discard()).
		WithClock(func() time.Time { return *current })
	return svc, current
}

func TestIssueInvalidatesPreviousCode(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})
	ctx := context.Background()

	first, err := svc.Issue(ctx, "User@Example.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("issue first: %v", err)
	}
	second, err := svc.Issue(ctx, "user@example.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("issue second: %v", err)
	}

	if _, err := svc.Validate(ctx, "user@example.com", first.Code, PurposeRegistration); !errors.Is(err, ErrInvalidCode) {
		if first.Code == second.Code {
			t.Skip("generated codes collided")
		}
		t.Fatalf("first code should be invalid after re-issue, got %v", err)
	}
	if _, err := svc.Validate(ctx, "user@example.com", second.Code, PurposeRegistration); err != nil {
		t.Fatalf("second code should validate: %v", err)
	}
}

func TestIssueNormalizesEmail(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})
	ctx := context.Background()

	code, err := svc.Issue(ctx, "  MiXeD@Example.COM ", PurposeLogin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if code.Email != "mixed@example.com" {
		t.Fatalf("expected normalized email, got %q", code.Email)
	}
	if _, err := svc.Validate(ctx, "mixed@example.com", code.Code, PurposeLogin); err != nil {
		t.Fatalf("validate with normalized email: %v", err)
	}
}

func TestValidateExpiryBoundary(t *testing.T) {
	svc, clock := newTestService(&captureNotifier{})
	ctx := context.Background()

	code, err := svc.Issue(ctx, "a@x.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// One second before expiry still validates.
	*clock = code.ExpiresAt.Add(-time.Second)
	if _, err := svc.Validate(ctx, "a@x.com", code.Code, PurposeRegistration); err != nil {
		t.Fatalf("validate just before expiry: %v", err)
	}

	// Fresh code, one second past expiry.
	*clock = code.IssuedAt
	code, err = svc.Issue(ctx, "a@x.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("re-issue: %v", err)
	}
	*clock = code.ExpiresAt.Add(time.Second)
	if _, err := svc.Validate(ctx, "a@x.com", code.Code, PurposeRegistration); !errors.Is(err, ErrExpiredCode) {
		t.Fatalf("expected expired, got %v", err)
	}

	// An expired retry is not a guessing attempt.
	*clock = code.IssuedAt
	latest, err := svc.store.LatestUnused(ctx, "a@x.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("latest unused: %v", err)
	}
	if latest.Attempts != 0 {
		t.Fatalf("expired validate must not increment attempts, got %d", latest.Attempts)
	}
}

func TestValidateAttemptCeiling(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})
	ctx := context.Background()

	code, err := svc.Issue(ctx, "a@x.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	wrong := "000000"
	if wrong == code.Code {
		wrong = "000001"
	}

	want := []error{ErrInvalidCode, ErrInvalidCode, ErrLockedCode, ErrLockedCode}
	for i, expected := range want {
		_, err := svc.Validate(ctx, "a@x.com", wrong, PurposeRegistration)
		if !errors.Is(err, expected) {
			t.Fatalf("call %d: expected %v, got %v", i+1, expected, err)
		}
	}

	latest, err := svc.store.LatestUnused(ctx, "a@x.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("latest unused: %v", err)
	}
	if latest.Attempts != 3 {
		t.Fatalf("attempts must cap at 3, got %d", latest.Attempts)
	}

	// Even the correct code is refused once locked.
	if _, err := svc.Validate(ctx, "a@x.com", code.Code, PurposeRegistration); !errors.Is(err, ErrLockedCode) {
		t.Fatalf("expected locked for correct code, got %v", err)
	}
}

func TestValidateConsumesOnce(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})
	ctx := context.Background()

	code, err := svc.Issue(ctx, "a@x.com", PurposeLogin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	validated, err := svc.Validate(ctx, "a@x.com", code.Code, PurposeLogin)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validated.UsedAt == nil {
		t.Fatal("expected used_at to be set")
	}

	if _, err := svc.Validate(ctx, "a@x.com", code.Code, PurposeLogin); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("used code must report invalid, got %v", err)
	}
}

func TestValidateUnknownEmailSameAsWrongCode(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})
	ctx := context.Background()

	// No code at all.
	_, errNoCode := svc.Validate(ctx, "nobody@x.com", "123456", PurposeRegistration)

	// Outstanding code, wrong guess.
	code, err := svc.Issue(ctx, "somebody@x.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	wrong := "000000"
	if wrong == code.Code {
		wrong = "000001"
	}
	_, errWrong := svc.Validate(ctx, "somebody@x.com", wrong, PurposeRegistration)

	if !errors.Is(errNoCode, ErrInvalidCode) || !errors.Is(errWrong, ErrInvalidCode) {
		t.Fatalf("expected identical invalid errors, got %v and %v", errNoCode, errWrong)
	}
	if errNoCode.Error() != errWrong.Error() {
		t.Fatalf("error text must not distinguish the cases: %q vs %q", errNoCode, errWrong)
	}
}

func TestNotifierFailureSurfacesAndKeepsCode(t *testing.T) {
	notifier := &captureNotifier{fail: true}
	svc, _ := newTestService(notifier)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "a@x.com", PurposeRegistration); !errors.Is(err, ErrNotify) {
		t.Fatalf("expected notify error, got %v", err)
	}

	// The code persisted; a retried issue invalidates it and succeeds.
	if _, err := svc.store.LatestUnused(ctx, "a@x.com", PurposeRegistration); err != nil {
		t.Fatalf("code should remain after delivery failure: %v", err)
	}
	notifier.fail = false
	code, err := svc.Issue(ctx, "a@x.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("retry issue: %v", err)
	}
	if _, err := svc.Validate(ctx, "a@x.com", code.Code, PurposeRegistration); err != nil {
		t.Fatalf("validate retried code: %v", err)
	}
}

func TestConcurrentWrongValidatesCapAttempts(t *testing.T) {
	svc, _ := newTestService(&captureNotifier{})
	ctx := context.Background()

	code, err := svc.Issue(ctx, "a@x.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	wrong := "000000"
	if wrong == code.Code {
		wrong = "000001"
	}

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = svc.Validate(ctx, "a@x.com", wrong, PurposeRegistration)
		}()
	}
	wg.Wait()

	latest, err := svc.store.LatestUnused(ctx, "a@x.com", PurposeRegistration)
	if err != nil {
		t.Fatalf("latest unused: %v", err)
	}
	if latest.Attempts != 3 {
		t.Fatalf("attempts must cap at exactly 3, got %d", latest.Attempts)
	}
}

func TestSweeperRemovesAgedCodes(t *testing.T) {
	svc, clock := newTestService(&captureNotifier{})
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "old@x.com", PurposeRegistration); err != nil {
		t.Fatalf("issue: %v", err)
	}

	*clock = clock.Add(25 * time.Hour)
	removed, err := svc.store.DeleteIssuedBefore(ctx, clock.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
}

func TestParsePurposeRejectsUnknown(t *testing.T) {
	for _, valid := range []string{"registration", "login", "password_reset"} {
		if _, err := ParsePurpose(valid); err != nil {
			t.Fatalf("expected %q to parse: %v", valid, err)
		}
	}
	if _, err := ParsePurpose("sms"); err == nil {
		t.Fatal("expected unknown purpose to be rejected")
	}
}
