package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/acolhe/acolhe/internal/mail"
)

var (
	// ErrInvalidCode covers both "no outstanding code" and "wrong code" so
	// that callers cannot distinguish whether an email has a code at all.
	ErrInvalidCode = errors.New("code invalid or already used")

	// ErrExpiredCode means the outstanding code is past its expiry.
	ErrExpiredCode = errors.New("code expired")

	// ErrLockedCode means the outstanding code has exhausted its attempts.
	ErrLockedCode = errors.New("maximum attempts exceeded")

	// ErrNotify means the code was issued and persisted but the email could
	// not be delivered. The caller may retry issuance; a retry invalidates
	// this code and sends a fresh one.
	ErrNotify = errors.New("verification email delivery failed")

	// ErrStoreUnavailable wraps storage failures. Always fatal to the
	// calling request.
	ErrStoreUnavailable = errors.New("verification store unavailable")
)

// Service orchestrates code issuance and validation.
type Service struct {
	store       Store
	notifier    mail.Notifier
	codeTTL     time.Duration
	maxAttempts int
	retention   time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewService wires the verification service. The clock is injectable for
// tests via WithClock.
func NewService(store Store, notifier mail.Notifier, codeTTL time.Duration, maxAttempts int, retention time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		notifier:    notifier,
		codeTTL:     codeTTL,
		maxAttempts: maxAttempts,
		retention:   retention,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Returns the service for chaining.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue generates a fresh code for (email, purpose), invalidating any prior
// unused code, persists it and emails it. Persist happens before notify so
// a failed delivery leaves a consistent, retryable state.
func (s *Service) Issue(ctx context.Context, email string, purpose Purpose) (Code, error) {
	email = NormalizeEmail(email)

	value, err := GenerateCode()
	if err != nil {
		return Code{}, err
	}

	now := s.now().UTC()
	code := Code{
		ID:        uuid.NewString(),
		Email:     email,
		Purpose:   purpose,
		Code:      value,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.codeTTL),
	}

	if err := s.store.Create(ctx, code); err != nil {
		return Code{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	subject, body := mail.Compose(string(purpose), value)
	if err := s.notifier.Send(ctx, email, subject, body); err != nil {
		s.logger.Error("verification email failed", "purpose", string(purpose), "error", err)
		return Code{}, fmt.Errorf("%w: %v", ErrNotify, err)
	}

	s.logger.Info("verification code issued", "purpose", string(purpose))
	return code, nil
}

// Validate checks a submitted code against the outstanding record for
// (email, purpose). The outstanding record is fetched regardless of the
// submitted value first, so a wrong guess increments that record's attempt
// counter instead of reporting "not found".
func (s *Service) Validate(ctx context.Context, email, submitted string, purpose Purpose) (Code, error) {
	email = NormalizeEmail(email)

	code, err := s.store.LatestUnused(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, ErrNoCode) {
			return Code{}, ErrInvalidCode
		}
		return Code{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := s.now().UTC()

	// An expired code retried is not a guessing attempt.
	if code.Expired(now) {
		return Code{}, ErrExpiredCode
	}

	if code.Attempts >= s.maxAttempts {
		return Code{}, ErrLockedCode
	}

	if submitted != code.Code {
		attempts, applied, err := s.store.IncrementAttempt(ctx, code.ID, s.maxAttempts)
		if err != nil {
			return Code{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !applied || attempts >= s.maxAttempts {
			// Either this guess exhausted the ceiling or a concurrent
			// validation already did.
			return Code{}, ErrLockedCode
		}
		return Code{}, ErrInvalidCode
	}

	applied, err := s.store.ConsumeIfFresh(ctx, code.ID, now, s.maxAttempts)
	if err != nil {
		return Code{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !applied {
		return Code{}, ErrInvalidCode
	}

	used := now
	code.UsedAt = &used
	return code, nil
}

// RunSweeper periodically removes records older than the retention window.
// Blocks until the context is cancelled.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := s.now().UTC().Add(-s.retention)
			removed, err := s.store.DeleteIssuedBefore(ctx, cutoff)
			if err != nil {
				s.logger.Warn("verification sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.Info("verification sweep completed", "removed", removed)
			}
		}
	}
}
