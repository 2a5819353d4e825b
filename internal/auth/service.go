package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/verification"
)

// ErrInvalidCredentials is returned for any username/password mismatch.
// The message never reveals which of the two was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service handles password login, the optional email-code second factor and
// password recovery. Codes are layered on top of baseline login, never
// required for it.
type Service struct {
	accounts account.Repository
	codes    *verification.Service
	issuer   *TokenIssuer
	logger   *slog.Logger
}

// NewService wires the auth service.
func NewService(accounts account.Repository, codes *verification.Service, issuer *TokenIssuer, logger *slog.Logger) *Service {
	return &Service{accounts: accounts, codes: codes, issuer: issuer, logger: logger}
}

// Login verifies a password against the confirmed account and issues a
// credential pair directly.
func (s *Service) Login(ctx context.Context, username, password string) (account.Account, TokenPair, error) {
	acct, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Account{}, TokenPair{}, ErrInvalidCredentials
		}
		return account.Account{}, TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return account.Account{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssueFor(acct)
	if err != nil {
		return account.Account{}, TokenPair{}, err
	}
	return acct, pair, nil
}

// RequestLoginCode issues a login code when the email maps to a confirmed
// account. When it does not, the call still reports success so callers
// cannot probe which addresses are registered.
func (s *Service) RequestLoginCode(ctx context.Context, email string) error {
	return s.requestCode(ctx, email, verification.PurposeLogin)
}

// ConfirmLoginCode validates a login code and issues a credential pair.
func (s *Service) ConfirmLoginCode(ctx context.Context, email, code string) (account.Account, TokenPair, error) {
	if _, err := s.codes.Validate(ctx, email, code, verification.PurposeLogin); err != nil {
		return account.Account{}, TokenPair{}, err
	}

	acct, err := s.accounts.FindByEmail(ctx, verification.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return account.Account{}, TokenPair{}, ErrInvalidCredentials
		}
		return account.Account{}, TokenPair{}, err
	}

	pair, err := s.issuer.IssueFor(acct)
	if err != nil {
		return account.Account{}, TokenPair{}, err
	}
	return acct, pair, nil
}

// Refresh verifies the refresh token and mints a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	accountID, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return "", 0, ErrInvalidToken
	}

	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return "", 0, ErrInvalidToken
	}

	pair, err := s.issuer.IssueFor(acct)
	if err != nil {
		return "", 0, err
	}
	return pair.AccessToken, pair.ExpiresIn, nil
}

// RequestPasswordReset issues a recovery code with the same enumeration
// safety as RequestLoginCode.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	return s.requestCode(ctx, email, verification.PurposePasswordReset)
}

// ConfirmPasswordReset validates the recovery code and replaces the stored
// password hash.
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	if err := account.ValidatePassword(newPassword); err != nil {
		return err
	}

	if _, err := s.codes.Validate(ctx, email, code, verification.PurposePasswordReset); err != nil {
		return err
	}

	acct, err := s.accounts.FindByEmail(ctx, verification.NormalizeEmail(email))
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.accounts.UpdatePassword(ctx, acct.ID, hash)
}

func (s *Service) requestCode(ctx context.Context, email string, purpose verification.Purpose) error {
	normalized := verification.NormalizeEmail(email)
	exists, err := s.accounts.ExistsByEmail(ctx, normalized)
	if err != nil {
		return err
	}
	if !exists {
		// Deliberately silent: same outcome as the registered case.
		s.logger.Info("code requested for unknown email", "purpose", string(purpose))
		return nil
	}
	_, err = s.codes.Issue(ctx, normalized, purpose)
	return err
}
