package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/auth"
	"github.com/acolhe/acolhe/internal/organizer"
	"github.com/acolhe/acolhe/internal/pending"
	"github.com/acolhe/acolhe/internal/verification"
)

// Roles accepted in phase 1. An organizer is stored as a donor account with
// an organizer profile materialized on confirmation.
const (
	RoleBeneficiary = "beneficiary"
	RoleDonor       = "donor"
	RoleOrganizer   = "organizer"
)

// ErrSessionExpired means the code was valid but the staged payload has
// lapsed. Recoverable only by restarting phase 1.
var ErrSessionExpired = errors.New("registration session expired, restart registration")

// StartInput is the full account payload submitted in phase 1.
type StartInput struct {
	Username    string
	Email       string
	Password    string
	Name        string
	CPF         string
	Phone       string
	City        string
	District    string
	Address     string
	DisplayName string
	Bio         string
	Role        string
}

// ConfirmOutput is the result of a successful phase 2.
type ConfirmOutput struct {
	Account   account.Account
	Tokens    auth.TokenPair
	Organizer *organizer.Profile
}

// Service runs the two-phase registration workflow. No account data touches
// the durable store until the emailed code is confirmed.
type Service struct {
	accounts   account.Repository
	staged     pending.Store
	codes      *verification.Service
	organizers organizer.Repository
	issuer     *auth.TokenIssuer
	pendingTTL time.Duration
	logger     *slog.Logger
}

// NewService wires the registration pipeline.
func NewService(accounts account.Repository, staged pending.Store, codes *verification.Service,
	organizers organizer.Repository, issuer *auth.TokenIssuer, pendingTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		accounts:   accounts,
		staged:     staged,
		codes:      codes,
		organizers: organizers,
		issuer:     issuer,
		pendingTTL: pendingTTL,
		logger:     logger,
	}
}

// Start validates the payload, stages it in the volatile cache and issues a
// verification code. Nothing durable is written. A repeated Start for the
// same email re-stages the payload and invalidates the prior code.
func (s *Service) Start(ctx context.Context, in StartInput) error {
	email := verification.NormalizeEmail(in.Email)

	if err := s.validate(ctx, in, email); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	reg := pending.Registration{
		Username:     in.Username,
		Email:        email,
		Name:         in.Name,
		CPF:          account.NormalizeCPF(in.CPF),
		Phone:        in.Phone,
		City:         in.City,
		District:     in.District,
		Address:      in.Address,
		DisplayName:  in.DisplayName,
		Bio:          in.Bio,
		Role:         in.Role,
		PasswordHash: hash,
		StagedAt:     time.Now().UTC(),
	}

	if err := s.staged.Put(ctx, email, reg, s.pendingTTL); err != nil {
		return err
	}

	if _, err := s.codes.Issue(ctx, email, verification.PurposeRegistration); err != nil {
		// On delivery failure the staged payload and the issued code stay
		// in place; a retried Start safely re-issues.
		return err
	}

	s.logger.Info("registration started", "role", in.Role)
	return nil
}

// Confirm validates the emailed code and materializes the account. A valid
// code with a lapsed payload is a terminal failure: the code stays used and
// the user restarts phase 1.
func (s *Service) Confirm(ctx context.Context, email, code string) (ConfirmOutput, error) {
	email = verification.NormalizeEmail(email)

	if _, err := s.codes.Validate(ctx, email, code, verification.PurposeRegistration); err != nil {
		return ConfirmOutput{}, err
	}

	reg, err := s.staged.Get(ctx, email)
	if err != nil {
		if errors.Is(err, pending.ErrNotFound) {
			return ConfirmOutput{}, ErrSessionExpired
		}
		return ConfirmOutput{}, err
	}

	acct := account.Account{
		ID:           uuid.NewString(),
		Username:     reg.Username,
		Email:        reg.Email,
		Name:         reg.Name,
		CPF:          reg.CPF,
		Phone:        reg.Phone,
		City:         reg.City,
		District:     reg.District,
		Address:      reg.Address,
		DisplayName:  reg.DisplayName,
		Bio:          reg.Bio,
		Type:         accountType(reg.Role),
		PasswordHash: reg.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	// A lost uniqueness race surfaces here. The code stays used and the
	// payload is not restaged; the user restarts with fresh identifiers.
	if err := s.accounts.Create(ctx, acct); err != nil {
		return ConfirmOutput{}, err
	}

	if err := s.staged.Delete(ctx, email); err != nil {
		s.logger.Warn("delete staged registration", "error", err)
	}

	out := ConfirmOutput{Account: acct}

	if reg.Role == RoleOrganizer {
		profile, _, err := s.organizers.Ensure(ctx, acct.ID)
		if err != nil {
			return ConfirmOutput{}, err
		}
		out.Organizer = &profile
	}

	pair, err := s.issuer.IssueFor(acct)
	if err != nil {
		return ConfirmOutput{}, err
	}
	out.Tokens = pair

	s.logger.Info("registration confirmed", "account_id", acct.ID, "type", acct.Type)
	return out, nil
}

func (s *Service) validate(ctx context.Context, in StartInput, email string) error {
	if in.Username == "" {
		return fmt.Errorf("%w: username is required", account.ErrValidation)
	}
	if err := account.ValidateEmail(email); err != nil {
		return err
	}
	if err := account.ValidatePassword(in.Password); err != nil {
		return err
	}
	if in.CPF != "" {
		if err := account.ValidateCPF(in.CPF); err != nil {
			return err
		}
	}
	switch in.Role {
	case RoleBeneficiary, RoleDonor, RoleOrganizer:
	default:
		return fmt.Errorf("%w: role must be beneficiary, donor or organizer", account.ErrValidation)
	}

	if taken, err := s.accounts.ExistsByEmail(ctx, email); err != nil {
		return err
	} else if taken {
		return fmt.Errorf("%w: email", account.ErrConflict)
	}
	if taken, err := s.accounts.ExistsByUsername(ctx, in.Username); err != nil {
		return err
	} else if taken {
		return fmt.Errorf("%w: username", account.ErrConflict)
	}
	if cpf := account.NormalizeCPF(in.CPF); cpf != "" {
		if taken, err := s.accounts.ExistsByCPF(ctx, cpf); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("%w: cpf", account.ErrConflict)
		}
	}
	return nil
}

func accountType(role string) string {
	if role == RoleBeneficiary {
		return account.TypeBeneficiary
	}
	return account.TypeDonor
}
