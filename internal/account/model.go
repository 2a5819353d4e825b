package account

import "time"

// Account types mirror the two confirmed roles. Organizer is a profile
// layered on top of a donor account, not a type of its own.
const (
	TypeBeneficiary = "beneficiary"
	TypeDonor       = "donor"
)

// Account is a confirmed identity. Created exactly once per successful
// registration confirmation, never speculatively.
type Account struct {
	ID           string
	Username     string
	Email        string
	Name         string
	CPF          string
	Phone        string
	City         string
	District     string
	Address      string
	DisplayName  string
	Bio          string
	Type         string
	PasswordHash []byte
	CreatedAt    time.Time
}
