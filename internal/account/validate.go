package account

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

// ErrValidation marks input-shape failures. Callers correct the input and
// retry.
var ErrValidation = errors.New("validation failed")

// ValidateEmail checks the address is well formed.
func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email is malformed", ErrValidation)
	}
	return nil
}

// ValidatePassword enforces the minimum strength policy: at least eight
// characters with at least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must have at least 8 characters", ErrValidation)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: password must contain letters and digits", ErrValidation)
	}
	return nil
}

// ValidateCPF checks the Brazilian CPF format and its two check digits.
// Accepts "000.000.000-00" or eleven bare digits.
func ValidateCPF(cpf string) error {
	digits := make([]int, 0, 11)
	for _, r := range cpf {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == '.' || r == '-':
		default:
			return fmt.Errorf("%w: cpf contains invalid characters", ErrValidation)
		}
	}
	if len(digits) != 11 {
		return fmt.Errorf("%w: cpf must have 11 digits", ErrValidation)
	}

	// CPFs with all digits equal pass the checksum but are not valid.
	allEqual := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return fmt.Errorf("%w: cpf is invalid", ErrValidation)
	}

	if cpfCheckDigit(digits, 9) != digits[9] || cpfCheckDigit(digits, 10) != digits[10] {
		return fmt.Errorf("%w: cpf check digits do not match", ErrValidation)
	}
	return nil
}

func cpfCheckDigit(digits []int, length int) int {
	sum := 0
	for i := 0; i < length; i++ {
		sum += digits[i] * (length + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

// NormalizeCPF strips formatting so storage and uniqueness checks compare
// bare digits.
func NormalizeCPF(cpf string) string {
	var b strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
