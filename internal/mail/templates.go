package mail

import "fmt"

const (
	subjectRegistration  = "Acolhe - Registration Verification Code"
	subjectLogin         = "Acolhe - Login Verification Code"
	subjectPasswordReset = "Acolhe - Password Recovery Code"
)

const registrationBody = `Hello!

Welcome to Acolhe!

Your verification code is:

    %s

This code is valid for 10 minutes and allows up to 3 attempts.

If you did not request this code, please ignore this email.

---
Acolhe - connecting people and opportunities
`

const loginBody = `Hello!

Your login verification code is:

    %s

This code is valid for 10 minutes and allows up to 3 attempts.

If you did not try to log in, contact us immediately.

---
Acolhe - connecting people and opportunities
`

const passwordResetBody = `Hello!

You requested a password reset.

Your verification code is:

    %s

This code is valid for 10 minutes and allows up to 3 attempts.

After verifying the code you will be able to set a new password.

If you did not request a password reset, please ignore this email.

---
Acolhe - connecting people and opportunities
`

// Compose returns the subject and body for a verification email. The
// purpose is passed as a plain string so this package stays independent of
// the verification package.
func Compose(purpose, code string) (subject, body string) {
	switch purpose {
	case "login":
		return subjectLogin, fmt.Sprintf(loginBody, code)
	case "password_reset":
		return subjectPasswordReset, fmt.Sprintf(passwordResetBody, code)
	default:
		return subjectRegistration, fmt.Sprintf(registrationBody, code)
	}
}
