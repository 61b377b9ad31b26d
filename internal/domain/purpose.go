package domain

import "fmt"

// Purpose scopes an OTP to exactly one flow. A code issued for one purpose
// is never valid for another.
type Purpose string

const (
	PurposeVerification  Purpose = "verification"
	PurposeLogin         Purpose = "login"
	PurposePasswordReset Purpose = "password_reset"
)

// ParsePurpose converts a wire value into a Purpose, rejecting anything
// outside the closed set.
func ParsePurpose(s string) (Purpose, error) {
	switch Purpose(s) {
	case PurposeVerification, PurposeLogin, PurposePasswordReset:
		return Purpose(s), nil
	}
	return "", fmt.Errorf("unknown purpose %q: %w", s, ErrBadRequest)
}

func (p Purpose) String() string { return string(p) }
