// Package notify dispatches OTP codes to users over email or SMS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-auth-api/internal/domain"
	"github.com/go-auth-api/internal/infrastructure/smtp"
	"github.com/go-auth-api/internal/infrastructure/sns"
)

// Notifier delivers a passcode to an identifier. Delivery failure must be
// surfaced to the caller — an OTP nobody receives is worse than no OTP.
type Notifier interface {
	SendOTP(ctx context.Context, identifier, code string, purpose domain.Purpose, expiry time.Duration) error
}

type notifier struct {
	mailer smtp.Mailer
	sms    sns.SMSSender
}

// New routes E.164 phone identifiers to SMS and everything else to email.
// sms may be nil when SNS is unavailable; phone identifiers then fail loudly.
func New(mailer smtp.Mailer, sms sns.SMSSender) Notifier {
	return &notifier{mailer: mailer, sms: sms}
}

func (n *notifier) SendOTP(ctx context.Context, identifier, code string, purpose domain.Purpose, expiry time.Duration) error {
	body := fmt.Sprintf("Your code is %s. It expires in %d minutes.", code, int(expiry.Minutes()))

	if isPhone(identifier) {
		if n.sms == nil {
			return errors.New("sms delivery not configured")
		}
		return n.sms.SendSMS(ctx, identifier, body)
	}
	return n.mailer.SendEmail(identifier, subjectFor(purpose), body)
}

func subjectFor(purpose domain.Purpose) string {
	switch purpose {
	case domain.PurposeVerification:
		return "Confirm your account"
	case domain.PurposeLogin:
		return "Your login code"
	case domain.PurposePasswordReset:
		return "Password reset code"
	}
	return "Your verification code"
}

// isPhone treats a leading '+' followed by digits as an E.164 number.
func isPhone(identifier string) bool {
	if !strings.HasPrefix(identifier, "+") || len(identifier) < 8 {
		return false
	}
	for _, r := range identifier[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
