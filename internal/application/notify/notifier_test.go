package notify

import (
	"context"
	"testing"
	"time"

	"github.com/go-auth-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockSMS struct{ mock.Mock }

func (m *mockSMS) SendSMS(ctx context.Context, phone, message string) error {
	return m.Called(ctx, phone, message).Error(0)
}

func TestSendOTP_EmailIdentifier(t *testing.T) {
	ml, sms := &mockMailer{}, &mockSMS{}

	ml.On("SendEmail", "alice@example.com", "Your login code", mock.Anything).Return(nil)

	err := New(ml, sms).SendOTP(context.Background(), "alice@example.com", "123456", domain.PurposeLogin, 10*time.Minute)

	assert.NoError(t, err)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendOTP_PhoneIdentifier(t *testing.T) {
	ml, sms := &mockMailer{}, &mockSMS{}

	sms.On("SendSMS", mock.Anything, "+14155552671", mock.Anything).Return(nil)

	err := New(ml, sms).SendOTP(context.Background(), "+14155552671", "123456", domain.PurposeLogin, 10*time.Minute)

	assert.NoError(t, err)
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendOTP_PhoneWithoutSMSConfigured(t *testing.T) {
	ml := &mockMailer{}

	err := New(ml, nil).SendOTP(context.Background(), "+14155552671", "123456", domain.PurposeLogin, 10*time.Minute)

	assert.ErrorContains(t, err, "sms delivery not configured")
}

func TestIsPhone(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"+14155552671", true},
		{"+5215512345678", true},
		{"alice@example.com", false},
		{"+123", false},       // too short
		{"+1415555abcd", false},
		{"14155552671", false}, // no leading +
	}
	for _, c := range cases {
		assert.Equal(t, c.want, isPhone(c.input), "input: %q", c.input)
	}
}
