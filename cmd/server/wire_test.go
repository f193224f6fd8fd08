package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesmk/backend/internal/config"
	"notesmk/backend/internal/logging"
	"notesmk/backend/internal/mail"
)

func TestNewSender(t *testing.T) {
	tests := []struct {
		provider string
		want     any
	}{
		{"smtp", &mail.SMTPSender{}},
		{"dev", &mail.DevSender{}},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			s, err := newSender(&config.Config{MailProvider: tt.provider, MailHost: "smtp.example.com", MailPort: 587}, logging.Nop())
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestNewSender_HTTP(t *testing.T) {
	_, err := newSender(&config.Config{MailProvider: "http"}, logging.Nop())
	assert.Error(t, err)

	s, err := newSender(&config.Config{MailProvider: "http", MailAPIURL: "https://mail.example.com/send", MailFrom: "no-reply@example.com"}, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &mail.HTTPSender{}, s)
}

func TestNewSender_Unknown(t *testing.T) {
	_, err := newSender(&config.Config{MailProvider: "pigeon"}, logging.Nop())
	assert.Error(t, err)
}

func TestNewTokenProvider_HMAC(t *testing.T) {
	tp, err := newTokenProvider(&config.Config{
		JWTSecret:     "a-long-enough-test-secret-value-123",
		JWTIssuer:     "iss",
		JWTAudience:   "aud",
		SessionTTLRaw: "168h",
	})
	require.NoError(t, err)
	token, _, err := tp.Issue("acc-1", "ann@example.com")
	require.NoError(t, err)
	sess, err := tp.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", sess.AccountID)
}

func TestNewTokenProvider_BadKey(t *testing.T) {
	_, err := newTokenProvider(&config.Config{JWTPrivateKey: "not a pem", JWTPublicKey: "nope"})
	assert.Error(t, err)
}
