package main

import (
	"fmt"

	"notesmk/backend/internal/config"
	"notesmk/backend/internal/logging"
	"notesmk/backend/internal/mail"
	"notesmk/backend/internal/security"
)

// newTokenProvider signs with the configured key pair when present, otherwise with JWT_SECRET.
func newTokenProvider(cfg *config.Config) (*security.TokenProvider, error) {
	if cfg.JWTPrivateKey != "" {
		keys, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
		if err != nil {
			return nil, fmt.Errorf("jwt %w", err)
		}
		return security.NewTokenProvider(keys.Signer, keys.Public, cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL())
	}
	return security.NewHMACTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL())
}

// newSender picks the mail delivery backend from MAIL_PROVIDER.
func newSender(cfg *config.Config, log logging.Logger) (mail.Sender, error) {
	switch cfg.MailProvider {
	case "smtp":
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			Username: cfg.MailUser,
			Password: cfg.MailPass,
			From:     cfg.SenderAddress(),
			FromName: cfg.MailFromName,
		}), nil
	case "http":
		if cfg.MailAPIURL == "" {
			return nil, fmt.Errorf("mail: MAIL_API_URL is required for the http provider")
		}
		return mail.NewHTTPSender(cfg.MailAPIKey, cfg.MailAPIURL, cfg.SenderAddress(), cfg.MailFromName), nil
	case "dev":
		return mail.NewDevSender(log.With("component", "mail")), nil
	default:
		return nil, fmt.Errorf("mail: unknown provider %q", cfg.MailProvider)
	}
}
