package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// SMTPConfig holds the settings for SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPSender delivers mail over SMTP with STARTTLS (or implicit TLS on 465).
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender returns a sender for cfg. It does not dial until Send.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send dials the server, sends one message and closes the connection.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) (*Receipt, error) {
	if s.cfg.Host == "" || s.cfg.From == "" {
		return nil, ErrNotConfigured
	}
	m, err := s.buildMessage(to, subject, htmlBody)
	if err != nil {
		return nil, err
	}
	c, err := gomail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("mail: smtp client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return nil, fmt.Errorf("mail: smtp send: %w", err)
	}
	r := &Receipt{}
	if ids := m.GetGenHeader(gomail.HeaderMessageID); len(ids) > 0 {
		r.MessageID = ids[0]
	}
	return r, nil
}

func (s *SMTPSender) buildMessage(to, subject, htmlBody string) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("mail: from: %w", err)
		}
	} else if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("mail: to: %w", err)
	}
	m.Subject(subject)
	m.SetMessageID()
	m.SetDate()
	m.SetBodyString(gomail.TypeTextHTML, htmlBody)
	return m, nil
}

func (s *SMTPSender) clientOptions() []gomail.Option {
	opts := []gomail.Option{gomail.WithTimeout(smtpTimeout)}
	if s.cfg.Port == 465 {
		opts = append(opts, gomail.WithSSLPort(false))
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSMandatory))
	}
	if s.cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(s.cfg.Port))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}
