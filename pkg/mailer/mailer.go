// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"ceramico/pkg/logger"
)

// Sender delivers a single email. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Config holds the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail through a real SMTP relay.
type SMTPSender struct {
	client *gomail.Client
	from   string
	log    *logger.Logger
}

func NewSMTPSender(cfg Config, log *logger.Logger) (*SMTPSender, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("creating SMTP client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.From, log: log}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}

	s.log.Info("Email sent", "to", to, "subject", subject)
	return nil
}
