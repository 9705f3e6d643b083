package mailer

import (
	"context"
	"fmt"

	"actdone.backend/internal/config"
	"gopkg.in/gomail.v2"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var newDialer = func(host string, port int, username, password string) mailDialer {
	return gomail.NewDialer(host, port, username, password)
}

// SMTPSender sends mail directly through an SMTP relay.
type SMTPSender struct {
	from    string
	subject string
	dialer  mailDialer
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	from := cfg.From
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &SMTPSender{
		from:    from,
		subject: cfg.Subject,
		dialer:  newDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (s *SMTPSender) SendVerificationEmail(ctx context.Context, to, link string) error {
	const op = "mailer.SMTPSender.SendVerificationEmail"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	html, err := verificationHTML(link)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", s.subject)
	msg.SetBody("text/plain", verificationText(link))
	msg.AddAlternative("text/html", html)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
