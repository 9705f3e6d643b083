package mailer

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"actdone.backend/internal/config"
)

// Transports accepted by MAIL_TRANSPORT.
const (
	TransportLog  = "log"
	TransportSMTP = "smtp"
	TransportAMQP = "amqp"
)

// PurposeEmailVerification tags queued messages for the mail worker.
const PurposeEmailVerification = "email_verification"

// Sender delivers the verification link to a freshly registered address.
type Sender interface {
	SendVerificationEmail(ctx context.Context, to, link string) error
}

// New builds the Sender selected by cfg.Transport. The returned close func
// releases broker connections and is always safe to call.
func New(cfg config.MailConfig, rabbit config.RabbitMQConfig) (Sender, func(), error) {
	switch strings.ToLower(cfg.Transport) {
	case TransportSMTP:
		return NewSMTPSender(cfg), func() {}, nil
	case TransportAMQP:
		q, err := NewQueueSender(rabbit.URL, rabbit.Queue)
		if err != nil {
			return nil, func() {}, err
		}
		return q, q.Close, nil
	case TransportLog, "":
		return NewLogSender(), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("mailer.New: unknown transport %q", cfg.Transport)
	}
}

var htmlBody = template.Must(template.New("verify").Parse(
	`<p>Welcome to ACTDONE!</p>` +
		`<p>Please confirm your email address by clicking the link below:</p>` +
		`<p><a href="{{.}}">Verify my email</a></p>` +
		`<p>If you did not create an account, you can ignore this message.</p>`,
))

func verificationText(link string) string {
	return "Welcome to ACTDONE!\n\n" +
		"Please confirm your email address by opening the link below:\n\n" +
		link + "\n\n" +
		"If you did not create an account, you can ignore this message.\n"
}

func verificationHTML(link string) (string, error) {
	var b strings.Builder
	if err := htmlBody.Execute(&b, link); err != nil {
		return "", err
	}
	return b.String(), nil
}
