package mailer

import (
	"context"

	"actdone.backend/pkg/logger"
	"go.uber.org/zap"
)

// LogSender writes the verification link to the log instead of sending mail.
// Meant for local development.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (LogSender) SendVerificationEmail(ctx context.Context, to, link string) error {
	logger.Info(ctx, "Verification email (log transport)",
		zap.String("to", to),
		zap.String("link", link),
	)
	return nil
}
