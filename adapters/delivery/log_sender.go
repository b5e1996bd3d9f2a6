// Package delivery implements out-of-band delivery of two-factor codes.
package delivery

import (
	"context"
	"log/slog"

	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
)

// LogSender writes two-factor codes to the log instead of mailing them.
// Development only.
type LogSender struct {
	logger *slog.Logger
}

var _ ports.CodeSender = (*LogSender)(nil)

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) SendCode(ctx context.Context, email core.Email, code core.TwoFACode) error {
	s.logger.InfoContext(ctx, "two-factor code issued",
		"recipient", email.String(),
		"subject", "Your login code",
		"code", code.String(),
	)
	return nil
}
