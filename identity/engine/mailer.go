package engine

import (
	"context"
	"log/slog"
	"time"
)

// ResetMessage is what a user receives after requesting a password reset.
type ResetMessage struct {
	Email     string
	Name      string
	Code      string
	Link      string
	ExpiresAt time.Time
}

// Mailer delivers reset messages.
type Mailer interface {
	SendPasswordReset(ctx context.Context, msg ResetMessage) error
}

// LogMailer writes reset messages to a logger instead of sending email. It is
// meant for local development.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, msg ResetMessage) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "password reset issued",
		slog.String("email", msg.Email),
		slog.String("code", msg.Code),
		slog.String("link", msg.Link),
		slog.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}
