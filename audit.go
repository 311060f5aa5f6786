package authflow

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/authflow/internal/audit"
)

// Audit event types emitted by the controller.
const (
	AuditSignIn       = "sign_in"
	AuditSignUp       = "sign_up"
	AuditSignOut      = "sign_out"
	AuditResetRequest = "reset_request"
	AuditResetResend  = "reset_resend"
	AuditResetConfirm = "reset_confirm"
	AuditInvalidLink  = "invalid_link"
)

// AuditEvent is one audited flow step. Subject holds a masked email.
type AuditEvent = audit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// SlogSink logs audit events.
type SlogSink = audit.SlogSink

func NewChannelSink(buffer int) *ChannelSink { return audit.NewChannelSink(buffer) }

func NewJSONWriterSink(w io.Writer) *JSONWriterSink { return audit.NewJSONWriterSink(w) }

func NewSlogSink(logger *slog.Logger) *SlogSink { return audit.NewSlogSink(logger) }
