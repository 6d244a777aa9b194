package authservice

import (
	"io"

	internalaudit "github.com/rickh94/auth-service/internal/audit"
)

// TokenPair is returned by [Engine.ConfirmOTP]. RefreshToken is empty unless
// the tenant configuration enables refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ConfirmState is the terminal state of a confirmation attempt.
type ConfirmState int

const (
	// ConfirmVerified means the secret was consumed by this call and tokens
	// were issued.
	ConfirmVerified ConfirmState = iota
	// ConfirmRejected means the secret was absent, expired, already
	// consumed, or bound to a different identity.
	ConfirmRejected
)

// MagicConfirmResult is returned by [Engine.ConfirmMagicLink]. RedirectURL is
// always set: on ConfirmVerified it is the tenant's success redirect with
// idToken (and refreshToken) query parameters appended; on ConfirmRejected it
// is the tenant's failure redirect. A rejection for a tenant without a
// failure redirect is reported as [ErrUnauthorized] instead of a result.
type MagicConfirmResult struct {
	State        ConfirmState
	RedirectURL  string
	AccessToken  string
	RefreshToken string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
