package authservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rickh94/auth-service/email"
	"github.com/rickh94/auth-service/internal/audit"
	"github.com/rickh94/auth-service/jwt"
	"github.com/rickh94/auth-service/tenant"
)

const (
	auditEventOTPRequest   = "otp.request"
	auditEventOTPConfirm   = "otp.confirm"
	auditEventMagicRequest = "magic.request"
	auditEventMagicConfirm = "magic.confirm"
)

// Engine is the secret lifecycle engine. Construct it through [Builder];
// after Build it is immutable and safe for concurrent use.
type Engine struct {
	config       Config
	otpSecrets   *secretStore
	magicSecrets *secretStore
	codec        *identityCodec
	issuer       *jwt.Issuer
	tenants      tenant.Registry
	mailer       email.Sender
	audit        *audit.Dispatcher
	metrics      *Metrics
}

// Close drains and stops the audit dispatcher. The Engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeConfirmLatency(start time.Time) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(MetricConfirmLatency, time.Since(start))
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	tenantID, requestID, subject string,
	opErr error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := audit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		TenantID:  tenantID,
		RequestID: requestID,
		Subject:   subject,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}

// findTenant resolves the tenant or maps registry failures to the public
// taxonomy. An unknown tenant is terminal: callers bail out before touching
// the secret store.
func (e *Engine) findTenant(ctx context.Context, tenantID string) (*tenant.Config, error) {
	app, err := e.tenants.Find(ctx, tenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			e.metricInc(MetricTenantNotFound)
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTenantUnavailable, err)
	}
	return app, nil
}

// mintTokens exchanges a verified subject for session tokens, honoring the
// tenant's refresh flag.
func (e *Engine) mintTokens(subject string, app *tenant.Config) (*TokenPair, error) {
	access, err := e.issuer.CreateAccess(subject, app.ID)
	if err != nil {
		return nil, err
	}

	pair := &TokenPair{AccessToken: access}

	if app.RefreshEnabled {
		refresh, err := e.issuer.CreateRefresh(subject, app.ID)
		if err != nil {
			return nil, err
		}
		pair.RefreshToken = refresh
		e.metricInc(MetricRefreshIssued)
	}

	return pair, nil
}

func mapSecretStoreError(err error) error {
	switch {
	case errors.Is(err, errSecretNotFound):
		return ErrConfirmationRejected
	case errors.Is(err, errSecretRedisUnavailable):
		return ErrSecretStoreUnavailable
	default:
		return ErrSecretStoreUnavailable
	}
}
