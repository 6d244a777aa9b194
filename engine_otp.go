package authservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rickh94/auth-service/internal"
)

// RequestOTP issues a one-time code for emailAddress under tenantID, stores
// it with the OTP lifetime, and delivers it by email.
//
// The entry is written before delivery is attempted: a delivery failure
// returns [ErrDeliveryFailed] but leaves the entry live, so the caller may
// retry delivery out of band or simply re-request. Entries are keyed by the
// code itself; a re-request issues an independent entry.
func (e *Engine) RequestOTP(ctx context.Context, tenantID, emailAddress string) error {
	if e == nil || e.otpSecrets == nil || e.tenants == nil || e.mailer == nil {
		return ErrEngineNotReady
	}

	requestID := uuid.NewString()

	if tenantID == "" || emailAddress == "" {
		e.emitAudit(ctx, auditEventOTPRequest, false, tenantID, requestID, "", ErrInvalidRequest, nil)
		return ErrInvalidRequest
	}

	app, err := e.findTenant(ctx, tenantID)
	if err != nil {
		e.emitAudit(ctx, auditEventOTPRequest, false, tenantID, requestID, emailAddress, err, nil)
		return err
	}

	code, err := internal.NewOTP(e.config.OTP.Length)
	if err != nil {
		e.emitAudit(ctx, auditEventOTPRequest, false, tenantID, requestID, emailAddress, err, func() map[string]string {
			return map[string]string{
				"reason": "generation_failed",
			}
		})
		return fmt.Errorf("otp generation failed: %w", err)
	}

	if err := e.otpSecrets.Put(ctx, tenantID, code, emailAddress, e.config.OTP.Lifetime); err != nil {
		mapped := mapSecretStoreError(err)
		e.emitAudit(ctx, auditEventOTPRequest, false, tenantID, requestID, emailAddress, mapped, nil)
		return mapped
	}

	subject := "Your One Time Password"
	body := fmt.Sprintf(
		"Your one time password is %s. It will expire in %.0f minutes.",
		code,
		e.config.OTP.Lifetime.Minutes(),
	)
	if err := e.mailer.Send(ctx, emailAddress, subject, body, app.Name); err != nil {
		e.metricInc(MetricDeliveryFailure)
		e.emitAudit(ctx, auditEventOTPRequest, false, tenantID, requestID, emailAddress, ErrDeliveryFailed, func() map[string]string {
			return map[string]string{
				"reason": "delivery_failed",
			}
		})
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	e.metricInc(MetricOTPRequest)
	e.emitAudit(ctx, auditEventOTPRequest, true, tenantID, requestID, emailAddress, nil, nil)
	return nil
}

// ConfirmOTP consumes code for tenantID and, when it matches emailAddress,
// exchanges it for session tokens.
//
// The code is consumed even when the stored subject differs from
// emailAddress: a leaked or overheard code must not remain valid for a
// second guess. Absent, expired, consumed, and mismatched codes are all
// reported identically as [ErrConfirmationRejected].
func (e *Engine) ConfirmOTP(ctx context.Context, tenantID, emailAddress, code string) (*TokenPair, error) {
	if e == nil || e.otpSecrets == nil || e.tenants == nil || e.issuer == nil {
		return nil, ErrEngineNotReady
	}

	requestID := uuid.NewString()
	start := time.Now()
	defer e.observeConfirmLatency(start)

	if tenantID == "" || emailAddress == "" || code == "" {
		e.emitAudit(ctx, auditEventOTPConfirm, false, tenantID, requestID, "", ErrInvalidRequest, nil)
		return nil, ErrInvalidRequest
	}

	app, err := e.findTenant(ctx, tenantID)
	if err != nil {
		e.emitAudit(ctx, auditEventOTPConfirm, false, tenantID, requestID, emailAddress, err, nil)
		return nil, err
	}

	storedSubject, err := e.otpSecrets.Take(ctx, tenantID, code)
	if err != nil {
		mapped := mapSecretStoreError(err)
		if !errors.Is(mapped, ErrConfirmationRejected) {
			e.emitAudit(ctx, auditEventOTPConfirm, false, tenantID, requestID, emailAddress, mapped, nil)
			return nil, mapped
		}
		e.metricInc(MetricOTPConfirmRejected)
		e.emitAudit(ctx, auditEventOTPConfirm, false, tenantID, requestID, emailAddress, mapped, func() map[string]string {
			return map[string]string{
				"reason": "not_found",
			}
		})
		return nil, mapped
	}

	if storedSubject != emailAddress {
		// The entry is already gone; a different caller's code cannot be
		// replayed against this identity.
		e.metricInc(MetricOTPConfirmRejected)
		e.emitAudit(ctx, auditEventOTPConfirm, false, tenantID, requestID, emailAddress, ErrConfirmationRejected, func() map[string]string {
			return map[string]string{
				"reason": "subject_mismatch",
			}
		})
		return nil, ErrConfirmationRejected
	}

	pair, err := e.mintTokens(storedSubject, app)
	if err != nil {
		e.emitAudit(ctx, auditEventOTPConfirm, false, tenantID, requestID, emailAddress, err, func() map[string]string {
			return map[string]string{
				"reason": "token_issue_failed",
			}
		})
		return nil, err
	}

	e.metricInc(MetricOTPConfirmSuccess)
	e.emitAudit(ctx, auditEventOTPConfirm, true, tenantID, requestID, storedSubject, nil, nil)
	return pair, nil
}
