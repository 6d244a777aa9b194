package authservice

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rickh94/auth-service/internal"
	"github.com/rickh94/auth-service/tenant"
)

// RequestMagicLink issues a link-based secret for emailAddress under
// tenantID, stores it with the magic-link lifetime, and delivers the
// composed link by email.
//
// The link carries the claimed identity only as an encrypted token; the
// plaintext address never appears in the URL. Delivery failure semantics
// match [Engine.RequestOTP]: the entry stays live for a retry.
func (e *Engine) RequestMagicLink(ctx context.Context, tenantID, emailAddress string) error {
	if e == nil || e.magicSecrets == nil || e.tenants == nil || e.mailer == nil || e.codec == nil {
		return ErrEngineNotReady
	}

	requestID := uuid.NewString()

	if tenantID == "" || emailAddress == "" {
		e.emitAudit(ctx, auditEventMagicRequest, false, tenantID, requestID, "", ErrInvalidRequest, nil)
		return ErrInvalidRequest
	}

	app, err := e.findTenant(ctx, tenantID)
	if err != nil {
		e.emitAudit(ctx, auditEventMagicRequest, false, tenantID, requestID, emailAddress, err, nil)
		return err
	}

	secret, err := internal.NewLinkSecret()
	if err != nil {
		e.emitAudit(ctx, auditEventMagicRequest, false, tenantID, requestID, emailAddress, err, func() map[string]string {
			return map[string]string{
				"reason": "generation_failed",
			}
		})
		return fmt.Errorf("link secret generation failed: %w", err)
	}

	if err := e.magicSecrets.Put(ctx, tenantID, secret, emailAddress, e.config.Magic.Lifetime); err != nil {
		mapped := mapSecretStoreError(err)
		e.emitAudit(ctx, auditEventMagicRequest, false, tenantID, requestID, emailAddress, mapped, nil)
		return mapped
	}

	encodedID, err := e.codec.Encode(emailAddress)
	if err != nil {
		e.emitAudit(ctx, auditEventMagicRequest, false, tenantID, requestID, emailAddress, err, func() map[string]string {
			return map[string]string{
				"reason": "identity_encode_failed",
			}
		})
		return fmt.Errorf("identity encode failed: %w", err)
	}

	link, err := e.buildMagicLink(tenantID, secret, encodedID)
	if err != nil {
		e.emitAudit(ctx, auditEventMagicRequest, false, tenantID, requestID, emailAddress, err, nil)
		return err
	}

	subject := "Your Magic Sign In Link"
	body := fmt.Sprintf(
		"Click or copy this link to sign in: %s. It will expire in %.0f minutes.",
		link,
		e.config.Magic.Lifetime.Minutes(),
	)
	if err := e.mailer.Send(ctx, emailAddress, subject, body, app.Name); err != nil {
		e.metricInc(MetricDeliveryFailure)
		e.emitAudit(ctx, auditEventMagicRequest, false, tenantID, requestID, emailAddress, ErrDeliveryFailed, func() map[string]string {
			return map[string]string{
				"reason": "delivery_failed",
			}
		})
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	e.metricInc(MetricMagicRequest)
	e.emitAudit(ctx, auditEventMagicRequest, true, tenantID, requestID, emailAddress, nil, nil)
	return nil
}

// ConfirmMagicLink consumes the (tenantID, secret) entry and cross-checks it
// against the identity carried in encodedID.
//
// Outcomes:
//   - verified: tokens minted, success redirect returned.
//   - rejected with a tenant failure redirect: that redirect returned, no
//     tokens.
//   - rejected without one: [ErrUnauthorized].
//   - unknown tenant: [ErrTenantNotFound], before any codec or store work.
//
// A malformed or tampered encodedID never consumes the secret; a valid
// encodedID naming a different subject than the stored one does (the secret
// was burned on a substitution attempt and must not be retryable).
func (e *Engine) ConfirmMagicLink(ctx context.Context, tenantID, encodedID, secret string) (*MagicConfirmResult, error) {
	if e == nil || e.magicSecrets == nil || e.tenants == nil || e.issuer == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}

	requestID := uuid.NewString()
	start := time.Now()
	defer e.observeConfirmLatency(start)

	if tenantID == "" || encodedID == "" || secret == "" {
		e.emitAudit(ctx, auditEventMagicConfirm, false, tenantID, requestID, "", ErrInvalidRequest, nil)
		return nil, ErrInvalidRequest
	}

	app, err := e.findTenant(ctx, tenantID)
	if err != nil {
		e.emitAudit(ctx, auditEventMagicConfirm, false, tenantID, requestID, "", err, nil)
		return nil, err
	}

	claimedSubject, err := e.codec.Decode(encodedID)
	if err != nil {
		e.metricInc(MetricIdentityDecodeFailure)
		e.metricInc(MetricMagicConfirmRejected)
		e.emitAudit(ctx, auditEventMagicConfirm, false, tenantID, requestID, "", ErrIdentityDecode, func() map[string]string {
			return map[string]string{
				"reason": "identity_decode_failed",
			}
		})
		return e.rejectMagic(app)
	}

	storedSubject, err := e.magicSecrets.Take(ctx, tenantID, secret)
	if err != nil {
		mapped := mapSecretStoreError(err)
		if !errors.Is(mapped, ErrConfirmationRejected) {
			e.emitAudit(ctx, auditEventMagicConfirm, false, tenantID, requestID, claimedSubject, mapped, nil)
			return nil, mapped
		}
		e.metricInc(MetricMagicConfirmRejected)
		e.emitAudit(ctx, auditEventMagicConfirm, false, tenantID, requestID, claimedSubject, mapped, func() map[string]string {
			return map[string]string{
				"reason": "not_found",
			}
		})
		return e.rejectMagic(app)
	}

	if storedSubject != claimedSubject {
		e.metricInc(MetricMagicConfirmRejected)
		e.emitAudit(ctx, auditEventMagicConfirm, false, tenantID, requestID, claimedSubject, ErrConfirmationRejected, func() map[string]string {
			return map[string]string{
				"reason": "subject_mismatch",
			}
		})
		return e.rejectMagic(app)
	}

	pair, err := e.mintTokens(storedSubject, app)
	if err != nil {
		e.emitAudit(ctx, auditEventMagicConfirm, false, tenantID, requestID, storedSubject, err, func() map[string]string {
			return map[string]string{
				"reason": "token_issue_failed",
			}
		})
		return nil, err
	}

	redirectURL, err := buildSuccessRedirect(app.RedirectURL, pair)
	if err != nil {
		e.emitAudit(ctx, auditEventMagicConfirm, false, tenantID, requestID, storedSubject, err, func() map[string]string {
			return map[string]string{
				"reason": "redirect_build_failed",
			}
		})
		return nil, err
	}

	e.metricInc(MetricMagicConfirmSuccess)
	e.emitAudit(ctx, auditEventMagicConfirm, true, tenantID, requestID, storedSubject, nil, nil)

	return &MagicConfirmResult{
		State:        ConfirmVerified,
		RedirectURL:  redirectURL,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (e *Engine) buildMagicLink(tenantID, secret, encodedID string) (string, error) {
	u, err := url.Parse(e.config.Magic.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid magic base url: %w", err)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/magic/confirm/" + url.PathEscape(tenantID)

	q := url.Values{}
	q.Set("secret", secret)
	q.Set("id", encodedID)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (e *Engine) rejectMagic(app *tenant.Config) (*MagicConfirmResult, error) {
	if app.FailureRedirectURL != "" {
		return &MagicConfirmResult{
			State:       ConfirmRejected,
			RedirectURL: app.FailureRedirectURL,
		}, nil
	}
	return nil, ErrUnauthorized
}

func buildSuccessRedirect(base string, pair *TokenPair) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid tenant redirect url: %w", err)
	}

	q := u.Query()
	q.Set("idToken", pair.AccessToken)
	if pair.RefreshToken != "" {
		q.Set("refreshToken", pair.RefreshToken)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
