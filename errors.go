package authservice

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine is used before Build wired
	// all of its collaborators.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidRequest is returned when a required argument (tenant id,
	// email, code, secret) is empty.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTenantNotFound is returned when the tenant registry has no entry for
	// the given tenant id. No secret is created or consumed in that case.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantUnavailable is returned when the tenant registry backend
	// cannot be reached.
	ErrTenantUnavailable = errors.New("tenant registry unavailable")
	// ErrDeliveryFailed is returned when the email transport reports a
	// failure. The stored secret remains valid for its full lifetime, so the
	// caller may retry the request phase.
	ErrDeliveryFailed = errors.New("email delivery failed")
	// ErrConfirmationRejected is returned when a presented secret is absent,
	// expired, already consumed, or bound to a different identity.
	ErrConfirmationRejected = errors.New("confirmation rejected")
	// ErrUnauthorized is returned by magic-link confirmation when the secret
	// is rejected and the tenant has no failure redirect configured.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSecretStoreUnavailable is returned when the Redis secret store
	// cannot be reached.
	ErrSecretStoreUnavailable = errors.New("secret store unavailable")
	// ErrIdentityDecode is returned when an identity transport token was not
	// produced by this process's key or is malformed.
	ErrIdentityDecode = errors.New("identity token decode failed")
)
