package tenant

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Registry.Find when no tenant exists for the
// given id.
var ErrNotFound = errors.New("tenant not found")

// ErrUnavailable is returned when the registry backend cannot be reached.
var ErrUnavailable = errors.New("tenant registry unavailable")

// Config is the registered configuration of a tenant application. It is
// read-only to the engine: lookups never mutate it.
type Config struct {
	// ID scopes all secrets and lookups.
	ID string `bson:"_id"`
	// Name is the display name used as the email from-name.
	Name string `bson:"name"`
	// RedirectURL receives the user after a successful magic-link
	// confirmation, with token query parameters appended.
	RedirectURL string `bson:"redirect_url"`
	// FailureRedirectURL, when set, receives the user after a rejected
	// confirmation. When empty, rejections surface as unauthorized.
	FailureRedirectURL string `bson:"failure_redirect_url,omitempty"`
	// RefreshEnabled controls whether confirmations also mint a refresh
	// token.
	RefreshEnabled bool `bson:"refresh_enabled"`
}

// Registry looks up tenant configuration by id.
type Registry interface {
	Find(ctx context.Context, tenantID string) (*Config, error)
}
