package authservice

import (
	"errors"
	"net/url"
	"time"
)

// Config holds all tunables for the secret lifecycle engine. A zero value is
// not usable; start from the defaults applied by [New] and override fields
// through [Builder.WithConfig].
//
// Config instances are treated as immutable after [Builder.Build].
type Config struct {
	OTP      OTPConfig
	Magic    MagicLinkConfig
	Token    TokenConfig
	Identity IdentityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig controls numeric one-time code issuance.
type OTPConfig struct {
	// Length is the number of decimal digits, between 6 and 10.
	Length int
	// Lifetime bounds how long an issued code can be confirmed.
	Lifetime time.Duration
	// RedisPrefix namespaces OTP entries in Redis.
	RedisPrefix string
}

/*
====================================
MAGIC LINK CONFIG
====================================
*/

// MagicLinkConfig controls link-based secret issuance.
type MagicLinkConfig struct {
	// BaseURL is this service's externally reachable origin, e.g.
	// "https://auth.example.com". Confirmation links are composed under
	// BaseURL + "/magic/confirm/{tenantID}".
	BaseURL string
	// Lifetime bounds how long an issued link can be confirmed.
	Lifetime time.Duration
	// RedisPrefix namespaces magic-link entries in Redis.
	RedisPrefix string
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures the session token issuer.
type TokenConfig struct {
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Leeway        time.Duration
}

/*
====================================
IDENTITY CONFIG
====================================
*/

// IdentityConfig configures the identity codec that carries the claimed
// email through magic-link URLs.
type IdentityConfig struct {
	// Key is a base64-encoded 32-byte fernet key. Process-wide; rotation is
	// out of scope.
	Key string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events under backpressure instead of blocking the
	// request path.
	DropIfFull bool
}

// MetricsConfig controls the in-process atomic counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			Length:      8,
			Lifetime:    5 * time.Minute,
			RedisPrefix: "aso",
		},
		Magic: MagicLinkConfig{
			Lifetime:    5 * time.Minute,
			RedisPrefix: "asm",
		},
		Token: TokenConfig{
			SigningMethod: "hs256",
			AccessTTL:     60 * time.Minute,
			RefreshTTL:    30 * 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first configuration problem found, or nil.
func (c *Config) Validate() error {
	// OTP
	if c.OTP.Length < 6 || c.OTP.Length > 10 {
		return errors.New("OTP Length must be between 6 and 10")
	}
	if c.OTP.Lifetime <= 0 {
		return errors.New("OTP Lifetime must be > 0")
	}
	if c.OTP.RedisPrefix == "" {
		return errors.New("OTP RedisPrefix must not be empty")
	}

	// Magic link
	if c.Magic.Lifetime <= 0 {
		return errors.New("Magic Lifetime must be > 0")
	}
	if c.Magic.RedisPrefix == "" {
		return errors.New("Magic RedisPrefix must not be empty")
	}
	if c.Magic.RedisPrefix == c.OTP.RedisPrefix {
		return errors.New("Magic RedisPrefix must differ from OTP RedisPrefix")
	}
	if c.Magic.BaseURL == "" {
		return errors.New("Magic BaseURL must not be empty")
	}
	u, err := url.Parse(c.Magic.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("Magic BaseURL must be an absolute URL")
	}

	// Token
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must be > AccessTTL")
	}
	if c.Token.SigningMethod != "hs256" && c.Token.SigningMethod != "ed25519" {
		return errors.New("unsupported Token signing method")
	}
	if len(c.Token.PrivateKey) == 0 {
		return errors.New("Token PrivateKey must be provided")
	}
	if c.Token.Issuer == "" {
		return errors.New("Token Issuer must not be empty")
	}

	// Identity
	if c.Identity.Key == "" {
		return errors.New("Identity Key must be provided")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must be >= 0")
	}

	return nil
}
