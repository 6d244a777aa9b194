package authservice

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/rickh94/auth-service/email"
	"github.com/rickh94/auth-service/internal/audit"
	"github.com/rickh94/auth-service/jwt"
	"github.com/rickh94/auth-service/tenant"
)

// Builder assembles an [Engine]. Construction is allocation-only: no I/O
// happens until the first Engine operation.
type Builder struct {
	config  Config
	redis   redis.UniversalClient
	tenants tenant.Registry
	mailer  email.Sender
	sink    AuditSink

	built bool
}

// New starts a Builder with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Zero-value sections are not
// backfilled; start from the defaults by mutating the Builder returned by
// [New] field by field, or pass a fully populated Config.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the secret store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithTenantRegistry sets the tenant-configuration registry.
func (b *Builder) WithTenantRegistry(r tenant.Registry) *Builder {
	b.tenants = r
	return b
}

// WithEmailSender sets the delivery transport.
func (b *Builder) WithEmailSender(s email.Sender) *Builder {
	b.mailer = s
	return b
}

// WithAuditSink sets the sink receiving audit events. Without one, enabled
// auditing discards events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the confirm-path latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires the stores and codecs, and
// returns a ready Engine. A Builder can build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.tenants == nil {
		return nil, errors.New("tenant registry is required")
	}
	if b.mailer == nil {
		return nil, errors.New("email sender is required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	codec, err := newIdentityCodec(b.config.Identity.Key)
	if err != nil {
		return nil, err
	}

	issuer, err := jwt.NewIssuer(jwt.Config{
		SigningMethod: jwt.SigningMethod(b.config.Token.SigningMethod),
		PrivateKey:    b.config.Token.PrivateKey,
		PublicKey:     b.config.Token.PublicKey,
		Issuer:        b.config.Token.Issuer,
		AccessTTL:     b.config.Token.AccessTTL,
		RefreshTTL:    b.config.Token.RefreshTTL,
		Leeway:        b.config.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:       b.config,
		otpSecrets:   newSecretStore(b.redis, b.config.OTP.RedisPrefix),
		magicSecrets: newSecretStore(b.redis, b.config.Magic.RedisPrefix),
		codec:        codec,
		issuer:       issuer,
		tenants:      b.tenants,
		mailer:       b.mailer,
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.sink),
		metrics: NewMetrics(b.config.Metrics),
	}, nil
}
