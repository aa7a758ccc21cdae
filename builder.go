package jwtdata

import (
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/jwtdata/internal/audit"
	"github.com/MrEthical07/jwtdata/internal/flows"
	"github.com/MrEthical07/jwtdata/internal/rate"
	"github.com/MrEthical07/jwtdata/jwt"
	"github.com/MrEthical07/jwtdata/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	auditSink AuditSink
	validator SessionValidator

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the session backend. Any go-redis client works, including
// cluster and failover clients.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets where audit events go. Audit must also be enabled in config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithSessionValidator adds a validity rule applied after existence and expiry.
func (b *Builder) WithSessionValidator(v SessionValidator) *Builder {
	b.validator = v
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	store := session.NewStore(b.redis, cfg.Session.RedisPrefix)

	engine := &Engine{
		config:       cloneConfig(cfg),
		sessionStore: store,
		now:          time.Now,
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	// -------- THROTTLE --------
	if cfg.Throttle.Enabled {
		engine.limiter = rate.New(b.redis, cfg.Session.RedisPrefix, rate.Config{
			MaxUnauthorized: cfg.Throttle.MaxUnauthorized,
			Window:          cfg.Throttle.Window,
		})
	}

	// -------- JWT --------
	if cfg.JWT.Enabled {
		jm, err := jwt.NewManager(jwt.Config{
			AccessTTL:     cfg.JWT.AccessTTL,
			SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
			PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
			PublicKey:     cloneBytes(cfg.JWT.PublicKey),
			Issuer:        cfg.JWT.Issuer,
			Audience:      cfg.JWT.Audience,
			KeyID:         cfg.JWT.KeyID,
			Leeway:        cfg.JWT.Leeway,
			RequireIAT:    true,
		})
		if err != nil {
			engine.Close()
			return nil, err
		}
		engine.jwtManager = jm
	}

	// -------- FLOWS --------
	payloadDeps := flows.PayloadDeps{
		SessionStore:    store,
		IsValid:         b.validator,
		MaxPayloadBytes: cfg.Session.MaxPayloadBytes,
		PayloadInvalid:  ErrPayloadInvalid,
		PayloadTooLarge: ErrPayloadTooLarge,
	}
	deps := flows.Deps{
		Payload: payloadDeps,
		Token:   flows.TokenDeps{Payload: payloadDeps},
	}
	if engine.jwtManager != nil {
		jm := engine.jwtManager
		deps.Token.SignAccess = func(s *session.Session) (string, error) {
			return jm.CreateAccess(s.UserID, s.TenantID, s.Handle, s.Payload)
		}
	}
	engine.flows = flows.New(deps)

	b.built = true

	return engine, nil
}
