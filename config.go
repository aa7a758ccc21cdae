package jwtdata

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/jwtdata/protocol"
)

// Config holds every Engine setting. Obtain a baseline with [DefaultConfig],
// adjust it, and pass it to [Builder.WithConfig].
type Config struct {
	JWT         JWTConfig
	Session     SessionConfig
	Protocol    ProtocolConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
	MultiTenant MultiTenantConfig
	Throttle    ThrottleConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls access tokens that embed the session payload. Token
// issuance is off unless Enabled is set.
type JWTConfig struct {
	Enabled       bool
	AccessTTL     time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	KeyID         string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the Redis session layout and payload limits.
type SessionConfig struct {
	RedisPrefix     string
	MaxPayloadBytes int
}

/*
====================================
PROTOCOL CONFIG
====================================
*/

// ProtocolConfig lists the CDI versions a transport may negotiate. Default is
// used when a request names no version.
type ProtocolConfig struct {
	Supported []protocol.Version
	Default   protocol.Version
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// MultiTenantConfig enables tenant-scoped session keys. When Enabled, every
// call must carry an explicit tenant set with [WithTenantID].
type MultiTenantConfig struct {
	Enabled      bool
	TenantHeader string
}

// ThrottleConfig limits how many UNAUTHORISED answers one client IP may
// collect per Window before payload calls from it fail with [ErrRateLimited].
// Calls without a client IP in context are never throttled.
type ThrottleConfig struct {
	Enabled         bool
	MaxUnauthorized int
	Window          time.Duration
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns production defaults: 64 KiB payloads, every protocol
// version enabled, latest as default, metrics on, audit off.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     5 * time.Minute,
			SigningMethod: "ed25519",
			Leeway:        30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix:     "jd",
			MaxPayloadBytes: 64 << 10,
		},
		Protocol: ProtocolConfig{
			Supported: protocol.All(),
			Default:   protocol.Latest(),
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		MultiTenant: MultiTenantConfig{
			Enabled:      false,
			TenantHeader: "X-Tenant-Id",
		},
		Throttle: ThrottleConfig{
			Enabled:         false,
			MaxUnauthorized: 20,
			Window:          time.Minute,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	if cfg.Protocol.Supported != nil {
		out.Protocol.Supported = append([]protocol.Version(nil), cfg.Protocol.Supported...)
	}
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

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	// Session
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must be set")
	}
	if strings.Contains(c.Session.RedisPrefix, ":") {
		return errors.New("Session RedisPrefix must not contain ':'")
	}
	if c.Session.MaxPayloadBytes <= 0 {
		return errors.New("Session MaxPayloadBytes must be > 0")
	}
	if c.Session.MaxPayloadBytes > 1<<24 {
		return errors.New("Session MaxPayloadBytes must be <= 16MiB")
	}

	// Protocol
	if len(c.Protocol.Supported) == 0 {
		return errors.New("Protocol Supported must list at least one version")
	}
	defaultListed := false
	for _, v := range c.Protocol.Supported {
		if !v.Valid() {
			return errors.New("Protocol Supported contains an unknown version")
		}
		if v == c.Protocol.Default {
			defaultListed = true
		}
	}
	if !defaultListed {
		return errors.New("Protocol Default must be one of Protocol Supported")
	}

	// JWT
	if c.JWT.Enabled {
		if c.JWT.AccessTTL <= 0 {
			return errors.New("JWT AccessTTL must be > 0")
		}
		if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
			return errors.New("JWT Leeway must be within [0, 2m]")
		}
		switch c.JWT.SigningMethod {
		case "ed25519":
			if len(c.JWT.PrivateKey) == 0 {
				return errors.New("ed25519 requires PrivateKey")
			}
			if len(c.JWT.PublicKey) == 0 {
				return errors.New("ed25519 requires PublicKey")
			}
		case "hs256":
			if len(c.JWT.PrivateKey) == 0 {
				return errors.New("hs256 requires PrivateKey")
			}
		default:
			return errors.New("unsupported JWT signing method")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// MultiTenant
	if c.MultiTenant.Enabled && strings.TrimSpace(c.MultiTenant.TenantHeader) == "" {
		return errors.New("MultiTenant TenantHeader must be set when multi-tenancy is enabled")
	}

	// Throttle
	if c.Throttle.Enabled {
		if c.Throttle.MaxUnauthorized <= 0 {
			return errors.New("Throttle MaxUnauthorized must be > 0")
		}
		if c.Throttle.Window < time.Second {
			return errors.New("Throttle Window must be >= 1s")
		}
	}

	return nil
}
