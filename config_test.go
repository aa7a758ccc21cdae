package jwtdata

import (
	"testing"
	"time"

	"github.com/MrEthical07/jwtdata/protocol"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Protocol.Default != protocol.Latest() {
		t.Fatalf("expected latest default version, got %s", cfg.Protocol.Default)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name: "throttle without budget",
			mutate: func(c *Config) {
				c.Throttle.Enabled = true
				c.Throttle.MaxUnauthorized = 0
			},
			wantValid: false,
		},
		{
			name: "throttle window too short",
			mutate: func(c *Config) {
				c.Throttle.Enabled = true
				c.Throttle.Window = 500 * time.Millisecond
			},
			wantValid: false,
		},
		{
			name:      "throttle defaults",
			mutate:    func(c *Config) { c.Throttle.Enabled = true },
			wantValid: true,
		},
		{
			name:      "empty redis prefix",
			mutate:    func(c *Config) { c.Session.RedisPrefix = "  " },
			wantValid: false,
		},
		{
			name:      "redis prefix with separator",
			mutate:    func(c *Config) { c.Session.RedisPrefix = "a:b" },
			wantValid: false,
		},
		{
			name:      "zero payload limit",
			mutate:    func(c *Config) { c.Session.MaxPayloadBytes = 0 },
			wantValid: false,
		},
		{
			name:      "payload limit above encoder cap",
			mutate:    func(c *Config) { c.Session.MaxPayloadBytes = 1<<24 + 1 },
			wantValid: false,
		},
		{
			name:      "no supported versions",
			mutate:    func(c *Config) { c.Protocol.Supported = nil },
			wantValid: false,
		},
		{
			name: "default not in supported",
			mutate: func(c *Config) {
				c.Protocol.Supported = []protocol.Version{protocol.Version20}
				c.Protocol.Default = protocol.Version23
			},
			wantValid: false,
		},
		{
			name: "unknown supported version",
			mutate: func(c *Config) {
				c.Protocol.Supported = append(c.Protocol.Supported, protocol.VersionUnknown)
			},
			wantValid: false,
		},
		{
			name: "legacy default allowed",
			mutate: func(c *Config) {
				c.Protocol.Default = protocol.Version10
			},
			wantValid: true,
		},
		{
			name: "jwt enabled without keys",
			mutate: func(c *Config) {
				c.JWT.Enabled = true
			},
			wantValid: false,
		},
		{
			name: "jwt hs256 with key",
			mutate: func(c *Config) {
				c.JWT.Enabled = true
				c.JWT.SigningMethod = "hs256"
				c.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
			},
			wantValid: true,
		},
		{
			name: "jwt signing invalid",
			mutate: func(c *Config) {
				c.JWT.Enabled = true
				c.JWT.SigningMethod = "rs256"
				c.JWT.PrivateKey = []byte("k")
			},
			wantValid: false,
		},
		{
			name: "jwt leeway invalid",
			mutate: func(c *Config) {
				c.JWT.Enabled = true
				c.JWT.SigningMethod = "hs256"
				c.JWT.PrivateKey = []byte("k")
				c.JWT.Leeway = 3 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "jwt disabled ignores signing settings",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "rs256"
			},
			wantValid: true,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "multi-tenant without header",
			mutate: func(c *Config) {
				c.MultiTenant.Enabled = true
				c.MultiTenant.TenantHeader = ""
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuildConfigImmutabilityAgainstExternalMutation(t *testing.T) {
	_, rdb := newTestRedis(t)

	cfg := DefaultConfig()
	cfg.JWT.Enabled = true
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")

	engine, err := New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	cfg.JWT.PrivateKey[0] = 'X'
	cfg.Protocol.Supported[0] = protocol.VersionUnknown

	got := engine.Config()
	if got.JWT.PrivateKey[0] != '0' {
		t.Fatal("engine config shares key bytes with caller")
	}
	if got.Protocol.Supported[0] != protocol.Version10 {
		t.Fatal("engine config shares supported versions with caller")
	}
}

func TestBuilderRequiresRedis(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected build without redis to fail")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)
	b := New().WithRedis(rdb)
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	_, rdb := newTestRedis(t)
	cfg := DefaultConfig()
	cfg.Session.MaxPayloadBytes = -1
	if _, err := New().WithConfig(cfg).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected invalid config to fail build")
	}
}
