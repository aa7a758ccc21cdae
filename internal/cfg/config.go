// Package cfg loads jwtdata-server configuration from an optional YAML file
// and JWTDATA_* environment variables. The environment wins.
package cfg

import (
	"errors"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/MrEthical07/jwtdata"
	"github.com/MrEthical07/jwtdata/protocol"
)

// Environment variable names.
const (
	envAppEnv          = "JWTDATA_ENV"
	envListen          = "JWTDATA_LISTEN"
	envRedisAddr       = "JWTDATA_REDIS_ADDR"
	envRedisPassword   = "JWTDATA_REDIS_PASSWORD"
	envRedisDB         = "JWTDATA_REDIS_DB"
	envAPIKeys         = "JWTDATA_API_KEYS"
	envJWTSecret       = "JWTDATA_JWT_SECRET"
	envShutdownTimeout = "JWTDATA_SHUTDOWN_TIMEOUT"
)

const (
	defaultListen          = ":3567"
	defaultRedisAddr       = "localhost:6379"
	defaultShutdownTimeout = 10 * time.Second
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config is the resolved server configuration.
type Config struct {
	AppEnv          string
	Listen          string
	ShutdownTimeout time.Duration
	Redis           RedisConfig
	APIKeys         []string
	Engine          jwtdata.Config
}

// YAML config structures, mirroring the file layout.
type fileConfig struct {
	AppEnv          string             `yaml:"app_env"`
	Listen          string             `yaml:"listen"`
	ShutdownTimeout string             `yaml:"shutdown_timeout"`
	APIKeys         []string           `yaml:"api_keys"`
	Redis           redisYAMLConfig    `yaml:"redis"`
	Session         sessionYAMLConfig  `yaml:"session"`
	Protocol        protoYAMLConfig    `yaml:"protocol"`
	MultiTenant     tenantYAMLConfig   `yaml:"multi_tenant"`
	Audit           auditYAMLConfig    `yaml:"audit"`
	Metrics         metricsYAMLConfig  `yaml:"metrics"`
	JWT             jwtYAMLConfig      `yaml:"jwt"`
	Throttle        throttleYAMLConfig `yaml:"throttle"`
}

type redisYAMLConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type sessionYAMLConfig struct {
	MaxPayloadBytes int `yaml:"max_payload_bytes"`
}

type protoYAMLConfig struct {
	Supported []string `yaml:"supported"`
	Default   string   `yaml:"default"`
}

type tenantYAMLConfig struct {
	Enabled      bool   `yaml:"enabled"`
	TenantHeader string `yaml:"tenant_header"`
}

type auditYAMLConfig struct {
	Enabled    bool  `yaml:"enabled"`
	BufferSize int   `yaml:"buffer_size"`
	DropIfFull *bool `yaml:"drop_if_full"`
}

type metricsYAMLConfig struct {
	Enabled           *bool `yaml:"enabled"`
	LatencyHistograms bool  `yaml:"latency_histograms"`
}

type throttleYAMLConfig struct {
	Enabled         bool   `yaml:"enabled"`
	MaxUnauthorized int    `yaml:"max_unauthorized"`
	Window          string `yaml:"window"`
}

type jwtYAMLConfig struct {
	Enabled        bool   `yaml:"enabled"`
	SigningMethod  string `yaml:"signing_method"`
	AccessTTL      string `yaml:"access_ttl"`
	Issuer         string `yaml:"issuer"`
	Audience       string `yaml:"audience"`
	KeyID          string `yaml:"key_id"`
	PrivateKeyFile string `yaml:"private_key_file"`
	PublicKeyFile  string `yaml:"public_key_file"`
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the engine section.
func Load(path string) (*Config, error) {
	l := NewLoader()

	fc := l.loadFile(path)

	cfg := &Config{
		AppEnv:          l.getEnvWithDefault(envAppEnv, orDefault(fc.AppEnv, "development")),
		Listen:          l.getEnvWithDefault(envListen, orDefault(fc.Listen, defaultListen)),
		ShutdownTimeout: l.getEnvDurationOrDefault(envShutdownTimeout, l.parseDuration("shutdown_timeout", fc.ShutdownTimeout, defaultShutdownTimeout)),
		Redis:           l.loadRedis(fc.Redis),
		APIKeys:         l.getEnvListOrDefault(envAPIKeys, fc.APIKeys),
		Engine:          l.loadEngine(fc),
	}

	if l.HasErrors() {
		return nil, l.Error()
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) loadFile(path string) fileConfig {
	var fc fileConfig
	if path == "" {
		return fc
	}

	data, err := os.ReadFile(path)
	if err != nil {
		l.addErr(errors.New("failed to read " + path + ": " + err.Error()))
		return fc
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		l.addErr(errors.New("failed to parse " + path + ": " + err.Error()))
	}
	return fc
}

func (l *Loader) loadRedis(y redisYAMLConfig) RedisConfig {
	return RedisConfig{
		Addr:     l.getEnvWithDefault(envRedisAddr, orDefault(y.Addr, defaultRedisAddr)),
		Password: l.getEnvWithDefault(envRedisPassword, y.Password),
		DB:       l.getEnvIntOrDefault(envRedisDB, y.DB),
	}
}

func (l *Loader) loadEngine(fc fileConfig) jwtdata.Config {
	c := jwtdata.DefaultConfig()

	if fc.Redis.Prefix != "" {
		c.Session.RedisPrefix = fc.Redis.Prefix
	}
	if fc.Session.MaxPayloadBytes != 0 {
		c.Session.MaxPayloadBytes = fc.Session.MaxPayloadBytes
	}

	if len(fc.Protocol.Supported) > 0 {
		c.Protocol.Supported = l.parseVersions(fc.Protocol.Supported)
	}
	if fc.Protocol.Default != "" {
		v, err := protocol.Parse(fc.Protocol.Default)
		if err != nil {
			l.addErr(errors.New("invalid protocol.default: " + fc.Protocol.Default))
		} else {
			c.Protocol.Default = v
		}
	}

	c.Throttle.Enabled = fc.Throttle.Enabled
	if fc.Throttle.MaxUnauthorized != 0 {
		c.Throttle.MaxUnauthorized = fc.Throttle.MaxUnauthorized
	}
	c.Throttle.Window = l.parseDuration("throttle.window", fc.Throttle.Window, c.Throttle.Window)

	c.MultiTenant.Enabled = fc.MultiTenant.Enabled
	if fc.MultiTenant.TenantHeader != "" {
		c.MultiTenant.TenantHeader = fc.MultiTenant.TenantHeader
	}

	c.Audit.Enabled = fc.Audit.Enabled
	if fc.Audit.BufferSize != 0 {
		c.Audit.BufferSize = fc.Audit.BufferSize
	}
	if fc.Audit.DropIfFull != nil {
		c.Audit.DropIfFull = *fc.Audit.DropIfFull
	}

	if fc.Metrics.Enabled != nil {
		c.Metrics.Enabled = *fc.Metrics.Enabled
	}
	c.Metrics.EnableLatencyHistograms = fc.Metrics.LatencyHistograms

	l.loadJWT(&c.JWT, fc.JWT)
	return c
}

func (l *Loader) loadJWT(c *jwtdata.JWTConfig, y jwtYAMLConfig) {
	c.Enabled = y.Enabled
	if y.SigningMethod != "" {
		c.SigningMethod = y.SigningMethod
	}
	c.AccessTTL = l.parseDuration("jwt.access_ttl", y.AccessTTL, c.AccessTTL)
	c.Issuer = y.Issuer
	c.Audience = y.Audience
	c.KeyID = y.KeyID
	c.PrivateKey = l.readFile("jwt.private_key_file", y.PrivateKeyFile)
	c.PublicKey = l.readFile("jwt.public_key_file", y.PublicKeyFile)

	// An HMAC secret in the environment switches signing to hs256.
	if secret := os.Getenv(envJWTSecret); secret != "" {
		c.Enabled = true
		c.SigningMethod = "hs256"
		c.PrivateKey = []byte(secret)
		c.PublicKey = nil
	}
}

func (l *Loader) parseVersions(raw []string) []protocol.Version {
	out := make([]protocol.Version, 0, len(raw))
	for _, s := range raw {
		v, err := protocol.Parse(s)
		if err != nil {
			l.addErr(errors.New("invalid protocol.supported entry: " + s))
			continue
		}
		out = append(out, v)
	}
	return out
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
