package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/avast/retry-go/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MrEthical07/jwtdata"
	"github.com/MrEthical07/jwtdata/api"
	"github.com/MrEthical07/jwtdata/internal/cfg"
	"github.com/MrEthical07/jwtdata/metrics/export/prometheus"
	"github.com/MrEthical07/jwtdata/middleware"
	"github.com/MrEthical07/jwtdata/session"
)

// Demo sessions seeded in -dev mode.
const (
	demoHandle        = "abc123"
	demoExpiredHandle = "expired-1"
)

// The body cap only guards the transport. The payload limit applies to the
// compacted userDataInJWT, so the raw body is allowed generous room for
// whitespace and the envelope around it.
const (
	minBodyBytes    = 1 << 20
	bodyOverhead    = 4096
	bodyPaddingRate = 4
)

// bodyLimit is the raw PUT body cap for a compacted payload limit of maxPayload.
func bodyLimit(maxPayload int) int64 {
	limit := int64(maxPayload)*bodyPaddingRate + bodyOverhead
	if limit < minBodyBytes {
		return minBodyBytes
	}
	return limit
}

// connectRedis pings client until it answers or attempts run out.
func connectRedis(ctx context.Context, client redis.UniversalClient, log zerolog.Logger, attempts uint) error {
	return retry.Do(
		func() error {
			return client.Ping(ctx).Err()
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(5*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Msg("redis not ready")
		}),
	)
}

// startDevRedis runs an in-process Redis.
func startDevRedis() (*miniredis.Miniredis, redis.UniversalClient, error) {
	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	return mr, client, nil
}

// seedDemoSessions stores one live session with an empty payload and one
// that is already past its expiry.
func seedDemoSessions(ctx context.Context, client redis.UniversalClient, prefix string) error {
	store := session.NewStore(client, prefix)
	now := time.Now()

	live := &session.Session{
		Handle:    demoHandle,
		UserID:    "demo-user",
		TenantID:  "0",
		Payload:   json.RawMessage(`{}`),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(24 * time.Hour).Unix(),
	}
	if err := store.Save(ctx, live, 24*time.Hour); err != nil {
		return err
	}

	expired := &session.Session{
		Handle:    demoExpiredHandle,
		UserID:    "demo-user",
		TenantID:  "0",
		Payload:   json.RawMessage(`{"stale":true}`),
		CreatedAt: now.Add(-2 * time.Hour).Unix(),
		ExpiresAt: now.Add(-time.Hour).Unix(),
	}
	// Redis keeps the record so lookups see it as expired rather than missing.
	return store.Save(ctx, expired, time.Hour)
}

// buildEngine wires the engine, sending audit events to log when enabled.
func buildEngine(config *cfg.Config, client redis.UniversalClient, log zerolog.Logger) (*jwtdata.Engine, error) {
	b := jwtdata.New().WithConfig(config.Engine).WithRedis(client)
	if config.Engine.Audit.Enabled {
		b = b.WithAuditSink(jwtdata.NewZerologSink(log))
	}
	return b.Build()
}

// newRouter mounts the API behind request context, API key and version
// negotiation. /health and /metrics stay outside the key check.
func newRouter(config *cfg.Config, engine *jwtdata.Engine, log zerolog.Logger) http.Handler {
	engineCfg := engine.Config()

	opts := []api.Option{
		api.WithHealthChecker(engine),
		api.WithMaxBodyBytes(bodyLimit(engineCfg.Session.MaxPayloadBytes)),
	}
	if engineCfg.JWT.Enabled {
		opts = append(opts, api.WithTokenIssuer(engine))
	}
	h := api.NewHandler(engine, log, opts...)

	apiMux := http.NewServeMux()
	h.Routes(apiMux)
	if engineCfg.JWT.Enabled {
		apiMux.Handle("/jwt/claims", middleware.RequireAccessToken(engine)(http.HandlerFunc(h.Claims)))
	}

	tenantHeader := ""
	if engineCfg.MultiTenant.Enabled {
		tenantHeader = engineCfg.MultiTenant.TenantHeader
	}

	guarded := middleware.RequestContext(tenantHeader)(
		middleware.RequireAPIKey(config.APIKeys)(
			middleware.Negotiate(engineCfg.Protocol.Supported, engineCfg.Protocol.Default)(apiMux),
		),
	)

	root := http.NewServeMux()
	root.Handle("/jwt/", guarded)
	root.HandleFunc("/health", h.Health)
	root.Handle("/metrics", prometheus.NewPrometheusExporter(engine).Handler())
	return root
}
