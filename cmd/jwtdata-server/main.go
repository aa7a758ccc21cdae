// Command jwtdata-server serves the session JWT payload API.
//
//	GET  /jwt/data?sessionHandle=...  read a session's payload
//	PUT  /jwt/data                    replace a session's payload
//	POST /jwt/token                   sign an access token (JWT enabled only)
//	GET  /jwt/claims                  echo verified token claims (JWT enabled only)
//	GET  /health                      storage round-trip check
//	GET  /metrics                     Prometheus text exposition
//
// Run with -dev to use an in-process Redis seeded with the sessions "abc123"
// (live, empty payload) and "expired-1" (expired).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/jwtdata/internal/cfg"
	"github.com/MrEthical07/jwtdata/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		dev        = flag.Bool("dev", false, "run against an in-process Redis with demo sessions")
	)
	flag.Parse()

	if err := run(*configPath, *dev); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, dev bool) error {
	config, err := cfg.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logging.New(config.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var client redis.UniversalClient
	if dev {
		mr, devClient, err := startDevRedis()
		if err != nil {
			return fmt.Errorf("start dev redis: %w", err)
		}
		defer mr.Close()
		client = devClient
		if err := seedDemoSessions(ctx, client, config.Engine.Session.RedisPrefix); err != nil {
			return fmt.Errorf("seed demo sessions: %w", err)
		}
		log.Info().Str("redis", mr.Addr()).Strs("handles", []string{demoHandle, demoExpiredHandle}).Msg("dev mode")
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{config.Redis.Addr},
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
	}
	defer client.Close()

	if err := connectRedis(ctx, client, log, 5); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}

	engine, err := buildEngine(config, client, log)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	srv := &http.Server{
		Addr:              config.Listen,
		Handler:           newRouter(config, engine, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", config.Listen).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			engine.Close()
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := engine.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Uint64("audit_dropped", engine.AuditDropped()).Msg("audit events not flushed")
		return err
	}
	return nil
}
