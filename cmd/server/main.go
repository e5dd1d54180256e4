package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"clubgate/internal/identity/store"
	"clubgate/internal/nav"
	"clubgate/internal/nav/views"
	"clubgate/internal/platform/config"
	"clubgate/internal/platform/httpserver"
	"clubgate/internal/platform/logger"
	"clubgate/internal/platform/metrics"
	"clubgate/internal/platform/postgres"
	"clubgate/internal/platform/redis"
	"clubgate/internal/token"
	httptransport "clubgate/internal/transport/http"
	"clubgate/internal/upstream"
	"clubgate/pkg/platform/audit"
	auditpub "clubgate/pkg/platform/audit/publisher"
	auditmem "clubgate/pkg/platform/audit/store/memory"
	kafkasink "clubgate/pkg/platform/audit/sink/kafka"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Identity store: postgres when configured, then redis, then in-memory.
	identities, health, cleanup, err := buildIdentityStore(ctx, cfg)
	if err != nil {
		log.Error("identity store init failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Audit: kafka when brokers are configured, in-process otherwise.
	auditStore, auditCleanup, err := buildAuditStore(cfg, log)
	if err != nil {
		log.Error("audit sink init failed", "error", err)
		os.Exit(1)
	}
	defer auditCleanup()
	auditPub := auditpub.NewPublisher(auditStore,
		auditpub.WithAsyncBuffer(1024),
		auditpub.WithLogger(log),
	)
	defer auditPub.Close()

	up := upstream.New(cfg.Upstream.BaseURL, log,
		upstream.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.Timeout}),
		upstream.WithAuthRejectHook(httptransport.CredentialClearHook(identities, log)),
	)

	tokens := token.NewService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.TTL)
	sessions := httptransport.NewSessionRegistry(httptransport.DefaultSessionBuilder(up, log))
	guard := nav.NewGuard(views.Default(), log)
	m := metrics.New(prometheus.DefaultRegisterer)

	handler := httptransport.NewHandler(log, up, identities, tokens, sessions, guard, auditPub, m, cfg.JWT.TTL)
	router := httptransport.NewRouter(handler, log, m, health...)

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("starting clubgate", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func buildIdentityStore(ctx context.Context, cfg config.Config) (store.Store, []httptransport.HealthCheck, func(), error) {
	if cfg.Postgres.URL != "" {
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		checks := []httptransport.HealthCheck{{Name: "postgres", Probe: pool.Ping}}
		return pg, checks, pool.Close, nil
	}

	if cfg.Redis.URL != "" {
		client, err := redis.New(cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		checks := []httptransport.HealthCheck{{Name: "redis", Probe: client.Health}}
		return store.NewRedis(client.Client, cfg.Server.SessionTTL), checks, func() { _ = client.Close() }, nil
	}

	return store.NewInMemory(), nil, func() {}, nil
}

func buildAuditStore(cfg config.Config, log *slog.Logger) (audit.Store, func(), error) {
	sink, err := kafkasink.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return nil, nil, err
	}
	if sink != nil {
		return sink, sink.Close, nil
	}
	return auditmem.NewInMemoryStore(), func() {}, nil
}
