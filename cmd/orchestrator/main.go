// Package main runs the blink order orchestrator.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/blink/internal/agent"
	"github.com/thebtf/blink/internal/config"
	"github.com/thebtf/blink/internal/dispatch"
	"github.com/thebtf/blink/internal/menu"
	"github.com/thebtf/blink/internal/metrics"
	"github.com/thebtf/blink/internal/ports/analytics"
	"github.com/thebtf/blink/internal/ports/openai"
	"github.com/thebtf/blink/internal/ports/pos"
	"github.com/thebtf/blink/internal/ports/webhook"
	"github.com/thebtf/blink/internal/server"
	"github.com/thebtf/blink/internal/session"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *debug || cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, err := metrics.New()
	if err != nil {
		log.Warn().Err(err).Msg("Metrics unavailable, continuing without")
	}

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.SessionBackend).Msg("Failed to initialize session store")
	}
	defer closeStore()

	catalog, err := dispatch.LoadCatalog(cfg.RepliesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.RepliesPath).Msg("Failed to load reply catalog")
	}
	if cfg.RepliesPath != "" {
		if err := catalog.Watch(ctx); err != nil {
			log.Warn().Err(err).Msg("Reply catalog hot reload disabled")
		}
	}

	gateway := webhook.NewGateway(webhook.Config{
		MenuURL:  cfg.MenuWebhookURL,
		PhoneURL: cfg.PhoneWebhookURL,
		OrderURL: cfg.OrderWebhookURL,
		Timeout:  cfg.WebhookTimeout,
	})
	classifier := openai.NewClassifier(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.RouterModel)
	fulfillment := pos.NewNotifier(cfg.POSURL, m)
	sink := analytics.NewSink(cfg.AnalyticsWebhookURL, m)

	dispatcher := dispatch.New(
		menu.NewMatcher(cfg.FuzzyThreshold),
		gateway, gateway, gateway,
		fulfillment,
		catalog,
		m,
	)
	coordinator := agent.New(store, classifier, dispatcher, sink, m)

	svc := server.NewService(coordinator, Version)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           svc,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Str("version", Version).Msg("Starting orchestrator")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return sweepLoop(gctx, store, m, cfg.SweepInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Orchestrator exited")
	}
}

func buildStore(cfg *config.Config) (session.Store, func(), error) {
	switch cfg.SessionBackend {
	case config.BackendRedis:
		store := session.NewRedisStore(cfg.RedisAddr, cfg.SessionTTL)
		return store, func() { _ = store.Close() }, nil
	case config.BackendSQLite:
		store, err := session.NewGormStore(cfg.DBPath, cfg.SessionTTL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}
}

// sweepLoop periodically removes expired sessions so memory does not
// depend on read traffic hitting every stale key.
func sweepLoop(ctx context.Context, store session.Store, m *metrics.Metrics, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			swept, err := store.Sweep(ctx, time.Now())
			if err != nil {
				log.Warn().Err(err).Msg("Session sweep failed")
				continue
			}
			m.Swept(ctx, swept)
			if swept > 0 {
				log.Info().Int("count", swept).Msg("Swept expired sessions")
			}
		}
	}
}
