package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/zumbor/internal/config"
	"github.com/udisondev/zumbor/internal/console"
	"github.com/udisondev/zumbor/internal/db"
	"github.com/udisondev/zumbor/internal/save"
	"github.com/udisondev/zumbor/internal/session"
)

const ConfigPath = "config/zumbor.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	user := flag.String("user", os.Getenv("USER"), "player tag to load or create")
	flag.Parse()

	cfgPath := ConfigPath
	if p := os.Getenv("ZUMBOR_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadZumbor(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// stdout belongs to the game; logs go to stderr
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("config loaded", "storage", cfg.Storage.Backend, "registry", cfg.Registry.Backend, "metrics", cfg.Metrics.Enabled)

	if *user == "" {
		return errors.New("no player tag: pass -user")
	}

	store, closeStore, err := db.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	registry, closeRegistry, err := openRegistry(ctx, cfg.Registry)
	if err != nil {
		return err
	}
	defer closeRegistry()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := session.NewMetrics(reg)

	game := session.NewGame(registry, save.NewPlayers(store), save.NewEncounters(store), session.Config{
		ChoiceTimeout:    cfg.Session.ChoiceTimeout,
		ContinueTimeout:  cfg.Session.ContinueTimeout,
		CharacterTimeout: cfg.Session.CharacterTimeout,
		StartingHealth:   cfg.Session.StartingHealth,
	}).WithMetrics(metrics)

	g, gctx := errgroup.WithContext(ctx)
	playCtx, stopMetrics := context.WithCancel(gctx)
	defer stopMetrics()

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return serveMetrics(playCtx, cfg.Metrics.Addr, reg)
		})
	}

	g.Go(func() error {
		defer stopMetrics()
		summary, err := game.Play(playCtx, *user, console.New(os.Stdin, os.Stdout))
		if err != nil {
			slog.Warn("play-through ended early", "user", *user, "state", summary.Final, "error", err)
			return nil
		}
		slog.Info("play-through finished", "user", *user, "turns", summary.Turns, "score", summary.Player.Score, "died", summary.Died)
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("zumbor: %w", err)
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openRegistry(ctx context.Context, cfg config.Registry) (session.Registry, func(), error) {
	switch cfg.Backend {
	case config.RegistryMemory:
		return session.NewMemoryRegistry(), func() {}, nil

	case config.RegistryRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connecting to redis %s: %w", cfg.Redis.Addr, err)
		}
		slog.Info("redis connected", "addr", cfg.Redis.Addr)
		return session.NewRedisRegistry(client, cfg.Redis.LeaseTTL), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown registry backend %q", cfg.Backend)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
