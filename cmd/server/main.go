package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ilievs/splitwise/internal/ledger"
	"github.com/ilievs/splitwise/internal/server"
	"github.com/ilievs/splitwise/internal/storage"
	"github.com/ilievs/splitwise/internal/storage/jsonl"
	"github.com/ilievs/splitwise/internal/storage/sqlite"
	"github.com/ilievs/splitwise/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Ignoring non-numeric environment value", "key", key, "value", value)
		return fallback
	}
	return n
}

// newStore picks the persistence backend from the STORE env var:
// "jsonl" (default) or "sqlite".
func newStore() (storage.Store, error) {
	switch backend := getEnv("STORE", "jsonl"); backend {
	case "sqlite":
		path := getEnv("DB_PATH", "./data/splitwise.db")
		slog.Info("Using SQLite store", "path", path)
		return sqlite.New(path)
	default:
		path := getEnv("STORE_PATH", "./data/users.jsonl")
		slog.Info("Using JSONL store", "path", path)
		return jsonl.New(path)
	}
}

func main() {
	logging.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore()
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc, err := ledger.New(ctx, store)
	if err != nil {
		slog.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := server.NewMetrics(reg)

	if addr := getEnv("METRICS_ADDR", ""); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			slog.Info("Metrics listening", "address", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	srv := server.New(server.Config{
		Host:       getEnv("HOST", "localhost"),
		Port:       getEnvInt("PORT", 7777),
		BufferSize: getEnvInt("BUFFER_SIZE", 1024),
	}, svc, metrics)

	if err := srv.Run(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
