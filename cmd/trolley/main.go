// Command trolley runs one shopping-list optimization and prints the ranked plans.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trolleyhq/trolley/config"
	"github.com/trolleyhq/trolley/internal/aggregator"
	"github.com/trolleyhq/trolley/internal/catalog"
	"github.com/trolleyhq/trolley/internal/observability"
	"github.com/trolleyhq/trolley/internal/optimizer"
	"github.com/trolleyhq/trolley/internal/persistence/migrations"
	"github.com/trolleyhq/trolley/internal/quote"
	"github.com/trolleyhq/trolley/internal/quotecache"
	"github.com/trolleyhq/trolley/internal/strategy"
	"github.com/trolleyhq/trolley/lib/telemetry"
)

const (
	defaultConfigPath   = "config/trolley.yaml"
	trolleyLoggerPrefix = "trolley "
	telemetryTimeout    = 5 * time.Second
	migrateTimeout      = 30 * time.Second
)

func main() {
	flags := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := newTrolleyLogger()
	observability.SetLogger(stdLogger{logger: logger})

	settings, loadedFromFile, err := config.Load(resolveConfigPath(flags.configPath))
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if !loadedFromFile {
		logger.Printf("configuration file not found, using defaults")
	}
	if flags.catalogPath != "" {
		settings.CatalogPath = flags.catalogPath
	}
	logger.Printf("configuration initialised: env=%s, catalog=%s", settings.Environment, settings.CatalogPath)

	cat, err := catalog.LoadFile(settings.CatalogPath)
	if err != nil {
		logger.Fatalf("load store catalog: %v", err)
	}
	logger.Printf("store catalog loaded: stores=%d", cat.Len())

	shutdownTelemetry, err := initTelemetry(ctx, logger, settings.Telemetry)
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), telemetryTimeout)
		defer shutdownCancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Printf("telemetry shutdown: %v", err)
		}
	}()

	backend := buildCacheBackend(ctx, logger, settings.Cache)
	defer backend.Close()

	fetcher := quote.NewHTTPFetcher(quote.HTTPFetcherConfig{
		Timeout:        settings.Fetch.Timeout,
		RequestsPerSec: settings.Fetch.RequestsPerSec,
		MaxRetries:     settings.Fetch.MaxRetries,
	})
	cache := quotecache.NewCache(backend, fetcher, settings.Cache.TTL)
	agg := aggregator.New(cat, cache, settings.Optimizer.MaxFetchWorkers)

	orchestrator := optimizer.New(cat, agg, strategy.SingleStore{}, strategy.MultiStore{}, strategy.Bulk{})
	if settings.Optimizer.ScriptDir != "" {
		scripted, err := strategy.LoadDir(settings.Optimizer.ScriptDir)
		if err != nil {
			logger.Fatalf("load strategy scripts: %v", err)
		}
		orchestrator.Register(scripted...)
		logger.Printf("scripted strategies registered: %d", len(scripted))
	}

	requests, err := readShoppingList(flags.listPath)
	if err != nil {
		logger.Fatalf("read shopping list: %v", err)
	}
	logger.Printf("shopping list loaded: items=%d", len(requests))

	recommendation, err := orchestrator.Optimize(ctx, requests)
	if err != nil {
		logger.Fatalf("optimize shopping list: %v", err)
	}
	if recommendation.Recommended == nil {
		logger.Printf("no applicable strategy produced a plan")
	} else {
		logger.Printf("recommended strategy: %s total=%s",
			recommendation.Recommended.Strategy, recommendation.Recommended.Total())
	}

	if err := printRecommendation(os.Stdout, recommendation); err != nil {
		logger.Fatalf("print recommendation: %v", err)
	}
}

type cliFlags struct {
	configPath  string
	catalogPath string
	listPath    string
}

func parseFlags() cliFlags {
	cfgPath := flag.String("config", "", fmt.Sprintf("Path to application configuration file (default: %s)", defaultConfigPath))
	catalogPath := flag.String("catalog", "", "Path to the store catalog YAML (overrides configuration)")
	listPath := flag.String("list", "-", "Path to the shopping list JSON, or - for stdin")
	flag.Parse()
	return cliFlags{configPath: *cfgPath, catalogPath: *catalogPath, listPath: *listPath}
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newTrolleyLogger() *log.Logger {
	return log.New(os.Stderr, trolleyLoggerPrefix, log.LstdFlags|log.Lmicroseconds)
}

func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Clean(defaultConfigPath)
}

func initTelemetry(ctx context.Context, logger *log.Logger, cfg config.TelemetrySettings) (func(context.Context) error, error) {
	_, shutdown, err := telemetry.Init(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry provider: %w", err)
	}
	if cfg.OTLPEndpoint != "" {
		logger.Printf("telemetry initialized: endpoint=%s, service=%s", cfg.OTLPEndpoint, cfg.ServiceName)
	} else {
		logger.Printf("telemetry disabled")
	}
	return shutdown, nil
}

// buildCacheBackend prefers Postgres when a DSN is configured and falls back
// to the in-process cache when the database cannot be reached, so an outage
// slows lookups down instead of blocking optimizations.
func buildCacheBackend(ctx context.Context, logger *log.Logger, cfg config.CacheSettings) quotecache.Backend {
	if cfg.PostgresDSN == "" {
		logger.Printf("quote cache: in-memory backend (ttl=%s)", cfg.TTL)
		return quotecache.NewMemoryBackend(cfg.TTL, cfg.SweepInterval)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()
	if err := migrations.Apply(migrateCtx, cfg.PostgresDSN); err != nil {
		logger.Printf("quote cache: postgres unavailable, degrading to in-memory backend: %v", err)
		return quotecache.NewMemoryBackend(cfg.TTL, cfg.SweepInterval)
	}
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Printf("quote cache: postgres pool failed, degrading to in-memory backend: %v", err)
		return quotecache.NewMemoryBackend(cfg.TTL, cfg.SweepInterval)
	}
	logger.Printf("quote cache: postgres backend (ttl=%s)", cfg.TTL)
	return quotecache.NewPostgresBackend(pool)
}

func readShoppingList(path string) ([]optimizer.ItemRequest, error) {
	var raw []byte
	var err error
	if path == "-" || path == "" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read list input: %w", err)
	}

	var requests []optimizer.ItemRequest
	if err := json.Unmarshal(raw, &requests); err != nil {
		return nil, fmt.Errorf("decode list input: %w", err)
	}
	return requests, nil
}

func printRecommendation(w io.Writer, rec optimizer.Recommendation) error {
	encoded, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recommendation: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(encoded)); err != nil {
		return fmt.Errorf("write recommendation: %w", err)
	}
	return nil
}

// stdLogger adapts the process logger to the structured logging contract used
// by the library packages.
type stdLogger struct {
	logger *log.Logger
}

func (s stdLogger) Debug(msg string, fields ...observability.Field) { s.print("DEBUG", msg, fields) }
func (s stdLogger) Info(msg string, fields ...observability.Field)  { s.print("INFO", msg, fields) }
func (s stdLogger) Error(msg string, fields ...observability.Field) { s.print("ERROR", msg, fields) }

func (s stdLogger) print(level, msg string, fields []observability.Field) {
	if len(fields) == 0 {
		s.logger.Printf("%s %s", level, msg)
		return
	}
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", field.Key, field.Value))
	}
	s.logger.Printf("%s %s %s", level, msg, strings.Join(parts, " "))
}
