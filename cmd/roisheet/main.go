package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/WujsST/roi-sheet/internal/analytics"
	"github.com/WujsST/roi-sheet/internal/api"
	"github.com/WujsST/roi-sheet/internal/auth"
	"github.com/WujsST/roi-sheet/internal/config"
	"github.com/WujsST/roi-sheet/internal/ingest"
	"github.com/WujsST/roi-sheet/internal/metrics"
	"github.com/WujsST/roi-sheet/internal/report"
	"github.com/WujsST/roi-sheet/internal/store/postgres"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// Build-time variables set via -ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitInvalidConfig = 2
)

func main() {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitRuntimeError)
	}

	cmd := os.Args[1]

	switch cmd {
	case "serve":
		os.Exit(runServe())
	case "migrate":
		os.Exit(runMigrate())
	case "issue-key":
		os.Exit(runIssueKey())
	case "validate":
		os.Exit(runValidate())
	case "config":
		os.Exit(runConfig())
	case "version":
		os.Exit(runVersion())
	case "--help", "-h", "help":
		printUsage()
		os.Exit(exitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(exitRuntimeError)
	}
}

func printUsage() {
	fmt.Println(`roisheet - automation ROI tracking service

Usage:
  roisheet <command>

Commands:
  serve      Start the webhook ingestion and management API server
  migrate    Apply pending database migrations
  issue-key  Issue a new API key for the configured account
  validate   Validate configuration (no connections made)
  config     Print effective configuration as JSON (secrets masked)
  version    Print version information

Environment Variables:
  DATABASE_URL              PostgreSQL connection string (required)
  REDIS_ADDR                Redis address for execution counters (optional)
  HTTP_ADDR                 HTTP server address (default: ":8080", falls back to PORT)
  ACCOUNT_ID                Tenant account uuid for management operations

  DB_OP_TIMEOUT             Database operation timeout (default: "5s")
  DB_MAX_OPEN_CONNS         Max open database connections (default: "25")
  DB_MAX_IDLE_CONNS         Max idle database connections (default: "5")
  DB_CONN_MAX_LIFETIME      Max connection lifetime (default: "30m")
  DB_CONN_MAX_IDLE_TIME     Max connection idle time (default: "5m")

  HTTP_SHUTDOWN_TIMEOUT     Graceful HTTP shutdown timeout (default: "10s")
  WEBHOOK_MAX_BODY_BYTES    Webhook request body limit (default: 1048576)

  METRICS_ENABLED           Enable Prometheus metrics (default: "false")
  METRICS_PATH              Metrics endpoint path (default: "/metrics")
  METRICS_PORT              Metrics server port (default: "9090")

  MIGRATIONS_PATH           Migration source URL (default: "file://migrations")`)
}

func runServe() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	db, err := openDB(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitRuntimeError
	}
	defer db.Close()

	store := postgres.New(db, cfg.DBOpTimeout)
	recorder := ingest.NewRecorder(store)
	validator := auth.NewValidator(store)
	issuer := auth.NewIssuer(store)
	reports := report.NewService(store)

	// Initialize metrics sink (optional)
	var metricsSink *metrics.PrometheusSink
	var metricsServer *http.Server

	if cfg.MetricsEnabled {
		metricsSink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
		log.Printf("roisheet: metrics enabled (port=%s, path=%s)", cfg.MetricsPort, cfg.MetricsPath)

		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.MetricsPath, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    ":" + cfg.MetricsPort,
			Handler: metricsMux,
		}
		go func() {
			log.Printf("roisheet: metrics server listening on :%s", cfg.MetricsPort)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("roisheet: metrics server error: %v", err)
			}
		}()
	} else {
		log.Println("roisheet: METRICS_ENABLED not set; metrics disabled")
	}

	accountID := uuid.MustParse(cfg.AccountID) // checked by Validate
	handler := api.NewHandler(store, recorder, validator, accountID).
		WithIssuer(issuer).
		WithStats(reports).
		WithHealthChecker(store).
		WithMaxBodyBytes(int64(cfg.WebhookMaxBodyBytes))
	if metricsSink != nil {
		handler = handler.WithMetrics(metricsSink)
	}

	// Wire analytics if Redis is configured
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		handler = handler.WithAnalytics(analytics.NewRedisSink(redisClient))
		log.Printf("roisheet: analytics enabled (redis=%s)", cfg.RedisAddr)
	} else {
		log.Println("roisheet: REDIS_ADDR not set; analytics disabled")
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}

	go func() {
		log.Printf("roisheet: http server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("roisheet: http server error: %v", err)
		}
	}()

	log.Printf("roisheet: started (http=%s, account=%s)", cfg.HTTPAddr, cfg.AccountID)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Printf("roisheet: received signal %v, shutting down", received)

	// Stop accepting requests; in-flight webhook deliveries get the full
	// shutdown window to land in the store.
	log.Println("roisheet: stopping http server...")
	httpShutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer httpShutdownCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		log.Printf("roisheet: http server shutdown error: %v", err)
	}
	log.Println("roisheet: http server stopped")

	if metricsServer != nil {
		log.Println("roisheet: stopping metrics server...")
		metricsShutdownCtx, metricsShutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer metricsShutdownCancel()
		if err := metricsServer.Shutdown(metricsShutdownCtx); err != nil {
			log.Printf("roisheet: metrics server shutdown error: %v", err)
		}
		log.Println("roisheet: metrics server stopped")
	}

	log.Println("roisheet: stopped")
	return exitSuccess
}

func runMigrate() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	m, err := migrate.New(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize migrations: %v\n", err)
		return exitRuntimeError
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("migrations: no change")
			return exitSuccess
		}
		fmt.Fprintf(os.Stderr, "migrations failed: %v\n", err)
		return exitRuntimeError
	}

	fmt.Println("migrations applied")
	return exitSuccess
}

func runIssueKey() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	db, err := openDB(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitRuntimeError
	}
	defer db.Close()

	store := postgres.New(db, cfg.DBOpTimeout)
	issuer := auth.NewIssuer(store)

	accountID := uuid.MustParse(cfg.AccountID) // checked by Validate
	raw, key, err := issuer.Issue(context.Background(), accountID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue key: %v\n", err)
		return exitRuntimeError
	}

	fmt.Printf("api key issued for account %s\n", accountID)
	fmt.Printf("  id:     %s\n", key.ID)
	fmt.Printf("  prefix: %s\n", key.Prefix)
	fmt.Printf("  key:    %s\n", raw)
	fmt.Println("store the key now; it cannot be recovered later")
	return exitSuccess
}

func runValidate() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	fmt.Println("configuration valid")
	return exitSuccess
}

func runConfig() int {
	cfg := config.Load()

	data, err := cfg.MaskedJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config: %v\n", err)
		return exitRuntimeError
	}

	fmt.Println(string(data))
	return exitSuccess
}

func runVersion() int {
	fmt.Printf("roisheet version %s (commit: %s)\n", version, commit)
	return exitSuccess
}

func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	log.Printf("roisheet: db pool configured (max_open=%d, max_idle=%d, max_lifetime=%s, max_idle_time=%s)",
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
