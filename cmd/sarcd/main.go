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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"sarc/internal/admin"
	"sarc/internal/api"
	"sarc/internal/audit"
	"sarc/internal/config"
	"sarc/internal/database"
	"sarc/internal/metrics"
	"sarc/internal/reservationapi"
	"sarc/internal/service"
)

func main() {
	exportPath := flag.String("export-audit", "", "write reservation audit workbook to this path and exit")
	flag.Parse()

	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("SARC_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *exportPath != "" {
		if err := exportAudit(ctx, db, *exportPath); err != nil {
			logger.Fatal().Err(err).Msg("audit export failed")
		}
		logger.Info().Str("path", *exportPath).Msg("audit workbook written")
		return
	}

	seed := admin.Seed{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}
	if seed.Password == "" {
		logger.Warn().Msg("admin.password not set, skipping admin seeding")
	} else if err := admin.EnsureDefaultAdmin(ctx, db, seed, &logger); err != nil {
		logger.Fatal().Err(err).Msg("admin seeding failed")
	}

	coordinator := newCoordinator(cfg, db, &logger)
	bookingServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.API.Port),
		Handler: api.NewHTTPServer(coordinator, &logger).Handler(),
	}
	go func() {
		logger.Info().Str("addr", bookingServer.Addr).Msg("booking api listening")
		if err := bookingServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("booking api stopped")
		}
	}()

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(
			cfg.Database.Path,
			cfg.Backup.StoragePath,
			time.Duration(cfg.Backup.IntervalHours)*time.Hour,
			cfg.Backup.RetentionDays,
			&logger,
		)
		go backup.Start(ctx)
	}

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled && cfg.Monitoring.PrometheusPort > 0 {
		go serveMetrics(cfg.Monitoring.PrometheusPort, &logger)
	}
	if cfg.Monitoring.HealthCheckPort > 0 {
		go serveHealth(cfg.Monitoring.HealthCheckPort, &logger)
	}

	logger.Info().Str("db", cfg.Database.Path).Msg("sarcd started")
	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bookingServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("booking api shutdown error")
	}
}

// newCoordinator wires the booking coordinator over the local sqlite store,
// or over a remote reservation service when one is configured.
func newCoordinator(cfg *config.Config, db *database.DB, logger *zerolog.Logger) *service.Coordinator {
	var store service.ReservationStore = db
	var resources service.ResourceRepository = db
	if cfg.ReservationAPI.Enabled {
		client := reservationapi.NewClient(
			cfg.ReservationAPI.BaseURL,
			cfg.ReservationAPI.Username,
			cfg.ReservationAPI.Password,
			cfg.ReservationAPI.RequestsPerSecond,
		)
		if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Address,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			client.UseRedisCache(rdb, cfg.CacheTTL())
		}
		store = client
		resources = client
		logger.Info().Str("base_url", cfg.ReservationAPI.BaseURL).Msg("using remote reservation store")
	}
	return service.NewCoordinator(db, resources, store, logger)
}

func exportAudit(ctx context.Context, db *database.DB, path string) error {
	resources, err := db.ListActiveResources(ctx)
	if err != nil {
		return err
	}
	if len(resources) == 0 {
		return fmt.Errorf("no active resources to export")
	}

	exporter := audit.NewExporter()
	defer exporter.Close()
	for i := range resources {
		reservations, err := db.ListByResource(ctx, resources[i].ID)
		if err != nil {
			return err
		}
		if err := exporter.AddResourceSheet(&resources[i], reservations); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return exporter.WriteTo(f)
}

func serveMetrics(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}

func serveHealth(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("health check listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("health server stopped")
	}
}
