// main is the entry point of the mcstatus application.
// It initializes the configuration, logger, status client, database, GeoIP provider, and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mcstatus/internal/config"
	"github.com/woozymasta/mcstatus/internal/fake"
	"github.com/woozymasta/mcstatus/internal/geoip"
	"github.com/woozymasta/mcstatus/internal/logger"
	"github.com/woozymasta/mcstatus/internal/maintenance"
	"github.com/woozymasta/mcstatus/internal/metrics"
	"github.com/woozymasta/mcstatus/internal/server"
	"github.com/woozymasta/mcstatus/internal/status"
	"github.com/woozymasta/mcstatus/internal/storage"
	"github.com/woozymasta/mcstatus/internal/transport"
	"github.com/woozymasta/mcstatus/internal/vars"
)

func main() {
	cfg := config.Parse()

	logCloser := logger.Setup(cfg.Logger)
	defer func() { _ = logCloser.Close() }()

	// Status client
	dialer, err := transport.NewDialer(cfg.Query.DialTimeout, cfg.Query.Proxy)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure query dialer")
	}

	client := status.NewClient(
		status.WithDialer(dialer),
		status.WithTimeout(cfg.Query.Timeout),
		status.WithDialTimeout(cfg.Query.DialTimeout),
		status.WithDeadline(cfg.Query.Deadline),
		status.WithProtocolVersion(cfg.Query.ProtocolVersion),
		status.WithMaxPayload(cfg.Query.MaxPayload),
		status.WithPrefixEmptyString(cfg.Query.PrefixEmptyString),
	)

	// Database, history is optional
	var (
		store   *storage.Repository
		history server.History
		tasks   maintenance.Store
	)
	if cfg.Storage.Path != "" {
		store, err = storage.New(cfg.Storage.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing database")
			}
		}()
		history, tasks = store, store
	}

	// data generation or maintenance
	if cfg.Storage.GenerateCount > 0 {
		if store == nil {
			log.Error().Msg("Database path is empty, cannot generate data")
			return
		}
		fake.GenerateData(store, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(cfg, tasks, client, os.Stdout) {
		return
	}

	log.Info().Str("version", vars.Version).Msg("Starting mcstatus service...")

	// GeoIP Update
	var geoProvider *geoip.Provider
	if cfg.GeoIP.Path != "" && history != nil {
		log.Info().Msg("Checking GeoIP database...")
		if err := geoip.EnsureDB(cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}

		geoProvider, err = geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
			geoProvider = nil
		} else {
			defer func() {
				if err := geoProvider.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Init server
	srvHandler := server.New(cfg, client, history, geoProvider, m)

	// Background queue
	srvHandler.StartWorkers()

	// the write timeout has to outlast the query deadline
	var writeTimeout time.Duration
	if cfg.Query.Deadline > 0 {
		writeTimeout = cfg.Query.Deadline + 5*time.Second
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srvHandler.Run(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Shut down HTTP
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop workers (wait queue done)
	srvHandler.StopWorkers()

	log.Info().Msg("Server exited")
}
