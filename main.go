package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-converter/internal/api"
	"media-converter/internal/codec"
	"media-converter/internal/converter"
	"media-converter/internal/database"
	"media-converter/internal/logging"
	"media-converter/internal/middleware"
	"media-converter/internal/startup"
	"media-converter/internal/watcher"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize job database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize codec runtimes
	imageRT, err := codec.NewVipsRuntime()
	if err != nil {
		startup.LogFatal("Failed to initialize image runtime: %v", err)
	}
	audioRT := codec.NewAudioContext()

	// Build the conversion registry and probe every unit
	registry := converter.NewDefaultRegistry(imageRT, audioRT)
	probeStart := time.Now()
	startup.LogProbeInit(len(registry.Units()))
	probeCtx, probeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := registry.ProbeAll(probeCtx); err != nil {
		probeCancel()
		startup.LogFatal("Capability probing failed: %v", err)
	}
	probeCancel()
	ready := 0
	for _, u := range registry.Units() {
		if u.Ready() {
			ready++
		}
	}
	startup.LogProbeComplete(ready, len(registry.Units()), time.Since(probeStart))

	// Optional directory watch mode
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var dirWatcher *watcher.Watcher
	if config.WatchEnabled {
		startup.LogWatcherInit(config.WatchDir, config.OutputDir, config.WatchFormat, config.ConvertWorkers)
		dirWatcher, err = watcher.New(watcher.Config{
			WatchDir:  config.WatchDir,
			OutputDir: config.OutputDir,
			Format:    config.WatchFormat,
			Workers:   config.ConvertWorkers,
		}, registry, db)
		if err != nil {
			startup.LogFatal("Failed to create directory watcher: %v", err)
		}
		go func() {
			if err := dirWatcher.Start(watchCtx); err != nil {
				logging.Error("Directory watcher stopped: %v", err)
			}
		}()
	}

	// Initialize handlers and router
	h := api.New(db, registry, config)
	router := h.Router()
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)
	handler := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Separate metrics server
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, dirWatcher, watchCancel)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, dirWatcher *watcher.Watcher, watchCancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if dirWatcher != nil {
		startup.LogShutdownStep("Stopping directory watcher")
		watchCancel()
		if err := dirWatcher.Close(); err != nil {
			logging.Warn("Watcher close error: %v", err)
		}
		startup.LogShutdownStepComplete("Directory watcher stopped")
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Releasing image runtime")
	codec.ShutdownVips()
	startup.LogShutdownStepComplete("Image runtime released")

	startup.LogShutdownComplete()
}
