// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded from environment variables via [LoadConfig], with
// optional file-based defaults from a YAML file named by CONFIG_FILE.
// Environment variables always win over file values. The following settings
// are supported:
//
//   - CONFIG_FILE: Optional path to a YAML configuration file
//   - DATABASE_DIR: Path to the job history database directory (default: /database)
//   - WATCH_DIR: Directory watched for incoming files (default: empty, watching disabled)
//   - OUTPUT_DIR: Directory watched conversions are written to (default: /converted)
//   - WATCH_FORMAT: Output format tag for watched conversions (default: jpeg)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable the metrics server (default: true)
//   - CONVERT_WORKERS: Size of the watch-mode conversion worker pool (default: CPU count)
//   - MAX_UPLOAD_MB: Per-request upload limit in megabytes (default: 512)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
// Version, Commit, BuildTime and GoVersion.
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output
// across initialization, probing, server start and shutdown.
package startup
