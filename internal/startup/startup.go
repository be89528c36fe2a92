package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"media-converter/internal/logging"
	"media-converter/internal/workers"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	DatabaseDir     string
	WatchDir        string
	OutputDir       string
	WatchFormat     string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	ConvertWorkers  int
	MaxUploadBytes  int64
	LogHealthChecks bool

	// Derived paths
	DatabasePath string

	// Watching is enabled only when WATCH_DIR is set and usable
	WatchEnabled bool
}

// fileConfig mirrors Config for CONFIG_FILE overrides. Pointer fields
// distinguish "not set" from zero values.
type fileConfig struct {
	DatabaseDir     *string `yaml:"databaseDir"`
	WatchDir        *string `yaml:"watchDir"`
	OutputDir       *string `yaml:"outputDir"`
	WatchFormat     *string `yaml:"watchFormat"`
	Port            *string `yaml:"port"`
	MetricsPort     *string `yaml:"metricsPort"`
	MetricsEnabled  *bool   `yaml:"metricsEnabled"`
	ConvertWorkers  *int    `yaml:"convertWorkers"`
	MaxUploadMB     *int64  `yaml:"maxUploadMb"`
	LogHealthChecks *bool   `yaml:"logHealthChecks"`
}

// LoadConfig loads and validates configuration from environment variables,
// layered over optional CONFIG_FILE defaults.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	fc, err := loadConfigFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	databaseDir := getEnv("DATABASE_DIR", stringOr(fc.DatabaseDir, "/database"))
	watchDir := getEnv("WATCH_DIR", stringOr(fc.WatchDir, ""))
	outputDir := getEnv("OUTPUT_DIR", stringOr(fc.OutputDir, "/converted"))
	watchFormat := getEnv("WATCH_FORMAT", stringOr(fc.WatchFormat, "jpeg"))
	port := getEnv("PORT", stringOr(fc.Port, "8080"))
	metricsPort := getEnv("METRICS_PORT", stringOr(fc.MetricsPort, "9090"))
	metricsEnabled := getEnvBool("METRICS_ENABLED", boolOr(fc.MetricsEnabled, true))
	convertWorkers := getEnvInt("CONVERT_WORKERS", intOr(fc.ConvertWorkers, 0))
	maxUploadMB := int64(getEnvInt("MAX_UPLOAD_MB", int(int64Or(fc.MaxUploadMB, 512))))
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", boolOr(fc.LogHealthChecks, true))

	if convertWorkers <= 0 {
		// Conversion mixes decode CPU work with file I/O
		convertWorkers = workers.ForMixed(16)
	}
	if maxUploadMB <= 0 {
		logging.Warn("  Invalid MAX_UPLOAD_MB, using default: 512")
		maxUploadMB = 512
	}

	logging.Info("  DATABASE_DIR:      %s", databaseDir)
	logging.Info("  WATCH_DIR:         %s", orUnset(watchDir))
	logging.Info("  OUTPUT_DIR:        %s", outputDir)
	logging.Info("  WATCH_FORMAT:      %s", watchFormat)
	logging.Info("  PORT:              %s", port)
	logging.Info("  METRICS_PORT:      %s", metricsPort)
	logging.Info("  METRICS_ENABLED:   %v", metricsEnabled)
	logging.Info("  CONVERT_WORKERS:   %d", convertWorkers)
	logging.Info("  MAX_UPLOAD_MB:     %d", maxUploadMB)
	logging.Info("  LOG_HEALTH_CHECKS: %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for job history): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	config := &Config{
		DatabaseDir:     databaseDir,
		WatchDir:        watchDir,
		OutputDir:       outputDir,
		WatchFormat:     watchFormat,
		Port:            port,
		MetricsPort:     metricsPort,
		MetricsEnabled:  metricsEnabled,
		ConvertWorkers:  convertWorkers,
		MaxUploadBytes:  maxUploadMB << 20,
		LogHealthChecks: logHealthChecks,
		DatabasePath:    filepath.Join(databaseDir, "jobs.db"),
	}

	if watchDir != "" {
		watchDir, err = filepath.Abs(watchDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve watch directory path: %w", err)
		}
		config.WatchDir = watchDir

		outputDir, err = filepath.Abs(outputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve output directory path: %w", err)
		}
		config.OutputDir = outputDir

		config.WatchEnabled = setupOptionalDir(watchDir, "watch") && setupOptionalDir(outputDir, "output")
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Job history: ENABLED (required)")
	logging.Info("    Watch mode:  %s", enabledString(config.WatchEnabled))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func loadConfigFile(path string) (*fileConfig, error) {
	fc := &fileConfig{}
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	logging.Info("  Loaded configuration defaults from %s", path)
	return fc, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	testFile := filepath.Join(path, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("    failed to remove test file %s: %v", testFile, err)
		// Still return true since write succeeded
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Job database initialized in %v", duration)
}

// LogProbeInit logs the start of conversion unit probing
func LogProbeInit(units int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CAPABILITY PROBING")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Probing %d conversion units...", units)
}

// LogProbeComplete logs the outcome of conversion unit probing
func LogProbeComplete(ready, total int, duration time.Duration) {
	logging.Info("  [OK] %d/%d units ready in %v", ready, total, duration)
}

// LogWatcherInit logs directory watcher startup
func LogWatcherInit(watchDir, outputDir, format string, workers int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY WATCHER")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Watching:   %s", watchDir)
	logging.Info("  Output to:  %s", outputDir)
	logging.Info("  Format:     %s", format)
	logging.Info("  Workers:    %d", workers)
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", config.MetricsPort)
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___         ___      ______                          __
   /  |/  /__  ____/ (_)___ _/ ____/___  ____ _   _____  _____/ /____  _____
  / /|_/ / _ \/ __  / / __ '/ /   / __ \/ __ \ | / / _ \/ ___/ __/ _ \/ ___/
 / /  / /  __/ /_/ / / /_/ / /___/ /_/ / / / / |/ /  __/ /  / /_/  __/ /
/_/  /_/\___/\__,_/_/\__,_/\____/\____/_/ /_/|___/\___/_/   \__/\___/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("  Invalid value for %s: %q, using default %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("  Invalid value for %s: %q, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func stringOr(v *string, fallback string) string {
	if v != nil {
		return *v
	}
	return fallback
}

func boolOr(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func int64Or(v *int64, fallback int64) int64 {
	if v != nil {
		return *v
	}
	return fallback
}
