package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/workers"

	"github.com/gorilla/mux"
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

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	DataDir     string
	Port        string
	MetricsPort string

	FFmpegPath  string
	FFprobePath string
	YtdlpPath   string

	ProcessingTimeout time.Duration
	DownloadTimeout   time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int

	MetricsEnabled  bool
	DownloadEnabled bool

	// Derived paths
	DatabasePath string
}

// maxConcurrentLimit caps the admission gate regardless of CPU count.
// ffmpeg is memory-hungry on piped input; unbounded parallelism can OOM
// the container long before it saturates the CPUs.
const maxConcurrentLimit = 16

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	dataDir := getEnv("DATA_DIR", "/data")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	downloadEnabled := getEnvBool("DOWNLOAD_ENABLED", true)

	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	ffprobePath := getEnv("FFPROBE_PATH", "ffprobe")
	ytdlpPath := getEnv("YTDLP_PATH", "yt-dlp")

	processingTimeout := getEnvDuration("PROCESSING_TIMEOUT", 300*time.Second)
	downloadTimeout := getEnvDuration("DOWNLOAD_TIMEOUT", 300*time.Second)

	rateLimitRPS := getEnvFloat("RATE_LIMIT_RPS", 10)
	rateLimitBurst := getEnvInt("RATE_LIMIT_BURST", 20)
	maxConcurrent := workers.ForTranscoding(maxConcurrentLimit)

	logging.Info("  DATA_DIR:            %s", dataDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  DOWNLOAD_ENABLED:    %v", downloadEnabled)
	logging.Info("  FFMPEG_PATH:         %s", ffmpegPath)
	logging.Info("  FFPROBE_PATH:        %s", ffprobePath)
	logging.Info("  YTDLP_PATH:          %s", ytdlpPath)
	logging.Info("  PROCESSING_TIMEOUT:  %s", processingTimeout)
	logging.Info("  DOWNLOAD_TIMEOUT:    %s", downloadTimeout)
	logging.Info("  RATE_LIMIT_RPS:      %g", rateLimitRPS)
	logging.Info("  RATE_LIMIT_BURST:    %d", rateLimitBurst)
	logging.Info("  MAX_CONCURRENT:      %d", maxConcurrent)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	logging.Info("  Data directory (absolute): %s", dataDir)

	if err := ensureDirectory(dataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}

	logging.Debug("  Testing data directory write access...")
	if err := testWriteAccess(dataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable (required for history database): %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	config := &Config{
		DataDir:           dataDir,
		Port:              port,
		MetricsPort:       metricsPort,
		FFmpegPath:        ffmpegPath,
		FFprobePath:       ffprobePath,
		YtdlpPath:         ytdlpPath,
		ProcessingTimeout: processingTimeout,
		DownloadTimeout:   downloadTimeout,
		RateLimitRPS:      rateLimitRPS,
		RateLimitBurst:    rateLimitBurst,
		MaxConcurrent:     maxConcurrent,
		MetricsEnabled:    metricsEnabled,
		DownloadEnabled:   downloadEnabled,
		DatabasePath:      filepath.Join(dataDir, "history.db"),
	}

	return config, nil
}

// LogToolCheck verifies the external binaries the service shells out to.
// A missing ffmpeg or ffprobe is fatal; a missing yt-dlp only disables
// downloads. The returned flag reports yt-dlp availability.
func LogToolCheck(config *Config) (bool, error) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TOOL CHECK")
	logging.Info("------------------------------------------------------------")

	if err := checkTool(config.FFmpegPath, "-version"); err != nil {
		return false, fmt.Errorf("ffmpeg check failed: %w", err)
	}
	logging.Info("  [OK] ffmpeg is available")

	if err := checkTool(config.FFprobePath, "-version"); err != nil {
		return false, fmt.Errorf("ffprobe check failed: %w", err)
	}
	logging.Info("  [OK] ffprobe is available")

	if !config.DownloadEnabled {
		logging.Info("  yt-dlp check skipped (downloads disabled)")
		return false, nil
	}

	if err := checkTool(config.YtdlpPath, "--version"); err != nil {
		logging.Warn("  yt-dlp check failed: %v", err)
		logging.Warn("  Audio downloads will be disabled")
		return false, nil
	}
	logging.Info("  [OK] yt-dlp is available")
	return true, nil
}

// LogDatabaseInit logs history database initialization
func LogDatabaseInit(path string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Path: %s", path)
	logging.Info("  [OK] History database initialized in %v", duration)
}

// LogScratchSweep logs the startup sweep of orphaned scratch directories
func LogScratchSweep(removed int, err error) {
	if err != nil {
		logging.Warn("  Scratch sweep failed: %v", err)
		return
	}
	if removed > 0 {
		logging.Info("  Removed %d orphaned scratch directories", removed)
	}
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
func LogHTTPRoutes(router *mux.Router) {
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

		// Group routes by prefix for cleaner output
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
    ___            ___          ______            ____   _ __
   /   | __  ______/ (_)___    /_  __/___  ____  / / /__(_) /_
  / /| |/ / / / __  / / __ \    / / / __ \/ __ \/ / //_/ / __/
 / ___ / /_/ / /_/ / / /_/ /   / / / /_/ / /_/ / / ,< / / /_
/_/  |_\__,_/\__,_/_/\____/   /_/  \____/\____/_/_/|_/_/\__/

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
		// Write access was confirmed regardless
	}
	return nil
}

func checkTool(path, versionFlag string) error {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", path)
	}
	logging.Debug("  Tool path: %s", resolved)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, resolved, versionFlag)
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", path, err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  Version: %s", strings.TrimSpace(lines[0]))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid numeric value for %s: %q, using default: %g", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration value for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
