package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"audio-toolkit/internal/database"
	"audio-toolkit/internal/downloader"
	"audio-toolkit/internal/ffmpeg"
	"audio-toolkit/internal/handlers"
	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/memory"
	"audio-toolkit/internal/metrics"
	"audio-toolkit/internal/middleware"
	"audio-toolkit/internal/scratch"
	"audio-toolkit/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// The heap limit depends on how many transcodes can hold ffmpeg
	// children alive at once, so the gate size must be known first.
	memory.ConfigureFromEnv(config.MaxConcurrent)

	ytdlpAvailable, err := startup.LogToolCheck(config)
	if err != nil {
		startup.LogFatal("Tool check error: %v", err)
	}

	// Initialize history database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize history database: %v", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logging.Warn("Database close error: %v", cerr)
		}
	}()
	startup.LogDatabaseInit(config.DatabasePath, time.Since(dbStart))

	// Scratch space for pipeline intermediates; sweep leftovers from a
	// previous crashed run.
	scratchMgr := scratch.NewManager(scratch.DefaultPrefix)
	removed, sweepErr := scratchMgr.SweepOrphans(scratch.DefaultMaxAge)
	startup.LogScratchSweep(removed, sweepErr)

	// Processing engine
	runner := ffmpeg.NewRunner(config.FFmpegPath, config.FFprobePath)
	prober := ffmpeg.NewProber(runner, ffmpeg.DefaultProbeTimeout, ffmpeg.DefaultDecodeTimeout)
	engine := ffmpeg.NewEngine(runner, config.FFmpegPath, prober, scratchMgr, config.ProcessingTimeout)

	var dl *downloader.Downloader
	if ytdlpAvailable {
		dl = downloader.New(runner, config.YtdlpPath, config.FFmpegPath, config.DownloadTimeout)
	}

	h := handlers.New(engine, dl, db)

	router := setupRouter(h, ytdlpAvailable)
	startup.LogHTTPRoutes(router)

	// Middleware chain: CORS outermost so even rejected requests carry
	// the headers, then logging, metrics, rate limiting, and last the
	// admission gate bounding concurrent ffmpeg work.
	rateLimiter := middleware.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	gate := middleware.NewGate(config.MaxConcurrent)

	handler := middleware.CORS()(
		middleware.Logger()(
			middleware.Metrics()(
				rateLimiter.Middleware()(
					gate.Middleware()(router)))))

	srv := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     handler,
		ReadTimeout: 5 * time.Minute,
		// Response writes are guarded per-request by the streaming layer
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())
		metrics.InitializeMetrics()
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, scratchMgr)

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

func setupRouter(h *handlers.Handlers, downloadsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Processing routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/convert", h.ConvertAudio).Methods("POST")
	api.HandleFunc("/trim", h.TrimAudio).Methods("POST")
	api.HandleFunc("/merge", h.MergeAudio).Methods("POST")
	api.HandleFunc("/compress", h.CompressAudio).Methods("POST")
	api.HandleFunc("/extract", h.ExtractAudio).Methods("POST")
	api.HandleFunc("/split", h.SplitAudio).Methods("POST")
	api.HandleFunc("/volume", h.AdjustVolume).Methods("POST")
	api.HandleFunc("/speed", h.ChangeSpeed).Methods("POST")
	api.HandleFunc("/metadata", h.ReadMetadata).Methods("POST")

	if downloadsEnabled {
		api.HandleFunc("/download-audio", h.DownloadAudio).Methods("GET")
	}

	// Service info routes
	api.HandleFunc("/formats", h.ListFormats).Methods("GET")
	api.HandleFunc("/history", h.GetHistory).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, scratchMgr *scratch.Manager) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

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

	startup.LogShutdownStep("Removing scratch directories")
	scratchMgr.CleanupAll()
	startup.LogShutdownStepComplete("Scratch cleanup complete")

	startup.LogShutdownComplete()
}
