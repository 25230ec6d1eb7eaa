package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_toolkit_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_toolkit_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_toolkit_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	HTTPRequestsRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_toolkit_http_requests_rate_limited_total",
			Help: "Total number of HTTP requests rejected by the rate limiter",
		},
	)

	HTTPRequestsQueuedRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_toolkit_http_requests_gate_rejected_total",
			Help: "Total number of HTTP requests rejected by the admission gate",
		},
	)
)

// FFmpeg process metrics
var (
	FFmpegInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_toolkit_ffmpeg_invocations_total",
			Help: "Total number of external tool invocations",
		},
		[]string{"operation", "status"},
	)

	FFmpegInvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_toolkit_ffmpeg_invocation_duration_seconds",
			Help:    "External tool invocation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"operation"},
	)

	FFmpegProcessesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_toolkit_ffmpeg_processes_running",
			Help: "Number of external tool processes currently running",
		},
	)

	FFmpegOutputBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_toolkit_ffmpeg_output_bytes_total",
			Help: "Total bytes produced on stdout by external tool invocations",
		},
		[]string{"operation"},
	)
)

// Probe metrics
var (
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_toolkit_probes_total",
			Help: "Total number of media probes",
		},
		[]string{"query", "status"},
	)

	DurationFallbackTier = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_toolkit_duration_fallback_tier_total",
			Help: "Which duration-probing tier produced an answer",
		},
		[]string{"tier"},
	)
)

// Pipeline metrics
var (
	PipelinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_toolkit_pipelines_total",
			Help: "Total number of multi-step pipelines (merge, split)",
		},
		[]string{"kind", "status"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_toolkit_pipeline_duration_seconds",
			Help:    "Multi-step pipeline duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	CompressBypassTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_toolkit_compress_bypass_total",
			Help: "Total number of compress requests satisfied without re-encoding",
		},
	)
)

// Scratch directory metrics
var (
	ScratchDirsLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audio_toolkit_scratch_dirs_live",
			Help: "Number of scratch directories currently registered",
		},
	)

	ScratchDirsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_toolkit_scratch_dirs_created_total",
			Help: "Total number of scratch directories created",
		},
	)

	ScratchOrphansSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_toolkit_scratch_orphans_swept_total",
			Help: "Total number of orphaned scratch directories removed at startup",
		},
	)
)

// Downloader metrics
var (
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_toolkit_downloads_total",
			Help: "Total number of remote audio downloads",
		},
		[]string{"status"},
	)

	DownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audio_toolkit_download_duration_seconds",
			Help:    "Remote audio download duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)
)

// History database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_toolkit_db_queries_total",
			Help: "Total number of history database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_toolkit_db_query_duration_seconds",
			Help:    "History database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audio_toolkit_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
