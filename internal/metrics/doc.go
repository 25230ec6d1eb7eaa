// Package metrics defines Prometheus metrics for the audio toolkit.
//
// Metrics cover HTTP traffic, external tool invocations (ffmpeg, ffprobe,
// yt-dlp), media probes and the duration fallback chain, multi-step
// pipelines, scratch directory lifecycle, and the operation history
// database. All metrics are registered via promauto at package init and
// served from a dedicated metrics server.
package metrics
