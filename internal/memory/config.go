package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"audio-toolkit/internal/logging"
)

const (
	// DefaultMemoryRatio caps the Go heap's share of container memory
	// when no tighter headroom can be derived. The remainder belongs to
	// ffmpeg and yt-dlp child processes, whose buffers live outside the
	// Go runtime.
	DefaultMemoryRatio = 0.85

	// MinMemoryRatio is the floor for derived ratios. Below half the
	// container the heap would thrash GC before the children ever used
	// their headroom.
	MinMemoryRatio = 0.5

	// jobHeadroom is the per-transcode reservation for one ffmpeg child:
	// the piped input blob plus the assembled output, each bounded by the
	// upload cap.
	jobHeadroom = 256 << 20
)

// ConfigResult reports what GOMEMLIMIT configuration was applied.
type ConfigResult struct {
	Configured bool

	// Source is "GOMEMLIMIT", "MEMORY_LIMIT", or "none".
	Source string

	// ContainerLimit and GoMemLimit are in bytes, 0 when not set.
	ContainerLimit int64
	GoMemLimit     int64

	Ratio float64
}

// ConfigureFromEnv sets GOMEMLIMIT from the container memory limit,
// sizing the heap's share around the concurrency gate: every admitted
// transcode can pin roughly jobHeadroom bytes in an ffmpeg child, so that
// much is subtracted from the heap's ratio before clamping. Call early in
// main, before request buffers start accumulating.
//
// Environment variables:
//   - GOMEMLIMIT: takes precedence when set (standard Go runtime var)
//   - MEMORY_LIMIT: container memory limit in bytes (Downward API)
//   - MEMORY_RATIO: explicit heap share, overriding the derived ratio
func ConfigureFromEnv(maxConcurrent int) ConfigResult {
	result := ConfigResult{}

	if goMemLimitEnv := os.Getenv("GOMEMLIMIT"); goMemLimitEnv != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = "GOMEMLIMIT"
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", goMemLimitEnv)
		return result
	}

	memLimitStr := os.Getenv("MEMORY_LIMIT")
	if memLimitStr == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		result.Source = "none"
		return result
	}
	memLimit, err := strconv.ParseInt(memLimitStr, 10, 64)
	if err != nil || memLimit <= 0 {
		logging.Warn("Ignoring MEMORY_LIMIT %q: %v", memLimitStr, err)
		result.Source = "none"
		return result
	}
	result.ContainerLimit = memLimit

	ratio, ratioSrc := resolveRatio(memLimit, maxConcurrent)
	result.Ratio = ratio

	goMemLimit := int64(float64(memLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	result.Configured = true
	result.Source = "MEMORY_LIMIT"
	result.GoMemLimit = goMemLimit

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit, ratio %s)",
		formatBytes(goMemLimit), ratio*100, formatBytes(memLimit), ratioSrc)
	return result
}

// resolveRatio picks the heap's share of the container. An explicit
// MEMORY_RATIO wins; otherwise the share is whatever remains after
// reserving jobHeadroom per concurrent transcode slot, clamped to
// [MinMemoryRatio, DefaultMemoryRatio].
func resolveRatio(memLimit int64, maxConcurrent int) (float64, string) {
	if ratioStr := os.Getenv("MEMORY_RATIO"); ratioStr != "" {
		parsed, err := strconv.ParseFloat(ratioStr, 64)
		if err == nil && parsed > 0 && parsed <= 1.0 {
			return parsed, "MEMORY_RATIO"
		}
		logging.Warn("MEMORY_RATIO %q invalid, deriving from concurrency instead", ratioStr)
	}

	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	reserved := int64(maxConcurrent) * jobHeadroom
	ratio := 1 - float64(reserved)/float64(memLimit)
	switch {
	case ratio < MinMemoryRatio:
		ratio = MinMemoryRatio
	case ratio > DefaultMemoryRatio:
		ratio = DefaultMemoryRatio
	}
	return ratio, "derived"
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
