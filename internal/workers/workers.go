package workers

import (
	"os"
	"runtime"
	"strconv"
)

// overrideEnv lets operators pin the worker count regardless of detected
// CPUs.
const overrideEnv = "PROCESSING_WORKERS"

// Count returns a worker count scaled from the available CPUs.
//
// The multiplier adjusts for task characteristics: 1.0 for CPU-bound work
// like transcoding, 2.0 for I/O-bound work like downloads. The limit
// parameter caps the result; use 0 for no cap.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(overrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	// GOMAXPROCS tracks the container CPU limit in Go 1.19+.
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForTranscoding returns the worker count for concurrent ffmpeg processes,
// one per available CPU.
func ForTranscoding(limit int) int {
	return Count(1.0, limit)
}

// ForDownloads returns the worker count for network-bound downloads, two
// per available CPU.
func ForDownloads(limit int) int {
	return Count(2.0, limit)
}
