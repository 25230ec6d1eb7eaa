// Package workers sizes concurrency limits from the CPUs actually
// available to the process.
//
// In containers the commonly used runtime.NumCPU() reports the host's CPU
// count, not the cgroup limit. GOMAXPROCS tracks the container limit in Go
// 1.19+, so worker counts derived from it respect deployment quotas. The
// admission gate uses this to bound how many transcodes run at once: each
// one is a full ffmpeg process, and oversubscribing CPUs just makes every
// request slower.
//
// The PROCESSING_WORKERS environment variable overrides the calculation
// for operators who need to tune a specific deployment.
package workers
