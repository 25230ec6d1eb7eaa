// Package memory configures the Go runtime memory limit from container
// limits. Uploads, processing buffers, and ffmpeg child processes all
// compete for the same cgroup budget, so the Go heap is capped below the
// container limit to leave headroom for subprocess memory.
package memory
