// Package ffmpeg orchestrates media operations by shelling out to the
// external ffmpeg and ffprobe binaries.
//
// It is organized as four layers:
//
//   - Runner executes one external process with piped stdin/stdout, a hard
//     wall-clock timeout, and typed failure classification.
//   - Prober answers metadata questions (sample rate, bitrate, audio-track
//     presence, duration with a four-tier fallback chain).
//   - The command builders translate each logical operation into an exact
//     argument vector, encapsulating per-format container and codec quirks.
//   - Engine exposes one public method per operation and sequences the
//     multi-step pipelines (merge, split) that need scratch files.
//
// All media flows through memory as opaque byte slices; scratch files exist
// only inside merge pipelines and are removed before the call returns.
package ffmpeg
