package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/mediafmt"
	"audio-toolkit/internal/metrics"
	"audio-toolkit/internal/scratch"
)

// Merge input bounds. The HTTP layer enforces these before invocation; the
// engine re-checks the lower bound defensively because a 0- or 1-input
// merge would silently degenerate.
const (
	MinMergeInputs = 2
	MaxMergeInputs = 10
)

// Volume parameter ranges.
const (
	MinVolumePercentage = 0
	MaxVolumePercentage = 500
	MinDecibelChange    = -30.0
	MaxDecibelChange    = 30.0
	MinNormalizeTarget  = -20.0
	MaxNormalizeTarget  = 0.0
)

// Segment describes one extraction range of a custom split.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Name  string  `json:"name,omitempty"`
}

// CompressResult carries compressed bytes plus the effective output format,
// which differs from the input format when a lossless source was re-encoded
// to a lossy target. Bypassed is true when the input already satisfied the
// target bitrate and was returned unchanged.
type CompressResult struct {
	Data     []byte
	Format   mediafmt.Format
	Bypassed bool
}

// Engine composes the runner, prober, and scratch manager into one public
// entry point per logical operation. It holds no per-request state and is
// safe for concurrent use; the scratch registry is the only shared mutable
// state and is synchronized internally.
type Engine struct {
	runner           CommandRunner
	prober           MediaProber
	scratch          *scratch.Manager
	ffmpegPath       string
	transcodeTimeout time.Duration
}

// NewEngine creates an Engine. A zero transcodeTimeout selects the default.
func NewEngine(r CommandRunner, ffmpegPath string, p MediaProber, s *scratch.Manager, transcodeTimeout time.Duration) *Engine {
	if transcodeTimeout <= 0 {
		transcodeTimeout = DefaultTranscodeTimeout
	}
	return &Engine{
		runner:           r,
		prober:           p,
		scratch:          s,
		ffmpegPath:       ffmpegPath,
		transcodeTimeout: transcodeTimeout,
	}
}

// Convert transcodes audio to the target format, optionally preserving
// metadata tags.
func (e *Engine) Convert(ctx context.Context, data []byte, out mediafmt.Format, preserveMetadata bool) ([]byte, error) {
	if !mediafmt.IsAudio(out) {
		return nil, &ValidationError{Field: "output format", Reason: fmt.Sprintf("unsupported audio format %q", out)}
	}

	logging.Info("Converting to %s (preserve_metadata=%v)", out, preserveMetadata)
	return e.runner.Run(ctx, "convert", e.ffmpegPath, convertArgs(out, preserveMetadata), data, e.transcodeTimeout)
}

// Trim cuts the input to [start, end) seconds using stream copy. An end
// beyond the actual media length is clipped by ffmpeg to the available
// length.
func (e *Engine) Trim(ctx context.Context, data []byte, in mediafmt.Format, start, end float64) ([]byte, error) {
	if start < 0 {
		return nil, &ValidationError{Field: "start time", Reason: "must not be negative"}
	}
	if end <= start {
		return nil, &ValidationError{Field: "time range", Reason: "end time must be greater than start time"}
	}

	logging.Info("Trimming %s from %.3fs to %.3fs", in, start, end)
	return e.runner.Run(ctx, "trim", e.ffmpegPath, trimArgs(in, start, end), data, e.transcodeTimeout)
}

// Compress re-encodes the input at the target bitrate. When the probed
// current bitrate is already at or below the target, the original bytes
// are returned unchanged (bypass): compressing an already-compressed file
// is a no-op. Lossless inputs always re-encode to MP3, reflected in the
// result's Format.
func (e *Engine) Compress(ctx context.Context, data []byte, in mediafmt.Format, bitrateKbps int) (CompressResult, error) {
	if !mediafmt.IsAudio(in) {
		return CompressResult{}, &ValidationError{Field: "input format", Reason: fmt.Sprintf("unsupported audio format %q", in)}
	}
	if bitrateKbps <= 0 {
		return CompressResult{}, &ValidationError{Field: "bitrate", Reason: "must be positive"}
	}

	// Lossless sources always re-encode regardless of their raw bitrate;
	// comparing an uncompressed bitrate to a lossy target is meaningless.
	if !mediafmt.Lossless[in] {
		if current, ok := e.prober.BitrateKbps(ctx, data); ok && current <= bitrateKbps {
			logging.Info("Current bitrate (%d kbps) at or below target (%d kbps), bypassing compression", current, bitrateKbps)
			metrics.CompressBypassTotal.Inc()
			return CompressResult{Data: data, Format: in, Bypassed: true}, nil
		}
	}

	args, out := compressArgs(in, bitrateKbps)
	logging.Info("Compressing %s to %d kbps (output format: %s)", in, bitrateKbps, out)

	compressed, err := e.runner.Run(ctx, "compress", e.ffmpegPath, args, data, e.transcodeTimeout)
	if err != nil {
		return CompressResult{}, err
	}
	return CompressResult{Data: compressed, Format: out}, nil
}

// Extract pulls the audio track out of a video. It probes for a usable
// audio stream first and returns ErrNoAudioTrack without starting a
// transcode when none exists.
func (e *Engine) Extract(ctx context.Context, data []byte, out mediafmt.Format) ([]byte, error) {
	if !mediafmt.IsAudio(out) {
		return nil, &ValidationError{Field: "output format", Reason: fmt.Sprintf("unsupported audio format %q", out)}
	}

	if err := e.prober.HasAudioTrack(ctx, data); err != nil {
		return nil, err
	}

	logging.Info("Extracting audio to %s", out)
	return e.runner.Run(ctx, "extract", e.ffmpegPath, extractArgs(out), data, e.transcodeTimeout)
}

// AdjustVolume changes loudness by percentage, by decibels, or by
// normalizing to a target LUFS level.
func (e *Engine) AdjustVolume(ctx context.Context, data []byte, in mediafmt.Format, mode VolumeMode, value float64) ([]byte, error) {
	switch mode {
	case VolumePercentage:
		if value < MinVolumePercentage || value > MaxVolumePercentage {
			return nil, &ValidationError{Field: "volume percentage",
				Reason: fmt.Sprintf("must be between %d and %d", MinVolumePercentage, MaxVolumePercentage)}
		}
	case VolumeDecibels:
		if value < MinDecibelChange || value > MaxDecibelChange {
			return nil, &ValidationError{Field: "decibel change",
				Reason: fmt.Sprintf("must be between %.0f and %.0f", MinDecibelChange, MaxDecibelChange)}
		}
	case VolumeNormalize:
		if value < MinNormalizeTarget || value > MaxNormalizeTarget {
			return nil, &ValidationError{Field: "normalize target",
				Reason: fmt.Sprintf("must be between %.0f and %.0f", MinNormalizeTarget, MaxNormalizeTarget)}
		}
	default:
		return nil, &ValidationError{Field: "adjustment mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}

	logging.Info("Adjusting volume: mode=%s value=%v", mode, value)
	return e.runner.Run(ctx, "volume", e.ffmpegPath, volumeArgs(in, mode, value), data, e.transcodeTimeout)
}

// ChangeSpeed alters playback speed by a factor in [0.25, 4.0], preserving
// pitch via the tempo filter or shifting it via direct resampling.
func (e *Engine) ChangeSpeed(ctx context.Context, data []byte, in mediafmt.Format, speed float64, preservePitch bool) ([]byte, error) {
	if speed < MinSpeed || speed > MaxSpeed {
		return nil, &ValidationError{Field: "speed",
			Reason: fmt.Sprintf("must be between %v and %v", MinSpeed, MaxSpeed)}
	}

	logging.Info("Changing speed: %vx (preserve_pitch=%v)", speed, preservePitch)
	return e.runner.Run(ctx, "speed", e.ffmpegPath, speedArgs(in, speed, preservePitch), data, e.transcodeTimeout)
}
