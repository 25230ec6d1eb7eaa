package ffmpeg

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/metrics"
)

// DefaultSampleRate is assumed when probing cannot determine a sample rate.
// Sample rate feeds best-effort unification during merges, so a wrong guess
// degrades quality rather than correctness.
const DefaultSampleRate = 44100

// MediaProber answers metadata questions about in-memory media.
// Results are derived fresh per call and never cached: they describe
// transient input owned by one request.
type MediaProber interface {
	SampleRate(ctx context.Context, data []byte) int
	BitrateKbps(ctx context.Context, data []byte) (int, bool)
	HasAudioTrack(ctx context.Context, data []byte) error
	Duration(ctx context.Context, data []byte) (float64, error)
}

// Prober implements MediaProber by invoking ffprobe (and, for the last
// duration tier, ffmpeg) with narrow stream-selecting queries.
type Prober struct {
	runner        CommandRunner
	ffmpegPath    string
	ffprobePath   string
	probeTimeout  time.Duration
	decodeTimeout time.Duration
}

// NewProber creates a Prober on top of a Runner.
func NewProber(r *Runner, probeTimeout, decodeTimeout time.Duration) *Prober {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if decodeTimeout <= 0 {
		decodeTimeout = DefaultDecodeTimeout
	}
	return &Prober{
		runner:        r,
		ffmpegPath:    r.FFmpegPath,
		ffprobePath:   r.FFprobePath,
		probeTimeout:  probeTimeout,
		decodeTimeout: decodeTimeout,
	}
}

// SampleRate returns the sample rate of the first audio stream in Hz.
// On probe failure or unparsable output it returns DefaultSampleRate.
func (p *Prober) SampleRate(ctx context.Context, data []byte) int {
	out, err := p.runner.Run(ctx, "probe", p.ffprobePath, []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", "pipe:0",
	}, data, p.probeTimeout)
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("sample_rate", "error").Inc()
		logging.Warn("Sample rate probe failed, using default %d Hz: %v", DefaultSampleRate, err)
		return DefaultSampleRate
	}

	rate, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil || rate <= 0 {
		metrics.ProbesTotal.WithLabelValues("sample_rate", "error").Inc()
		logging.Warn("Could not parse sample rate %q, using default %d Hz", strings.TrimSpace(string(out)), DefaultSampleRate)
		return DefaultSampleRate
	}

	metrics.ProbesTotal.WithLabelValues("sample_rate", "success").Inc()
	return rate
}

// BitrateKbps returns the bitrate of the first audio stream in kbps.
// The second return value is false when the bitrate cannot be determined.
func (p *Prober) BitrateKbps(ctx context.Context, data []byte) (int, bool) {
	out, err := p.runner.Run(ctx, "probe", p.ffprobePath, []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=bit_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", "pipe:0",
	}, data, p.probeTimeout)
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("bitrate", "error").Inc()
		return 0, false
	}

	bps, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil || bps <= 0 {
		metrics.ProbesTotal.WithLabelValues("bitrate", "error").Inc()
		return 0, false
	}

	metrics.ProbesTotal.WithLabelValues("bitrate", "success").Inc()
	return bps / 1000, true
}

// HasAudioTrack reports whether the input has a usable audio stream.
// It returns ErrNoAudioTrack both when no stream is present (probe exits
// non-zero or emits nothing) and when the selected stream is not audio.
func (p *Prober) HasAudioTrack(ctx context.Context, data []byte) error {
	out, err := p.runner.Run(ctx, "probe", p.ffprobePath, []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_type",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", "pipe:0",
	}, data, p.probeTimeout)
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("codec_type", "error").Inc()
		return ErrNoAudioTrack
	}

	codecType := strings.TrimSpace(string(out))
	if codecType == "" || codecType != "audio" {
		metrics.ProbesTotal.WithLabelValues("codec_type", "error").Inc()
		return ErrNoAudioTrack
	}

	metrics.ProbesTotal.WithLabelValues("codec_type", "success").Inc()
	return nil
}

// durationTier is one strategy in the ordered duration-discovery sequence.
type durationTier struct {
	name string
	fn   func(ctx context.Context, data []byte) (float64, bool)
}

// Duration discovers the media duration in seconds using a layered fallback
// chain. Container metadata is frequently absent or wrong for piped inputs,
// so each tier is tried only when the previous one yields no usable number:
//
//  1. container-level duration field
//  2. first-audio-stream duration field
//  3. packet timestamp scan, taking the last presentation timestamp
//  4. full decode, parsing elapsed time from the progress statistics
//
// If all tiers fail, ErrDurationUnknown is returned; there is never a
// silent default duration.
func (p *Prober) Duration(ctx context.Context, data []byte) (float64, error) {
	tiers := []durationTier{
		{"container", p.durationFromContainer},
		{"stream", p.durationFromStream},
		{"packet_scan", p.durationFromPackets},
		{"full_decode", p.durationFromDecode},
	}

	for _, tier := range tiers {
		if d, ok := tier.fn(ctx, data); ok {
			metrics.DurationFallbackTier.WithLabelValues(tier.name).Inc()
			metrics.ProbesTotal.WithLabelValues("duration", "success").Inc()
			logging.Debug("Duration %.3fs from %s tier", d, tier.name)
			return d, nil
		}
		logging.Debug("Duration tier %s yielded no usable answer", tier.name)
	}

	metrics.DurationFallbackTier.WithLabelValues("exhausted").Inc()
	metrics.ProbesTotal.WithLabelValues("duration", "error").Inc()
	return 0, ErrDurationUnknown
}

func (p *Prober) durationFromContainer(ctx context.Context, data []byte) (float64, bool) {
	out, err := p.runner.Run(ctx, "probe", p.ffprobePath, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", "pipe:0",
	}, data, p.probeTimeout)
	if err != nil {
		return 0, false
	}
	return parseDuration(string(out))
}

func (p *Prober) durationFromStream(ctx context.Context, data []byte) (float64, bool) {
	out, err := p.runner.Run(ctx, "probe", p.ffprobePath, []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", "pipe:0",
	}, data, p.probeTimeout)
	if err != nil {
		return 0, false
	}
	return parseDuration(string(out))
}

// durationFromPackets decodes packet timestamps and takes the last
// presentation timestamp. More expensive than the metadata tiers, so it
// runs under the longer decode timeout.
func (p *Prober) durationFromPackets(ctx context.Context, data []byte) (float64, bool) {
	out, err := p.runner.Run(ctx, "probe", p.ffprobePath, []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "packet=pts_time",
		"-of", "csv=p=0",
		"-i", "pipe:0",
	}, data, p.decodeTimeout)
	if err != nil {
		return 0, false
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if d, ok := parseDuration(lines[i]); ok {
			return d, true
		}
	}
	return 0, false
}

var statsTimePattern = regexp.MustCompile(`time=(\d+):(\d+):(\d+\.?\d*)`)

// durationFromDecode fully decodes the input to the null muxer and extracts
// the elapsed time from ffmpeg's human-readable progress output.
func (p *Prober) durationFromDecode(ctx context.Context, data []byte) (float64, bool) {
	stderr, err := p.runner.RunStderr(ctx, "probe", p.ffmpegPath, []string{
		"-i", "pipe:0",
		"-f", "null",
		"-v", "error",
		"-stats",
		"-",
	}, data, p.decodeTimeout)
	if err != nil {
		return 0, false
	}

	matches := statsTimePattern.FindAllStringSubmatch(string(stderr), -1)
	if len(matches) == 0 {
		return 0, false
	}

	// The last progress line carries the total elapsed time.
	last := matches[len(matches)-1]
	hours, _ := strconv.Atoi(last[1])
	minutes, _ := strconv.Atoi(last[2])
	seconds, err := strconv.ParseFloat(last[3], 64)
	if err != nil {
		return 0, false
	}

	return float64(hours)*3600 + float64(minutes)*60 + seconds, true
}

// parseDuration parses an ffprobe scalar duration value, rejecting the
// literal "N/A" that ffprobe emits for absent fields.
func parseDuration(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, false
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}
