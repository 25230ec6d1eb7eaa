package ffmpeg

import (
	"fmt"
	"strconv"

	"audio-toolkit/internal/mediafmt"
)

// VolumeMode selects how a volume adjustment is expressed.
type VolumeMode string

const (
	// VolumePercentage scales volume by a percentage of the original (100 = unchanged).
	VolumePercentage VolumeMode = "percentage"
	// VolumeDecibels applies a gain change in dB.
	VolumeDecibels VolumeMode = "decibels"
	// VolumeNormalize normalizes loudness to a target LUFS level.
	VolumeNormalize VolumeMode = "normalize"
)

// Speed limits of the exposed API. The underlying atempo filter accepts
// [0.5, 2.0] per stage, so speeds outside that range chain two stages.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0

	atempoMin = 0.5
	atempoMax = 2.0
)

// oggQualityForBitrate approximates a target bitrate with a vorbis quality
// level, since libvorbis is quality-driven rather than bitrate-driven.
var oggQualityForBitrate = map[int]string{
	320: "8",
	192: "6",
	128: "4",
}

// ftoa formats a float argument without trailing zeros.
func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// convertArgs builds the argument vector for a format conversion read from
// stdin and written to stdout.
func convertArgs(out mediafmt.Format, preserveMetadata bool) []string {
	args := []string{"-i", "pipe:0"}

	if preserveMetadata {
		args = append(args, "-map_metadata", "0")
		if out == mediafmt.MP3 {
			// ID3v2.3 for cross-tool compatibility; many readers still
			// cannot parse the v2.4 default.
			args = append(args, "-id3v2_version", "3")
		}
	}

	args = append(args, mediafmt.CodecArgs(out)...)

	if mediafmt.NeedsFragmentedOutput(out) {
		args = append(args, mediafmt.FragmentFlags...)
	}

	return append(args, "-f", mediafmt.StreamContainer(out), "pipe:1")
}

// trimArgs builds a stream-copy trim bounded by a start offset and
// duration. If end exceeds the actual media length, ffmpeg clips to the
// available length; that is accepted behavior, not an error.
func trimArgs(in mediafmt.Format, start, end float64) []string {
	args := []string{
		"-i", "pipe:0",
		"-ss", ftoa(start),
		"-t", ftoa(end - start),
		"-c", "copy",
	}

	if mediafmt.NeedsFragmentedOutput(in) {
		args = append(args, mediafmt.FragmentFlags...)
	}

	return append(args, "-f", mediafmt.StreamContainer(in), "pipe:1")
}

// compressArgs builds per-format encode settings for a target bitrate in
// kbps. Lossless inputs are always re-encoded to MP3, changing the
// effective output format; callers must propagate the returned format into
// filename and MIME decisions.
func compressArgs(in mediafmt.Format, bitrateKbps int) ([]string, mediafmt.Format) {
	bitrate := fmt.Sprintf("%dk", bitrateKbps)
	out := in
	args := []string{"-i", "pipe:0"}

	switch in {
	case mediafmt.MP3:
		args = append(args, "-codec:a", "libmp3lame", "-b:a", bitrate)
	case mediafmt.WAV, mediafmt.FLAC:
		args = append(args, "-codec:a", "libmp3lame", "-b:a", bitrate)
		out = mediafmt.MP3
	case mediafmt.AAC, mediafmt.M4A:
		args = append(args, "-codec:a", "aac", "-b:a", bitrate)
	case mediafmt.OGG:
		quality, ok := oggQualityForBitrate[bitrateKbps]
		if !ok {
			quality = "6"
		}
		args = append(args, "-codec:a", "libvorbis", "-q:a", quality)
	default:
		args = append(args, "-codec:a", "libmp3lame", "-b:a", bitrate)
		out = mediafmt.MP3
	}

	if mediafmt.NeedsFragmentedOutput(out) {
		args = append(args, mediafmt.FragmentFlags...)
	}

	return append(args, "-f", mediafmt.StreamContainer(out), "pipe:1"), out
}

// extractArgs builds a command that disables video muxing and selects the
// first audio stream. Callers must have already confirmed an audio track
// exists.
func extractArgs(out mediafmt.Format) []string {
	args := []string{
		"-i", "pipe:0",
		"-vn",
		"-map", "0:a:0",
	}

	args = append(args, mediafmt.CodecArgs(out)...)

	if mediafmt.NeedsFragmentedOutput(out) {
		args = append(args, mediafmt.FragmentFlags...)
	}

	return append(args, "-f", mediafmt.StreamContainer(out), "pipe:1")
}

// volumeFilter builds the audio-filter expression for a volume adjustment.
func volumeFilter(mode VolumeMode, value float64) string {
	switch mode {
	case VolumePercentage:
		return fmt.Sprintf("volume=%s", ftoa(value/100.0))
	case VolumeDecibels:
		return fmt.Sprintf("volume=%.1fdB", value)
	case VolumeNormalize:
		return fmt.Sprintf("loudnorm=I=%s", ftoa(value))
	default:
		return ""
	}
}

// volumeArgs builds the argument vector for a volume adjustment. Applying a
// filter forces a re-encode, so the input format's codec settings are used
// for the output.
func volumeArgs(in mediafmt.Format, mode VolumeMode, value float64) []string {
	args := []string{
		"-i", "pipe:0",
		"-af", volumeFilter(mode, value),
	}

	args = append(args, mediafmt.CodecArgs(in)...)

	if mediafmt.NeedsFragmentedOutput(in) {
		args = append(args, mediafmt.FragmentFlags...)
	}

	return append(args, "-f", mediafmt.StreamContainer(in), "pipe:1")
}

// speedFilter builds the audio-filter expression for a speed change.
//
// With pitch preservation the atempo filter is used; a single stage only
// accepts [0.5, 2.0], so speeds outside that range chain two stages with
// the first anchored at the boundary and the second carrying the
// remainder. Without pitch preservation the playback rate is resampled
// directly, shifting pitch with speed.
func speedFilter(speed float64, preservePitch bool) string {
	if !preservePitch {
		return fmt.Sprintf("asetrate=%d*%s,aresample=%d",
			DefaultSampleRate, ftoa(speed), DefaultSampleRate)
	}

	switch {
	case speed < atempoMin:
		return fmt.Sprintf("atempo=%s,atempo=%s", ftoa(atempoMin), ftoa(speed/atempoMin))
	case speed > atempoMax:
		return fmt.Sprintf("atempo=%s,atempo=%s", ftoa(atempoMax), ftoa(speed/atempoMax))
	default:
		return fmt.Sprintf("atempo=%s", ftoa(speed))
	}
}

// speedArgs builds the argument vector for a playback speed change.
func speedArgs(in mediafmt.Format, speed float64, preservePitch bool) []string {
	args := []string{
		"-i", "pipe:0",
		"-af", speedFilter(speed, preservePitch),
	}

	args = append(args, mediafmt.CodecArgs(in)...)

	if mediafmt.NeedsFragmentedOutput(in) {
		args = append(args, mediafmt.FragmentFlags...)
	}

	return append(args, "-f", mediafmt.StreamContainer(in), "pipe:1")
}

// normalizeArgs builds the command that resamples one merge input to the
// common intermediate format: uncompressed WAV, stereo, at the unified
// sample rate, written to a scratch file.
func normalizeArgs(sampleRate int, outPath string) []string {
	return []string{
		"-i", "pipe:0",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "2",
		"-f", "wav",
		outPath,
	}
}

// concatArgs builds the concat-demuxer command over a manifest file. WAV
// output is a stream copy of the WAV intermediates; any other target is
// re-encoded once.
func concatArgs(manifestPath string, out mediafmt.Format) []string {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
	}

	if out == mediafmt.WAV {
		return append(args, "-c", "copy", "-f", "wav", "pipe:1")
	}

	args = append(args, mediafmt.CodecArgs(out)...)
	if mediafmt.NeedsFragmentedOutput(out) {
		args = append(args, mediafmt.FragmentFlags...)
	}
	return append(args, "-f", mediafmt.StreamContainer(out), "pipe:1")
}
