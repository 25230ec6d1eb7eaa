package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/mediafmt"
	"audio-toolkit/internal/metrics"
)

// Merge concatenates 2-10 audio inputs in order into the output format.
//
// Mixed formats and sample rates are reconciled by normalizing every input
// to a common intermediate: uncompressed WAV, stereo, at the maximum of the
// probed per-input sample rates (so no input is downsampled). The concat
// demuxer requires files on disk, so intermediates live in a scratch
// directory that is removed whether the merge succeeds or fails. The
// manifest preserves the original input order.
func (e *Engine) Merge(ctx context.Context, inputs [][]byte, out mediafmt.Format) ([]byte, error) {
	if !mediafmt.IsAudio(out) {
		return nil, &ValidationError{Field: "output format", Reason: fmt.Sprintf("unsupported audio format %q", out)}
	}
	if len(inputs) < MinMergeInputs {
		return nil, &ValidationError{Field: "input count",
			Reason: fmt.Sprintf("at least %d files required for merging", MinMergeInputs)}
	}
	if len(inputs) > MaxMergeInputs {
		return nil, &ValidationError{Field: "input count",
			Reason: fmt.Sprintf("at most %d files supported for merging", MaxMergeInputs)}
	}

	start := time.Now()
	logging.Info("Merging %d inputs to %s", len(inputs), out)

	// Probe first: the target rate must be known before any normalization
	// starts. Per-input probe failures already fall back to the default
	// rate inside the prober, so the max here is over real values.
	targetRate := 0
	for i, input := range inputs {
		rate := e.prober.SampleRate(ctx, input)
		logging.Debug("Input %d sample rate: %d Hz", i, rate)
		if rate > targetRate {
			targetRate = rate
		}
	}
	logging.Info("Unified sample rate: %d Hz", targetRate)

	var merged []byte
	err := e.scratch.WithDir(func(dir string) error {
		manifest := make([]string, 0, len(inputs))

		for i, input := range inputs {
			outPath := filepath.Join(dir, fmt.Sprintf("input_%d.wav", i))
			op := fmt.Sprintf("merge normalize %d", i+1)

			if _, err := e.runner.Run(ctx, "merge", e.ffmpegPath, normalizeArgs(targetRate, outPath), input, e.transcodeTimeout); err != nil {
				return &PipelineItemError{Kind: "merge input", Index: i, Err: fmt.Errorf("%s: %w", op, err)}
			}
			manifest = append(manifest, outPath)
		}

		manifestPath := filepath.Join(dir, "concat_list.txt")
		if err := writeConcatManifest(manifestPath, manifest); err != nil {
			return err
		}

		output, err := e.runner.Run(ctx, "merge", e.ffmpegPath, concatArgs(manifestPath, out), nil, e.transcodeTimeout)
		if err != nil {
			return err
		}
		merged = output
		return nil
	})

	if err != nil {
		metrics.PipelinesTotal.WithLabelValues("merge", "error").Inc()
		return nil, err
	}

	metrics.PipelinesTotal.WithLabelValues("merge", "success").Inc()
	metrics.PipelineDuration.WithLabelValues("merge").Observe(time.Since(start).Seconds())
	logging.Info("Merge complete: %d bytes of %s", len(merged), out)
	return merged, nil
}

// writeConcatManifest writes the concat-demuxer file list, one entry per
// line in input order. Single quotes in paths are escaped per the demuxer's
// quoting rules, though scratch paths never contain them in practice.
func writeConcatManifest(path string, files []string) error {
	var b strings.Builder
	for _, f := range files {
		escaped := strings.ReplaceAll(f, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write concat manifest: %w", err)
	}
	return nil
}

// SplitByTime cuts the input into equal intervals via stream copy. Segment
// count is ceil(duration / interval); only the final segment may be
// shorter. Split cannot proceed without a duration, so exhaustion of the
// duration fallback chain surfaces as ErrDurationUnknown.
func (e *Engine) SplitByTime(ctx context.Context, data []byte, in mediafmt.Format, interval float64) ([][]byte, error) {
	if interval <= 0 {
		return nil, &ValidationError{Field: "interval", Reason: "must be positive"}
	}

	duration, err := e.prober.Duration(ctx, data)
	if err != nil {
		return nil, err
	}
	logging.Info("Splitting %.3fs of %s into %.3fs intervals", duration, in, interval)

	count := int(math.Ceil(duration / interval))
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		segments = append(segments, Segment{
			Start: float64(i) * interval,
			End:   math.Min(float64(i+1)*interval, duration),
		})
	}

	blobs, err := e.extractSegments(ctx, data, in, segments)
	if err != nil {
		metrics.PipelinesTotal.WithLabelValues("split_time", "error").Inc()
		return nil, err
	}

	metrics.PipelinesTotal.WithLabelValues("split_time", "success").Inc()
	logging.Info("Split complete: %d segments", len(blobs))
	return blobs, nil
}

// SplitBySegments extracts the caller-supplied ranges in order. Segments
// with end <= start are skipped with a warning rather than failing the
// request; this leniency matches the time-based path's handling of
// zero-length tails and is a deliberate, recorded policy choice.
func (e *Engine) SplitBySegments(ctx context.Context, data []byte, in mediafmt.Format, segments []Segment) ([][]byte, error) {
	if len(segments) == 0 {
		return nil, &ValidationError{Field: "segments", Reason: "at least one segment required"}
	}
	for i, seg := range segments {
		if seg.Start < 0 {
			return nil, &ValidationError{Field: "segments",
				Reason: fmt.Sprintf("segment %d start must not be negative", i+1)}
		}
	}

	logging.Info("Splitting %s into %d custom segments", in, len(segments))

	blobs, err := e.extractSegments(ctx, data, in, segments)
	if err != nil {
		metrics.PipelinesTotal.WithLabelValues("split_segments", "error").Inc()
		return nil, err
	}

	metrics.PipelinesTotal.WithLabelValues("split_segments", "success").Inc()
	logging.Info("Split complete: %d segments", len(blobs))
	return blobs, nil
}

// extractSegments runs one stream-copy extraction per segment, in order.
// Zero- or negative-duration segments are skipped with a warning, never
// silently merged into a neighbor. The first failing extraction aborts the
// whole pipeline; no partial output is returned.
func (e *Engine) extractSegments(ctx context.Context, data []byte, in mediafmt.Format, segments []Segment) ([][]byte, error) {
	blobs := make([][]byte, 0, len(segments))

	for i, seg := range segments {
		if seg.End-seg.Start <= 0 {
			logging.Warn("Skipping segment %d (%s): non-positive duration %.3fs",
				i+1, seg.Name, seg.End-seg.Start)
			continue
		}

		blob, err := e.runner.Run(ctx, "split", e.ffmpegPath, trimArgs(in, seg.Start, seg.End), data, e.transcodeTimeout)
		if err != nil {
			return nil, &PipelineItemError{Kind: "split segment", Index: i, Err: err}
		}
		blobs = append(blobs, blob)
		logging.Debug("Segment %d extracted: %d bytes", i+1, len(blob))
	}

	return blobs, nil
}
