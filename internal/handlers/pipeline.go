package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"audio-toolkit/internal/database"
	"audio-toolkit/internal/ffmpeg"
	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/mediafmt"
	"audio-toolkit/internal/validate"
)

// MergeAudio concatenates the uploaded audio files into one output.
//
// Form fields: files (repeated), output_format.
func (h *Handlers) MergeAudio(w http.ResponseWriter, r *http.Request) {
	uploads, err := readUploads(r, "files")
	if err != nil {
		writeProcessingError(w, "merge", err)
		return
	}

	if len(uploads) < ffmpeg.MinMergeInputs || len(uploads) > ffmpeg.MaxMergeInputs {
		writeError(w, CodeInvalidFileCount,
			fmt.Sprintf("got %d files, need between %d and %d",
				len(uploads), ffmpeg.MinMergeInputs, ffmpeg.MaxMergeInputs))
		return
	}

	var totalIn int64
	inputs := make([][]byte, 0, len(uploads))
	for _, up := range uploads {
		if _, err := validate.AudioUpload(up.filename, up.data); err != nil {
			writeProcessingError(w, "merge", fmt.Errorf("file %q: %w", up.filename, err))
			return
		}
		inputs = append(inputs, up.data)
		totalIn += int64(len(up.data))
	}

	outFormat, err := validate.OutputFormat(r.FormValue("output_format"))
	if err != nil {
		writeProcessingError(w, "merge", err)
		return
	}

	logging.Info("Merge request: %d files -> %s", len(inputs), outFormat)

	start := time.Now()
	out, err := h.engine.Merge(r.Context(), inputs, outFormat)
	h.record(r.Context(), database.Operation{
		Kind:         "merge",
		Status:       outcome(err),
		OutputFormat: string(outFormat),
		InputBytes:   totalIn,
		OutputBytes:  int64(len(out)),
		Duration:     time.Since(start).Milliseconds(),
		Detail:       errDetail(err),
	})
	if err != nil {
		writeProcessingError(w, "merge", err)
		return
	}

	filename := fmt.Sprintf("merged_audio.%s", outFormat)
	h.deliver(w, r, out, filename, mediafmt.MimeType(outFormat))
}

// SplitAudio cuts an uploaded audio file into segments and returns them
// bundled in a ZIP archive.
//
// Form fields: file, split_mode (time|segments), interval_duration for
// time mode, segments (JSON array of {start, end, name}) for segments
// mode.
func (h *Handlers) SplitAudio(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, "file")
	if err != nil {
		writeProcessingError(w, "split", err)
		return
	}

	inFormat, err := validate.AudioUpload(up.filename, up.data)
	if err != nil {
		writeProcessingError(w, "split", err)
		return
	}

	mode := strings.ToLower(strings.TrimSpace(r.FormValue("split_mode")))

	var (
		parts [][]byte
		opErr error
	)

	start := time.Now()
	switch mode {
	case "time":
		interval, err := strconv.ParseFloat(r.FormValue("interval_duration"), 64)
		if err != nil {
			writeError(w, CodeMalformedRequest,
				fmt.Sprintf("invalid interval_duration: %q", r.FormValue("interval_duration")))
			return
		}
		logging.Info("Split request: %s every %gs", up.filename, interval)
		parts, opErr = h.engine.SplitByTime(r.Context(), up.data, inFormat, interval)

	case "segments":
		var segments []ffmpeg.Segment
		if err := json.Unmarshal([]byte(r.FormValue("segments")), &segments); err != nil {
			writeError(w, CodeMalformedRequest, fmt.Sprintf("invalid segments JSON: %v", err))
			return
		}
		logging.Info("Split request: %s into %d segments", up.filename, len(segments))
		parts, opErr = h.engine.SplitBySegments(r.Context(), up.data, inFormat, segments)

	default:
		writeError(w, CodeMalformedRequest, fmt.Sprintf("unknown split mode %q", mode))
		return
	}

	var archive []byte
	if opErr == nil {
		archive, opErr = zipSegments(parts, inFormat)
	}

	h.record(r.Context(), database.Operation{
		Kind:        "split",
		Status:      outcome(opErr),
		InputFormat: string(inFormat),
		InputBytes:  int64(len(up.data)),
		OutputBytes: int64(len(archive)),
		Duration:    time.Since(start).Milliseconds(),
		Detail:      errDetail(opErr),
	})
	if opErr != nil {
		writeProcessingError(w, "split", opErr)
		return
	}

	logging.Info("Split successful: %d segments", len(parts))
	h.deliver(w, r, archive, "split_audio_segments.zip", "application/zip")
}

// zipSegments bundles split outputs into a deflate-compressed archive.
// Entry names are 1-based.
func zipSegments(parts [][]byte, format mediafmt.Format) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, part := range parts {
		entry, err := zw.Create(fmt.Sprintf("segment_%d.%s", i+1, format))
		if err != nil {
			return nil, fmt.Errorf("creating archive entry %d: %w", i+1, err)
		}
		if _, err := entry.Write(part); err != nil {
			return nil, fmt.Errorf("writing archive entry %d: %w", i+1, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), nil
}
