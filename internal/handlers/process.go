package handlers

import (
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

// compressionBitrates maps the exposed compression levels to target
// bitrates in kbps.
var compressionBitrates = map[string]int{
	"low":    320,
	"medium": 192,
	"high":   128,
}

// ConvertAudio converts an uploaded audio file to the requested format.
//
// Form fields: file, target_format, preserve_metadata (optional, default
// true).
func (h *Handlers) ConvertAudio(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, "file")
	if err != nil {
		writeProcessingError(w, "convert", err)
		return
	}

	inFormat, err := validate.AudioUpload(up.filename, up.data)
	if err != nil {
		writeProcessingError(w, "convert", err)
		return
	}

	outFormat, err := validate.OutputFormat(r.FormValue("target_format"))
	if err != nil {
		writeProcessingError(w, "convert", err)
		return
	}

	preserveMetadata := true
	if v := r.FormValue("preserve_metadata"); v != "" {
		preserveMetadata, _ = strconv.ParseBool(v)
	}

	logging.Info("Convert request: %s %s -> %s", up.filename, inFormat, outFormat)

	start := time.Now()
	out, err := h.engine.Convert(r.Context(), up.data, outFormat, preserveMetadata)
	h.record(r.Context(), database.Operation{
		Kind:         "convert",
		Status:       outcome(err),
		InputFormat:  string(inFormat),
		OutputFormat: string(outFormat),
		InputBytes:   int64(len(up.data)),
		OutputBytes:  int64(len(out)),
		Duration:     time.Since(start).Milliseconds(),
		Detail:       errDetail(err),
	})
	if err != nil {
		writeProcessingError(w, "convert", err)
		return
	}

	filename := fmt.Sprintf("%s.%s", validate.BaseName(up.filename), outFormat)
	h.deliver(w, r, out, filename, mediafmt.MimeType(outFormat))
}

// TrimAudio cuts an uploaded audio file to the requested time range.
//
// Form fields: file, start_time, end_time. Times are seconds or MM:SS.
func (h *Handlers) TrimAudio(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, "file")
	if err != nil {
		writeProcessingError(w, "trim", err)
		return
	}

	inFormat, err := validate.AudioUpload(up.filename, up.data)
	if err != nil {
		writeProcessingError(w, "trim", err)
		return
	}

	startTime, err := validate.Timestamp(r.FormValue("start_time"))
	if err != nil {
		writeProcessingError(w, "trim", err)
		return
	}
	endTime, err := validate.Timestamp(r.FormValue("end_time"))
	if err != nil {
		writeProcessingError(w, "trim", err)
		return
	}

	logging.Info("Trim request: %s [%g, %g]", up.filename, startTime, endTime)

	start := time.Now()
	out, err := h.engine.Trim(r.Context(), up.data, inFormat, startTime, endTime)
	h.record(r.Context(), database.Operation{
		Kind:         "trim",
		Status:       outcome(err),
		InputFormat:  string(inFormat),
		OutputFormat: string(inFormat),
		InputBytes:   int64(len(up.data)),
		OutputBytes:  int64(len(out)),
		Duration:     time.Since(start).Milliseconds(),
		Detail:       errDetail(err),
	})
	if err != nil {
		writeProcessingError(w, "trim", err)
		return
	}

	filename := fmt.Sprintf("%s_trimmed.%s", validate.BaseName(up.filename), inFormat)
	h.deliver(w, r, out, filename, mediafmt.MimeType(inFormat))
}

// CompressAudio re-encodes an uploaded audio file at the bitrate implied
// by the requested level. Inputs already at or below the target bitrate
// are returned unchanged.
//
// Form fields: file, level (low|medium|high).
func (h *Handlers) CompressAudio(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, "file")
	if err != nil {
		writeProcessingError(w, "compress", err)
		return
	}

	inFormat, err := validate.AudioUpload(up.filename, up.data)
	if err != nil {
		writeProcessingError(w, "compress", err)
		return
	}

	level := strings.ToLower(strings.TrimSpace(r.FormValue("level")))
	bitrate, ok := compressionBitrates[level]
	if !ok {
		writeError(w, CodeInvalidCompressionLevel, fmt.Sprintf("unknown compression level %q", level))
		return
	}

	logging.Info("Compress request: %s level=%s (%d kbps)", up.filename, level, bitrate)

	start := time.Now()
	result, err := h.engine.Compress(r.Context(), up.data, inFormat, bitrate)

	status := outcome(err)
	if err == nil && result.Bypassed {
		status = database.StatusBypass
	}
	h.record(r.Context(), database.Operation{
		Kind:         "compress",
		Status:       status,
		InputFormat:  string(inFormat),
		OutputFormat: string(result.Format),
		InputBytes:   int64(len(up.data)),
		OutputBytes:  int64(len(result.Data)),
		Duration:     time.Since(start).Milliseconds(),
		Detail:       errDetail(err),
	})
	if err != nil {
		writeProcessingError(w, "compress", err)
		return
	}

	filename := fmt.Sprintf("%s_compressed.%s", validate.BaseName(up.filename), result.Format)
	h.deliver(w, r, result.Data, filename, mediafmt.MimeType(result.Format))
}

// ExtractAudio pulls the audio track out of an uploaded video file.
//
// Form fields: file, output_format.
func (h *Handlers) ExtractAudio(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, "file")
	if err != nil {
		writeProcessingError(w, "extract", err)
		return
	}

	inFormat, err := validate.VideoUpload(up.filename, up.data)
	if err != nil {
		writeProcessingError(w, "extract", err)
		return
	}

	outFormat, err := validate.OutputFormat(r.FormValue("output_format"))
	if err != nil {
		writeProcessingError(w, "extract", err)
		return
	}

	logging.Info("Extract request: %s (%s) -> %s", up.filename, inFormat, outFormat)

	start := time.Now()
	out, err := h.engine.Extract(r.Context(), up.data, outFormat)
	h.record(r.Context(), database.Operation{
		Kind:         "extract",
		Status:       outcome(err),
		InputFormat:  string(inFormat),
		OutputFormat: string(outFormat),
		InputBytes:   int64(len(up.data)),
		OutputBytes:  int64(len(out)),
		Duration:     time.Since(start).Milliseconds(),
		Detail:       errDetail(err),
	})
	if err != nil {
		writeProcessingError(w, "extract", err)
		return
	}

	filename := fmt.Sprintf("%s_audio.%s", validate.BaseName(up.filename), outFormat)
	h.deliver(w, r, out, filename, mediafmt.MimeType(outFormat))
}

// AdjustVolume changes the loudness of an uploaded audio file.
//
// Form fields: file, adjustment_mode (percentage|decibels|normalize), and
// the mode's value field: volume_percentage, decibel_change, or
// normalize_target.
func (h *Handlers) AdjustVolume(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, "file")
	if err != nil {
		writeProcessingError(w, "volume", err)
		return
	}

	inFormat, err := validate.AudioUpload(up.filename, up.data)
	if err != nil {
		writeProcessingError(w, "volume", err)
		return
	}

	mode := ffmpeg.VolumeMode(strings.ToLower(strings.TrimSpace(r.FormValue("adjustment_mode"))))

	var valueField string
	switch mode {
	case ffmpeg.VolumePercentage:
		valueField = "volume_percentage"
	case ffmpeg.VolumeDecibels:
		valueField = "decibel_change"
	case ffmpeg.VolumeNormalize:
		valueField = "normalize_target"
	default:
		writeError(w, CodeMalformedRequest, fmt.Sprintf("unknown adjustment mode %q", mode))
		return
	}

	raw := r.FormValue(valueField)
	if raw == "" {
		writeError(w, CodeMalformedRequest, fmt.Sprintf("missing field %q for mode %q", valueField, mode))
		return
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, CodeMalformedRequest, fmt.Sprintf("invalid %s: %q", valueField, raw))
		return
	}

	logging.Info("Volume request: %s mode=%s value=%g", up.filename, mode, value)

	start := time.Now()
	out, err := h.engine.AdjustVolume(r.Context(), up.data, inFormat, mode, value)
	h.record(r.Context(), database.Operation{
		Kind:         "volume",
		Status:       outcome(err),
		InputFormat:  string(inFormat),
		OutputFormat: string(inFormat),
		InputBytes:   int64(len(up.data)),
		OutputBytes:  int64(len(out)),
		Duration:     time.Since(start).Milliseconds(),
		Detail:       errDetail(err),
	})
	if err != nil {
		writeProcessingError(w, "volume", err)
		return
	}

	filename := fmt.Sprintf("%s_volume_adjusted.%s", validate.BaseName(up.filename), inFormat)
	h.deliver(w, r, out, filename, mediafmt.MimeType(inFormat))
}

// ChangeSpeed alters the playback speed of an uploaded audio file.
//
// Form fields: file, speed (0.25 to 4.0), preserve_pitch (optional,
// default true).
func (h *Handlers) ChangeSpeed(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, "file")
	if err != nil {
		writeProcessingError(w, "speed", err)
		return
	}

	inFormat, err := validate.AudioUpload(up.filename, up.data)
	if err != nil {
		writeProcessingError(w, "speed", err)
		return
	}

	speed, err := strconv.ParseFloat(r.FormValue("speed"), 64)
	if err != nil {
		writeError(w, CodeMalformedRequest, fmt.Sprintf("invalid speed: %q", r.FormValue("speed")))
		return
	}

	preservePitch := true
	if v := r.FormValue("preserve_pitch"); v != "" {
		preservePitch, _ = strconv.ParseBool(v)
	}

	logging.Info("Speed request: %s speed=%gx preserve_pitch=%v", up.filename, speed, preservePitch)

	start := time.Now()
	out, err := h.engine.ChangeSpeed(r.Context(), up.data, inFormat, speed, preservePitch)
	h.record(r.Context(), database.Operation{
		Kind:         "speed",
		Status:       outcome(err),
		InputFormat:  string(inFormat),
		OutputFormat: string(inFormat),
		InputBytes:   int64(len(up.data)),
		OutputBytes:  int64(len(out)),
		Duration:     time.Since(start).Milliseconds(),
		Detail:       errDetail(err),
	})
	if err != nil {
		writeProcessingError(w, "speed", err)
		return
	}

	suffix := strings.ReplaceAll(fmt.Sprintf("%.2fx", speed), ".", "_")
	filename := fmt.Sprintf("%s_speed_%s.%s", validate.BaseName(up.filename), suffix, inFormat)
	h.deliver(w, r, out, filename, mediafmt.MimeType(inFormat))
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
