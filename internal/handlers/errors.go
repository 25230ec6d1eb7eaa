package handlers

import (
	"context"
	"errors"
	"net/http"

	"audio-toolkit/internal/downloader"
	"audio-toolkit/internal/ffmpeg"
	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/validate"
)

// ErrorCode identifies an error class for programmatic clients.
type ErrorCode string

// Client errors.
const (
	CodeFileTooLarge            ErrorCode = "FILE_TOO_LARGE"
	CodeUnsupportedFormat       ErrorCode = "UNSUPPORTED_FORMAT"
	CodeInvalidTimeRange        ErrorCode = "INVALID_TIME_RANGE"
	CodeInvalidCompressionLevel ErrorCode = "INVALID_COMPRESSION_LEVEL"
	CodeCorruptedFile           ErrorCode = "CORRUPTED_FILE"
	CodeNoAudioTrack            ErrorCode = "NO_AUDIO_TRACK"
	CodeInvalidFileCount        ErrorCode = "INVALID_FILE_COUNT"
	CodeMalformedRequest        ErrorCode = "MALFORMED_REQUEST"
)

// Server errors.
const (
	CodeProcessingFailed   ErrorCode = "PROCESSING_FAILED"
	CodeFFmpegError        ErrorCode = "FFMPEG_ERROR"
	CodeInsufficientMemory ErrorCode = "INSUFFICIENT_MEMORY"
)

// Infrastructure errors.
const (
	CodeTimeout   ErrorCode = "TIMEOUT"
	CodeRateLimit ErrorCode = "RATE_LIMIT"
	CodeNotFound  ErrorCode = "NOT_FOUND"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error      string    `json:"error"`
	Details    string    `json:"details,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	Code       ErrorCode `json:"code"`
}

var errorStatus = map[ErrorCode]int{
	CodeFileTooLarge:            http.StatusRequestEntityTooLarge,
	CodeUnsupportedFormat:       http.StatusBadRequest,
	CodeInvalidTimeRange:        http.StatusBadRequest,
	CodeInvalidCompressionLevel: http.StatusBadRequest,
	CodeCorruptedFile:           http.StatusBadRequest,
	CodeNoAudioTrack:            http.StatusBadRequest,
	CodeInvalidFileCount:        http.StatusBadRequest,
	CodeMalformedRequest:        http.StatusBadRequest,
	CodeProcessingFailed:        http.StatusInternalServerError,
	CodeFFmpegError:             http.StatusInternalServerError,
	CodeInsufficientMemory:      http.StatusInternalServerError,
	CodeTimeout:                 http.StatusGatewayTimeout,
	CodeRateLimit:               http.StatusTooManyRequests,
	CodeNotFound:                http.StatusNotFound,
}

type errorText struct {
	message    string
	suggestion string
}

var errorTexts = map[ErrorCode]errorText{
	CodeFileTooLarge: {
		message:    "File too large",
		suggestion: "File exceeds 100MB limit. Please use a smaller file or compress it first.",
	},
	CodeUnsupportedFormat: {
		message:    "Unsupported format",
		suggestion: "Format not supported. Please use MP3, WAV, FLAC, AAC, OGG, or M4A for audio, or MP4, AVI, MKV, MOV, WEBM for video.",
	},
	CodeInvalidTimeRange: {
		message:    "Invalid time range",
		suggestion: "End time must be greater than start time. Please check your timestamps.",
	},
	CodeInvalidCompressionLevel: {
		message:    "Invalid compression level",
		suggestion: "Please select a valid compression level: low (320kbps), medium (192kbps), or high (128kbps).",
	},
	CodeCorruptedFile: {
		message:    "File appears to be corrupted",
		suggestion: "File appears to be corrupted or incomplete. Please try a different file.",
	},
	CodeNoAudioTrack: {
		message:    "No audio track found",
		suggestion: "Video file contains no audio track to extract. Please use a video with audio.",
	},
	CodeInvalidFileCount: {
		message:    "Invalid number of files",
		suggestion: "Please provide between 2 and 10 files for merging.",
	},
	CodeMalformedRequest: {
		message:    "Malformed request",
		suggestion: "Request parameters are invalid. Please check your input and try again.",
	},
	CodeProcessingFailed: {
		message:    "Processing failed",
		suggestion: "Processing failed. Please try again or use a different file.",
	},
	CodeFFmpegError: {
		message:    "Audio processing error",
		suggestion: "An error occurred during audio processing. Please try again with a different file.",
	},
	CodeInsufficientMemory: {
		message:    "Insufficient memory",
		suggestion: "File is too large to process. Please try a smaller file.",
	},
	CodeTimeout: {
		message:    "Processing timeout",
		suggestion: "Processing took too long. Please try a smaller file or simpler operation.",
	},
	CodeRateLimit: {
		message:    "Too many requests",
		suggestion: "Too many requests. Please wait a moment and try again.",
	},
	CodeNotFound: {
		message:    "Not found",
		suggestion: "The requested resource was not found.",
	},
}

// writeError writes a JSON error response for the given code. The details
// string carries the request-specific context; message and suggestion come
// from the code's canonical texts.
func writeError(w http.ResponseWriter, code ErrorCode, details string) {
	status, ok := errorStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	text := errorTexts[code]

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, ErrorResponse{
		Error:      text.message,
		Details:    details,
		Suggestion: text.suggestion,
		Code:       code,
	})
}

// classify maps an error from the processing layers to an error code.
func classify(err error) ErrorCode {
	var vErr *validate.Error
	if errors.As(err, &vErr) {
		switch vErr.Kind {
		case validate.KindUnsupportedFormat:
			return CodeUnsupportedFormat
		case validate.KindTooLarge:
			return CodeFileTooLarge
		case validate.KindCorrupted:
			return CodeCorruptedFile
		default:
			return CodeMalformedRequest
		}
	}

	var valErr *ffmpeg.ValidationError
	if errors.As(err, &valErr) {
		switch valErr.Field {
		case "start time", "end time", "time range", "interval", "segments":
			return CodeInvalidTimeRange
		case "input count":
			return CodeInvalidFileCount
		case "output format", "input format":
			return CodeUnsupportedFormat
		default:
			return CodeMalformedRequest
		}
	}

	var dlErr *downloader.UnsupportedFormatError
	if errors.As(err, &dlErr) {
		return CodeUnsupportedFormat
	}

	var toErr *ffmpeg.TimeoutError
	if errors.As(err, &toErr) || errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}

	if errors.Is(err, ffmpeg.ErrNoAudioTrack) {
		return CodeNoAudioTrack
	}
	if errors.Is(err, ffmpeg.ErrDurationUnknown) {
		return CodeCorruptedFile
	}

	var toolErr *ffmpeg.ToolError
	if errors.As(err, &toolErr) {
		return CodeFFmpegError
	}

	var execErr *ffmpeg.ExecError
	if errors.As(err, &execErr) {
		return CodeProcessingFailed
	}

	return CodeProcessingFailed
}

// writeProcessingError classifies err and writes the matching response.
func writeProcessingError(w http.ResponseWriter, op string, err error) {
	code := classify(err)
	if status := errorStatus[code]; status >= 500 {
		logging.Error("%s failed: %v", op, err)
	} else {
		logging.Debug("%s rejected: %v", op, err)
	}
	writeError(w, code, err.Error())
}
