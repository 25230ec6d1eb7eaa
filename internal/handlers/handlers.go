package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"audio-toolkit/internal/database"
	"audio-toolkit/internal/downloader"
	"audio-toolkit/internal/ffmpeg"
	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/streaming"
	"audio-toolkit/internal/validate"
)

// multipartMemory caps how much of a multipart body is held in memory
// before the parser spills to disk.
const multipartMemory = 32 << 20

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	engine     *ffmpeg.Engine
	downloader *downloader.Downloader
	db         *database.Database
	streamCfg  streaming.Config
	startTime  time.Time
}

// New creates a new Handlers instance with the given dependencies.
func New(engine *ffmpeg.Engine, dl *downloader.Downloader, db *database.Database) *Handlers {
	return &Handlers{
		engine:     engine,
		downloader: dl,
		db:         db,
		streamCfg:  streaming.DefaultConfig(),
		startTime:  time.Now(),
	}
}

// writeJSON encodes v as JSON and writes it to the response writer. Any
// encoding or write errors are logged since we typically cannot recover
// from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// upload is one file read out of a multipart form.
type upload struct {
	filename string
	data     []byte
}

// readUpload extracts the single file under the given form field. The size
// limit is enforced while reading so an oversized body never fully
// buffers.
func readUpload(r *http.Request, field string) (upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return upload{}, &validate.Error{Kind: validate.KindBadParameter,
			Reason: fmt.Sprintf("invalid multipart form: %v", err)}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return upload{}, &validate.Error{Kind: validate.KindBadParameter,
			Reason: fmt.Sprintf("missing file field %q", field)}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logging.Debug("failed to close upload %s: %v", header.Filename, cerr)
		}
	}()

	data, err := readLimited(file)
	if err != nil {
		return upload{}, err
	}

	return upload{filename: header.Filename, data: data}, nil
}

// readUploads extracts every file under the given form field, in form
// order.
func readUploads(r *http.Request, field string) ([]upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, &validate.Error{Kind: validate.KindBadParameter,
			Reason: fmt.Sprintf("invalid multipart form: %v", err)}
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, &validate.Error{Kind: validate.KindBadParameter,
			Reason: fmt.Sprintf("missing file field %q", field)}
	}

	headers := r.MultipartForm.File[field]
	uploads := make([]upload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, &validate.Error{Kind: validate.KindBadParameter,
				Reason: fmt.Sprintf("unreadable file %q: %v", header.Filename, err)}
		}

		data, err := readLimited(file)
		if cerr := file.Close(); cerr != nil {
			logging.Debug("failed to close upload %s: %v", header.Filename, cerr)
		}
		if err != nil {
			return nil, err
		}

		uploads = append(uploads, upload{filename: header.Filename, data: data})
	}

	return uploads, nil
}

func readLimited(file multipart.File) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file, validate.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > validate.MaxFileSize {
		return nil, &validate.Error{Kind: validate.KindTooLarge,
			Reason: fmt.Sprintf("file too large (limit %d bytes)", validate.MaxFileSize)}
	}
	return data, nil
}

// deliver streams a processed blob back to the client as a download.
func (h *Handlers) deliver(w http.ResponseWriter, r *http.Request, data []byte, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := streaming.Deliver(r.Context(), w, bytes.NewReader(data), h.streamCfg); err != nil {
		// Headers are gone at this point; all we can do is log.
		logging.Debug("delivery of %s aborted: %v", filename, err)
	}
}

// record writes one history row. History is best-effort: failures are
// logged and never surface to the client. The request context is detached
// so that a client disconnect after processing does not lose the row.
func (h *Handlers) record(ctx context.Context, op database.Operation) {
	if h.db == nil {
		return
	}
	if _, err := h.db.RecordOperation(context.WithoutCancel(ctx), op); err != nil {
		logging.Warn("failed to record %s operation: %v", op.Kind, err)
	}
}

// outcome converts a processing error to a history status.
func outcome(err error) string {
	if err != nil {
		return database.StatusError
	}
	return database.StatusSuccess
}
