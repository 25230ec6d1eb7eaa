package handlers

import (
	"net/http"
	"time"

	"audio-toolkit/internal/database"
	"audio-toolkit/internal/logging"
)

// DownloadAudio fetches the audio track of a remote video URL and returns
// it as an MP3 download.
//
// Query parameters: url.
func (h *Handlers) DownloadAudio(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, CodeMalformedRequest, "missing url parameter")
		return
	}

	logging.Info("Download request: %s", url)

	start := time.Now()
	result, err := h.downloader.DownloadAudio(r.Context(), url)
	h.record(r.Context(), database.Operation{
		Kind:         "download",
		Status:       outcome(err),
		OutputFormat: "mp3",
		OutputBytes:  int64(len(result.Data)),
		Duration:     time.Since(start).Milliseconds(),
		Detail:       errDetail(err),
	})
	if err != nil {
		writeProcessingError(w, "download", err)
		return
	}

	logging.Info("Download complete: %s (%d bytes)", result.Title, len(result.Data))
	h.deliver(w, r, result.Data, result.Filename, "audio/mpeg")
}
