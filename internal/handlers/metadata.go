package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/media"
	"audio-toolkit/internal/mediafmt"
	"audio-toolkit/internal/validate"
)

// MetadataResponse is the tag read reply. CoverArt is a base64-encoded
// resized JPEG, present only when the file embeds a picture.
type MetadataResponse struct {
	media.Tags
	CoverArt  string `json:"cover_art,omitempty"`
	CoverMIME string `json:"cover_mime,omitempty"`
}

// ReadMetadata returns the embedded tags of an uploaded audio file.
//
// Form fields: file.
func (h *Handlers) ReadMetadata(w http.ResponseWriter, r *http.Request) {
	up, err := readUpload(r, "file")
	if err != nil {
		writeProcessingError(w, "metadata", err)
		return
	}

	if _, err := validate.AudioUpload(up.filename, up.data); err != nil {
		writeProcessingError(w, "metadata", err)
		return
	}

	tags, err := media.ReadTags(up.data)
	if err != nil && !errors.Is(err, media.ErrNoTags) {
		writeProcessingError(w, "metadata", err)
		return
	}

	response := MetadataResponse{Tags: tags}

	if tags.HasCoverArt {
		cover, err := media.ReadCoverArt(up.data)
		if err != nil {
			logging.Debug("Cover art extraction failed for %s: %v", up.filename, err)
		} else {
			response.CoverArt = base64.StdEncoding.EncodeToString(cover.Data)
			response.CoverMIME = cover.MIME
		}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// FormatsResponse lists the supported format tokens.
type FormatsResponse struct {
	Audio []mediafmt.Format `json:"audio"`
	Video []mediafmt.Format `json:"video"`
}

// ListFormats returns the supported audio and video formats.
func (h *Handlers) ListFormats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "max-age=3600")
	writeJSON(w, FormatsResponse{
		Audio: mediafmt.AudioList(),
		Video: mediafmt.VideoList(),
	})
}
