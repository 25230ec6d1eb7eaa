package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// taggedMP3 builds an ID3v2.3 header with a single title frame, enough
// for the tag reader to produce real metadata.
func taggedMP3(title string) []byte {
	content := append([]byte{0x00}, []byte(title)...)

	frame := make([]byte, 0, 10+len(content))
	frame = append(frame, []byte("TIT2")...)
	frame = append(frame,
		byte(len(content)>>24), byte(len(content)>>16),
		byte(len(content)>>8), byte(len(content)))
	frame = append(frame, 0x00, 0x00)
	frame = append(frame, content...)

	body := len(frame)
	header := []byte{
		'I', 'D', '3', 0x03, 0x00, 0x00,
		byte(body >> 21 & 0x7F), byte(body >> 14 & 0x7F),
		byte(body >> 7 & 0x7F), byte(body & 0x7F),
	}

	return append(header, frame...)
}

func TestReadMetadata(t *testing.T) {
	h := newTestHandlers(t, &fakeRunner{}, &fakeProber{})

	req := newUploadRequest(t, "/api/metadata", nil,
		filePart{field: "file", name: "song.mp3", data: taggedMP3("Night Drive")})
	rec := httptest.NewRecorder()

	h.ReadMetadata(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp MetadataResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Title != "Night Drive" {
		t.Errorf("title = %q, want %q", resp.Title, "Night Drive")
	}
	if resp.HasCoverArt {
		t.Error("unexpected cover art flag")
	}
	if resp.CoverArt != "" {
		t.Error("unexpected cover art payload")
	}
}

func TestReadMetadataUntagged(t *testing.T) {
	h := newTestHandlers(t, &fakeRunner{}, &fakeProber{})

	req := newUploadRequest(t, "/api/metadata", nil,
		filePart{field: "file", name: "song.mp3", data: mp3Data})
	rec := httptest.NewRecorder()

	h.ReadMetadata(rec, req)

	// Tag-free input is not an error; the reply is just empty.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp MetadataResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Title != "" {
		t.Errorf("title = %q, want empty", resp.Title)
	}
}

func TestReadMetadataRejectsVideo(t *testing.T) {
	h := newTestHandlers(t, &fakeRunner{}, &fakeProber{})

	req := newUploadRequest(t, "/api/metadata", nil,
		filePart{field: "file", name: "clip.avi", data: aviData})
	rec := httptest.NewRecorder()

	h.ReadMetadata(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != CodeUnsupportedFormat {
		t.Errorf("code = %s, want %s", resp.Code, CodeUnsupportedFormat)
	}
}
