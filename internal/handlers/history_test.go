package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"audio-toolkit/internal/database"
	"audio-toolkit/internal/ffmpeg"
	"audio-toolkit/internal/scratch"
)

func newTestHandlersWithDB(t *testing.T, runner *fakeRunner, prober *fakeProber) *Handlers {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("creating database: %v", err)
	}
	t.Cleanup(func() {
		if cerr := db.Close(); cerr != nil {
			t.Errorf("closing database: %v", cerr)
		}
	})

	sm := scratch.NewManager("audio_toolkit_handlers_test_")
	t.Cleanup(sm.CleanupAll)

	engine := ffmpeg.NewEngine(runner, "ffmpeg", prober, sm, 0)
	return New(engine, nil, db)
}

func TestHistoryRecordsOperations(t *testing.T) {
	runner := &fakeRunner{handle: func(string, []string, []byte) ([]byte, error) {
		return []byte("converted"), nil
	}}
	h := newTestHandlersWithDB(t, runner, &fakeProber{})

	req := newUploadRequest(t, "/api/convert",
		map[string]string{"target_format": "wav"},
		filePart{field: "file", name: "song.mp3", data: mp3Data})
	h.ConvertAudio(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}

	op := resp.Operations[0]
	if op.Kind != "convert" {
		t.Errorf("kind = %q, want convert", op.Kind)
	}
	if op.Status != database.StatusSuccess {
		t.Errorf("status = %q, want %q", op.Status, database.StatusSuccess)
	}
	if op.InputFormat != "mp3" || op.OutputFormat != "wav" {
		t.Errorf("formats = %q -> %q", op.InputFormat, op.OutputFormat)
	}
	if op.OutputBytes != int64(len("converted")) {
		t.Errorf("output bytes = %d", op.OutputBytes)
	}
}

func TestHistoryRecordsFailures(t *testing.T) {
	runner := &fakeRunner{handle: func(string, []string, []byte) ([]byte, error) {
		return nil, &ffmpeg.ToolError{Op: "convert", ExitCode: 1, Detail: "boom"}
	}}
	h := newTestHandlersWithDB(t, runner, &fakeProber{})

	req := newUploadRequest(t, "/api/convert",
		map[string]string{"target_format": "wav"},
		filePart{field: "file", name: "song.mp3", data: mp3Data})
	errRec := httptest.NewRecorder()
	h.ConvertAudio(errRec, req)
	if errRec.Code != http.StatusInternalServerError {
		t.Fatalf("convert status = %d, want 500", errRec.Code)
	}

	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	var resp HistoryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}
	if resp.Operations[0].Status != database.StatusError {
		t.Errorf("status = %q, want %q", resp.Operations[0].Status, database.StatusError)
	}
	if resp.Operations[0].Detail == "" {
		t.Error("detail missing for failed operation")
	}
}

func TestHistoryLimitValidation(t *testing.T) {
	h := newTestHandlersWithDB(t, &fakeRunner{}, &fakeProber{})

	rec := httptest.NewRecorder()
	h.GetHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=-1", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStats(t *testing.T) {
	runner := &fakeRunner{handle: func(string, []string, []byte) ([]byte, error) {
		return []byte("out"), nil
	}}
	h := newTestHandlersWithDB(t, runner, &fakeProber{})

	for i := 0; i < 3; i++ {
		req := newUploadRequest(t, "/api/convert",
			map[string]string{"target_format": "wav"},
			filePart{field: "file", name: "song.mp3", data: mp3Data})
		h.ConvertAudio(httptest.NewRecorder(), req)
	}

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", rec.Code, rec.Body.String())
	}

	var stats database.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.TotalOperations != 3 {
		t.Errorf("total operations = %d, want 3", stats.TotalOperations)
	}
	if stats.ByKind["convert"] != 3 {
		t.Errorf("convert count = %d, want 3", stats.ByKind["convert"])
	}
}
