package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheck(t *testing.T) {
	h := newTestHandlersWithDB(t, &fakeRunner{}, &fakeProber{})

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != statusHealthy {
		t.Errorf("status = %q, want %q", resp.Status, statusHealthy)
	}
	if resp.GoVersion == "" || resp.NumCPU == 0 {
		t.Error("system info missing")
	}
}

func TestHealthCheckWithoutDatabase(t *testing.T) {
	h := newTestHandlers(t, &fakeRunner{}, &fakeProber{})

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestLivenessCheck(t *testing.T) {
	h := newTestHandlers(t, &fakeRunner{}, &fakeProber{})

	t.Run("GET returns body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.LivenessCheck(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if rec.Body.Len() == 0 {
			t.Error("expected body on GET")
		}
	})

	t.Run("HEAD omits body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.LivenessCheck(rec, httptest.NewRequest(http.MethodHead, "/livez", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Error("expected empty body on HEAD")
		}
	})
}

func TestReadinessCheck(t *testing.T) {
	h := newTestHandlersWithDB(t, &fakeRunner{}, &fakeProber{})

	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGetVersion(t *testing.T) {
	h := newTestHandlers(t, &fakeRunner{}, &fakeProber{})

	rec := httptest.NewRecorder()
	h.GetVersion(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if info["version"] == "" {
		t.Error("version missing")
	}
	if info["goVersion"] == "" {
		t.Error("goVersion missing")
	}
}

func TestListFormats(t *testing.T) {
	h := newTestHandlers(t, &fakeRunner{}, &fakeProber{})

	rec := httptest.NewRecorder()
	h.ListFormats(rec, httptest.NewRequest(http.MethodGet, "/api/formats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp FormatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Audio) != 6 {
		t.Errorf("audio formats = %d, want 6", len(resp.Audio))
	}
	if len(resp.Video) != 5 {
		t.Errorf("video formats = %d, want 5", len(resp.Video))
	}
}
