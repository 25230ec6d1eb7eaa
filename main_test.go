package main

import (
	"testing"

	"audio-toolkit/internal/handlers"
	"audio-toolkit/internal/startup"
)

func TestSetupRouter(t *testing.T) {
	h := handlers.New(nil, nil, nil)

	tests := []struct {
		name             string
		downloadsEnabled bool
		wantRoute        string
		wantRegistered   bool
	}{
		{name: "downloads on", downloadsEnabled: true, wantRoute: "/api/download-audio", wantRegistered: true},
		{name: "downloads off", downloadsEnabled: false, wantRoute: "/api/download-audio", wantRegistered: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(h, tt.downloadsEnabled)

			routes, err := startup.GetRoutes(router)
			if err != nil {
				t.Fatalf("GetRoutes: %v", err)
			}

			registered := make(map[string]bool)
			for _, route := range routes {
				registered[route.Path] = true
			}

			for _, path := range []string{
				"/health", "/healthz", "/livez", "/readyz", "/version",
				"/api/convert", "/api/trim", "/api/merge", "/api/compress",
				"/api/extract", "/api/split", "/api/volume", "/api/speed",
				"/api/metadata", "/api/formats", "/api/history", "/api/stats",
			} {
				if !registered[path] {
					t.Errorf("route %s not registered", path)
				}
			}

			if registered[tt.wantRoute] != tt.wantRegistered {
				t.Errorf("route %s registered = %v, want %v",
					tt.wantRoute, registered[tt.wantRoute], tt.wantRegistered)
			}
		})
	}
}
