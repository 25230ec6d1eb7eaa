package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	available := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"CPUBound", 1.0, 0, available},
		{"IOBound", 2.0, 0, available * 2},
		{"CappedByLimit", 2.0, 1, 1},
		{"TinyMultiplierFloorsAtOne", 0.001, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	t.Setenv(overrideEnv, "3")

	if got := Count(1.0, 0); got != 3 {
		t.Errorf("Count() with override = %d, want 3", got)
	}
	if got := Count(1.0, 2); got != 2 {
		t.Errorf("Count() override above limit = %d, want 2", got)
	}
}

func TestCountIgnoresBadOverride(t *testing.T) {
	available := runtime.GOMAXPROCS(0)

	for _, bad := range []string{"abc", "-2", "0"} {
		t.Setenv(overrideEnv, bad)
		if got := Count(1.0, 0); got != available {
			t.Errorf("Count() with override %q = %d, want %d", bad, got, available)
		}
	}
}

func TestForTranscoding(t *testing.T) {
	if got := ForTranscoding(1); got != 1 {
		t.Errorf("ForTranscoding(1) = %d, want 1", got)
	}
}

func TestForDownloads(t *testing.T) {
	available := runtime.GOMAXPROCS(0)
	if got := ForDownloads(0); got != available*2 {
		t.Errorf("ForDownloads(0) = %d, want %d", got, available*2)
	}
}
