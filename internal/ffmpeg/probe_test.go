package ffmpeg

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeRunner satisfies CommandRunner with caller-supplied handlers and
// records every invocation for assertions.
type fakeRunner struct {
	calls       []fakeCall
	handle      func(op string, args []string, input []byte) ([]byte, error)
	handleNoise func(op string, args []string, input []byte) ([]byte, error)
}

type fakeCall struct {
	op    string
	bin   string
	args  []string
	input []byte
}

func (f *fakeRunner) Run(_ context.Context, op, bin string, args []string, input []byte, _ time.Duration) ([]byte, error) {
	f.calls = append(f.calls, fakeCall{op: op, bin: bin, args: args, input: input})
	if f.handle == nil {
		return nil, &ExecError{Op: op, Err: errors.New("no handler")}
	}
	return f.handle(op, args, input)
}

func (f *fakeRunner) RunStderr(_ context.Context, op, bin string, args []string, input []byte, _ time.Duration) ([]byte, error) {
	f.calls = append(f.calls, fakeCall{op: op, bin: bin, args: args, input: input})
	if f.handleNoise == nil {
		return nil, &ExecError{Op: op, Err: errors.New("no handler")}
	}
	return f.handleNoise(op, args, input)
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func newTestProber(r CommandRunner) *Prober {
	return &Prober{
		runner:        r,
		ffmpegPath:    "ffmpeg",
		ffprobePath:   "ffprobe",
		probeTimeout:  DefaultProbeTimeout,
		decodeTimeout: DefaultDecodeTimeout,
	}
}

func TestSampleRate(t *testing.T) {
	tests := []struct {
		name   string
		output string
		err    error
		want   int
	}{
		{"Parsed", "48000\n", nil, 48000},
		{"ProbeFailure", "", &ToolError{Op: "probe", ExitCode: 1}, DefaultSampleRate},
		{"Garbage", "N/A\n", nil, DefaultSampleRate},
		{"Zero", "0\n", nil, DefaultSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{handle: func(string, []string, []byte) ([]byte, error) {
				return []byte(tt.output), tt.err
			}}
			p := newTestProber(r)

			if got := p.SampleRate(context.Background(), []byte("media")); got != tt.want {
				t.Errorf("SampleRate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBitrateKbps(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		err      error
		wantKbps int
		wantOK   bool
	}{
		{"Parsed", "128000\n", nil, 128, true},
		{"RoundsDown", "191999\n", nil, 191, true},
		{"Unavailable", "N/A\n", nil, 0, false},
		{"ProbeFailure", "", &ToolError{Op: "probe", ExitCode: 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{handle: func(string, []string, []byte) ([]byte, error) {
				return []byte(tt.output), tt.err
			}}
			p := newTestProber(r)

			got, ok := p.BitrateKbps(context.Background(), []byte("media"))
			if got != tt.wantKbps || ok != tt.wantOK {
				t.Errorf("BitrateKbps() = (%d, %v), want (%d, %v)", got, ok, tt.wantKbps, tt.wantOK)
			}
		})
	}
}

func TestHasAudioTrack(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		err     error
		wantErr bool
	}{
		{"AudioStream", "audio\n", nil, false},
		{"NoStreams", "", nil, true},
		{"ProbeFailure", "", &ToolError{Op: "probe", ExitCode: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{handle: func(string, []string, []byte) ([]byte, error) {
				return []byte(tt.output), tt.err
			}}
			p := newTestProber(r)

			err := p.HasAudioTrack(context.Background(), []byte("media"))
			if tt.wantErr && !errors.Is(err, ErrNoAudioTrack) {
				t.Errorf("HasAudioTrack() = %v, want ErrNoAudioTrack", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("HasAudioTrack() = %v, want nil", err)
			}
		})
	}
}

func TestDurationTierFallback(t *testing.T) {
	t.Run("ContainerTier", func(t *testing.T) {
		r := &fakeRunner{handle: func(_ string, args []string, _ []byte) ([]byte, error) {
			if hasArg(args, "format=duration") {
				return []byte("185.43\n"), nil
			}
			t.Errorf("unexpected probe beyond the container tier: %v", args)
			return nil, &ToolError{Op: "probe", ExitCode: 1}
		}}
		p := newTestProber(r)

		d, err := p.Duration(context.Background(), []byte("media"))
		if err != nil || d != 185.43 {
			t.Errorf("Duration() = (%v, %v), want (185.43, nil)", d, err)
		}
		if len(r.calls) != 1 {
			t.Errorf("got %d probe calls, want 1", len(r.calls))
		}
	})

	t.Run("StreamTierAfterContainerNA", func(t *testing.T) {
		r := &fakeRunner{handle: func(_ string, args []string, _ []byte) ([]byte, error) {
			switch {
			case hasArg(args, "format=duration"):
				return []byte("N/A\n"), nil
			case hasArg(args, "stream=duration"):
				return []byte("92.1\n"), nil
			}
			return nil, &ToolError{Op: "probe", ExitCode: 1}
		}}
		p := newTestProber(r)

		d, err := p.Duration(context.Background(), []byte("media"))
		if err != nil || d != 92.1 {
			t.Errorf("Duration() = (%v, %v), want (92.1, nil)", d, err)
		}
	})

	t.Run("PacketScanUsesLastTimestamp", func(t *testing.T) {
		r := &fakeRunner{handle: func(_ string, args []string, _ []byte) ([]byte, error) {
			switch {
			case hasArg(args, "format=duration"), hasArg(args, "stream=duration"):
				return []byte("N/A\n"), nil
			case hasArg(args, "packet=pts_time"):
				return []byte("0.0\n1.5\n3.0\n4.5\n"), nil
			}
			return nil, &ToolError{Op: "probe", ExitCode: 1}
		}}
		p := newTestProber(r)

		d, err := p.Duration(context.Background(), []byte("media"))
		if err != nil || d != 4.5 {
			t.Errorf("Duration() = (%v, %v), want (4.5, nil)", d, err)
		}
	})

	t.Run("FullDecodeParsesStats", func(t *testing.T) {
		r := &fakeRunner{
			handle: func(string, []string, []byte) ([]byte, error) {
				return []byte("N/A\n"), nil
			},
			handleNoise: func(string, []string, []byte) ([]byte, error) {
				stats := "size=N/A time=00:01:30.50 bitrate=N/A speed= 312x\n" +
					"size=N/A time=00:03:05.25 bitrate=N/A speed= 310x\n"
				return []byte(stats), nil
			},
		}
		p := newTestProber(r)

		d, err := p.Duration(context.Background(), []byte("media"))
		if err != nil || d != 185.25 {
			t.Errorf("Duration() = (%v, %v), want (185.25, nil)", d, err)
		}
	})

	t.Run("AllTiersExhausted", func(t *testing.T) {
		r := &fakeRunner{
			handle: func(string, []string, []byte) ([]byte, error) {
				return []byte("N/A\n"), nil
			},
			handleNoise: func(string, []string, []byte) ([]byte, error) {
				return []byte("no progress lines here\n"), nil
			},
		}
		p := newTestProber(r)

		if _, err := p.Duration(context.Background(), []byte("media")); !errors.Is(err, ErrDurationUnknown) {
			t.Errorf("Duration() error = %v, want ErrDurationUnknown", err)
		}
	})
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"185.43\n", 185.43, true},
		{"0", 0, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"-1.5", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseDuration(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseDuration(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestLastStderrLine(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{"LastLine", "frame=1\nframe=2\npipe:0: Invalid data found\n", "pipe:0: Invalid data found"},
		{"TrailingBlanks", "error here\n\n\n", "error here"},
		{"Empty", "", "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lastStderrLine(tt.stderr); got != tt.want {
				t.Errorf("lastStderrLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
