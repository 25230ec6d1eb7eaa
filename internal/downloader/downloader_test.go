package downloader

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"audio-toolkit/internal/ffmpeg"
)

// fakeRunner satisfies ffmpeg.CommandRunner, dispatching on the op name.
type fakeRunner struct {
	calls   []string
	args    [][]string
	handle  func(op string, args []string, input []byte) ([]byte, error)
	lastIn  []byte
	lastBin string
}

func (f *fakeRunner) Run(_ context.Context, op, bin string, args []string, input []byte, _ time.Duration) ([]byte, error) {
	f.calls = append(f.calls, op)
	f.args = append(f.args, args)
	f.lastIn = input
	f.lastBin = bin
	return f.handle(op, args, input)
}

func (f *fakeRunner) RunStderr(ctx context.Context, op, bin string, args []string, input []byte, timeout time.Duration) ([]byte, error) {
	return f.Run(ctx, op, bin, args, input, timeout)
}

func hasArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func TestFetchInfo(t *testing.T) {
	r := &fakeRunner{handle: func(op string, args []string, input []byte) ([]byte, error) {
		if !hasArg(args, "--skip-download") || !hasArg(args, "-j") {
			t.Errorf("info probe missing metadata flags: %v", args)
		}
		return []byte(`{"title":"Concert","ext":"m4a","duration":245.5,"uploader":"someone"}`), nil
	}}
	d := New(r, "", "", 0)

	info, err := d.FetchInfo(context.Background(), "https://example.com/v/1")
	if err != nil {
		t.Fatalf("FetchInfo() error = %v", err)
	}
	if info.Title != "Concert" || info.Ext != "m4a" || info.Duration != 245.5 {
		t.Errorf("FetchInfo() = %+v", info)
	}
}

func TestFetchInfoDefaultsTitle(t *testing.T) {
	r := &fakeRunner{handle: func(string, []string, []byte) ([]byte, error) {
		return []byte(`{"ext":"mp3"}`), nil
	}}
	d := New(r, "", "", 0)

	info, err := d.FetchInfo(context.Background(), "https://example.com/v/1")
	if err != nil {
		t.Fatalf("FetchInfo() error = %v", err)
	}
	if info.Title != "audio_file" {
		t.Errorf("default title = %q, want audio_file", info.Title)
	}
}

func TestFetchInfoBadJSON(t *testing.T) {
	r := &fakeRunner{handle: func(string, []string, []byte) ([]byte, error) {
		return []byte("not json"), nil
	}}
	d := New(r, "", "", 0)

	if _, err := d.FetchInfo(context.Background(), "https://example.com/v/1"); err == nil {
		t.Fatal("FetchInfo() should reject unparsable metadata")
	}
}

func TestDownloadAudioMP3Passthrough(t *testing.T) {
	r := &fakeRunner{handle: func(op string, args []string, input []byte) ([]byte, error) {
		switch op {
		case "download info":
			return []byte(`{"title":"My Song","ext":"mp3"}`), nil
		case "download":
			if hasArg(args, "--extract-audio") {
				t.Error("mp3 source should not re-extract audio")
			}
			return []byte("mp3 bytes"), nil
		}
		t.Errorf("unexpected op %q", op)
		return nil, errors.New("unexpected")
	}}
	d := New(r, "", "", 0)

	res, err := d.DownloadAudio(context.Background(), "https://example.com/v/1")
	if err != nil {
		t.Fatalf("DownloadAudio() error = %v", err)
	}

	if string(res.Data) != "mp3 bytes" {
		t.Errorf("Data = %q, mp3 source must pass through unconverted", res.Data)
	}
	if res.Filename != "My Song.mp3" {
		t.Errorf("Filename = %q, want My Song.mp3", res.Filename)
	}
	for _, op := range r.calls {
		if op == "download convert" {
			t.Error("mp3 source must not run a conversion")
		}
	}
}

func TestDownloadAudioConvertsNonMP3(t *testing.T) {
	r := &fakeRunner{handle: func(op string, args []string, input []byte) ([]byte, error) {
		switch op {
		case "download info":
			return []byte(`{"title":"Clip","ext":"webm"}`), nil
		case "download":
			if !hasArg(args, "--extract-audio") {
				t.Errorf("non-mp3 source should extract audio: %v", args)
			}
			return []byte("webm bytes"), nil
		case "download convert":
			if string(input) != "webm bytes" {
				t.Errorf("conversion input = %q, want downloaded bytes", input)
			}
			if !hasArg(args, "libmp3lame") || !hasArg(args, "192k") {
				t.Errorf("conversion args missing mp3 encode settings: %v", args)
			}
			return []byte("converted mp3"), nil
		}
		t.Errorf("unexpected op %q", op)
		return nil, errors.New("unexpected")
	}}
	d := New(r, "", "", 0)

	res, err := d.DownloadAudio(context.Background(), "https://example.com/v/1")
	if err != nil {
		t.Fatalf("DownloadAudio() error = %v", err)
	}
	if string(res.Data) != "converted mp3" {
		t.Errorf("Data = %q, want conversion output", res.Data)
	}
	if res.Filename != "Clip.mp3" {
		t.Errorf("Filename = %q, want Clip.mp3", res.Filename)
	}
}

func TestDownloadAudioUnsupportedFormat(t *testing.T) {
	r := &fakeRunner{handle: func(op string, args []string, input []byte) ([]byte, error) {
		if op == "download info" {
			return []byte(`{"title":"Stream","ext":"mpd"}`), nil
		}
		t.Errorf("unsupported format still ran op %q", op)
		return nil, errors.New("unexpected")
	}}
	d := New(r, "", "", 0)

	_, err := d.DownloadAudio(context.Background(), "https://example.com/v/1")

	var uerr *UnsupportedFormatError
	if !errors.As(err, &uerr) {
		t.Fatalf("DownloadAudio() error = %v, want *UnsupportedFormatError", err)
	}
	if uerr.Ext != "mpd" {
		t.Errorf("Ext = %q, want mpd", uerr.Ext)
	}
}

func TestDownloadAudioSanitizesFilename(t *testing.T) {
	r := &fakeRunner{handle: func(op string, args []string, input []byte) ([]byte, error) {
		if op == "download info" {
			return []byte(`{"title":"../weird/название?","ext":"mp3"}`), nil
		}
		return []byte("data"), nil
	}}
	d := New(r, "", "", 0)

	res, err := d.DownloadAudio(context.Background(), "https://example.com/v/1")
	if err != nil {
		t.Fatalf("DownloadAudio() error = %v", err)
	}
	if strings.Contains(res.Filename, "/") || strings.Contains(res.Filename, "?") {
		t.Errorf("Filename %q should be sanitized", res.Filename)
	}
	if !strings.HasSuffix(res.Filename, ".mp3") {
		t.Errorf("Filename %q should end in .mp3", res.Filename)
	}
}

var _ ffmpeg.CommandRunner = (*fakeRunner)(nil)
