package validate

import (
	"bytes"
	"strings"
	"testing"

	"audio-toolkit/internal/mediafmt"
)

func TestAudioUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     mediafmt.Format
		wantErr  string
	}{
		{
			name:     "WAVWithRIFFHeader",
			filename: "track.wav",
			data:     []byte("RIFF\x24\x08\x00\x00WAVEfmt "),
			want:     mediafmt.WAV,
		},
		{
			name:     "FLACHeader",
			filename: "track.flac",
			data:     []byte("fLaC\x00\x00\x00\x22"),
			want:     mediafmt.FLAC,
		},
		{
			name:     "MP3WithID3Tag",
			filename: "song.MP3",
			data:     []byte("ID3\x04\x00\x00\x00\x00\x00\x00"),
			want:     mediafmt.MP3,
		},
		{
			name:     "MP3FrameSyncAfterPadding",
			filename: "song.mp3",
			data:     append(bytes.Repeat([]byte{0x00}, 100), 0xFF, 0xFB, 0x90, 0x00),
			want:     mediafmt.MP3,
		},
		{
			name:     "M4AWithOffsetFtyp",
			filename: "clip.m4a",
			data:     []byte("\x00\x00\x00\x20ftypM4A "),
			want:     mediafmt.M4A,
		},
		{
			name:     "OGGHeader",
			filename: "cast.ogg",
			data:     []byte("OggS\x00\x02"),
			want:     mediafmt.OGG,
		},
		{
			name:     "UnsupportedExtension",
			filename: "notes.txt",
			data:     []byte("plain text"),
			wantErr:  "unsupported audio format",
		},
		{
			name:     "SignatureMismatch",
			filename: "fake.flac",
			data:     []byte("this is not flac data at all"),
			wantErr:  "does not match declared format",
		},
		{
			name:     "EmptyFile",
			filename: "empty.mp3",
			data:     nil,
			wantErr:  "empty file",
		},
		{
			name:     "NoExtension",
			filename: "track",
			data:     []byte("RIFF"),
			wantErr:  "unsupported audio format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AudioUpload(tt.filename, tt.data)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("AudioUpload(%s) error = %v, want containing %q", tt.filename, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AudioUpload(%s) error = %v", tt.filename, err)
			}
			if got != tt.want {
				t.Errorf("AudioUpload(%s) = %s, want %s", tt.filename, got, tt.want)
			}
		})
	}
}

func TestAudioUploadSizeLimit(t *testing.T) {
	data := append([]byte("RIFF"), make([]byte, MaxFileSize)...)

	_, err := AudioUpload("huge.wav", data)
	if err == nil || !strings.Contains(err.Error(), "file too large") {
		t.Errorf("AudioUpload(oversized) error = %v, want size rejection", err)
	}
}

func TestVideoUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     mediafmt.Format
		wantErr  bool
	}{
		{"MP4Ftyp", "clip.mp4", []byte("\x00\x00\x00\x18ftypmp42"), mediafmt.MP4, false},
		{"MKVEBMLHeader", "clip.mkv", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01}, mediafmt.MKV, false},
		{"WebMEBMLHeader", "clip.webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01}, mediafmt.WebM, false},
		{"AVIRiff", "clip.avi", []byte("RIFF\x00\x00\x00\x00AVI "), mediafmt.AVI, false},
		{"AudioExtensionRejected", "song.mp3", []byte("ID3"), "", true},
		{"SignatureMismatch", "fake.mp4", []byte("not a video"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VideoUpload(tt.filename, tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("VideoUpload(%s) expected error", tt.filename)
				}
				if !strings.Contains(err.Error(), "format") {
					t.Errorf("VideoUpload(%s) error = %v, want format rejection", tt.filename, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("VideoUpload(%s) error = %v", tt.filename, err)
			}
			if got != tt.want {
				t.Errorf("VideoUpload(%s) = %s, want %s", tt.filename, got, tt.want)
			}
		})
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		token   string
		want    mediafmt.Format
		wantErr bool
	}{
		{"mp3", mediafmt.MP3, false},
		{"FLAC", mediafmt.FLAC, false},
		{" ogg ", mediafmt.OGG, false},
		{"mp4", "", true},
		{"", "", true},
		{"exe", "", true},
	}

	for _, tt := range tests {
		got, err := OutputFormat(tt.token)
		if tt.wantErr {
			if err == nil {
				t.Errorf("OutputFormat(%q) expected error", tt.token)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("OutputFormat(%q) = (%s, %v), want (%s, nil)", tt.token, got, err, tt.want)
		}
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"90", 90, false},
		{"90.5", 90.5, false},
		{"1:30", 90, false},
		{"0:05", 5, false},
		{"12:00", 720, false},
		{"1:5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := Timestamp(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Timestamp(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Timestamp(%q) = (%v, %v), want (%v, nil)", tt.in, got, err, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", "song.mp3", "song.mp3"},
		{"StripsPath", "/etc/passwd", "passwd"},
		{"Traversal", "../../secret.mp3", "secret.mp3"},
		{"UnsafeCharsReplaced", "my<song>:v2.mp3", "my_song__v2.mp3"},
		{"WhitespaceCollapsed", "my   song\t.mp3", "my song .mp3"},
		{"LeadingDotsStripped", "...hidden.mp3", "hidden.mp3"},
		{"EmptyBecomesFile", "", "file"},
		{"OnlyDots", "..", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.in); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"song.mp3", "song"},
		{"/tmp/archive.tar.wav", "archive.tar"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		if got := BaseName(tt.in); got != tt.want {
			t.Errorf("BaseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
