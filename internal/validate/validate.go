package validate

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/mediafmt"
)

// MaxFileSize is the upload size limit per file.
const MaxFileSize = 100 * 1024 * 1024

// signatureWindow is how far into the file signature bytes are searched.
// Container headers are not always at offset zero (ftyp sits after a size
// field, ID3 tags can precede MP3 frames), so a prefix match is too strict.
const signatureWindow = 512

// Kind classifies a rejection so the HTTP layer can pick the right error
// code without parsing reason strings.
type Kind int

const (
	// KindBadParameter is a malformed or out-of-range request value.
	KindBadParameter Kind = iota
	// KindUnsupportedFormat is a format token outside the allow-list.
	KindUnsupportedFormat
	// KindTooLarge is an upload over the size limit.
	KindTooLarge
	// KindCorrupted is a file whose content does not match its declared
	// format.
	KindCorrupted
)

// Error reports a rejected input. It always means the client can fix the
// request; it never indicates a server-side problem.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// audioSignatures maps audio formats to byte patterns expected near the
// start of the file. MP3 gets frame-sync detection instead, see
// checkMP3Signature.
var audioSignatures = map[mediafmt.Format][][]byte{
	mediafmt.WAV:  {[]byte("RIFF")},
	mediafmt.FLAC: {[]byte("fLaC")},
	mediafmt.AAC:  {{0xFF, 0xF1}, {0xFF, 0xF9}},
	mediafmt.OGG:  {[]byte("OggS")},
	mediafmt.M4A:  {[]byte("ftyp")},
}

// videoSignatures maps video formats to their byte patterns. MKV and WebM
// share the EBML header; MP4 and MOV share the ISO base media layout.
var videoSignatures = map[mediafmt.Format][][]byte{
	mediafmt.MP4:  {[]byte("ftyp"), []byte("moov")},
	mediafmt.AVI:  {[]byte("RIFF")},
	mediafmt.MKV:  {{0x1A, 0x45, 0xDF, 0xA3}},
	mediafmt.MOV:  {[]byte("ftyp"), []byte("moov")},
	mediafmt.WebM: {{0x1A, 0x45, 0xDF, 0xA3}},
}

// FormatFromFilename extracts the lowercase extension token from a
// filename. It returns the bare token without a leading dot; an empty
// string means the file has no extension.
func FormatFromFilename(filename string) mediafmt.Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return mediafmt.Format(ext)
}

// AudioUpload validates an uploaded audio file: extension allow-list, size
// limit, and content signature against the declared extension. It returns
// the detected format on success.
func AudioUpload(filename string, data []byte) (mediafmt.Format, error) {
	format := FormatFromFilename(filename)
	if !mediafmt.IsAudio(format) {
		return "", errorf(KindUnsupportedFormat, "unsupported audio format: %s (supported: %s)",
			format, formatList(mediafmt.AudioList()))
	}

	if err := size(len(data)); err != nil {
		return "", err
	}

	if !matchesAudioSignature(data, format) {
		logging.Warn("Signature mismatch for %s (declared %s)", filename, format)
		return "", errorf(KindCorrupted, "file does not match declared format: %s", format)
	}

	logging.Debug("Audio upload validated: %s (%s, %d bytes)", filename, format, len(data))
	return format, nil
}

// VideoUpload validates an uploaded video file the same way AudioUpload
// validates audio.
func VideoUpload(filename string, data []byte) (mediafmt.Format, error) {
	format := FormatFromFilename(filename)
	if !mediafmt.IsVideo(format) {
		return "", errorf(KindUnsupportedFormat, "unsupported video format: %s (supported: %s)",
			format, formatList(mediafmt.VideoList()))
	}

	if err := size(len(data)); err != nil {
		return "", err
	}

	if !matchesVideoSignature(data, format) {
		logging.Warn("Signature mismatch for %s (declared %s)", filename, format)
		return "", errorf(KindCorrupted, "file does not match declared format: %s", format)
	}

	logging.Debug("Video upload validated: %s (%s, %d bytes)", filename, format, len(data))
	return format, nil
}

// OutputFormat validates a requested audio output format token.
func OutputFormat(token string) (mediafmt.Format, error) {
	format := mediafmt.Format(strings.ToLower(strings.TrimSpace(token)))
	if !mediafmt.IsAudio(format) {
		return "", errorf(KindUnsupportedFormat, "invalid audio format: %s (supported: %s)",
			token, formatList(mediafmt.AudioList()))
	}
	return format, nil
}

func size(n int) error {
	if n == 0 {
		return errorf(KindBadParameter, "empty file")
	}
	if n > MaxFileSize {
		return errorf(KindTooLarge, "file too large: %d bytes (limit %d)", n, MaxFileSize)
	}
	return nil
}

func matchesAudioSignature(data []byte, format mediafmt.Format) bool {
	if format == mediafmt.MP3 {
		return checkMP3Signature(data)
	}

	window := data
	if len(window) > signatureWindow {
		window = window[:signatureWindow]
	}
	for _, sig := range audioSignatures[format] {
		if bytes.Contains(window, sig) {
			return true
		}
	}
	return false
}

func matchesVideoSignature(data []byte, format mediafmt.Format) bool {
	window := data
	if len(window) > signatureWindow {
		window = window[:signatureWindow]
	}
	for _, sig := range videoSignatures[format] {
		if bytes.Contains(window, sig) {
			return true
		}
	}
	return false
}

// checkMP3Signature accepts an ID3 tag at the start or an MPEG frame sync
// (11 set bits) anywhere in the signature window. Plain prefix checks miss
// valid MP3s that begin with padding or an ID3v2 tag of arbitrary length.
func checkMP3Signature(data []byte) bool {
	if bytes.HasPrefix(data, []byte("ID3")) {
		return true
	}

	limit := len(data) - 1
	if limit > signatureWindow {
		limit = signatureWindow
	}
	for i := 0; i < limit; i++ {
		if data[i] == 0xFF && data[i+1]&0xE0 == 0xE0 {
			return true
		}
	}
	return false
}

var mmssPattern = regexp.MustCompile(`^(\d+):(\d{2})$`)

// Timestamp parses a timestamp given either as seconds ("90", "90.5") or
// as MM:SS ("1:30").
func Timestamp(s string) (float64, error) {
	s = strings.TrimSpace(s)

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}

	if m := mmssPattern.FindStringSubmatch(s); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		seconds, _ := strconv.Atoi(m[2])
		return float64(minutes*60 + seconds), nil
	}

	return 0, errorf(KindBadParameter, "invalid timestamp format: %s (use seconds like '90' or MM:SS like '1:30')", s)
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w\s\-.]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename sanitizes a client-supplied filename for use in response
// headers: path components are stripped, unsafe characters replaced, and
// traversal patterns collapsed. An empty result becomes "file".
func Filename(name string) string {
	name = filepath.Base(name)

	sanitized := unsafeFilenameChars.ReplaceAllString(name, "_")
	sanitized = whitespaceRun.ReplaceAllString(sanitized, " ")
	sanitized = strings.Trim(sanitized, ". \t\n\r\f\v")

	for strings.Contains(sanitized, "..") {
		sanitized = strings.ReplaceAll(sanitized, "..", ".")
	}
	sanitized = strings.TrimLeft(sanitized, ".")

	if strings.TrimSpace(sanitized) == "" {
		return "file"
	}
	return sanitized
}

// BaseName returns the sanitized filename with its extension removed, for
// constructing output filenames like name_compressed.mp3.
func BaseName(name string) string {
	clean := Filename(name)
	return strings.TrimSuffix(clean, filepath.Ext(clean))
}

func formatList(formats []mediafmt.Format) string {
	tokens := make([]string, len(formats))
	for i, f := range formats {
		tokens[i] = string(f)
	}
	return strings.Join(tokens, ", ")
}
