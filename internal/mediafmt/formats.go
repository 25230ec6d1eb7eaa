package mediafmt

// Format represents a supported media format token.
type Format string

// Audio formats.
const (
	MP3  Format = "mp3"
	WAV  Format = "wav"
	FLAC Format = "flac"
	AAC  Format = "aac"
	OGG  Format = "ogg"
	M4A  Format = "m4a"
)

// Video formats.
const (
	MP4  Format = "mp4"
	AVI  Format = "avi"
	MKV  Format = "mkv"
	MOV  Format = "mov"
	WebM Format = "webm"
)

// AudioFormats maps audio format tokens to whether they are supported.
var AudioFormats = map[Format]bool{
	MP3:  true,
	WAV:  true,
	FLAC: true,
	AAC:  true,
	OGG:  true,
	M4A:  true,
}

// VideoFormats maps video format tokens to whether they are supported.
var VideoFormats = map[Format]bool{
	MP4:  true,
	AVI:  true,
	MKV:  true,
	MOV:  true,
	WebM: true,
}

// streamContainers maps format tokens to the FFmpeg container name used when
// writing to a pipe. Some formats need a different muxer for streaming
// output than their file extension suggests: raw AAC uses the ADTS muxer,
// and M4A is an MP4 container.
var streamContainers = map[Format]string{
	MP3:  "mp3",
	WAV:  "wav",
	FLAC: "flac",
	AAC:  "adts",
	OGG:  "ogg",
	M4A:  "mp4",
	MP4:  "mp4",
	AVI:  "avi",
	MKV:  "matroska",
	MOV:  "mov",
	WebM: "webm",
}

// codecArgs maps output formats to the FFmpeg codec and quality arguments
// used to preserve quality during re-encoding.
var codecArgs = map[Format][]string{
	MP3:  {"-codec:a", "libmp3lame", "-q:a", "0"}, // VBR highest quality
	WAV:  {"-codec:a", "pcm_s16le"},
	FLAC: {"-codec:a", "flac", "-compression_level", "5"},
	AAC:  {"-codec:a", "aac", "-b:a", "256k"},
	OGG:  {"-codec:a", "libvorbis", "-q:a", "8"},
	M4A:  {"-codec:a", "aac", "-b:a", "256k"},
}

// mimeTypes maps format tokens to their MIME types.
var mimeTypes = map[Format]string{
	MP3:  "audio/mpeg",
	WAV:  "audio/wav",
	FLAC: "audio/flac",
	AAC:  "audio/aac",
	OGG:  "audio/ogg",
	M4A:  "audio/mp4",
	MP4:  "video/mp4",
	AVI:  "video/x-msvideo",
	MKV:  "video/x-matroska",
	MOV:  "video/quicktime",
	WebM: "video/webm",
}

// fragmentedOutput maps formats whose default container layout requires a
// seekable file. Writing them to a pipe needs fragmented-output flags.
var fragmentedOutput = map[Format]bool{
	M4A: true,
	MP4: true,
	MOV: true,
}

// Lossless maps formats that carry uncompressed or losslessly compressed
// audio. Compressing them means re-encoding to a lossy target format.
var Lossless = map[Format]bool{
	WAV:  true,
	FLAC: true,
}

// IsAudio returns true if the format is a supported audio format.
func IsAudio(f Format) bool {
	return AudioFormats[f]
}

// IsVideo returns true if the format is a supported video format.
func IsVideo(f Format) bool {
	return VideoFormats[f]
}

// StreamContainer returns the FFmpeg container name for piped output.
// Unknown formats fall back to the token itself, which lets FFmpeg reject
// genuinely bad names with its own diagnostic.
func StreamContainer(f Format) string {
	if c, ok := streamContainers[f]; ok {
		return c
	}
	return string(f)
}

// CodecArgs returns the codec and quality arguments for an output format.
// Formats without a mapping return nil, leaving codec selection to FFmpeg.
func CodecArgs(f Format) []string {
	return codecArgs[f]
}

// MimeType returns the MIME type for a format token.
// Unknown formats return "application/octet-stream".
func MimeType(f Format) string {
	if m, ok := mimeTypes[f]; ok {
		return m
	}
	return "application/octet-stream"
}

// NeedsFragmentedOutput reports whether writing this format to a pipe
// requires fragmented-container flags.
func NeedsFragmentedOutput(f Format) bool {
	return fragmentedOutput[f]
}

// FragmentFlags are the movflags enabling MP4-family output on a pipe.
var FragmentFlags = []string{"-movflags", "frag_keyframe+empty_moov"}

// AudioList returns the audio format tokens in a stable order.
func AudioList() []Format {
	return []Format{MP3, WAV, FLAC, AAC, OGG, M4A}
}

// VideoList returns the video format tokens in a stable order.
func VideoList() []Format {
	return []Format{MP4, AVI, MKV, MOV, WebM}
}
