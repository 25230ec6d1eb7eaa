package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"audio-toolkit/internal/ffmpeg"
	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/metrics"
	"audio-toolkit/internal/validate"
)

// DefaultDownloadTimeout bounds a single remote fetch, metadata probe and
// media transfer combined.
const DefaultDownloadTimeout = 300 * time.Second

// userAgent mimics a browser request; several media hosts refuse the
// default yt-dlp identity.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// downloadableExts are the source formats the download path accepts. The
// list mirrors what yt-dlp reliably extracts as a single audio stream.
var downloadableExts = map[string]bool{
	"mp3":  true,
	"webm": true,
	"m4a":  true,
	"flac": true,
	"ogg":  true,
}

// Info is the subset of yt-dlp's metadata JSON the service exposes.
type Info struct {
	Title    string  `json:"title"`
	Ext      string  `json:"ext"`
	Duration float64 `json:"duration"`
	Uploader string  `json:"uploader"`
}

// Result is a completed audio download, always delivered as MP3.
type Result struct {
	Data     []byte
	Filename string
	Title    string
}

// UnsupportedFormatError reports a source whose audio format the download
// path cannot deliver.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported audio format: %s", e.Ext)
}

// Downloader wraps the yt-dlp binary.
type Downloader struct {
	runner     ffmpeg.CommandRunner
	ytdlpPath  string
	ffmpegPath string
	timeout    time.Duration
}

// New creates a Downloader sharing the engine's command runner. An empty
// ytdlpPath looks the binary up on PATH; a zero timeout selects the
// default.
func New(runner ffmpeg.CommandRunner, ytdlpPath, ffmpegPath string, timeout time.Duration) *Downloader {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	return &Downloader{
		runner:     runner,
		ytdlpPath:  ytdlpPath,
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
	}
}

// FetchInfo probes the URL's metadata without downloading media.
func (d *Downloader) FetchInfo(ctx context.Context, url string) (Info, error) {
	out, err := d.runner.Run(ctx, "download info", d.ytdlpPath, []string{
		"-j",
		"--skip-download",
		"--no-check-certificate",
		"--geo-bypass",
		"--user-agent", userAgent,
		url,
	}, nil, d.timeout)
	if err != nil {
		return Info{}, err
	}

	var info Info
	if err := json.Unmarshal(out, &info); err != nil {
		return Info{}, fmt.Errorf("failed to parse media metadata: %w", err)
	}
	if info.Title == "" {
		info.Title = "audio_file"
	}
	return info, nil
}

// DownloadAudio fetches the best audio stream of the URL and delivers it
// as MP3. MP3 sources pass through untouched; every other supported source
// is re-encoded at 192 kbps.
func (d *Downloader) DownloadAudio(ctx context.Context, url string) (Result, error) {
	start := time.Now()

	info, err := d.FetchInfo(ctx, url)
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}
	logging.Info("Downloading %q (source format: %s)", info.Title, info.Ext)

	if !downloadableExts[info.Ext] {
		metrics.DownloadsTotal.WithLabelValues("unsupported").Inc()
		return Result{}, &UnsupportedFormatError{Ext: info.Ext}
	}

	args := []string{
		"--format", "bestaudio/best",
		"--output", "-",
		"--no-check-certificate",
		"--geo-bypass",
		"--user-agent", userAgent,
		url,
	}
	if info.Ext != "mp3" {
		args = append([]string{"--extract-audio", "--audio-format", "best"}, args...)
	}

	data, err := d.runner.Run(ctx, "download", d.ytdlpPath, args, nil, d.timeout)
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}
	logging.Info("Downloaded %d bytes of %s in %s", len(data), info.Ext, time.Since(start))

	if info.Ext != "mp3" {
		data, err = d.runner.Run(ctx, "download convert", d.ffmpegPath, []string{
			"-i", "pipe:0",
			"-c:a", "libmp3lame",
			"-b:a", "192k",
			"-f", "mp3",
			"pipe:1",
		}, data, d.timeout)
		if err != nil {
			metrics.DownloadsTotal.WithLabelValues("error").Inc()
			return Result{}, err
		}
	}

	metrics.DownloadsTotal.WithLabelValues("success").Inc()
	metrics.DownloadDuration.Observe(time.Since(start).Seconds())

	return Result{
		Data:     data,
		Filename: validate.Filename(info.Title) + ".mp3",
		Title:    info.Title,
	}, nil
}
