// Package downloader fetches remote audio through yt-dlp: a metadata probe
// first, then a best-audio download streamed through stdout, with a final
// MP3 re-encode for sources that are not already MP3.
package downloader
