// Package media reads embedded tags and cover art from uploaded audio.
// Tag parsing never touches ffmpeg; it works directly on the uploaded
// bytes, so a metadata request costs no subprocess.
package media
