// Package handlers implements the HTTP API of the audio toolkit.
//
// Every processing endpoint accepts a multipart upload, validates it,
// hands the bytes to the ffmpeg engine, and streams the result back as a
// download. Errors are reported as JSON bodies with a stable error code,
// a human-readable message, and a suggestion for fixing the request.
package handlers
