// Package mediafmt defines the supported audio and video format tokens and
// the immutable lookup tables that map each format to its FFmpeg streaming
// container, codec settings, and MIME type.
//
// All tables are map literals so that coverage and defaults are auditable in
// one place. Formats without a codec mapping fall back to a documented
// default rather than failing.
package mediafmt
