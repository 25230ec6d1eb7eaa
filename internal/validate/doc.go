// Package validate checks uploaded media before any processing starts:
// file extension against the supported format lists, content signature
// (magic bytes) against the declared extension, size limits, timestamp
// syntax, and filename sanitization for response headers.
package validate
