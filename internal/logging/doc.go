// Package logging provides leveled logging for the audio toolkit, backed by
// zerolog with a console writer.
//
// The log level is controlled by the LOG_LEVEL environment variable
// (debug/info/warn/error) or the DEBUG shortcut (DEBUG=true enables debug
// logging regardless of LOG_LEVEL).
package logging
