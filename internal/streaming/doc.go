// Package streaming delivers processed audio to HTTP clients with timeout
// protection. Slow or vanished clients must not pin memory for a finished
// operation, so every write is bounded and idle connections are cut.
package streaming
