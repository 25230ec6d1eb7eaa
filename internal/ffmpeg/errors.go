package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for probe outcomes.
var (
	// ErrNoAudioTrack indicates the input has no usable audio stream.
	ErrNoAudioTrack = errors.New("no audio track")

	// ErrDurationUnknown indicates that every duration-probing tier was
	// exhausted without a usable answer.
	ErrDurationUnknown = errors.New("duration unknown")
)

// ValidationError reports a malformed operation request detected before any
// subprocess starts. It is always recoverable by the caller correcting the
// input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ToolError reports a non-zero exit from an external binary. Detail carries
// the tool's last non-blank stderr line.
type ToolError struct {
	Op       string
	ExitCode int
	Detail   string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed (exit code %d): %s", e.Op, e.ExitCode, e.Detail)
}

// TimeoutError reports that an invocation exceeded its wall-clock budget.
// The process has been killed before this error is returned.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

// ExecError reports an inability to launch or communicate with an external
// binary. Unlike ToolError it indicates an environment problem, not a data
// problem.
type ExecError struct {
	Op  string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s execution failed: %v", e.Op, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// PipelineItemError identifies which item of a multi-item pipeline failed.
// The first failing item aborts the whole pipeline; no partial results are
// returned.
type PipelineItemError struct {
	Kind  string // "merge input" or "split segment"
	Index int
	Err   error
}

func (e *PipelineItemError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Kind, e.Index+1, e.Err)
}

func (e *PipelineItemError) Unwrap() error {
	return e.Err
}

// lastStderrLine extracts the last non-blank line of stderr output, which
// is where ffmpeg puts its diagnostic for the actual failure.
func lastStderrLine(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "unknown error"
}
