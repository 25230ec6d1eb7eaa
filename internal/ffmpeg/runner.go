package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/metrics"
)

// Default wall-clock budgets. Probes must fail fast; transcodes must not.
const (
	DefaultTranscodeTimeout = 300 * time.Second
	DefaultProbeTimeout     = 10 * time.Second
	DefaultDecodeTimeout    = 30 * time.Second
)

// CommandRunner abstracts external process execution so the prober and
// engine can be exercised in tests without real binaries.
type CommandRunner interface {
	Run(ctx context.Context, op, bin string, args []string, input []byte, timeout time.Duration) ([]byte, error)
	RunStderr(ctx context.Context, op, bin string, args []string, input []byte, timeout time.Duration) ([]byte, error)
}

// Runner executes external binaries with piped I/O and a hard wall-clock
// timeout. It never retries: trim and convert operations are not safe to
// blindly repeat against a partially consumed stdin stream, so retries are a
// caller policy.
type Runner struct {
	FFmpegPath  string
	FFprobePath string
}

// NewRunner creates a Runner using the given binary paths, defaulting to
// looking them up on PATH.
func NewRunner(ffmpegPath, ffprobePath string) *Runner {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Runner{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

// Run launches bin with args, piping input to stdin when present, and
// returns captured stdout. Stdout and stderr are never merged: stderr
// carries progress and diagnostic text that must not corrupt binary output.
//
// Failures are classified: non-zero exit becomes a *ToolError carrying the
// last stderr line, exceeding the timeout kills the process and returns a
// *TimeoutError, and launch failures become a *ExecError.
func (r *Runner) Run(ctx context.Context, op, bin string, args []string, input []byte, timeout time.Duration) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	logging.Debug("Starting %s: %s (input: %d bytes)", op, bin, len(input))
	start := time.Now()

	metrics.FFmpegProcessesRunning.Inc()
	err := cmd.Run()
	metrics.FFmpegProcessesRunning.Dec()

	elapsed := time.Since(start)
	metrics.FFmpegInvocationDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	if err != nil {
		// CommandContext kills the process when the deadline passes, so no
		// orphan survives this path.
		if runCtx.Err() == context.DeadlineExceeded {
			metrics.FFmpegInvocationsTotal.WithLabelValues(op, "timeout").Inc()
			logging.Error("%s timed out after %s", op, timeout)
			return nil, &TimeoutError{Op: op, Timeout: timeout}
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := lastStderrLine(stderr.String())
			metrics.FFmpegInvocationsTotal.WithLabelValues(op, "error").Inc()
			logging.Error("%s failed (exit code %d) after %s: %s", op, exitErr.ExitCode(), elapsed, detail)
			if logging.IsDebugEnabled() {
				logging.Debug("%s stderr:\n%s", op, stderr.String())
			}
			return nil, &ToolError{Op: op, ExitCode: exitErr.ExitCode(), Detail: detail}
		}

		metrics.FFmpegInvocationsTotal.WithLabelValues(op, "error").Inc()
		logging.Error("%s execution error: %v", op, err)
		return nil, &ExecError{Op: op, Err: err}
	}

	metrics.FFmpegInvocationsTotal.WithLabelValues(op, "success").Inc()
	metrics.FFmpegOutputBytes.WithLabelValues(op).Add(float64(stdout.Len()))
	logging.Debug("%s completed in %s (output: %d bytes)", op, elapsed, stdout.Len())

	return stdout.Bytes(), nil
}

// RunStderr is like Run but returns captured stderr instead of stdout, for
// invocations whose useful output is the tool's progress statistics.
func (r *Runner) RunStderr(ctx context.Context, op, bin string, args []string, input []byte, timeout time.Duration) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	metrics.FFmpegProcessesRunning.Inc()
	err := cmd.Run()
	metrics.FFmpegProcessesRunning.Dec()

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Op: op, Timeout: timeout}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ToolError{Op: op, ExitCode: exitErr.ExitCode(), Detail: lastStderrLine(stderr.String())}
		}
		return nil, &ExecError{Op: op, Err: err}
	}

	return stderr.Bytes(), nil
}
