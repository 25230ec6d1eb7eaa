package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"audio-toolkit/internal/logging"
)

// Sentinel errors for delivery outcomes.
var (
	// ErrWriteTimeout indicates a single write exceeded its budget; the
	// client is receiving too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates the client disconnected mid-delivery.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates the delivery was canceled
	// programmatically.
	ErrStreamCanceled = errors.New("stream canceled")
)

// Config bounds one delivery.
type Config struct {
	// WriteTimeout is the budget for a single chunk write.
	WriteTimeout time.Duration
	// IdleTimeout cuts the connection when no chunk completes within it.
	IdleTimeout time.Duration
	// ChunkSize splits large writes so stalls are detected early.
	ChunkSize int
}

// DefaultConfig returns the delivery bounds used by the API handlers.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ChunkSize:    64 * 1024,
	}
}

// TimeoutWriter wraps an http.ResponseWriter so that writes are bounded
// and the client's disappearance is noticed between chunks.
type TimeoutWriter struct {
	w       http.ResponseWriter
	ctx     context.Context
	cancel  context.CancelFunc
	config  Config
	flusher http.Flusher

	mu        sync.Mutex
	closed    bool
	lastWrite time.Time
	written   int64
}

// NewTimeoutWriter creates a TimeoutWriter bound to the request context.
func NewTimeoutWriter(ctx context.Context, w http.ResponseWriter, config Config) *TimeoutWriter {
	writerCtx, cancel := context.WithCancel(ctx)

	tw := &TimeoutWriter{
		w:         w,
		ctx:       writerCtx,
		cancel:    cancel,
		config:    config,
		lastWrite: time.Now(),
	}
	if flusher, ok := w.(http.Flusher); ok {
		tw.flusher = flusher
	}

	if config.IdleTimeout > 0 {
		go tw.idleChecker()
	}
	return tw
}

// Write implements io.Writer. Large buffers are split into chunks with the
// context checked between them.
func (tw *TimeoutWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		select {
		case <-tw.ctx.Done():
			return total, tw.contextError()
		default:
		}

		chunk := p
		if tw.config.ChunkSize > 0 && len(chunk) > tw.config.ChunkSize {
			chunk = chunk[:tw.config.ChunkSize]
		}

		n, err := tw.writeChunk(chunk)
		total += n
		if err != nil {
			return total, err
		}

		p = p[len(chunk):]
		if tw.flusher != nil && len(p) > 0 {
			tw.flusher.Flush()
		}
	}
	return total, nil
}

func (tw *TimeoutWriter) writeChunk(p []byte) (int, error) {
	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)

	go func() {
		n, err := tw.w.Write(p)
		resultCh <- writeResult{n, err}
	}()

	select {
	case result := <-resultCh:
		if result.err == nil {
			tw.mu.Lock()
			tw.lastWrite = time.Now()
			tw.written += int64(result.n)
			tw.mu.Unlock()
		}
		return result.n, result.err

	case <-time.After(tw.config.WriteTimeout):
		tw.cancel()
		return 0, ErrWriteTimeout

	case <-tw.ctx.Done():
		return 0, tw.contextError()
	}
}

func (tw *TimeoutWriter) idleChecker() {
	ticker := time.NewTicker(tw.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tw.mu.Lock()
			idle := time.Since(tw.lastWrite)
			closed := tw.closed
			tw.mu.Unlock()

			if closed {
				return
			}
			if idle > tw.config.IdleTimeout {
				logging.Warn("Delivery idle for %v, cutting connection", idle)
				tw.cancel()
				return
			}

		case <-tw.ctx.Done():
			return
		}
	}
}

func (tw *TimeoutWriter) contextError() error {
	if errors.Is(tw.ctx.Err(), context.Canceled) {
		return ErrClientGone
	}
	return ErrStreamCanceled
}

// Close releases the writer's resources. Safe to call more than once.
func (tw *TimeoutWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.closed {
		return nil
	}
	tw.closed = true
	tw.cancel()
	return nil
}

// BytesWritten returns the number of bytes delivered so far.
func (tw *TimeoutWriter) BytesWritten() int64 {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.written
}

// Deliver copies r to the response under the config's bounds. The caller
// sets headers and status before calling.
func Deliver(ctx context.Context, w http.ResponseWriter, r io.Reader, config Config) error {
	tw := NewTimeoutWriter(ctx, w, config)
	defer tw.Close()

	start := time.Now()
	_, err := io.Copy(tw, r)
	logging.Debug("Delivery finished: %d bytes in %v", tw.BytesWritten(), time.Since(start))
	return err
}
