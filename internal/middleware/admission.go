package middleware

import (
	"net/http"

	"github.com/marusama/semaphore/v2"

	"audio-toolkit/internal/logging"
	"audio-toolkit/internal/metrics"
)

// Gate bounds the number of processing requests running at once. Each
// request holds one slot for its whole lifetime; arrivals beyond the limit
// queue on the semaphore until a slot frees or the client gives up.
type Gate struct {
	sem semaphore.Semaphore
}

// NewGate creates a Gate admitting up to limit concurrent requests.
func NewGate(limit int) *Gate {
	return &Gate{sem: semaphore.New(limit)}
}

// Middleware returns the admission middleware. A request whose context is
// cancelled while waiting for a slot is answered 503; the caller can retry
// once load drops.
func (g *Gate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if err := g.sem.Acquire(r.Context(), 1); err != nil {
				metrics.HTTPRequestsQueuedRejected.Inc()
				logging.Warn("Admission gate rejected %s %s: %v", r.Method, sanitizeLogField(r.URL.Path), err)
				http.Error(w, "server busy", http.StatusServiceUnavailable)
				return
			}
			defer g.sem.Release(1)

			next.ServeHTTP(w, r)
		})
	}
}
