package fakeapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type fault struct {
	status int
	code   string
	delay  time.Duration
}

func routeKey(method, path string) string {
	return method + " " + strings.TrimPrefix(path, Prefix)
}

// FailNext makes the next request to method and path (relative to Prefix,
// e.g. "/auth/logout") fail with status and code.
func (s *Server) FailNext(method, path string, status int, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := routeKey(method, path)
	s.faults[k] = append(s.faults[k], fault{status: status, code: code})
}

// DelayNext holds the next request to method and path for d before serving it
// normally, or until the client goes away.
func (s *Server) DelayNext(method, path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := routeKey(method, path)
	s.faults[k] = append(s.faults[k], fault{delay: d})
}

// Calls reports how many requests reached method and path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[routeKey(method, path)]
}

func (s *Server) recordCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k := routeKey(r.Method, r.URL.Path)

		s.mu.Lock()
		s.calls[k]++
		var f *fault
		if queue := s.faults[k]; len(queue) > 0 {
			f = &queue[0]
			s.faults[k] = queue[1:]
		}
		s.mu.Unlock()

		s.logger.Debug("fakeapi request", zap.String("route", k))

		if f != nil && f.delay > 0 {
			t := time.NewTimer(f.delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-r.Context().Done():
				return
			}
		}
		if f != nil && f.status != 0 {
			writeError(w, f.status, f.code, http.StatusText(f.status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limiter keeps one token bucket per caller. Idle buckets are swept on access.
type limiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	swept   time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

const limiterTTL = 30 * time.Minute

func newLimiter(rps float64, burst int) *limiter {
	return &limiter{entries: map[string]*limiterEntry{}, rps: rate.Limit(rps), burst: burst}
}

func (l *limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.swept) > limiterTTL {
		for k, e := range l.entries {
			if now.Sub(e.lastUse) > limiterTTL {
				delete(l.entries, k)
			}
		}
		l.swept = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[key] = e
	}
	e.lastUse = now
	return e.limiter
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := bearer(r)
		if key == "" {
			key = clientIP(r)
		}
		if !l.get(key).Allow() {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP uses RemoteAddr only; the fake is never behind a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
