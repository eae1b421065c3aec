package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// ClientIDHeader identifies the calling tool or player. It is stored as
// the source of the resources that client reports.
const ClientIDHeader = "X-Client-ID"

const maxClientIDLen = 64

func ClientIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(ClientIDHeader))
		if id == "" {
			writeMessage(w, http.StatusUnauthorized, ClientIDHeader+" header required")
			return
		}
		if len(id) > maxClientIDLen {
			writeMessage(w, http.StatusBadRequest, ClientIDHeader+" header too long")
			return
		}
		r.Header.Set(ClientIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// AdminAuthMiddleware requires "Authorization: Bearer <token>". An empty
// token disables the check.
func AdminAuthMiddleware(token string) func(http.Handler) http.Handler {
	want := []byte("Bearer " + token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), want) != 1 {
				writeMessage(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"client", r.Header.Get(ClientIDHeader),
				"request_id", chiMiddleware.GetReqID(r.Context()),
			)
		})
	}
}

// writeLimiter keeps a sliding one-minute window of write timestamps per
// client.
type writeLimiter struct {
	mu     sync.Mutex
	writes map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

// allow records a write for key and returns how long to wait when the
// window is full.
func (l *writeLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.writes[key][:0]
	for _, t := range l.writes[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.limit {
		l.writes[key] = kept
		return false, kept[0].Sub(cutoff)
	}
	l.writes[key] = append(kept, now)
	return true, 0
}

// RateLimitMiddleware throttles state-changing requests (stat reports,
// schematic edits, syncs) per client. Reads are never limited. A limit of
// zero or less disables throttling.
func RateLimitMiddleware(writesPerMinute int) func(http.Handler) http.Handler {
	l := &writeLimiter{
		writes: make(map[string][]time.Time),
		limit:  writesPerMinute,
		window: time.Minute,
		now:    time.Now,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.limit <= 0 || isRead(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get(ClientIDHeader)
			if key == "" {
				key = r.RemoteAddr
			}
			if ok, wait := l.allow(key); !ok {
				secs := int(wait.Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isRead(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
