// Package handlers contains HTTP middleware, request bodies, health checks
// and response helpers shared by the API server.
package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/quickksynkk/synk-hub/pkg/ratelimit"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// maxRejectedKeys bounds the cache of keys that failed verification.
const maxRejectedKeys = 1024

// APIKeyAuth checks API keys against bcrypt hashes. Keys are remembered by
// their SHA-256 digest, so bcrypt runs once per distinct key whether it
// verified or not. Rejected digests are kept in a bounded FIFO.
type APIKeyAuth struct {
	headerName string
	hashes     [][]byte
	compare    func(hash, key []byte) error

	mu       sync.RWMutex
	verified map[string]bool
	rejected map[string]struct{}
	order    []string
	next     int
}

// NewAPIKeyAuth creates an authenticator. Empty hashes are ignored.
func NewAPIKeyAuth(headerName string, hashes []string) *APIKeyAuth {
	if headerName == "" {
		headerName = "X-API-Key"
	}
	a := &APIKeyAuth{
		headerName: headerName,
		compare:    bcrypt.CompareHashAndPassword,
		verified:   make(map[string]bool),
		rejected:   make(map[string]struct{}),
	}
	for _, h := range hashes {
		if h = strings.TrimSpace(h); h != "" {
			a.hashes = append(a.hashes, []byte(h))
		}
	}
	return a
}

func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Enabled reports whether any key hash is configured.
func (a *APIKeyAuth) Enabled() bool {
	return len(a.hashes) > 0
}

// IsValid checks an API key.
func (a *APIKeyAuth) IsValid(key string) bool {
	if key == "" {
		return false
	}

	d := digest(key)

	a.mu.RLock()
	ok := a.verified[d]
	_, rejected := a.rejected[d]
	a.mu.RUnlock()
	if ok {
		return true
	}
	if rejected {
		return false
	}

	for _, h := range a.hashes {
		if a.compare(h, []byte(key)) == nil {
			a.mu.Lock()
			a.verified[d] = true
			a.mu.Unlock()
			return true
		}
	}

	a.reject(d)
	return false
}

// reject remembers a failed digest, evicting the oldest one when full.
func (a *APIKeyAuth) reject(d string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.rejected[d]; ok {
		return
	}
	if len(a.order) < maxRejectedKeys {
		a.order = append(a.order, d)
	} else {
		delete(a.rejected, a.order[a.next])
		a.order[a.next] = d
		a.next = (a.next + 1) % maxRejectedKeys
	}
	a.rejected[d] = struct{}{}
}

// Middleware rejects requests without a valid key. With no hashes configured
// every request passes.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(a.headerName)
		if key == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if key == "" {
			WriteError(w, r, http.StatusUnauthorized, CodeMissingAPIKey, "API key is required")
			return
		}
		if !a.IsValid(key) {
			WriteError(w, r, http.StatusUnauthorized, CodeInvalidAPIKey, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SECURITY HEADERS MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// SecurityHeadersMiddleware adds security-related headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// NoCacheMiddleware prevents caching of API responses.
func NoCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST SIZE LIMIT MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// RequestSizeLimitMiddleware limits the size of request bodies.
func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				WriteError(w, r, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMIT MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitMiddleware limits requests per client. Clients are identified by
// API key when one is sent, otherwise by IP. A nil limiter allows everything.
func RateLimitMiddleware(limiter *ratelimit.Limiter, apiKeyHeader string) func(http.Handler) http.Handler {
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wait, ok := limiter.Allow(clientKey(r, apiKeyHeader))
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				WriteError(w, r, http.StatusTooManyRequests, CodeRateLimited, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request, apiKeyHeader string) string {
	if key := r.Header.Get(apiKeyHeader); key != "" {
		return "key:" + digest(key)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// MiddlewareFunc is a function that wraps an http.Handler.
type MiddlewareFunc func(http.Handler) http.Handler

// Chain chains multiple middleware functions. The first one is outermost.
func Chain(middlewares ...MiddlewareFunc) MiddlewareFunc {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
