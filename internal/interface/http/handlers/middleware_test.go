package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/quickksynkk/synk-hub/pkg/ratelimit"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAPIKeyAuth_Disabled(t *testing.T) {
	auth := NewAPIKeyAuth("", []string{"", "  "})
	assert.False(t, auth.Enabled())

	rec := httptest.NewRecorder()
	auth.Middleware(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAPIKeyAuth_IsValid(t *testing.T) {
	hashA, err := bcrypt.GenerateFromPassword([]byte("key-a"), bcrypt.MinCost)
	require.NoError(t, err)
	hashB, err := bcrypt.GenerateFromPassword([]byte("key-b"), bcrypt.MinCost)
	require.NoError(t, err)

	auth := NewAPIKeyAuth("X-Key", []string{string(hashA), string(hashB)})
	assert.True(t, auth.Enabled())

	assert.True(t, auth.IsValid("key-a"))
	assert.True(t, auth.IsValid("key-b"))
	assert.True(t, auth.IsValid("key-a"), "verified keys stay valid")
	assert.False(t, auth.IsValid("key-c"))
	assert.False(t, auth.IsValid(""))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Key", "key-b")
	rec := httptest.NewRecorder()
	auth.Middleware(okHandler).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAPIKeyAuth_RejectedKeysSkipBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("good"), bcrypt.MinCost)
	require.NoError(t, err)

	auth := NewAPIKeyAuth("", []string{string(hash), string(hash)})
	compares := 0
	auth.compare = func(h, key []byte) error {
		compares++
		return bcrypt.CompareHashAndPassword(h, key)
	}

	for i := 0; i < 5; i++ {
		assert.False(t, auth.IsValid("bogus"))
	}
	assert.Equal(t, 2, compares, "one pass over the hashes, then cached")

	assert.True(t, auth.IsValid("good"))
	assert.Equal(t, 3, compares)
}

func TestAPIKeyAuth_RejectedCacheIsBounded(t *testing.T) {
	auth := NewAPIKeyAuth("", []string{"$2a$04$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"})
	auth.compare = func(_, _ []byte) error { return bcrypt.ErrMismatchedHashAndPassword }

	for i := 0; i < maxRejectedKeys+10; i++ {
		assert.False(t, auth.IsValid(fmt.Sprintf("bogus-%d", i)))
	}
	assert.Len(t, auth.rejected, maxRejectedKeys)
	assert.Len(t, auth.order, maxRejectedKeys)

	// oldest digests are evicted first
	_, oldest := auth.rejected[digest("bogus-0")]
	assert.False(t, oldest)
	_, newest := auth.rejected[digest(fmt.Sprintf("bogus-%d", maxRejectedKeys+9))]
	assert.True(t, newest)
}

func TestSecurityAndCacheHeaders(t *testing.T) {
	h := Chain(SecurityHeadersMiddleware, NoCacheMiddleware)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	h := RequestSizeLimitMiddleware(8)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), CodePayloadTooLarge)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{RequestsPerSecond: 0.01, Burst: 1})
	h := RateLimitMiddleware(limiter, "")(okHandler)

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("").Code)

	rec := send("")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), CodeRateLimited)

	// same IP, but a key gets its own bucket
	assert.Equal(t, http.StatusNoContent, send("key-a").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("key-a").Code)
	assert.Equal(t, http.StatusNoContent, send("key-b").Code)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	h := RateLimitMiddleware(nil, "X-API-Key")(okHandler)
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(mw("outer"), mw("inner"))(okHandler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}
