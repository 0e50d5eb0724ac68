package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fn := KeyByUserOrIP()

	// No user set → IP-keyed
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := fn(c); got == "" || got[:3] != "ip:" {
		t.Fatalf("expected ip-prefixed key, got %q", got)
	}

	// Authenticated → user-keyed
	c.Set(ctxKeyUserID, "u7")
	if got := fn(c); got != "user:u7" {
		t.Fatalf("expected user:u7, got %q", got)
	}
}

func TestRateLimiter_AllowsWithinBurst_Then429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// 0 rps: nothing refills, so exactly burst requests pass.
	rl := NewRateLimiter(0, 2, func(*gin.Context) string { return "fixed" })
	r.Use(rl.Handler())
	r.GET("/l", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/l", nil)
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("first two requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %v", codes)
	}
}

func TestRateLimiter_429_HasRetryAfterAndEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rl := NewRateLimiter(0, 1, func(*gin.Context) string { return "k" })
	r.Use(rl.Handler())
	r.GET("/l", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Exhaust the single token, then hit the limit.
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/l", nil)
		r.ServeHTTP(w, req)
		if i == 1 {
			if w.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", w.Code)
			}
			if w.Header().Get("Retry-After") != "1" {
				t.Fatalf("expected Retry-After: 1")
			}
			if body := w.Body.String(); !strings.Contains(body, "rate_limited") {
				t.Fatalf("expected rate_limited code in body: %s", body)
			}
		}
	}
}

func TestRateLimiter_SeparateKeys_SeparateBuckets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rl := NewRateLimiter(0, 1, func(c *gin.Context) string { return c.GetHeader("X-Key") })
	r.Use(rl.Handler())
	r.GET("/l", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, key := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/l", nil)
		req.Header.Set("X-Key", key)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("key %q first request should pass, got %d", key, w.Code)
		}
	}
}

func TestRateLimiter_ReplayBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// mark every request as a replay before limiting
	r.Use(func(c *gin.Context) { c.Set(ctxKeyRateBypass, true); c.Next() })
	rl := NewRateLimiter(0, 1, func(*gin.Context) string { return "same" })
	r.Use(rl.Handler())
	r.GET("/l", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/l", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("replayed request %d should bypass limiting, got %d", i, w.Code)
		}
	}
}

func TestRateLimiter_BurstCoercedToOne(t *testing.T) {
	rl := NewRateLimiter(1, 0, func(*gin.Context) string { return "x" })
	if rl.burst != 1 {
		t.Fatalf("burst <= 0 should coerce to 1, got %d", rl.burst)
	}
}

func TestRateLimiter_CleanupEvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1, func(*gin.Context) string { return "x" })
	rl.ttl = time.Nanosecond

	_ = rl.getVisitor("stale")
	time.Sleep(time.Millisecond)

	// Force the cleanup pass on the next lookup.
	rl.mu.Lock()
	rl.cleanupN = 4999
	rl.mu.Unlock()
	_ = rl.getVisitor("fresh")

	rl.mu.Lock()
	_, staleAlive := rl.visitors["stale"]
	rl.mu.Unlock()
	if staleAlive {
		t.Fatalf("expected stale visitor to be evicted")
	}
}
