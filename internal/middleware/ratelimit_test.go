package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestLimiterStoreBurstAndSweep(t *testing.T) {
	s := NewLimiterStore(5, 5, time.Hour)
	defer s.Stop()

	const key = "email:a@x.edu"
	for i := 0; i < 5; i++ {
		if !s.Allow(key) {
			t.Fatalf("attempt %d should fit in the burst", i+1)
		}
	}
	if s.Allow(key) {
		t.Fatal("sixth attempt should be rejected")
	}
	if !s.Allow("email:b@x.edu") {
		t.Fatal("other keys have their own bucket")
	}

	s.sweep(time.Now().Add(time.Second))
	s.mu.Lock()
	n := len(s.buckets)
	s.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected idle limiters to be swept, %d left", n)
	}

	// a swept key starts with a full bucket again
	if !s.Allow(key) {
		t.Fatal("expected fresh limiter after sweep")
	}
}

func TestLimiterStoreStopTwice(t *testing.T) {
	s := NewLimiterStore(1, 1, time.Millisecond)
	s.Stop()
	s.Stop()
}

func newLimitedRouter(store *LimiterStore) (*gin.Engine, *[]string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var seen []string
	r.POST("/login", RateLimit(store), func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		seen = append(seen, string(b))
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func post(r http.Handler, body, remote string) int {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitKeysByEmail(t *testing.T) {
	store := NewLimiterStore(1, 2, time.Hour)
	defer store.Stop()
	r, seen := newLimitedRouter(store)

	body := `{"email":"Victim@X.edu","password":"guess"}`
	// different source addresses share the email bucket
	if code := post(r, body, "10.0.0.1:1000"); code != http.StatusOK {
		t.Fatalf("first attempt: %d", code)
	}
	if code := post(r, `{"email":"victim@x.edu"}`, "10.0.0.2:1000"); code != http.StatusOK {
		t.Fatalf("second attempt: %d", code)
	}
	if code := post(r, body, "10.0.0.3:1000"); code != http.StatusTooManyRequests {
		t.Fatalf("third attempt should be limited, got %d", code)
	}

	if len(*seen) != 2 || (*seen)[0] != body {
		t.Fatalf("handler must see the original body, got %q", *seen)
	}
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	store := NewLimiterStore(1, 1, time.Hour)
	defer store.Stop()
	r, _ := newLimitedRouter(store)

	if code := post(r, `not json`, "10.0.0.9:1000"); code != http.StatusOK {
		t.Fatalf("first attempt: %d", code)
	}
	if code := post(r, `{}`, "10.0.0.9:2000"); code != http.StatusTooManyRequests {
		t.Fatalf("same ip should be limited, got %d", code)
	}
	if code := post(r, `{}`, "10.0.0.10:2000"); code != http.StatusOK {
		t.Fatalf("another ip has its own bucket, got %d", code)
	}
}
