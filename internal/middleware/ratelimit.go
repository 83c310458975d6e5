// Package middleware holds gin middleware shared by the API routes.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/PaulBabatuyi/semx/internal/normalize"
)

const (
	// maxPeekBytes bounds how much of a request body is buffered to find the email.
	maxPeekBytes = 64 << 10
	// idleTTL is how long an unused bucket survives before a sweep drops it.
	idleTTL = 10 * time.Minute
)

// LimiterStore hands out one token bucket per key and forgets idle keys.
type LimiterStore struct {
	every rate.Limit
	size  int

	mu      sync.Mutex
	buckets map[string]*bucket

	done     chan struct{}
	doneOnce sync.Once
}

type bucket struct {
	lim  *rate.Limiter
	used time.Time
}

// NewLimiterStore allows perMinute events per key per minute with bursts of
// up to burst. Idle keys are swept every interval until Stop is called.
func NewLimiterStore(perMinute, burst int, interval time.Duration) *LimiterStore {
	if perMinute < 1 {
		perMinute = 60
	}
	s := &LimiterStore{
		every:   rate.Every(time.Minute / time.Duration(perMinute)),
		size:    max(burst, 1),
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go s.janitor(interval)
	return s
}

func (s *LimiterStore) janitor(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-t.C:
			s.sweep(now.Add(-idleTTL))
		}
	}
}

// sweep drops buckets last used before cutoff.
func (s *LimiterStore) sweep(cutoff time.Time) {
	s.mu.Lock()
	for key, b := range s.buckets {
		if b.used.Before(cutoff) {
			delete(s.buckets, key)
		}
	}
	s.mu.Unlock()
}

// Stop ends the sweeper. Calling it again is a no-op.
func (s *LimiterStore) Stop() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Allow takes one token from key's bucket, creating the bucket on first use.
func (s *LimiterStore) Allow(key string) bool {
	now := time.Now()

	s.mu.Lock()
	b := s.buckets[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(s.every, s.size)}
		s.buckets[key] = b
	}
	b.used = now
	s.mu.Unlock()

	return b.lim.AllowN(now, 1)
}

// RateLimit limits requests per account. Register and login bodies carry an
// email, which becomes the key so one account cannot be hammered from many
// addresses; requests without one are keyed by client IP. The handler still
// sees the full body.
func RateLimit(store *LimiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if email := peekEmail(c.Request); email != "" {
			key = "email:" + email
		}
		if store.Allow(key) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, please try again later"})
	}
}

func peekEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	if err != nil {
		return ""
	}
	r.Body = readCloser{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	var creds struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(head, &creds) != nil {
		return ""
	}
	return normalize.Email(creds.Email)
}

type readCloser struct {
	io.Reader
	io.Closer
}
