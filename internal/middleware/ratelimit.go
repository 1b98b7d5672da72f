package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"go-market-auth/pkg/apierror"
)

const (
	authPathPrefix    = "/api/v1/auth"
	defaultAuthRPM    = 10
	limiterGCSize     = 1000
	limiterIdleExpiry = 10 * time.Minute
)

type clientBuckets struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps two token buckets per client IP: one for
// credential endpoints under /api/v1/auth and one for everything else.
// A non-positive general rate disables the general bucket.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int
	mu         sync.Mutex
	clients    map[string]*clientBuckets
	now        func() time.Time
}

func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	if authRPM <= 0 {
		authRPM = defaultAuthRPM
	}

	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		clients:    map[string]*clientBuckets{},
		now:        time.Now,
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buckets := m.bucketsFor(ClientIP(r))

		limiter, rpm := buckets.general, m.generalRPM
		if strings.HasPrefix(strings.ToLower(r.URL.Path), authPathPrefix) {
			limiter, rpm = buckets.auth, m.authRPM
		}

		if limiter != nil && !limiter.Allow() {
			w.Header().Set("Retry-After", retryAfter(rpm))
			writeAPIError(w, apierror.TooManyRequests())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// retryAfter is the time one token takes to refill, in whole seconds.
func retryAfter(rpm int) string {
	if rpm <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(60 / float64(rpm))))
}

func newBucket(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

func (m *RateLimitMiddleware) bucketsFor(clientIP string) *clientBuckets {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	buckets, exists := m.clients[clientIP]
	if !exists {
		buckets = &clientBuckets{general: newBucket(m.generalRPM), auth: newBucket(m.authRPM)}
		m.clients[clientIP] = buckets
	}
	buckets.lastSeen = now

	if len(m.clients) >= limiterGCSize {
		cutoff := now.Add(-limiterIdleExpiry)
		for ip, candidate := range m.clients {
			if candidate.lastSeen.Before(cutoff) {
				delete(m.clients, ip)
			}
		}
	}

	return buckets
}
