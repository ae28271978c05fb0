package middleware

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is passed to the ErrorWriter when a caller exceeds its budget.
var ErrRateLimited = errors.New("rate limit exceeded")

const limiterIdleTTL = 30 * time.Minute

// RateLimiter keeps one token bucket per caller: the user id when
// authenticated, otherwise the client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*visitor
	onError  ErrorWriter
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per caller with the given burst.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute, burst int, onError ErrorWriter) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	return &RateLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*visitor),
		onError:  onError,
		now:      time.Now,
	}
}

// Handler must run after OptionalJWT so authenticated callers are keyed by user.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lim := l.get(rateKey(r))
		if !lim.Allow() {
			retry := time.Duration(float64(time.Second) / float64(l.limit))
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(retry.Seconds()))))
			l.onError(w, r, ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.limiters[key]
	if !ok {
		l.evict(now)
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// evict drops callers idle for limiterIdleTTL. Caller holds mu.
func (l *RateLimiter) evict(now time.Time) {
	for k, v := range l.limiters {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(l.limiters, k)
		}
	}
}

func rateKey(r *http.Request) string {
	if id := UserIDFromContext(r.Context()); id != nil {
		return "user:" + id.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
