package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	errors "github.com/frahmantamala/rbac-admin/internal"
	"github.com/frahmantamala/rbac-admin/internal/transport"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

// RateLimitConfig holds configuration for the rate limiter middleware.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (cl *clientLimiter) touch(now time.Time) {
	cl.mu.Lock()
	cl.lastSeen = now
	cl.mu.Unlock()
}

func (cl *clientLimiter) idleSince(now time.Time) time.Duration {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return now.Sub(cl.lastSeen)
}

// RateLimiter enforces a per-client token bucket. Rejected requests get 429 with Retry-After
// and the standard error payload.
type RateLimiter struct {
	base    *transport.BaseHandler
	cfg     RateLimitConfig
	clients sync.Map // client ip -> *clientLimiter
	now     func() time.Time
}

func NewRateLimiter(cfg RateLimitConfig, base *transport.BaseHandler) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &RateLimiter{base: base, cfg: cfg, now: time.Now}
}

// Run removes idle client entries until done is closed.
func (rl *RateLimiter) Run(done <-chan struct{}) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	now := rl.now()
	rl.clients.Range(func(key, value any) bool {
		if value.(*clientLimiter).idleSince(now) > limiterIdleTTL {
			rl.clients.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	now := rl.now()
	if v, ok := rl.clients.Load(ip); ok {
		cl := v.(*clientLimiter)
		cl.touch(now)
		return cl.limiter
	}
	cl := &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
		lastSeen: now,
	}
	actual, _ := rl.clients.LoadOrStore(ip, cl)
	return actual.(*clientLimiter).limiter
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.limiterFor(clientIP(r))

		reservation := limiter.Reserve()
		if !reservation.OK() {
			rl.reject(w, r, 0)
			return
		}

		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			rl.reject(w, r, int(delay.Seconds())+1)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	rl.base.WriteAppError(w, r, errors.ErrRateLimited)
}

// clientIP uses RemoteAddr only. X-Forwarded-For is caller controlled.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
