package middlewares

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/zsmartex/tradecore/controllers/auth"
	"github.com/zsmartex/tradecore/controllers/helpers"
)

// DefaultRateLimitKeys caps how many callers are tracked at once. The least
// recently seen caller is dropped first.
const DefaultRateLimitKeys = 100000

// RateLimiter allows max requests per window to every caller, refilled
// evenly. Authenticated callers are keyed by uid, the others by ip. A
// caller idle for a whole window is forgotten: its bucket would be full
// again anyway.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	return newRateLimiter(window, max, DefaultRateLimitKeys)
}

func newRateLimiter(window time.Duration, max, size int) *RateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](size, nil, window),
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
	}
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, found := l.limiters.Get(key)
	if !found {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}

	// Add restarts the idle timer of the key
	l.limiters.Add(key, limiter)

	return limiter
}

// Len is the number of callers currently tracked.
func (l *RateLimiter) Len() int {
	return l.limiters.Len()
}

func (l *RateLimiter) Handler(c *fiber.Ctx) error {
	key := "ip:" + c.IP()
	if user := auth.GetCurrentUser(c); user != nil {
		key = "uid:" + strconv.FormatInt(user.UID, 10)
	}

	if !l.limiter(key).Allow() {
		return c.Status(429).JSON(helpers.Errors{
			Errors: []string{helpers.AuthzTooManyRequests},
		})
	}

	return c.Next()
}
