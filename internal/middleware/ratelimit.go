package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/keyxmakerx/eventhub/internal/apperror"
)

// ipLimiter is one client's token bucket and when it was last used.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns middleware that allows each client IP maxRequests
// requests per window, with bursts up to maxRequests. Excess requests get a
// 429. Buckets idle for two windows are pruned on later requests.
func RateLimit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return rateLimit(maxRequests, window, time.Now)
}

func rateLimit(maxRequests int, window time.Duration, now func() time.Time) echo.MiddlewareFunc {
	every := rate.Every(window / time.Duration(maxRequests))

	var mu sync.Mutex
	limiters := make(map[string]*ipLimiter)
	lastPrune := now()

	allow := func(ip string) bool {
		mu.Lock()
		defer mu.Unlock()

		t := now()
		if t.Sub(lastPrune) > window {
			for k, l := range limiters {
				if t.Sub(l.lastSeen) > 2*window {
					delete(limiters, k)
				}
			}
			lastPrune = t
		}

		l, ok := limiters[ip]
		if !ok {
			l = &ipLimiter{limiter: rate.NewLimiter(every, maxRequests)}
			limiters[ip] = l
		}
		l.lastSeen = t
		return l.limiter.AllowN(t, 1)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", "60")
				return apperror.NewTooManyRequests()
			}
			return next(c)
		}
	}
}
