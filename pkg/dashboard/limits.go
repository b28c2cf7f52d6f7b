package dashboard

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdle is how long an unused limiter is kept.
const limiterIdle = 30 * time.Minute

type limiter struct {
	*rate.Limiter
	seen time.Time
}

// limiters holds a token bucket per session.
type limiters struct {
	mu    sync.Mutex
	m     map[string]*limiter
	rate  rate.Limit
	burst int
}

func newLimiters(r rate.Limit, burst int) *limiters {
	return &limiters{
		m:     make(map[string]*limiter),
		rate:  r,
		burst: burst,
	}
}

func (l *limiters) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.m[key]
	if !ok {
		l.prune(now)
		lim = &limiter{Limiter: rate.NewLimiter(l.rate, l.burst)}
		l.m[key] = lim
	}
	lim.seen = now
	return lim.AllowN(now, 1)
}

func (l *limiters) prune(now time.Time) {
	for k, lim := range l.m {
		if now.Sub(lim.seen) > limiterIdle {
			delete(l.m, k)
		}
	}
}
