package alert

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCooldown is the minimum time between two alerts for the same region.
const DefaultCooldown = 60 * time.Minute

// RateLimiter gates notification frequency per region. State is one
// last-alert timestamp per region; the map starts empty and an absent entry
// means "never sent". The per-region timestamp map is the only shared
// mutable state in the core, so every access goes through the mutex.
type RateLimiter struct {
	cooldown time.Duration
	clock    clockwork.Clock

	mu        sync.Mutex
	lastAlert map[string]time.Time
}

// NewRateLimiter creates a limiter with the given cooldown. A zero or
// negative cooldown falls back to DefaultCooldown.
func NewRateLimiter(cooldown time.Duration, clock clockwork.Clock) *RateLimiter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &RateLimiter{
		cooldown:  cooldown,
		clock:     clock,
		lastAlert: make(map[string]time.Time),
	}
}

// CanSend reports whether the cooldown for a region has elapsed.
func (l *RateLimiter) CanSend(regionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canSendLocked(regionID)
}

// Record marks now as the region's last alert time.
func (l *RateLimiter) Record(regionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastAlert[regionID] = l.clock.Now()
}

// TryAcquire atomically checks the cooldown and, if it has elapsed, records
// the send. Concurrent dispatchers for the same region therefore never both
// observe an open window.
func (l *RateLimiter) TryAcquire(regionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.canSendLocked(regionID) {
		return false
	}
	l.lastAlert[regionID] = l.clock.Now()
	return true
}

func (l *RateLimiter) canSendLocked(regionID string) bool {
	last, ok := l.lastAlert[regionID]
	if !ok {
		return true
	}
	return l.clock.Now().Sub(last) > l.cooldown
}
