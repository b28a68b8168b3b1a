package alert_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/disaster-warning-service/internal/alert"
)

func TestRateLimiter_Cooldown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := alert.NewRateLimiter(60*time.Minute, clock)

	assert.True(t, rl.CanSend("delta-01"), "first alert always allowed")
	rl.Record("delta-01")

	assert.False(t, rl.CanSend("delta-01"), "second alert within cooldown blocked")

	clock.Advance(30 * time.Minute)
	assert.False(t, rl.CanSend("delta-01"), "still within cooldown after 30m")

	clock.Advance(31 * time.Minute)
	assert.True(t, rl.CanSend("delta-01"), "allowed again after cooldown elapses")
}

func TestRateLimiter_PerRegion(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := alert.NewRateLimiter(60*time.Minute, clock)

	rl.Record("delta-01")
	assert.False(t, rl.CanSend("delta-01"))
	assert.True(t, rl.CanSend("coast-02"), "cooldown is per region")
}

func TestRateLimiter_TryAcquire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := alert.NewRateLimiter(60*time.Minute, clock)

	assert.True(t, rl.TryAcquire("delta-01"))
	assert.False(t, rl.TryAcquire("delta-01"), "acquire claims the cooldown slot")

	clock.Advance(61 * time.Minute)
	assert.True(t, rl.TryAcquire("delta-01"))
}

func TestRateLimiter_DefaultCooldown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := alert.NewRateLimiter(0, clock)

	rl.Record("delta-01")
	clock.Advance(alert.DefaultCooldown - time.Minute)
	assert.False(t, rl.CanSend("delta-01"))

	clock.Advance(2 * time.Minute)
	assert.True(t, rl.CanSend("delta-01"))
}
