package realtime_test

import (
	"testing"
	"time"

	"github.com/convitepro/realtime-go/realtime"
	"github.com/stretchr/testify/assert"
)

func TestLinearBackoff(t *testing.T) {
	b := realtime.LinearBackoff{Base: 2 * time.Second}
	for attempt, want := range map[int]time.Duration{
		0: 2 * time.Second,
		1: 2 * time.Second,
		2: 4 * time.Second,
		4: 8 * time.Second,
	} {
		assert.Equal(t, want, b.Delay(attempt), "attempt %d", attempt)
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := realtime.ExponentialBackoff{Base: time.Second, Max: 30 * time.Second}
	for attempt, want := range map[int]time.Duration{
		0:  time.Second,
		1:  2 * time.Second,
		2:  4 * time.Second,
		4:  16 * time.Second,
		5:  30 * time.Second,
		80: 30 * time.Second,
	} {
		assert.Equal(t, want, b.Delay(attempt), "attempt %d", attempt)
	}

	t.Run("uncapped", func(t *testing.T) {
		b := realtime.ExponentialBackoff{Base: time.Millisecond}
		assert.Equal(t, 8*time.Millisecond, b.Delay(3))
	})
}
