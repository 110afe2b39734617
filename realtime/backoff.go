package realtime

import (
	"math"
	"time"
)

// BackoffPolicy computes how long to wait before the given stream attempt.
// attempt starts at 1 for the first retry.
type BackoffPolicy interface {
	Delay(attempt int) time.Duration
}

// LinearBackoff waits Base × attempt.
type LinearBackoff struct {
	Base time.Duration
}

func (b LinearBackoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return b.Base * time.Duration(attempt)
}

// ExponentialBackoff waits min(Base × 2^attempt, Max). A zero Max means no
// cap.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	ceiling := b.Max
	if ceiling <= 0 {
		ceiling = math.MaxInt64
	}
	d := b.Base
	for i := 0; i < attempt; i++ {
		if d > ceiling/2 {
			return ceiling
		}
		d *= 2
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

var defaultBackoff BackoffPolicy = LinearBackoff{Base: 2 * time.Second}
