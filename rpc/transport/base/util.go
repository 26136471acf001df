package base

import (
	"math/rand"
	"time"
)

const (
	initialBackoff = 50 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// backoff produces exponentially growing retry delays with a small random
// jitter (+-10%)
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: initialBackoff}
}

// next returns the delay before the next attempt and doubles the base delay
func (b *backoff) next() time.Duration {
	jitter := float64(b.current) * (0.9 + 0.2*rand.Float64())
	b.current *= 2
	if b.current > maxBackoff {
		b.current = maxBackoff
	}
	return time.Duration(jitter)
}
