package worker

import (
	"math/rand"
	"time"
)

const (
	backoffBase   = 2 * time.Second
	backoffCap    = 5 * time.Minute
	backoffJitter = 250 * time.Millisecond
)

// ExponentialBackoff returns 2s, 4s, 8s, ... capped at 5 minutes, with up to
// 250ms of jitter so a burst of failures does not retry in lockstep.
func ExponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := backoffBase

	for i := 0; i < attempt && delay < backoffCap; i++ {
		delay *= 2
	}

	if delay > backoffCap {
		delay = backoffCap
	}

	return delay + time.Duration(rand.Int63n(int64(backoffJitter)))
}
