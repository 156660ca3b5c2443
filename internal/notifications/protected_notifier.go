package notifications

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // hard timeout per send
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

func (c *ProtectedNotifierConfig) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}

	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}

	if c.Cooldown <= 0 {
		c.Cooldown = 15 * time.Second
	}

	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
}

// ProtectedNotifier wraps a Notifier with a per-call timeout and a circuit
// breaker, so a dead mail provider sheds load fast instead of stalling every
// worker tick until the timeout.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig
	now   func() time.Time

	mu       sync.Mutex
	state    circuitState
	failures int
	openedAt time.Time
	trials   int
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	cfg.applyDefaults()

	return &ProtectedNotifier{
		inner: inner,
		cfg:   cfg,
		now:   time.Now,
	}
}

func (n *ProtectedNotifier) SendBookingConfirmation(ctx context.Context, input SendBookingConfirmationInput) error {
	if err := n.admit(); err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := n.inner.SendBookingConfirmation(sendCtx, input)

	n.settle(err)

	return err
}

// admit decides whether this call may reach the provider.
func (n *ProtectedNotifier) admit() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case circuitOpen:
		if n.now().Sub(n.openedAt) < n.cfg.Cooldown {
			return ErrCircuitOpen
		}

		n.state = circuitHalfOpen
		n.trials = 1

		return nil

	case circuitHalfOpen:
		if n.trials >= n.cfg.HalfOpenMaxCalls {
			return ErrCircuitOpen
		}

		n.trials++

		return nil

	default:
		return nil
	}
}

// settle folds the call outcome back into the breaker state.
func (n *ProtectedNotifier) settle(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == circuitHalfOpen && n.trials > 0 {
		n.trials--
	}

	if err == nil {
		n.state = circuitClosed
		n.failures = 0
		return
	}

	n.failures++

	// a failed half-open trial reopens immediately, a closed breaker waits
	// for the threshold
	if n.state == circuitHalfOpen || n.failures >= n.cfg.FailureThreshold {
		n.state = circuitOpen
		n.openedAt = n.now()
	}
}
