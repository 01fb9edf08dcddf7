package resilience

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/bilardeando/internal/platform/logging"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// OpenError names the dependency whose breaker rejected the call.
type OpenError struct {
	Breaker string
	State   CircuitState
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Breaker, ErrCircuitOpen, e.State)
}

func (e *OpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker guards one outbound dependency (auth, payment gateway, job
// queue). A disabled breaker admits every call and ignores results.
type CircuitBreaker struct {
	name    string
	enabled bool
	cfg     CircuitBreakerConfig
	logger  *logging.Logger
	now     func() time.Time

	mu                  sync.Mutex
	state               CircuitState
	consecutiveFailures int
	openedAt            time.Time
	probesInFlight      int
	probeSuccesses      int
}

func NewCircuitBreaker(name string, cfg CircuitBreakerConfig, logger *logging.Logger) *CircuitBreaker {
	if logger == nil {
		logger = logging.Default()
	}

	return &CircuitBreaker{
		name:    name,
		enabled: cfg.Enabled,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		now:     time.Now,
		state:   CircuitStateClosed,
	}
}

func (b *CircuitBreaker) Name() string {
	return b.name
}

// Allow admits a call or returns an *OpenError. Every admitted call must be
// followed by exactly one Record.
func (b *CircuitBreaker) Allow() error {
	if !b.enabled {
		return nil
	}

	b.mu.Lock()
	from := b.state
	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		b.setState(CircuitStateHalfOpen)
	}

	var err error
	switch b.state {
	case CircuitStateOpen:
		err = &OpenError{Breaker: b.name, State: b.state}
	case CircuitStateHalfOpen:
		if b.probesInFlight >= b.cfg.HalfOpenMaxReq {
			err = &OpenError{Breaker: b.name, State: b.state}
		} else {
			b.probesInFlight++
		}
	}
	to := b.state
	b.mu.Unlock()

	b.logTransition(from, to)
	return err
}

// Record reports the outcome of an admitted call. Only dependency failures
// (timeouts, 5xx, 429) should count as failed; caller errors such as a 404
// are successes from the breaker's point of view.
func (b *CircuitBreaker) Record(failed bool) {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	from := b.state
	if failed {
		b.recordFailure()
	} else {
		b.recordSuccess()
	}
	to := b.state
	b.mu.Unlock()

	b.logTransition(from, to)
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) recordSuccess() {
	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures = 0
	case CircuitStateHalfOpen:
		if b.probesInFlight > 0 {
			b.probesInFlight--
		}
		b.probeSuccesses++
		if b.probeSuccesses >= b.cfg.HalfOpenMaxReq && b.probesInFlight == 0 {
			b.setState(CircuitStateClosed)
		}
	}
}

func (b *CircuitBreaker) recordFailure() {
	switch b.state {
	case CircuitStateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.cfg.FailureThreshold {
			b.setState(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		b.setState(CircuitStateOpen)
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
}

// setState resets the counters owned by the target state. Caller holds mu.
func (b *CircuitBreaker) setState(state CircuitState) {
	b.state = state
	b.probesInFlight = 0
	b.probeSuccesses = 0
	switch state {
	case CircuitStateClosed:
		b.consecutiveFailures = 0
		b.openedAt = time.Time{}
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
}

func (b *CircuitBreaker) logTransition(from, to CircuitState) {
	if from == to {
		return
	}
	if to == CircuitStateOpen {
		b.logger.Warn("circuit breaker opened", "breaker", b.name, "from", string(from), "open_timeout", b.cfg.OpenTimeout.String())
		return
	}
	b.logger.Info("circuit breaker state changed", "breaker", b.name, "from", string(from), "to", string(to))
}
