package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"sanctum/internal/apperrors"
	"sanctum/internal/observability"
)

// BreakerConfig tunes a CircuitBreaker per spec.md §4.B: once at least
// WindowSize calls have been counted since the breaker last changed
// state, it trips open when either the failure rate or the slow-call
// rate crosses its threshold. The rates cover every call since that
// state change, not a sliding window of the most recent calls. After
// WaitDuration the breaker half-opens and allows ProbeCalls through
// before deciding whether to close or re-open.
type BreakerConfig struct {
	Dependency         string
	WindowSize         uint32
	FailureRateThresh  float64
	SlowCallRateThresh float64
	SlowCallDuration   time.Duration
	WaitDuration       time.Duration
	ProbeCalls         uint32
}

// CircuitBreaker wraps sony/gobreaker, translating its counts-based
// ReadyToTrip hook into the rate-based semantics spec.md §4.B calls for,
// and exposing per-dependency state to the focushive_circuit_breaker_state
// gauge.
type CircuitBreaker struct {
	cfg BreakerConfig
	gb  *gobreaker.CircuitBreaker

	mu        sync.Mutex
	slowCount uint32
}

// NewCircuitBreaker builds a CircuitBreaker for a single named dependency.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.WindowSize == 0 {
		cfg.WindowSize = 10
	}
	if cfg.ProbeCalls == 0 {
		cfg.ProbeCalls = 3
	}

	cb := &CircuitBreaker{cfg: cfg}
	settings := gobreaker.Settings{
		Name:        cfg.Dependency,
		MaxRequests: cfg.ProbeCalls,
		Interval:    0,
		Timeout:     cfg.WaitDuration,
		ReadyToTrip: cb.readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			// gobreaker clears its Counts on every state transition; slowCount
			// tracks a dimension gobreaker's Counts doesn't carry, so it must
			// be cleared in lockstep or stale slow calls would linger into
			// the next window's rate calculation.
			cb.mu.Lock()
			cb.slowCount = 0
			cb.mu.Unlock()
			observability.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	}
	cb.gb = gobreaker.NewCircuitBreaker(settings)
	return cb
}

// readyToTrip opens the breaker once the window has accumulated enough
// requests and either the failure rate or the slow-call rate crosses its
// configured threshold. The two rates are evaluated against their own
// thresholds: slowCount is tracked independently of gobreaker's Counts
// (which has no latency dimension) precisely so a window that is mostly
// slow-but-successful trips against SlowCallRateThresh rather than being
// folded into FailureRateThresh, which is usually the tighter of the two.
func (cb *CircuitBreaker) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < cb.cfg.WindowSize {
		return false
	}

	cb.mu.Lock()
	slow := cb.slowCount
	cb.mu.Unlock()

	hardFailures := counts.TotalFailures
	if slow <= hardFailures {
		hardFailures -= slow
	}
	failureRate := float64(hardFailures) / float64(counts.Requests)
	if failureRate >= cb.cfg.FailureRateThresh {
		return true
	}

	if cb.cfg.SlowCallRateThresh > 0 {
		slowRate := float64(slow) / float64(counts.Requests)
		if slowRate >= cb.cfg.SlowCallRateThresh {
			return true
		}
	}
	return false
}

// Execute runs fn through the breaker. A call that exceeds SlowCallDuration
// counts as a failure toward tripping the breaker even if fn returns nil,
// and is tallied separately in slowCount so readyToTrip can weigh it
// against SlowCallRateThresh instead of FailureRateThresh.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := cb.gb.Execute(func() (interface{}, error) {
		start := time.Now()
		callErr := fn(ctx)
		if callErr == nil && cb.cfg.SlowCallDuration > 0 && time.Since(start) > cb.cfg.SlowCallDuration {
			cb.mu.Lock()
			cb.slowCount++
			cb.mu.Unlock()
			return nil, apperrors.NewTransient("slow call counted against breaker", nil)
		}
		return nil, callErr
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return apperrors.NewDependencyUnavailable(cb.cfg.Dependency, err)
	}
	return err
}

// State reports the breaker's current gobreaker state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.gb.State()
}
