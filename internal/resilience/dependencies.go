package resilience

import (
	"time"

	"sanctum/internal/config"
)

// Dependency names for the three downstream calls the resilience fabric
// wraps, per spec.md §4.B.
const (
	DependencyIdentity     = "identity"
	DependencyNotification = "notification"
	DependencyBuddy        = "buddy"
)

// Fabric holds one Executor per downstream dependency.
type Fabric struct {
	Identity     *Executor
	Notification *Executor
	Buddy        *Executor
}

// NewFabric builds an Executor for each dependency from cfg, sharing the
// circuit breaker and retry tuning across dependencies but giving
// notification its own longer time limit, since it is allowed up to
// TL_NOTIFICATION_SEC rather than the default.
func NewFabric(cfg *config.Config) *Fabric {
	retryCfg := RetryConfig{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		Multiplier:  cfg.RetryMultiplier,
		JitterPct:   cfg.RetryJitterPct,
	}
	defaultTimeout := time.Duration(cfg.TimeLimiterDefaultSec) * time.Second
	notificationTimeout := time.Duration(cfg.TimeLimiterNotificationSec) * time.Second

	build := func(dependency string, timeout time.Duration) *Executor {
		return &Executor{
			Dependency: dependency,
			Rate:       NewRateLimiter(50, 10),
			Bulkhead:   NewBulkhead(cfg.BulkheadMaxConcurrent),
			TimeLimit:  NewTimeLimiter(timeout),
			Breaker: NewCircuitBreaker(BreakerConfig{
				Dependency:         dependency,
				WindowSize:         uint32(cfg.CBWindowSize),
				FailureRateThresh:  cfg.CBFailureRateThreshold,
				SlowCallRateThresh: cfg.CBSlowCallRateThreshold,
				SlowCallDuration:   timeout,
				WaitDuration:       time.Duration(cfg.CBWaitDurationSec) * time.Second,
				ProbeCalls:         uint32(cfg.CBProbeCalls),
			}),
			Retry: NewRetryPolicy(retryCfg),
		}
	}

	return &Fabric{
		Identity:     build(DependencyIdentity, defaultTimeout),
		Notification: build(DependencyNotification, notificationTimeout),
		Buddy:        build(DependencyBuddy, defaultTimeout),
	}
}
