package scheduler

import "time"

// WorkerConfig holds AdaptiveQueueWorker parameters
type WorkerConfig struct {
	// BatchSize is the number of pending jobs fetched per poll
	BatchSize int
	// MinDelay is the starting and lowest delay between jobs
	MinDelay time.Duration
	// MaxDelay caps the delay and is the circuit-breaker pause
	MaxDelay time.Duration
	// IdleDelay is the sleep when the queue is empty
	IdleDelay time.Duration
	// MaxRetries is the number of failures after which a job is failed
	MaxRetries int
	// BackoffThreshold is the consecutive-error count at which the delay doubles
	BackoffThreshold int
	// BreakerThreshold is the consecutive-error count that trips the breaker
	BreakerThreshold int
	// RefreshTimeout bounds one refresh call
	RefreshTimeout time.Duration
	// MaxRunDuration stops Run after this wall-clock budget; zero runs until stopped
	MaxRunDuration time.Duration
}

// DefaultWorkerConfig returns the default worker configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:        10,
		MinDelay:         5 * time.Second,
		MaxDelay:         60 * time.Second,
		IdleDelay:        30 * time.Second,
		MaxRetries:       3,
		BackoffThreshold: 3,
		BreakerThreshold: 5,
		RefreshTimeout:   30 * time.Second,
	}
}

// Validate validates the configuration
func (c *WorkerConfig) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidConfig
	}
	if c.MinDelay <= 0 || c.MaxDelay < c.MinDelay {
		return ErrInvalidConfig
	}
	if c.IdleDelay <= 0 || c.RefreshTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxRetries <= 0 || c.BackoffThreshold <= 0 || c.BreakerThreshold < c.BackoffThreshold {
		return ErrInvalidConfig
	}
	if c.MaxRunDuration < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// WorkerState is the adaptive throttle of one worker instance. It is a
// value: each transition returns the next state and the worker threads it
// through its loop, so instances never share counters.
type WorkerState struct {
	CurrentDelay      time.Duration
	ConsecutiveErrors int

	minDelay         time.Duration
	maxDelay         time.Duration
	backoffThreshold int
	breakerThreshold int
}

// NewWorkerState starts at the minimum delay with no errors
func NewWorkerState(cfg WorkerConfig) WorkerState {
	return WorkerState{
		CurrentDelay:     cfg.MinDelay,
		minDelay:         cfg.MinDelay,
		maxDelay:         cfg.MaxDelay,
		backoffThreshold: cfg.BackoffThreshold,
		breakerThreshold: cfg.BreakerThreshold,
	}
}

// AfterSuccess resets the error count and decays the delay by 10% toward the minimum
func (s WorkerState) AfterSuccess() WorkerState {
	s.ConsecutiveErrors = 0
	s.CurrentDelay -= s.CurrentDelay / 10
	if s.CurrentDelay < s.minDelay {
		s.CurrentDelay = s.minDelay
	}
	return s
}

// AfterFailure counts an error and doubles the delay, capped at the
// maximum, once the backoff threshold is reached
func (s WorkerState) AfterFailure() WorkerState {
	s.ConsecutiveErrors++
	if s.ConsecutiveErrors >= s.backoffThreshold {
		s.CurrentDelay *= 2
		if s.CurrentDelay > s.maxDelay {
			s.CurrentDelay = s.maxDelay
		}
	}
	return s
}

// BreakerTripped reports whether the worker must pause for MaxDelay
func (s WorkerState) BreakerTripped() bool {
	return s.ConsecutiveErrors >= s.breakerThreshold
}

// BreakerPause returns the pause length when the breaker trips
func (s WorkerState) BreakerPause() time.Duration {
	return s.maxDelay
}

// AfterBreakerPause resets the error count; the delay is kept
func (s WorkerState) AfterBreakerPause() WorkerState {
	s.ConsecutiveErrors = 0
	return s
}
