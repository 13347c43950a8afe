package queue

import (
	"math/rand"
	"time"
)

// RetryPolicy computes the backoff imposed before a failed message becomes
// ready again. retryCount is the attempt number after increment (>= 1).
type RetryPolicy interface {
	Delay(retryCount int) time.Duration
}

// ExponentialBackoff doubles the delay per attempt: Base * 2^retryCount,
// capped at Max to keep large retry counts from overflowing.
type ExponentialBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter bool
}

// DefaultRetryPolicy is the backoff used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return ExponentialBackoff{Base: time.Second, Max: 5 * time.Minute}
}

// Delay implements RetryPolicy.
func (e ExponentialBackoff) Delay(retryCount int) time.Duration {
	base := e.Base
	if base <= 0 {
		base = time.Second
	}
	max := e.Max
	if max <= 0 {
		max = 5 * time.Minute
	}
	if retryCount < 1 {
		retryCount = 1
	}

	// Shift would overflow int64 well before 62 doublings.
	d := max
	if retryCount < 62 {
		d = base << uint(retryCount)
		if d <= 0 || d > max {
			d = max
		}
	}

	if e.Jitter {
		// +/-15% to spread synchronized retries.
		spread := rand.Float64()*0.3 - 0.15
		d = d + time.Duration(spread*float64(d))
	}
	return d
}

// FixedBackoff imposes the same delay on every attempt.
type FixedBackoff struct {
	Interval time.Duration
}

// Delay implements RetryPolicy.
func (f FixedBackoff) Delay(int) time.Duration {
	if f.Interval <= 0 {
		return time.Second
	}
	return f.Interval
}
