// Package graph provides the core graph execution engine.
package graph

import "time"

// RetryPolicy configures exponential-backoff retry for a primitive node.
// Precedence (§4.4): node override falls back to the tool's default falls
// back to DefaultRetryPolicy.
type RetryPolicy struct {
	MaxRetries        int           `json:"max_retries" yaml:"max_retries"`
	BackoffMS         int64         `json:"backoff_ms" yaml:"backoff_ms"`
	BackoffMultiplier float64       `json:"backoff_multiplier" yaml:"backoff_multiplier"`
	MaxBackoffMS      int64         `json:"max_backoff_ms" yaml:"max_backoff_ms"`
}

// DefaultRetryPolicy is the global fallback: {3, 1000ms, 2.0, 30000ms}.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:        3,
	BackoffMS:         1000,
	BackoffMultiplier: 2.0,
	MaxBackoffMS:      30000,
}

// Validate checks RetryPolicy invariants.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxRetries < 0 {
		return ErrInvalidRetryPolicy
	}
	if rp.BackoffMultiplier < 1 {
		return ErrInvalidRetryPolicy
	}
	if rp.MaxBackoffMS > 0 && rp.BackoffMS > 0 && rp.MaxBackoffMS < rp.BackoffMS {
		return ErrInvalidRetryPolicy
	}
	return nil
}

// EffectivePolicy resolves node override -> tool default -> global default.
func EffectivePolicy(nodeOverride, toolDefault *RetryPolicy) RetryPolicy {
	if nodeOverride != nil {
		return *nodeOverride
	}
	if toolDefault != nil {
		return *toolDefault
	}
	return DefaultRetryPolicy
}

// computeBackoff returns the delay before retrying attempt a (0-based: a=0
// is the delay before the first retry), per §8:
//
//	delay = min(backoff_ms * multiplier^a, max_backoff_ms)
//
// This is a pure, deterministic function — unlike the teacher's jittered
// computeBackoff, §8 requires the exact formula with no randomness so that
// retry timing is a testable property.
func computeBackoff(policy RetryPolicy, attempt int) time.Duration {
	delay := float64(policy.BackoffMS)
	for i := 0; i < attempt; i++ {
		delay *= policy.BackoffMultiplier
	}
	if policy.MaxBackoffMS > 0 && delay > float64(policy.MaxBackoffMS) {
		delay = float64(policy.MaxBackoffMS)
	}
	return time.Duration(delay) * time.Millisecond
}

// ComputeBackoff is the exported form of computeBackoff.
func ComputeBackoff(policy RetryPolicy, attempt int) time.Duration {
	return computeBackoff(policy, attempt)
}
