package graph_test

import (
	"testing"
	"time"

	"github.com/dshills/workflow-engine/graph"
	"github.com/stretchr/testify/require"
)

func TestComputeBackoffExponential(t *testing.T) {
	policy := graph.RetryPolicy{BackoffMS: 1000, BackoffMultiplier: 2.0, MaxBackoffMS: 30000}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1000 * time.Millisecond},
		{1, 2000 * time.Millisecond},
		{2, 4000 * time.Millisecond},
		{3, 8000 * time.Millisecond},
	}
	for _, c := range cases {
		require.Equal(t, c.want, graph.ComputeBackoff(policy, c.attempt))
	}
}

func TestComputeBackoffCeiling(t *testing.T) {
	policy := graph.RetryPolicy{BackoffMS: 1000, BackoffMultiplier: 2.0, MaxBackoffMS: 3000}
	require.Equal(t, 3000*time.Millisecond, graph.ComputeBackoff(policy, 5))
}

func TestEffectivePolicyPrecedence(t *testing.T) {
	toolDefault := graph.RetryPolicy{MaxRetries: 5, BackoffMS: 500, BackoffMultiplier: 1.5, MaxBackoffMS: 10000}
	nodeOverride := graph.RetryPolicy{MaxRetries: 1, BackoffMS: 100, BackoffMultiplier: 1.0, MaxBackoffMS: 100}

	require.Equal(t, graph.DefaultRetryPolicy, graph.EffectivePolicy(nil, nil))
	require.Equal(t, toolDefault, graph.EffectivePolicy(nil, &toolDefault))
	require.Equal(t, nodeOverride, graph.EffectivePolicy(&nodeOverride, &toolDefault))
}

func TestRetryPolicyValidate(t *testing.T) {
	valid := graph.RetryPolicy{MaxRetries: 3, BackoffMultiplier: 2.0, BackoffMS: 1000, MaxBackoffMS: 30000}
	require.NoError(t, valid.Validate())

	negative := graph.RetryPolicy{MaxRetries: -1, BackoffMultiplier: 2.0}
	require.ErrorIs(t, negative.Validate(), graph.ErrInvalidRetryPolicy)

	lowMultiplier := graph.RetryPolicy{MaxRetries: 1, BackoffMultiplier: 0.5}
	require.ErrorIs(t, lowMultiplier.Validate(), graph.ErrInvalidRetryPolicy)

	inverted := graph.RetryPolicy{MaxRetries: 1, BackoffMultiplier: 2.0, BackoffMS: 5000, MaxBackoffMS: 1000}
	require.ErrorIs(t, inverted.Validate(), graph.ErrInvalidRetryPolicy)
}
