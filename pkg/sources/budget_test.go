package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBudget_AllowsUpToLimit(t *testing.T) {
	budget := NewRequestBudget(3, time.Minute)

	now := time.Now()
	budget.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.Equal(t, time.Duration(0), budget.tryAcquire())
	}
	assert.Equal(t, 0, budget.Remaining())

	// Fourth request has to wait for the window
	wait := budget.tryAcquire()
	assert.Equal(t, time.Minute, wait)
}

func TestRequestBudget_WindowSlides(t *testing.T) {
	budget := NewRequestBudget(2, time.Minute)

	now := time.Now()
	budget.now = func() time.Time { return now }

	require.Equal(t, time.Duration(0), budget.tryAcquire())
	require.Equal(t, time.Duration(0), budget.tryAcquire())
	require.NotEqual(t, time.Duration(0), budget.tryAcquire())

	// Advance past the window: both slots free again
	now = now.Add(61 * time.Second)
	assert.Equal(t, 2, budget.Remaining())
	assert.Equal(t, time.Duration(0), budget.tryAcquire())
}

func TestRequestBudget_WaitHonorsContext(t *testing.T) {
	budget := NewRequestBudget(1, time.Hour)
	require.NoError(t, budget.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := budget.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
