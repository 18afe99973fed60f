package countdown

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRemaining_String(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{49*time.Hour + 5*time.Minute, "2d 1h"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "3h 4m 5s"},
		{4*time.Minute + 5*time.Second, "4m 5s"},
		{9 * time.Second, "9s"},
		{0, "0s"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, breakdown(tc.d).String())
	}
}

func TestClock_TransitionsOnceAcrossTicks(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := base.Add(2 * time.Second)

	var fired atomic.Int64
	c := New(&end, func() { fired.Add(1) }, zap.NewNop())

	now := base
	c.now = func() time.Time { return now }

	c.Tick()
	assert.False(t, c.HasEnded())
	r, ok := c.Remaining()
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, r.Total)
	assert.Equal(t, int64(0), fired.Load())

	// One tick past the deadline.
	now = base.Add(3 * time.Second)
	c.Tick()
	assert.True(t, c.HasEnded())
	assert.Equal(t, int64(1), fired.Load())
	r, ok = c.Remaining()
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), r.Total)

	// Further ticks keep reporting ended without re-firing.
	now = base.Add(10 * time.Second)
	c.Tick()
	c.Tick()
	assert.True(t, c.HasEnded())
	assert.Equal(t, int64(1), fired.Load())
}

func TestClock_NilEndTimeNeverTransitions(t *testing.T) {
	var fired atomic.Int64
	c := New(nil, func() { fired.Add(1) }, zap.NewNop())

	c.Tick()
	c.Tick()
	_, ok := c.Remaining()
	assert.False(t, ok)
	assert.False(t, c.HasEnded())
	assert.Equal(t, int64(0), fired.Load())
}

func TestClock_SetEndTimeIgnoredAfterEnd(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := base.Add(time.Second)

	c := New(&end, func() {}, zap.NewNop())
	now := base.Add(2 * time.Second)
	c.now = func() time.Time { return now }

	c.Tick()
	require.True(t, c.HasEnded())

	later := base.Add(time.Hour)
	c.SetEndTime(&later)
	c.Tick()
	assert.True(t, c.HasEnded())
}

func TestClock_StartStop(t *testing.T) {
	end := time.Now().Add(time.Hour)
	c := New(&end, func() {}, zap.NewNop())

	c.Start(context.Background())
	defer c.Stop()

	assert.Eventually(t, func() bool {
		_, ok := c.Remaining()
		return ok
	}, time.Second, 5*time.Millisecond)
	c.Stop()
}
