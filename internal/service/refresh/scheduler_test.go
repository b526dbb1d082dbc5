package refresh

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRefresher struct {
	refreshes atomic.Int32
	lookbacks atomic.Int32
	panicOnce atomic.Bool
}

func (f *fakeRefresher) Refresh(ctx context.Context) (Result, error) {
	if f.refreshes.Add(1) == 1 && f.panicOnce.Load() {
		panic("boom")
	}
	return Result{}, nil
}

func (f *fakeRefresher) RefreshLookback(ctx context.Context) (Result, error) {
	f.lookbacks.Add(1)
	return Result{}, errors.New("db down")
}

func TestNextDaily(t *testing.T) {
	at := 3 * time.Hour

	assert.Equal(t,
		time.Date(2024, 3, 5, 3, 0, 0, 0, time.UTC),
		nextDaily(time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC), at, time.UTC))

	assert.Equal(t,
		time.Date(2024, 3, 6, 3, 0, 0, 0, time.UTC),
		nextDaily(time.Date(2024, 3, 5, 3, 0, 0, 0, time.UTC), at, time.UTC))

	assert.Equal(t,
		time.Date(2024, 4, 1, 3, 0, 0, 0, time.UTC),
		nextDaily(time.Date(2024, 3, 31, 22, 0, 0, 0, time.UTC), at, time.UTC))
}

func TestNewScheduler_Validation(t *testing.T) {
	_, err := NewScheduler(discard(), &fakeRefresher{}, time.Minute, "25:99", time.UTC)
	assert.Error(t, err)

	_, err = NewScheduler(discard(), &fakeRefresher{}, 0, "03:00", time.UTC)
	assert.Error(t, err)

	s, err := NewScheduler(discard(), &fakeRefresher{}, time.Minute, "03:30", nil)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour+30*time.Minute, s.dailyAt)
}

func TestScheduler_RunSurvivesPanicsAndErrors(t *testing.T) {
	f := &fakeRefresher{}
	f.panicOnce.Store(true)

	s, err := NewScheduler(discard(), f, 10*time.Millisecond, "03:00", time.UTC)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return f.refreshes.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	assert.Equal(t, int32(1), f.lookbacks.Load(), "lookback runs once at start")
}
