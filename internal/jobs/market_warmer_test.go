package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeitgeistpm/zeitgeist-go/internal/markets"
)

type countingLister struct {
	calls atomic.Int64
	err   error
}

func (l *countingLister) ListAll(ctx context.Context) ([]*markets.Market, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return []*markets.Market{{MarketID: 1}, {MarketID: 2}}, nil
}

func TestMarketWarmer_RunOnce(t *testing.T) {
	lister := &countingLister{}
	w := NewMarketWarmer(lister, nil, MarketWarmerConfig{Interval: time.Minute})

	w.RunOnce(context.Background())

	count, at, err := w.Status()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.False(t, at.IsZero())
}

func TestMarketWarmer_FailureKeepsLastCount(t *testing.T) {
	lister := &countingLister{}
	w := NewMarketWarmer(lister, nil, MarketWarmerConfig{Interval: time.Minute})
	w.RunOnce(context.Background())

	lister.err = errors.New("node unreachable")
	w.RunOnce(context.Background())

	count, _, err := w.Status()
	assert.EqualError(t, err, "node unreachable")
	assert.Equal(t, 2, count)
}

func TestMarketWarmer_StartTicksUntilCancelled(t *testing.T) {
	lister := &countingLister{}
	w := NewMarketWarmer(lister, nil, MarketWarmerConfig{Interval: 10 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	require.Eventually(t, func() bool { return lister.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	w.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("warmer did not stop")
	}
}

func TestMarketWarmer_RejectsZeroInterval(t *testing.T) {
	w := NewMarketWarmer(&countingLister{}, nil, MarketWarmerConfig{})
	assert.Error(t, w.Start(context.Background()))
}
