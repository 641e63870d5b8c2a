package convergence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func noSleep(ctx context.Context, d time.Duration) error {
	return nil
}

func scriptedProbe(samples []int64) func(ctx context.Context) (int64, error) {
	i := 0
	return func(ctx context.Context) (int64, error) {
		s := samples[i]
		if i < len(samples)-1 {
			i++
		}
		return s, nil
	}
}

func noAdvance(ctx context.Context) error { return nil }

func TestConvergeStopsOnStableWindow(t *testing.T) {
	samples := []int64{3, 5, 5, 5, 8, 8, 8, 8}

	measure, err := Converge(context.Background(), Options{
		Probe:   scriptedProbe(samples),
		Advance: noAdvance,
		Stable:  3,
		Sleep:   noSleep,
	})
	require.NoError(t, err)
	require.Equal(t, int64(8), measure)

	// a smaller stability threshold converges on the earlier plateau
	measure, err = Converge(context.Background(), Options{
		Probe:   scriptedProbe(samples),
		Advance: noAdvance,
		Stable:  2,
		Sleep:   noSleep,
	})
	require.NoError(t, err)
	require.Equal(t, int64(5), measure)
}

func TestConvergeIterationCap(t *testing.T) {
	n := int64(0)
	probe := func(ctx context.Context) (int64, error) {
		n++
		return n, nil
	}

	_, err := Converge(context.Background(), Options{
		Probe:         probe,
		Advance:       noAdvance,
		Stable:        3,
		MaxIterations: 25,
		Sleep:         noSleep,
	})
	require.ErrorIs(t, err, ErrExhausted)
}

func TestConvergeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Converge(ctx, Options{
		Probe:    scriptedProbe([]int64{1, 2, 3}),
		Advance:  noAdvance,
		Stable:   2,
		MinDelay: time.Millisecond,
		MaxDelay: time.Millisecond * 2,
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestConvergeCountsAdvances(t *testing.T) {
	advances := 0
	advance := func(ctx context.Context) error {
		advances++
		return nil
	}

	_, err := Converge(context.Background(), Options{
		Probe:   scriptedProbe([]int64{4, 4, 4}),
		Advance: advance,
		Stable:  2,
		Sleep:   noSleep,
	})
	require.NoError(t, err)
	// one advance per sample: 4 (reset), 4 (1), 4 (2)
	require.Equal(t, 3, advances)
}
