package typing

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu      sync.Mutex
	started []int64
	stopped []int64
}

func (r *recordingNotifier) TypingStarted(channelID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, channelID)
}

func (r *recordingNotifier) TypingStopped(channelID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, channelID)
}

func (r *recordingNotifier) snapshot() (started, stopped []int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.started...), append([]int64(nil), r.stopped...)
}

func TestTracker_BurstCollapsesToOnePair(t *testing.T) {
	rec := &recordingNotifier{}
	clk := clock.NewMock()
	tr := newTracker(rec, 3*time.Second, clk)

	tr.Touch(42)
	clk.Add(time.Second)
	tr.Touch(42)
	clk.Add(time.Second)
	tr.Touch(42)

	started, stopped := rec.snapshot()
	require.Equal(t, []int64{42}, started)
	require.Empty(t, stopped)

	// Each touch pushed the deadline; only 3s after the last one expires.
	clk.Add(3 * time.Second)
	started, stopped = rec.snapshot()
	require.Equal(t, []int64{42}, started)
	require.Equal(t, []int64{42}, stopped)
}

func TestTracker_StopFiresImmediately(t *testing.T) {
	rec := &recordingNotifier{}
	clk := clock.NewMock()
	tr := newTracker(rec, 3*time.Second, clk)

	tr.Touch(7)
	tr.Stop(7)

	_, stopped := rec.snapshot()
	require.Equal(t, []int64{7}, stopped)

	// The cancelled timer must not fire a second stop.
	clk.Add(10 * time.Second)
	_, stopped = rec.snapshot()
	require.Equal(t, []int64{7}, stopped)
}

func TestTracker_StopWithoutBurstIsNoop(t *testing.T) {
	rec := &recordingNotifier{}
	tr := newTracker(rec, 3*time.Second, clock.NewMock())

	tr.Stop(7)

	started, stopped := rec.snapshot()
	require.Empty(t, started)
	require.Empty(t, stopped)
}

func TestTracker_IndependentChannels(t *testing.T) {
	rec := &recordingNotifier{}
	clk := clock.NewMock()
	tr := newTracker(rec, 3*time.Second, clk)

	tr.Touch(1)
	clk.Add(2 * time.Second)
	tr.Touch(2)

	started, _ := rec.snapshot()
	require.ElementsMatch(t, []int64{1, 2}, started)

	// Channel 1 expires first.
	clk.Add(time.Second)
	_, stopped := rec.snapshot()
	require.Equal(t, []int64{1}, stopped)

	clk.Add(2 * time.Second)
	_, stopped = rec.snapshot()
	require.ElementsMatch(t, []int64{1, 2}, stopped)
}

func TestTracker_StopAll(t *testing.T) {
	rec := &recordingNotifier{}
	clk := clock.NewMock()
	tr := newTracker(rec, 3*time.Second, clk)

	tr.Touch(1)
	tr.Touch(2)
	tr.StopAll()

	_, stopped := rec.snapshot()
	require.ElementsMatch(t, []int64{1, 2}, stopped)

	clk.Add(10 * time.Second)
	_, stopped = rec.snapshot()
	require.Len(t, stopped, 2)
}
