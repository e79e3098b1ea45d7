package generation_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/padinfo/internal/generation"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func runInBackground(t *testing.T, run func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRefresher_RetriesSoonAfterFailure(t *testing.T) {
	t.Parallel()

	ix := emptyIndex(t)
	var calls atomic.Int32
	build := func(context.Context) (*generation.Generation, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("dataset unreadable")
		}
		return &generation.Generation{Seq: 7, Index: ix}, nil
	}
	var h generation.Holder
	r := generation.NewRefresher(build, &h, generation.RefresherConfig{
		Interval:      time.Hour,
		RetryInterval: 10 * time.Millisecond,
		Log:           quiet,
	})
	runInBackground(t, r.Run)

	require.Eventually(t, func() bool { return h.Current() != nil }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(7), h.Current().Seq)

	lastOK, lastErr := r.Status()
	assert.NoError(t, lastErr)
	assert.False(t, lastOK.IsZero())

	assert.Never(t, func() bool { return calls.Load() > 2 }, 50*time.Millisecond, 5*time.Millisecond,
		"a success waits the full interval")
}

func TestRefresher_TriggersCoalesce(t *testing.T) {
	t.Parallel()

	ix := emptyIndex(t)
	release := make(chan struct{})
	started := make(chan struct{}, 10)
	var calls atomic.Int32
	build := func(context.Context) (*generation.Generation, error) {
		n := calls.Add(1)
		started <- struct{}{}
		if n == 1 {
			<-release
		}
		return &generation.Generation{Seq: uint64(n), Index: ix}, nil
	}
	var h generation.Holder
	r := generation.NewRefresher(build, &h, generation.RefresherConfig{Interval: time.Hour, Log: quiet})
	runInBackground(t, r.Run)

	<-started
	for range 5 {
		r.Trigger()
	}
	close(release)

	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return calls.Load() > 2 }, 50*time.Millisecond, 5*time.Millisecond)
	require.Eventually(t, func() bool { return h.Current().Seq == 2 }, time.Second, 5*time.Millisecond)
}

func TestRefresher_RefreshNeverOverlaps(t *testing.T) {
	t.Parallel()

	ix := emptyIndex(t)
	var running, maxRunning atomic.Int32
	build := func(context.Context) (*generation.Generation, error) {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return &generation.Generation{Index: ix}, nil
	}
	var h generation.Holder
	var published atomic.Int32
	r := generation.NewRefresher(build, &h, generation.RefresherConfig{
		Log:       quiet,
		OnPublish: func(*generation.Generation) { published.Add(1) },
	})

	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() {
			_, err := r.Refresh(context.Background())
			assert.NoError(t, err)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxRunning.Load())
	assert.Equal(t, int32(4), published.Load())
}

func TestRefresher_FailedRefreshKeepsCurrent(t *testing.T) {
	t.Parallel()

	ix := emptyIndex(t)
	fail := false
	build := func(context.Context) (*generation.Generation, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return &generation.Generation{Seq: 1, Index: ix}, nil
	}
	var h generation.Holder
	r := generation.NewRefresher(build, &h, generation.RefresherConfig{Log: quiet})

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.Fresh(context.Background()))

	fail = true
	_, err = r.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, uint64(1), h.Current().Seq)
	_, lastErr := r.Status()
	assert.EqualError(t, lastErr, "boom")
}

func TestRefresher_FreshGoesStaleAfterTwoIntervals(t *testing.T) {
	t.Parallel()

	ix := emptyIndex(t)
	build := func(context.Context) (*generation.Generation, error) {
		return &generation.Generation{Seq: 1, Index: ix}, nil
	}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r := generation.NewRefresher(build, &generation.Holder{}, generation.RefresherConfig{
		Interval: time.Hour,
		Log:      quiet,
		Now:      func() time.Time { return now },
	})

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	require.NoError(t, r.Fresh(context.Background()), "exactly two intervals is still fresh")

	now = now.Add(30 * time.Minute)
	err = r.Fresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index is 2h30m0s old")

	r.SetIntervals(2*time.Hour, time.Minute)
	require.NoError(t, r.Fresh(context.Background()), "a longer interval widens the window")

	_, err = r.Refresh(context.Background())
	require.NoError(t, err)
	r.SetIntervals(time.Hour, time.Minute)
	require.NoError(t, r.Fresh(context.Background()), "a new build resets the age")
}

func TestRefresher_FreshBeforeFirstBuild(t *testing.T) {
	t.Parallel()

	r := generation.NewRefresher(nil, &generation.Holder{}, generation.RefresherConfig{Log: quiet})
	require.ErrorIs(t, r.Fresh(context.Background()), generation.ErrNotReady)
}

func TestDirWatcher_Debounces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var fired atomic.Int32
	w, err := generation.NewDirWatcher([]string{dir, dir, ""}, 50*time.Millisecond, func() { fired.Add(1) }, quiet)
	require.NoError(t, err)
	runInBackground(t, w.Run)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	for i := range 3 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "monster_info_list.json"), []byte{byte('0' + i)}, 0o644))
	}

	require.Eventually(t, func() bool { return fired.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return fired.Load() > 1 }, 150*time.Millisecond, 10*time.Millisecond)
}

func TestNewDirWatcher_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := generation.NewDirWatcher([]string{filepath.Join(t.TempDir(), "nope")}, 0, func() {}, quiet)
	require.Error(t, err)
}
