package eventloop_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/delaneyj/propgraph/animation"
	"github.com/delaneyj/propgraph/pkg/eventloop"
	"github.com/delaneyj/propgraph/property"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestPostFromManyGoroutines(t *testing.T) {
	loop := eventloop.New(eventloop.WithLogger(discard))

	const (
		producers = 8
		each      = 100
	)
	count := 0
	var wg sync.WaitGroup
	for range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				assert.NoError(t, loop.Post(func() { count++ }))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*each, loop.Drain())
	assert.Equal(t, producers*each, count)
	assert.Zero(t, loop.Drain())
}

func TestDrainRunsNestedPosts(t *testing.T) {
	loop := eventloop.New(eventloop.WithLogger(discard))

	var order []int
	require.NoError(t, loop.Post(func() {
		order = append(order, 1)
		loop.Post(func() { order = append(order, 3) })
	}))
	require.NoError(t, loop.Post(func() { order = append(order, 2) }))

	assert.Equal(t, 3, loop.Drain())
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestPostAfterClose(t *testing.T) {
	loop := eventloop.New(eventloop.WithLogger(discard))
	loop.Close()
	loop.Close()
	assert.ErrorIs(t, loop.Post(func() {}), eventloop.ErrClosed)
}

func TestRunStopsOnCancel(t *testing.T) {
	loop := eventloop.New(eventloop.WithLogger(discard))
	ctx, cancel := context.WithCancel(context.Background())

	ran := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		errc <- loop.Run(ctx)
	}()
	require.NoError(t, loop.Post(func() { close(ran) }))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("posted callback never ran")
	}

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRunDrivesAnimation(t *testing.T) {
	t0 := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	rt := property.NewRuntime(property.WithLogger(discard))
	driver := animation.NewDriver(rt, t0)
	c := property.New(rt, 0.0, property.Named("x"))

	clock := t0
	var (
		loop   *eventloop.Loop
		frames []float64
	)
	loop = eventloop.New(
		eventloop.WithLogger(discard),
		eventloop.WithAnimator(driver),
		eventloop.WithFrameInterval(time.Millisecond),
		eventloop.WithClock(func() time.Time {
			clock = clock.Add(10 * time.Millisecond)
			return clock
		}),
		eventloop.WithFrameFunc(func(time.Time) {
			frames = append(frames, c.Get())
			if !c.HasBinding() {
				loop.Close()
			}
		}),
	)

	require.NoError(t, loop.Post(func() {
		animation.SetAnimatedValue(c, driver, 100, animation.Details{Duration: 100 * time.Millisecond})
		c.Get()
	}))

	errc := make(chan error, 1)
	go func() {
		errc <- loop.Run(context.Background())
	}()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("animation never finished")
	}

	require.Len(t, frames, 10)
	for i := 1; i < len(frames); i++ {
		assert.Greater(t, frames[i], frames[i-1])
	}
	assert.Equal(t, 100.0, frames[len(frames)-1])
	assert.Equal(t, 100.0, c.Get())
	assert.False(t, driver.HasActiveAnimations())
}
