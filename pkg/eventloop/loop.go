// Package eventloop runs the goroutine that owns a property runtime. Other
// goroutines never touch cells directly; they post callbacks that the owner
// runs between frames.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrClosed = errors.New("eventloop: closed")

// Animator is implemented by *animation.Driver.
type Animator interface {
	AdvanceTime(now time.Time)
	HasActiveAnimations() bool
}

type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}

	animator      Animator
	frameInterval time.Duration
	onFrame       func(now time.Time)
	logger        *slog.Logger
	now           func() time.Time
}

type Option func(l *Loop)

func WithAnimator(a Animator) Option {
	return func(l *Loop) {
		l.animator = a
	}
}

// WithFrameInterval sets how often Run checks for running animations. The
// default is 60 frames per second.
func WithFrameInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.frameInterval = d
		}
	}
}

// WithFrameFunc installs the function that reads the graph after animation
// time has advanced, typically a renderer evaluating its trackers.
func WithFrameFunc(fn func(now time.Time)) Option {
	return func(l *Loop) {
		l.onFrame = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

func New(opts ...Option) *Loop {
	l := &Loop{
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
		frameInterval: time.Second / 60,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn to run on the owner goroutine. It is safe to call from any
// goroutine, including the owner itself.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Drain runs every queued callback, including callbacks queued by the ones
// it runs, and returns how many ran. It must be called on the owner
// goroutine.
func (l *Loop) Drain() int {
	ran := 0
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
		}
		ran += len(batch)
	}
}

// Frame advances animation time if any animation is running and then calls
// the frame function.
func (l *Loop) Frame() {
	if l.animator == nil || !l.animator.HasActiveAnimations() {
		return
	}
	now := l.now()
	l.animator.AdvanceTime(now)
	if l.onFrame != nil {
		l.onFrame(now)
	}
}

// Run makes the calling goroutine the owner: it runs posted callbacks as they
// arrive and drives animation frames until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.frameInterval)
	defer ticker.Stop()

	l.logger.Debug("event loop started", "frame_interval", l.frameInterval)
	defer l.logger.Debug("event loop stopped")

	for {
		l.Drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			l.Drain()
			return nil
		case <-l.wake:
		case <-ticker.C:
			l.Frame()
		}
	}
}

// Close stops accepting callbacks. Run returns after running the ones
// already queued.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
}
