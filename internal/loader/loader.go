// Package loader resolves media for card units in throttled, capped
// batches, prioritising cards near the viewport.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/clock"
	"github.com/starford/vitrine/internal/media"
	"github.com/starford/vitrine/internal/render"
	"github.com/starford/vitrine/internal/viewport"
)

// Defaults match the catalog page.
const (
	DefaultBatchSize     = 20
	DefaultThrottleDelay = 200 * time.Millisecond
)

const (
	reasonMissingRef = "missing media reference"
	reasonFailed     = "Image failed to load"
)

// Config tunes pass size and cadence.
type Config struct {
	BatchSize     int
	ThrottleDelay time.Duration
	// KickoffDelay postpones the first pass after a rebuild.
	KickoffDelay time.Duration
	// MaxIdlePasses stops the self-rescheduling loop after that many
	// consecutive passes selected nothing. Zero keeps polling while any
	// unit is unsettled.
	MaxIdlePasses int
}

// EventKind names a unit transition.
type EventKind string

// Unit transitions reported to the notifier.
const (
	UnitLoading EventKind = "card.loading"
	UnitLoaded  EventKind = "card.loaded"
	UnitFailed  EventKind = "card.error"
)

// Event reports a unit transition on the current view.
type Event struct {
	Kind   EventKind
	ViewID string
	Unit   render.Unit
}

// Option configures a Loader.
type Option func(*Loader)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option { return func(l *Loader) { l.clock = c } }

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option { return func(l *Loader) { l.logger = logger } }

// WithNotify registers the transition observer. It is only called for
// units of the view currently displayed.
func WithNotify(fn func(Event)) Option { return func(l *Loader) { l.notify = fn } }

// WithSpawn replaces the goroutine launcher used for resolutions.
func WithSpawn(fn func(func())) Option { return func(l *Loader) { l.spawn = fn } }

// WithContext sets the context passed to resolutions.
func WithContext(ctx context.Context) Option { return func(l *Loader) { l.ctx = ctx } }

// Loader runs visibility-gated passes over the current view. Passes are
// serialised by a busy flag; triggers during a pass are coalesced.
type Loader struct {
	cfg      Config
	viewport viewport.Viewport
	resolver media.Resolver
	clock    clock.Clock
	logger   *slog.Logger
	notify   func(Event)
	spawn    func(func())
	ctx      context.Context

	mu      sync.Mutex
	view    *render.View
	busy    bool
	idle    int
	passes  int
	timer   clock.Timer
	kickoff clock.Timer
	stopped bool
}

// New creates a loader. Zero config values fall back to the defaults.
func New(cfg Config, vp viewport.Viewport, res media.Resolver, opts ...Option) *Loader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ThrottleDelay <= 0 {
		cfg.ThrottleDelay = DefaultThrottleDelay
	}
	l := &Loader{
		cfg:      cfg,
		viewport: vp,
		resolver: res,
		clock:    clock.Real{},
		logger:   slog.Default(),
		spawn:    func(f func()) { go f() },
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Visible is the prefetch predicate: one extra viewport ahead, half a
// viewport behind.
func Visible(r viewport.Rect, viewportHeight float64) bool {
	return r.Top <= 2*viewportHeight && r.Bottom >= -0.5*viewportHeight
}

// Start makes v the current view and schedules its first pass.
func (l *Loader) Start(v *render.View) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.view = v
	l.idle = 0
	if l.kickoff != nil {
		l.kickoff.Stop()
		l.kickoff = nil
	}
	delay := l.cfg.KickoffDelay
	if delay > 0 {
		l.kickoff = l.clock.AfterFunc(delay, func() { l.trigger(true) })
	}
	l.mu.Unlock()

	if delay <= 0 {
		l.trigger(true)
	}
}

// Trigger requests a pass from an external event such as a scroll. It
// reports whether a pass ran; a trigger during a running pass is dropped.
func (l *Loader) Trigger() bool {
	return l.trigger(true)
}

func (l *Loader) trigger(external bool) bool {
	l.mu.Lock()
	if external {
		l.idle = 0
	}
	v := l.view
	if l.stopped || l.busy || v == nil || v.Unsettled() == 0 {
		l.mu.Unlock()
		return false
	}
	l.busy = true
	l.passes++
	pass := l.passes
	l.mu.Unlock()

	selected := l.pass(v)
	l.logger.Debug("loader: pass",
		slog.Int("pass", pass),
		slog.String("view", v.ID),
		slog.Int("selected", selected))

	l.mu.Lock()
	if selected == 0 {
		l.idle++
	} else {
		l.idle = 0
	}
	if !l.stopped {
		l.timer = l.clock.AfterFunc(l.cfg.ThrottleDelay, l.release)
	}
	l.mu.Unlock()
	return true
}

// release clears the busy flag after the throttle delay and re-arms the
// loop while the current view has unsettled units.
func (l *Loader) release() {
	l.mu.Lock()
	l.busy = false
	l.timer = nil
	v := l.view
	idleOut := l.cfg.MaxIdlePasses > 0 && l.idle >= l.cfg.MaxIdlePasses
	stopped := l.stopped
	l.mu.Unlock()

	if stopped || v == nil || v.Unsettled() == 0 {
		return
	}
	if idleOut {
		l.logger.Debug("loader: idle, waiting for external trigger", slog.String("view", v.ID))
		return
	}
	l.trigger(false)
}

// pass selects up to BatchSize visible Pending units in scan order and
// starts their resolutions. It returns the number selected.
func (l *Loader) pass(v *render.View) int {
	height := l.viewport.Height()
	selected := 0
	for _, u := range v.Units() {
		if selected >= l.cfg.BatchSize {
			break
		}
		if u.State != render.Pending {
			continue
		}
		if !Visible(l.viewport.Bounds(u.Slot), height) {
			continue
		}
		if u.Record.MediaRef == "" {
			if failed, ok := v.Fail(u.ID, reasonMissingRef); ok {
				l.emit(v, UnitFailed, failed)
			}
			continue
		}
		if !v.MarkLoading(u.ID) {
			continue
		}
		selected++
		u.State = render.Loading
		l.emit(v, UnitLoading, u)
		l.dispatch(v, u.ID, u.Record.MediaRef)
	}
	return selected
}

func (l *Loader) dispatch(v *render.View, id, ref string) {
	l.spawn(func() {
		d, err := l.resolver.Resolve(l.ctx, ref)
		if err != nil {
			reason := reasonFailed
			var mre *apperr.MediaResolutionError
			if errors.As(err, &mre) && mre.Reason != "" {
				reason = mre.Reason
			}
			l.logger.Debug("loader: resolution failed",
				slog.String("ref", ref),
				slog.String("error", err.Error()))
			if failed, ok := v.Fail(id, reason); ok {
				l.emit(v, UnitFailed, failed)
			}
			return
		}
		if loaded, ok := v.Resolve(id, d); ok {
			l.emit(v, UnitLoaded, loaded)
		}
	})
}

func (l *Loader) emit(v *render.View, kind EventKind, u render.Unit) {
	if v.Discarded() {
		return
	}
	if l.notify != nil {
		l.notify(Event{Kind: kind, ViewID: v.ID, Unit: u})
	}
}

// Stop cancels pending timers. In-flight resolutions still complete.
func (l *Loader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if l.kickoff != nil {
		l.kickoff.Stop()
		l.kickoff = nil
	}
}

// Passes returns how many passes have run.
func (l *Loader) Passes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.passes
}

// Busy reports whether a pass is inside its throttle window.
func (l *Loader) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}
