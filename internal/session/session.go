// Package session is the top-level coordinator of a catalog view. It owns
// the search term, the category selection, the current card set and the
// loader, and is the only place where they meet.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/catalog"
	"github.com/starford/vitrine/internal/clock"
	"github.com/starford/vitrine/internal/filter"
	"github.com/starford/vitrine/internal/loader"
	"github.com/starford/vitrine/internal/media"
	"github.com/starford/vitrine/internal/render"
	"github.com/starford/vitrine/internal/selection"
	"github.com/starford/vitrine/internal/sse"
	"github.com/starford/vitrine/internal/viewport"
)

// Status is the presentation state of the view.
type Status string

// View statuses. Empty and Failed are distinct empty states.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusFailed  Status = "failed"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
)

// Session event types.
const (
	EventCatalogLoaded = "catalog.loaded"
	EventCatalogFailed = "catalog.failed"
	EventViewRebuilt   = "view.rebuilt"
	EventViewEmpty     = "view.empty"
)

// DefaultViewportThrottle spaces loader triggers from viewport reports.
const DefaultViewportThrottle = 200 * time.Millisecond

// Publisher receives session events.
type Publisher interface {
	Publish(event sse.Event)
	PublishUnitEvent(event sse.Event, progress any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(sse.Event)               {}
func (nopPublisher) PublishUnitEvent(sse.Event, any) {}

// Config holds the tunables of a session.
type Config struct {
	Loader           loader.Config
	Grid             viewport.GridConfig
	ViewportThrottle time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock for the loader and the viewport throttle.
func WithClock(c clock.Clock) Option { return func(s *Session) { s.clock = c } }

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option { return func(s *Session) { s.logger = logger } }

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option { return func(s *Session) { s.pub = p } }

// WithSpawn replaces the goroutine launcher used for media resolutions.
func WithSpawn(fn func(func())) Option { return func(s *Session) { s.spawn = fn } }

// ViewState is a snapshot of everything a client renders.
type ViewState struct {
	Status    Status               `json:"status"`
	Error     string               `json:"error,omitempty"`
	Search    string               `json:"search"`
	Committed []string             `json:"committed"`
	ViewID    string               `json:"view_id,omitempty"`
	Units     []render.Unit        `json:"units"`
	Counts    map[render.State]int `json:"counts"`
}

// Progress summarises the current view for view.progress events.
type Progress struct {
	ViewID string               `json:"view_id"`
	Total  int                  `json:"total"`
	Counts map[render.State]int `json:"counts"`
}

// Session wires the catalog store, filter, selection machine, render
// scheduler, loader and viewport together.
type Session struct {
	cfg    Config
	store  *catalog.Store
	source catalog.Source
	clock  clock.Clock
	logger *slog.Logger
	pub    Publisher
	spawn  func(func())

	machine  *selection.Machine
	sched    *render.Scheduler
	loader   *loader.Loader
	grid     *viewport.Grid
	throttle *clock.Throttle

	// refreshMu keeps rebuilds and loader starts in the same order.
	refreshMu sync.Mutex

	mu      sync.Mutex
	search  string
	status  Status
	lastErr string
}

// New creates a session over store, loading from src and resolving media
// with res. It subscribes to store so that every successful load, however
// triggered, rebuilds the view.
func New(ctx context.Context, cfg Config, store *catalog.Store, src catalog.Source, res media.Resolver, opts ...Option) *Session {
	if cfg.ViewportThrottle == 0 {
		cfg.ViewportThrottle = DefaultViewportThrottle
	}
	s := &Session{
		cfg:    cfg,
		store:  store,
		source: src,
		clock:  clock.Real{},
		logger: slog.Default(),
		pub:    nopPublisher{},
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.grid = viewport.NewGrid(cfg.Grid)
	loaderOpts := []loader.Option{
		loader.WithClock(s.clock),
		loader.WithLogger(s.logger),
		loader.WithNotify(s.onUnit),
		loader.WithContext(ctx),
	}
	if s.spawn != nil {
		loaderOpts = append(loaderOpts, loader.WithSpawn(s.spawn))
	}
	s.loader = loader.New(cfg.Loader, s.grid, res, loaderOpts...)
	s.sched = render.NewScheduler(s.loader)

	s.throttle = clock.NewThrottle(s.clock, cfg.ViewportThrottle, func() { s.loader.Trigger() })
	s.grid.Subscribe(func() { s.throttle.Call() })

	s.machine = selection.NewMachine(selection.Compact, selection.Expanded)
	s.machine.OnCommit(func(selection.Selection) { s.refresh() })

	store.Subscribe(s.onCatalog)
	return s
}

// Load fetches the catalog. On failure the error state is entered only if
// nothing was loaded before; an existing view keeps being shown.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if !s.store.Loaded() {
		s.status = StatusLoading
	}
	s.mu.Unlock()

	err := s.store.Load(ctx, s.source)
	if err == nil {
		return nil
	}

	s.mu.Lock()
	s.lastErr = err.Error()
	if !s.store.Loaded() {
		s.status = StatusFailed
	}
	s.mu.Unlock()

	s.logger.Error("session: load failed", slog.String("error", err.Error()))
	s.pub.Publish(sse.Event{Type: EventCatalogFailed, Data: map[string]string{"error": err.Error()}})
	return fmt.Errorf("session: load: %w", err)
}

// Resume reloads the catalog when nothing is displayed: no records are
// loaded or the current filtered view is empty. It reports whether a load
// was attempted.
func (s *Session) Resume(ctx context.Context) (bool, error) {
	v := s.sched.Current()
	if len(s.store.All()) > 0 && v != nil && !v.Empty() {
		return false, nil
	}
	return true, s.Load(ctx)
}

func (s *Session) onCatalog(snap catalog.Snapshot) {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()

	s.pub.Publish(sse.Event{Type: EventCatalogLoaded, Data: map[string]any{
		"records":  len(snap.Records),
		"checksum": snap.Checksum,
		"source":   snap.Source,
	}})
	s.refresh()
}

// refresh re-runs the filter over the current snapshot and rebuilds the
// card set.
func (s *Session) refresh() {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.Lock()
	term := s.search
	s.mu.Unlock()

	committed := s.machine.Committed()
	records := filter.Apply(s.store.All(), term, committed)
	v := s.sched.Rebuild(records)

	s.mu.Lock()
	if s.store.Loaded() {
		if v.Empty() {
			s.status = StatusEmpty
		} else {
			s.status = StatusReady
		}
	}
	status := s.status
	s.mu.Unlock()

	s.logger.Debug("session: view rebuilt",
		slog.String("view", v.ID),
		slog.Int("units", v.Len()),
		slog.String("search", term),
		slog.String("selection", committed.String()))

	s.pub.Publish(sse.Event{Type: EventViewRebuilt, Data: map[string]any{
		"view_id":   v.ID,
		"units":     v.Len(),
		"search":    term,
		"committed": committed.Keys(),
		"status":    status,
	}})
	if status == StatusEmpty {
		s.pub.Publish(sse.Event{Type: EventViewEmpty, Data: map[string]string{
			"view_id": v.ID,
			"reason":  apperr.ErrEmptyResult.Error(),
		}})
	}
}

func (s *Session) onUnit(e loader.Event) {
	// A rebuild may land between the loader's discard check and this call.
	v := s.sched.Current()
	if v == nil || v.ID != e.ViewID {
		return
	}
	var progress any
	if e.Kind != loader.UnitLoading {
		progress = Progress{ViewID: v.ID, Total: v.Len(), Counts: v.Counts()}
	}
	s.pub.PublishUnitEvent(sse.Event{Type: string(e.Kind), Data: map[string]any{
		"view_id": e.ViewID,
		"unit":    e.Unit,
	}}, progress)
}

// Catalog returns the loaded snapshot.
func (s *Session) Catalog() catalog.Snapshot {
	return s.store.Snapshot()
}

// SetSearch replaces the search term and rebuilds the view.
func (s *Session) SetSearch(term string) {
	s.mu.Lock()
	s.search = term
	s.mu.Unlock()
	s.refresh()
}

// ClearSearch empties the search term and rebuilds the view.
func (s *Session) ClearSearch() {
	s.SetSearch("")
}

// Search returns the current search term.
func (s *Session) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// OpenSurface starts editing on a selector surface from the committed
// selection.
func (s *Session) OpenSurface(name selection.Surface) (selection.Selection, error) {
	return s.machine.SyncDraftFromCommitted(name)
}

// Toggle flips key in the draft of the named surface.
func (s *Session) Toggle(name selection.Surface, key string) (selection.Selection, error) {
	return s.machine.Toggle(name, key)
}

// Apply commits the draft of the named surface; the view is rebuilt.
func (s *Session) Apply(name selection.Surface) (selection.Selection, error) {
	return s.machine.Commit(name)
}

// Reset clears the draft of the named surface to ALL and commits it.
func (s *Session) Reset(name selection.Surface) (selection.Selection, error) {
	if err := s.machine.ResetDraft(name); err != nil {
		return selection.Selection{}, err
	}
	return s.machine.Commit(name)
}

// Draft returns the in-progress selection of the named surface.
func (s *Session) Draft(name selection.Surface) (selection.Selection, error) {
	return s.machine.Draft(name)
}

// Committed returns the selection the view is filtered by.
func (s *Session) Committed() selection.Selection {
	return s.machine.Committed()
}

// Scroll reports a new scroll offset.
func (s *Session) Scroll(y float64) { s.grid.Scroll(y) }

// Resize reports new viewport dimensions.
func (s *Session) Resize(width, height float64) { s.grid.Resize(width, height) }

// ReportViewport reports scroll offset and dimensions together.
func (s *Session) ReportViewport(scrollY, width, height float64) {
	s.grid.Report(scrollY, width, height)
}

// Viewport returns the current scroll offset and dimensions.
func (s *Session) Viewport() (scrollY, width, height float64) {
	return s.grid.State()
}

// State returns a snapshot of the view.
func (s *Session) State() ViewState {
	s.mu.Lock()
	st := ViewState{
		Status:    s.status,
		Error:     s.lastErr,
		Search:    s.search,
		Committed: s.machine.Committed().Keys(),
		Units:     []render.Unit{},
		Counts:    map[render.State]int{},
	}
	s.mu.Unlock()

	if v := s.sched.Current(); v != nil {
		st.ViewID = v.ID
		st.Units = v.Units()
		st.Counts = v.Counts()
	}
	return st
}

// Navigate returns the prompt/<file> target of a settled unit in the
// current view.
func (s *Session) Navigate(unitID string) (string, error) {
	v := s.sched.Current()
	if v == nil {
		return "", fmt.Errorf("session: unit %q: %w", unitID, apperr.ErrNotFound)
	}
	u, ok := v.Unit(unitID)
	if !ok {
		return "", fmt.Errorf("session: unit %q: %w", unitID, apperr.ErrNotFound)
	}
	if !u.State.Terminal() || u.Record.FileIdentifier == "" {
		return "", fmt.Errorf("session: unit %q is %s: %w", unitID, u.State, apperr.ErrNotNavigable)
	}
	return "prompt/" + u.Record.FileIdentifier, nil
}

// TriggerLoad requests a loader pass outside the viewport throttle.
func (s *Session) TriggerLoad() bool {
	return s.loader.Trigger()
}

// Close stops the loader timers.
func (s *Session) Close() {
	s.loader.Stop()
}

// IsLoadError reports whether err carries a catalog LoadError.
func IsLoadError(err error) bool {
	var le *apperr.LoadError
	return errors.As(err, &le)
}
