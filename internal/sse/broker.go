// Package sse implements a Server-Sent Events broker for session updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/starford/vitrine/internal/clock"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ProgressEvent is the throttled summary emitted after unit events.
const ProgressEvent = "view.progress"

const (
	defaultProgressThrottle = 500 * time.Millisecond
	clientBuffer            = 64
)

// publishReq is one queued event. Plain and unit events share a queue so
// clients see them in publish order.
type publishReq struct {
	event    Event
	unit     bool
	progress any
}

type replayed struct {
	seq int
	raw []byte
}

// Option configures a Broker.
type Option func(*Broker)

// WithProgressThrottle sets the minimum gap between view.progress events.
func WithProgressThrottle(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.progressMin = d
		}
	}
}

// WithClock replaces the wall clock used by the progress throttle.
func WithClock(c clock.Clock) Option { return func(b *Broker) { b.clock = c } }

// WithReplay marks event types whose latest occurrence is sent to every new
// subscriber, so a client connecting mid-session sees the current state.
func WithReplay(types ...string) Option {
	return func(b *Broker) {
		for _, t := range types {
			b.replay[t] = struct{}{}
		}
	}
}

// WithHeartbeat sends an SSE comment line at the given interval on every
// open stream. Zero disables it.
func WithHeartbeat(d time.Duration) Option { return func(b *Broker) { b.heartbeat = d } }

// Broker fans session events out to SSE clients.
//
// A single loop goroutine owns the clients, the replay table and the
// progress throttle; public methods talk to it over channels. Progress
// summaries are throttled on the leading edge and the last suppressed one
// is flushed when the window closes, so clients always end on the final
// counts.
type Broker struct {
	progressMin time.Duration
	clock       clock.Clock
	replay      map[string]struct{}
	heartbeat   time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan publishReq
	flushCh       chan struct{}
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its loop.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		progressMin:   defaultProgressThrottle,
		clock:         clock.Real{},
		replay:        make(map[string]struct{}),
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan publishReq, 512),
		flushCh:       make(chan struct{}, 1),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	latest := make(map[string]replayed)
	seq := 0

	var (
		lastProgress time.Time
		pending      any
		flushArmed   bool
		flushTimer   clock.Timer
	)

	send := func(raw []byte) {
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall the loop.
			}
		}
	}

	broadcast := func(event Event) {
		raw, err := encode(event)
		if err != nil {
			return
		}
		if _, ok := b.replay[event.Type]; ok {
			seq++
			latest[event.Type] = replayed{seq: seq, raw: raw}
		}
		send(raw)
	}

	emitProgress := func(progress any) {
		lastProgress = b.clock.Now()
		broadcast(Event{Type: ProgressEvent, Data: progress})
	}

	for {
		select {
		case <-b.stopCh:
			if flushTimer != nil {
				flushTimer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}
			backlog := make([]replayed, 0, len(latest))
			for _, r := range latest {
				backlog = append(backlog, r)
			}
			sort.Slice(backlog, func(i, j int) bool { return backlog[i].seq < backlog[j].seq })
			for _, r := range backlog {
				select {
				case ch <- r.raw:
				default:
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case req := <-b.publishCh:
			if !req.unit {
				broadcast(req.event)
				continue
			}
			var now any
			if req.progress != nil {
				if elapsed := b.clock.Now().Sub(lastProgress); elapsed >= b.progressMin {
					now = req.progress
					pending = nil
				} else {
					pending = req.progress
					if !flushArmed {
						flushArmed = true
						flushTimer = b.clock.AfterFunc(b.progressMin-elapsed, func() {
							select {
							case b.flushCh <- struct{}{}:
							default:
							}
						})
					}
				}
			}
			broadcast(req.event)
			if now != nil {
				emitProgress(now)
			}

		case <-b.flushCh:
			flushArmed = false
			if pending != nil {
				p := pending
				pending = nil
				emitProgress(p)
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel. Replayed events are
// queued on it before any live event.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- publishReq{event: event}:
	case <-b.stopped:
	}
}

// PublishUnitEvent publishes a unit transition followed by a throttled
// view.progress event carrying progress. A nil progress skips the summary.
func (b *Broker) PublishUnitEvent(event Event, progress any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- publishReq{event: event, unit: true, progress: progress}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var beat <-chan time.Time
	if b.heartbeat > 0 {
		ticker := time.NewTicker(b.heartbeat)
		defer ticker.Stop()
		beat = ticker.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-beat:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
