package monitor

import (
	"context"
	"log"
	"time"

	"github.com/glimpse/glimpse/pkg/screen"
)

// Kind identifies what triggered an event. The values double as the
// stored event_type.
type Kind string

const (
	KindFocus    Kind = "focus"
	KindTitle    Kind = "title"
	KindInterval Kind = "interval"
)

// Event is one discrete window-activity transition.
type Event struct {
	Kind  Kind
	Title string
}

// Monitor polls the capture provider and debounces raw focus snapshots
// into a strictly ordered stream of transition events. The transition
// loop and the periodic loop are independent producers feeding the same
// channel; ordering is only guaranteed within each producer.
type Monitor struct {
	provider screen.Provider
	poll     time.Duration
	events   chan Event

	// Focus state, touched only by the transition loop.
	hasFocus  bool
	lastID    uint32
	lastTitle string
}

func New(provider screen.Provider, pollInterval time.Duration) *Monitor {
	return &Monitor{
		provider: provider,
		poll:     pollInterval,
		events:   make(chan Event, 128),
	}
}

// Events returns the stream consumed by the capture loop.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Run polls for focus and title transitions until the context is
// canceled. Provider failures are absorbed: a failed probe is treated as
// "no focused window" for that tick and polling continues.
func (m *Monitor) Run(ctx context.Context) error {
	log.Printf("Watching window focus every %v", m.poll)

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.observe()
		}
	}
}

// RunPeriodic emits an interval event with the currently focused window's
// title on an independent cadence, whether or not anything changed.
func (m *Monitor) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if w := m.probe(); w != nil {
				m.events <- Event{Kind: KindInterval, Title: w.Title}
			}
		}
	}
}

// probe returns the focused, non-minimized, titled window, or nil.
func (m *Monitor) probe() *screen.Window {
	w, err := m.provider.FocusedWindow()
	if err != nil {
		log.Printf("Focus probe failed: %v", err)
		return nil
	}
	if w == nil || w.Title == "" || w.Minimized {
		return nil
	}
	return w
}

// observe advances the focus state machine by one tick. Only transitions
// to a window are observable events; losing focus just clears the held
// state.
func (m *Monitor) observe() {
	w := m.probe()
	if w == nil {
		m.hasFocus = false
		m.lastID = 0
		m.lastTitle = ""
		return
	}

	if !m.hasFocus || w.ID != m.lastID {
		m.hasFocus = true
		m.lastID = w.ID
		m.lastTitle = w.Title
		m.events <- Event{Kind: KindFocus, Title: w.Title}
		return
	}

	if w.Title != m.lastTitle {
		m.lastTitle = w.Title
		m.events <- Event{Kind: KindTitle, Title: w.Title}
	}
}
