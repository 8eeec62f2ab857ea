package capture

import (
	"context"
	"log"

	"github.com/glimpse/glimpse/internal/monitor"
)

// Run consumes monitor events until the context is canceled or the
// channel closes. A failed capture is logged once and dropped; nothing
// here ever stops the monitoring loop.
func (e *Engine) Run(ctx context.Context, events <-chan monitor.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.handle(ev)
		}
	}
}

func (e *Engine) handle(ev monitor.Event) {
	switch ev.Kind {
	case monitor.KindFocus:
		if !e.cfg.Capture.OnFocus {
			return
		}
	case monitor.KindTitle:
		if !e.cfg.Capture.OnTitleChange {
			return
		}
	}

	record, err := e.Capture(ev.Title, string(ev.Kind))
	if err != nil {
		log.Printf("Capture failed (%s %q): %v", ev.Kind, ev.Title, err)
		return
	}
	if record != nil {
		log.Printf("Captured %s %q (%dx%d) -> %s", record.EventType, record.WindowTitle,
			record.Width, record.Height, record.ImagePath)
	}
}
