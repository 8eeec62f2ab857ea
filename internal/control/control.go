package control

import "sync/atomic"

// Plane holds process-wide capture controls shared between the capture
// loop and the API handlers. The pause flag is a single scalar with no
// ordering requirements relative to other state, so an atomic bool is all
// the synchronization it needs.
type Plane struct {
	paused atomic.Bool
}

func New() *Plane {
	return &Plane{}
}

func (p *Plane) IsPaused() bool {
	return p.paused.Load()
}

func (p *Plane) SetPaused(v bool) {
	p.paused.Store(v)
}
