package control

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlane_DefaultsToUnpaused(t *testing.T) {
	p := New()
	assert.False(t, p.IsPaused())
}

func TestPlane_PauseResume(t *testing.T) {
	p := New()

	p.SetPaused(true)
	assert.True(t, p.IsPaused())

	p.SetPaused(false)
	assert.False(t, p.IsPaused())
}

func TestPlane_ConcurrentAccess(t *testing.T) {
	p := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(pause bool) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.SetPaused(pause)
				p.IsPaused()
			}
		}(i%2 == 0)
	}
	wg.Wait()
}
