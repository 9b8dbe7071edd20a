// Package effect defines the effect lifecycle and the per-frame pipeline
// that merges every running effect's attribute requests into concrete
// DMX channel values. Each frame, live effects generate assigners; the
// registry resolves competing assigners for the same target in priority
// order and lowers the winners into buffer writes, movement updates and
// show-variable assignments.
package effect

import (
	"sync/atomic"

	"lume/lib/params"
)

// Env is the show-global evaluation context threaded through every
// engine entry point for one frame.
type Env = params.Env

// Effect is a source of attribute assignments that runs until it
// declares itself finished.
//
// The engine polls StillActive before each frame and discards effects
// that report false. End asks the effect to wrap up: returning true
// means it ended instantly and can be removed, false means it wants to
// keep running (for example to finish a fade-out) and will be polled
// until StillActive goes false. The engine never removes an effect
// mid-fade on its own.
type Effect interface {
	Name() string
	StillActive(env *Env) bool
	Generate(env *Env) []Assigner
	End(env *Env) bool
}

// Base provides the common case: an effect that is always active until
// asked to end, at which point it stops immediately. Concrete effects
// embed it and override what they need.
//
// Controllers end effects from their own goroutines while the frame
// loop polls StillActive, so the flag is atomic.
type Base struct {
	EffectName string
	ended      atomic.Bool
}

func (b *Base) Name() string { return b.EffectName }

func (b *Base) StillActive(*Env) bool { return !b.ended.Load() }

func (b *Base) End(*Env) bool {
	b.ended.Store(true)
	return true
}
