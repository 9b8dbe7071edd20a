package effect

import (
	"math"

	"lume/lib/fixture"
)

// PanTiltDMX is a resolved movement position in coarse DMX units,
// remembered across frames so the next movement resolution can pick the
// solution closest to where the head already is.
type PanTiltDMX struct {
	Pan  float64
	Tilt float64
}

// MovementCache records the last pan/tilt written for each head target.
// It is owned by the show and survives across frames.
type MovementCache struct {
	prev map[string]PanTiltDMX
}

func NewMovementCache() *MovementCache {
	return &MovementCache{prev: map[string]PanTiltDMX{}}
}

// Previous returns the last recorded position for a target, or the rest
// position when the target has never moved.
func (c *MovementCache) Previous(targetID string) (PanTiltDMX, bool) {
	p, ok := c.prev[targetID]
	return p, ok
}

func (c *MovementCache) Store(targetID string, p PanTiltDMX) {
	c.prev[targetID] = p
}

func (c *MovementCache) Clear() {
	c.prev = map[string]PanTiltDMX{}
}

// Frame holds the mutable state of one rendering pass: the DMX buffers
// being built, the movement cache, and variable assignments buffered for
// application after the frame completes.
type Frame struct {
	Env         *Env
	Buffers     map[int][]byte
	Movement    *MovementCache
	PendingVars map[string]any
}

func NewFrame(env *Env, universes []int, movement *MovementCache) *Frame {
	f := &Frame{
		Env:         env,
		Buffers:     make(map[int][]byte, len(universes)),
		Movement:    movement,
		PendingVars: map[string]any{},
	}
	if f.Movement == nil {
		f.Movement = NewMovementCache()
	}
	for _, u := range universes {
		f.Buffers[u] = make([]byte, 512)
	}
	return f
}

// WriteChannel stores a value into a universe buffer, clamping to the
// DMX byte range. Writes outside any patched universe are dropped.
func (f *Frame) WriteChannel(universe, index int, value float64) {
	buf, ok := f.Buffers[universe]
	if !ok || index < 0 || index >= len(buf) {
		return
	}
	buf[index] = clampByte(value)
}

// WriteFine stores a 16-bit value split across a coarse and fine channel
// pair. The value is in coarse units, so 127.5 lands halfway between
// coarse steps.
func (f *Frame) WriteFine(universe, coarse, fine int, value float64) {
	buf, ok := f.Buffers[universe]
	if !ok || coarse < 0 || coarse >= len(buf) {
		return
	}
	if value < 0 {
		value = 0
	}
	if value > 255 {
		value = 255
	}
	total := int(math.Round(value / 255 * 65535))
	buf[coarse] = byte(total >> 8)
	if fine >= 0 && fine < len(buf) {
		buf[fine] = byte(total & 0xFF)
	}
}

// WriteHeadChannel writes a value to a named function channel of a head,
// using the fine channel pair when the head has one.
func (f *Frame) WriteHeadChannel(h *fixture.Head, name string, value float64) {
	coarse, ok := h.Channel(name)
	if !ok {
		return
	}
	if fine, ok := h.FineChannels[name]; ok {
		f.WriteFine(h.Universe, coarse, fine, value)
		return
	}
	f.WriteChannel(h.Universe, coarse, value)
}

func clampByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(math.Round(v))
}
