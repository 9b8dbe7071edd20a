package show

import (
	"math"
	"sync/atomic"
)

// Master is a chainable percentage scaler applied to dimmer-type values:
// a grand master with sub-masters hanging off it. Levels run 0-100;
// scaling multiplies through the whole parent chain, so a zero anywhere
// blacks out everything below it. SetLevel is a single atomic write and
// Scale may run concurrently from resolver invocations.
type Master struct {
	bits   atomic.Uint64
	parent *Master
}

// NewMaster creates a master at full level. A nil parent makes a chain
// root (the grand master).
func NewMaster(parent *Master) *Master {
	m := &Master{parent: parent}
	m.bits.Store(math.Float64bits(100))
	return m
}

func (m *Master) Level() float64 {
	return math.Float64frombits(m.bits.Load())
}

// SetLevel clamps to [0,100] and stores atomically; a reader sees either
// the old or the new level, never a torn value.
func (m *Master) SetLevel(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	m.bits.Store(math.Float64bits(level))
}

// Scale multiplies a value by this master's level and every ancestor's
// in turn.
func (m *Master) Scale(value float64) float64 {
	value *= m.Level() / 100
	if m.parent != nil {
		return m.parent.Scale(value)
	}
	return value
}
