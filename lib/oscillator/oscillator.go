// Package oscillator provides pure waveform functions locked to a
// metronome's timeline. Each oscillator maps a rhythm snapshot to a value
// in the unit interval, so effects can modulate any attribute in step
// with the music without tracking time themselves.
package oscillator

import (
	"fmt"
	"math"

	"lume/lib/rhythm"
)

// Oscillator produces a value in [0,1] from a snapshot of musical time.
type Oscillator func(*rhythm.Snapshot) float64

type config struct {
	interval rhythm.Interval
	ratio    float64
	phase    float64
	down     bool
	width    float64
	widthSet bool
}

type Option func(*config)

// Bar runs the oscillator against the bar phase instead of the beat phase.
func Bar() Option {
	return func(c *config) { c.interval = rhythm.Bar }
}

// Phrase runs the oscillator against the phrase phase.
func Phrase() Option {
	return func(c *config) { c.interval = rhythm.Phrase }
}

// Ratio adjusts the oscillator's speed: 2 cycles twice per interval,
// 0.5 once per two intervals.
func Ratio(r float64) Option {
	return func(c *config) { c.ratio = r }
}

// Phase offsets the oscillator by a fraction of its period, applied by
// modular addition.
func Phase(p float64) Option {
	return func(c *config) { c.phase = p }
}

// Down makes a sawtooth ramp from 1 to 0 instead of 0 to 1.
func Down() Option {
	return func(c *config) { c.down = true }
}

// Width sets the fraction of the period a square wave spends high. It
// must lie strictly between 0 and 1.
func Width(w float64) Option {
	return func(c *config) { c.width = w; c.widthSet = true }
}

func build(opts []Option) (config, error) {
	c := config{interval: rhythm.Beat, ratio: 1, width: 0.5}
	for _, opt := range opts {
		opt(&c)
	}
	if c.ratio <= 0 {
		return c, fmt.Errorf("oscillator: ratio must be positive, got %v", c.ratio)
	}
	if c.phase < 0 || c.phase >= 1 {
		c.phase = c.phase - math.Floor(c.phase)
	}
	if c.widthSet && (c.width <= 0 || c.width >= 1) {
		return c, fmt.Errorf("oscillator: width must be within (0, 1), got %v", c.width)
	}
	return c, nil
}

// Sawtooth returns an oscillator ramping linearly from 0 to 1 over each
// period, or 1 to 0 with the Down option.
func Sawtooth(opts ...Option) (Oscillator, error) {
	c, err := build(opts)
	if err != nil {
		return nil, err
	}
	if c.down {
		return func(s *rhythm.Snapshot) float64 {
			return 1 - s.PhaseAt(c.interval, c.ratio, c.phase)
		}, nil
	}
	return func(s *rhythm.Snapshot) float64 {
		return s.PhaseAt(c.interval, c.ratio, c.phase)
	}, nil
}

// Triangle returns an oscillator ramping 0 to 1 over the first half of
// each period and back to 0 over the second.
func Triangle(opts ...Option) (Oscillator, error) {
	c, err := build(opts)
	if err != nil {
		return nil, err
	}
	return func(s *rhythm.Snapshot) float64 {
		p := s.PhaseAt(c.interval, c.ratio, c.phase)
		if p < 0.5 {
			return p * 2
		}
		return (1 - p) * 2
	}, nil
}

// Square returns an oscillator that is 1 for the width fraction of each
// period and 0 thereafter.
func Square(opts ...Option) (Oscillator, error) {
	c, err := build(opts)
	if err != nil {
		return nil, err
	}
	return func(s *rhythm.Snapshot) float64 {
		if s.PhaseAt(c.interval, c.ratio, c.phase) < c.width {
			return 1
		}
		return 0
	}, nil
}

// Sine returns a sinusoidal oscillator anchored so that phase zero is the
// midpoint of the rising edge, matching the sawtooth and triangle anchors.
func Sine(opts ...Option) (Oscillator, error) {
	c, err := build(opts)
	if err != nil {
		return nil, err
	}
	return func(s *rhythm.Snapshot) float64 {
		p := s.PhaseAt(c.interval, c.ratio, c.phase)
		return 0.5 + 0.5*math.Sin(2*math.Pi*(p-0.25))
	}, nil
}
