// Package midisync slaves the metronome to an external MIDI clock, so
// effects stay locked to a DJ controller or sequencer that broadcasts
// timing. MIDI clock runs at 24 pulses per quarter note; the tempo is
// estimated from a rolling window of pulse intervals to smooth jitter.
package midisync

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"lume/lib/rhythm"
)

const (
	ticksPerBeat = 24

	// window is how many pulse intervals the tempo estimate averages
	// over: two beats' worth, enough to smooth USB timing jitter while
	// still following a live tempo ride.
	window = 48

	// tempoEpsilon avoids re-anchoring the metronome for sub-audible
	// estimate wobble.
	tempoEpsilon = 0.05
)

// FindInPort returns the first MIDI input whose name contains substr,
// case-insensitively.
func FindInPort(substr string) (drivers.In, error) {
	lower := strings.ToLower(substr)
	for _, port := range midi.GetInPorts() {
		if strings.Contains(strings.ToLower(port.String()), lower) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("midisync: no MIDI input port matching %q", substr)
}

// clock estimates tempo from timing pulse arrivals.
type clock struct {
	last      time.Time
	intervals [window]time.Duration
	pos       int
	filled    int
}

// tick records a pulse arrival and returns the current tempo estimate,
// or 0 while there is not yet enough history.
func (c *clock) tick(now time.Time) float64 {
	if !c.last.IsZero() {
		interval := now.Sub(c.last)
		// A gap of a quarter second or more between pulses means the
		// clock stopped; start the estimate over.
		if interval > 250*time.Millisecond {
			c.filled = 0
			c.pos = 0
		} else {
			c.intervals[c.pos] = interval
			c.pos = (c.pos + 1) % window
			if c.filled < window {
				c.filled++
			}
		}
	}
	c.last = now

	if c.filled < ticksPerBeat {
		return 0
	}
	var sum time.Duration
	for i := 0; i < c.filled; i++ {
		sum += c.intervals[i]
	}
	mean := sum / time.Duration(c.filled)
	return 60 / (mean.Seconds() * ticksPerBeat)
}

// Listener follows a MIDI input's clock and transport messages,
// adjusting the metronome's tempo and restarting it when the sender
// starts playback.
type Listener struct {
	metronome *rhythm.Metronome
	stop      func()

	mu      sync.Mutex
	clock   clock
	restart bool
	running bool
	ticks   uint64
}

// Listen starts following clock messages from a MIDI input. Stop the
// listener before closing the MIDI driver.
func Listen(port drivers.In, m *rhythm.Metronome) (*Listener, error) {
	l := &Listener{metronome: m}
	// Drivers drop timing messages unless time code delivery is on.
	stop, err := midi.ListenTo(port, l.handle, midi.UseTimeCode())
	if err != nil {
		return nil, fmt.Errorf("midisync: %w", err)
	}
	l.stop = stop
	slog.Info("following MIDI clock", "port", port.String())
	return l, nil
}

func (l *Listener) handle(msg midi.Message, timestampms int32) {
	switch {
	case msg.Is(midi.TimingClockMsg):
		l.onTick(time.Now())
	case msg.Is(midi.StartMsg):
		l.mu.Lock()
		l.restart = true
		l.running = true
		l.mu.Unlock()
	case msg.Is(midi.ContinueMsg):
		l.mu.Lock()
		l.running = true
		l.mu.Unlock()
	case msg.Is(midi.StopMsg):
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}
}

// onTick feeds one pulse into the estimate. A pending start request is
// honored here rather than on the start message itself: the MIDI
// standard puts beat one at the first clock pulse after start.
func (l *Listener) onTick(now time.Time) {
	l.mu.Lock()
	l.ticks++
	restart := l.restart
	l.restart = false
	bpm := l.clock.tick(now)
	l.mu.Unlock()

	if restart {
		l.metronome.RestartAt(now)
	}
	if bpm > 0 && math.Abs(bpm-l.metronome.Tempo()) > tempoEpsilon {
		l.metronome.SetTempo(bpm)
	}
}

// Running reports whether the sender's transport is playing.
func (l *Listener) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Ticks returns how many clock pulses have arrived, for diagnostics.
func (l *Listener) Ticks() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks
}

// Stop detaches from the MIDI port. The metronome keeps the last tempo
// and runs free.
func (l *Listener) Stop() {
	if l.stop != nil {
		l.stop()
		l.stop = nil
	}
}
