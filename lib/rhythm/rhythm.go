package rhythm

import (
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	DefaultTempo         = 120.0
	DefaultBeatsPerBar   = 4
	DefaultBarsPerPhrase = 8
)

// Interval selects which musical subdivision a phase is measured against.
type Interval int

const (
	Beat Interval = iota
	Bar
	Phrase
)

func (i Interval) String() string {
	switch i {
	case Beat:
		return "beat"
	case Bar:
		return "bar"
	case Phrase:
		return "phrase"
	}
	return fmt.Sprintf("Interval(%d)", int(i))
}

// Metronome establishes a musical timeline: a tempo in beats per minute
// anchored at a start instant, grouped into bars and phrases. It is safe
// for concurrent use; the frame loop samples it once per frame via
// Snapshot, while other goroutines may adjust the tempo at any time.
type Metronome struct {
	mu            sync.Mutex
	start         time.Time
	tempo         float64
	beatsPerBar   int
	barsPerPhrase int
}

func New(tempo float64) *Metronome {
	if tempo <= 0 {
		tempo = DefaultTempo
	}
	return &Metronome{
		start:         time.Now(),
		tempo:         tempo,
		beatsPerBar:   DefaultBeatsPerBar,
		barsPerPhrase: DefaultBarsPerPhrase,
	}
}

func (m *Metronome) Tempo() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tempo
}

// SetTempo changes the tempo, re-anchoring the timeline so the current
// beat number and beat phase are preserved across the change.
func (m *Metronome) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	beats := now.Sub(m.start).Seconds() * m.tempo / 60
	m.tempo = bpm
	m.start = now.Add(-time.Duration(beats * 60 / bpm * float64(time.Second)))
}

func (m *Metronome) BeatsPerBar() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beatsPerBar
}

func (m *Metronome) SetBeatsPerBar(n int) {
	if n < 1 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beatsPerBar = n
}

func (m *Metronome) BarsPerPhrase() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.barsPerPhrase
}

func (m *Metronome) SetBarsPerPhrase(n int) {
	if n < 1 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.barsPerPhrase = n
}

// Restart moves beat one of bar one to the current instant. Used when an
// external clock (MIDI start) declares a new song position.
func (m *Metronome) Restart() {
	m.RestartAt(time.Now())
}

func (m *Metronome) RestartAt(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start = t
}

// Snapshot samples the metronome at the current instant.
func (m *Metronome) Snapshot() *Snapshot {
	return m.SnapshotAt(time.Now())
}

// SnapshotAt samples the metronome at an arbitrary instant, which may be
// in the past or future relative to now.
func (m *Metronome) SnapshotAt(t time.Time) *Snapshot {
	m.mu.Lock()
	start, tempo, bpb, bpp := m.start, m.tempo, m.beatsPerBar, m.barsPerPhrase
	m.mu.Unlock()

	beats := t.Sub(start).Seconds() * tempo / 60
	if beats < 0 {
		beats = 0
	}
	beat := math.Floor(beats)
	bars := beats / float64(bpb)
	bar := math.Floor(bars)
	phrases := bars / float64(bpp)
	phrase := math.Floor(phrases)

	return &Snapshot{
		Instant:       t,
		Tempo:         tempo,
		BeatsPerBar:   bpb,
		BarsPerPhrase: bpp,
		Beat:          int64(beat) + 1,
		Bar:           int64(bar) + 1,
		Phrase:        int64(phrase) + 1,
		BeatPhase:     beats - beat,
		BarPhase:      bars - bar,
		PhrasePhase:   phrases - phrase,
	}
}
