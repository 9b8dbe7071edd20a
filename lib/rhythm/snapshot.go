package rhythm

import (
	"fmt"
	"math"
	"time"
)

// Snapshot is an immutable sample of the metronome's timeline, taken once
// per rendered frame so every effect and parameter evaluated during that
// frame sees the same musical instant.
type Snapshot struct {
	Instant       time.Time
	Tempo         float64
	BeatsPerBar   int
	BarsPerPhrase int

	// Beat, Bar and Phrase count from 1 at the metronome's origin.
	Beat   int64
	Bar    int64
	Phrase int64

	// Phases run from 0 (inclusive) to 1 (exclusive) across the
	// corresponding interval.
	BeatPhase   float64
	BarPhase    float64
	PhrasePhase float64
}

// Phase returns the raw phase of the given interval.
func (s *Snapshot) Phase(interval Interval) float64 {
	switch interval {
	case Bar:
		return s.BarPhase
	case Phrase:
		return s.PhrasePhase
	}
	return s.BeatPhase
}

// PhaseAt returns the phase of the given interval run at a speed ratio
// with a phase offset applied by modular addition. Ratio 2 cycles twice
// per interval, 0.5 once per two intervals. The identity arguments
// (ratio 1, offset 0) return the snapshot's phase field untouched, with
// no arithmetic applied.
func (s *Snapshot) PhaseAt(interval Interval, ratio, offset float64) float64 {
	var count int64
	var phase float64
	switch interval {
	case Bar:
		count, phase = s.Bar-1, s.BarPhase
	case Phrase:
		count, phase = s.Phrase-1, s.PhrasePhase
	default:
		count, phase = s.Beat-1, s.BeatPhase
	}
	if ratio == 1 && offset == 0 {
		return phase
	}
	p := math.Mod((float64(count)+phase)*ratio+offset, 1)
	if p < 0 {
		p++
	}
	return p
}

// BeatWithinBar returns the one-based beat number relative to the start
// of the current bar.
func (s *Snapshot) BeatWithinBar() int {
	return int((s.Beat-1)%int64(s.BeatsPerBar)) + 1
}

// DownBeat reports whether the current beat is the first in its bar.
func (s *Snapshot) DownBeat() bool {
	return s.BeatWithinBar() == 1
}

// BarWithinPhrase returns the one-based bar number relative to the start
// of the current phrase.
func (s *Snapshot) BarWithinPhrase() int {
	return int((s.Bar-1)%int64(s.BarsPerPhrase)) + 1
}

// PhraseStart reports whether the current beat is the first in its phrase.
func (s *Snapshot) PhraseStart() bool {
	return s.DownBeat() && s.BarWithinPhrase() == 1
}

// Marker formats the snapshot's position as "phrase.bar.beat".
func (s *Snapshot) Marker() string {
	return fmt.Sprintf("%d.%d.%d", s.Phrase, s.BarWithinPhrase(), s.BeatWithinBar())
}
