// Package show ties the engine together: it owns the metronome, the
// variable store, the patch and the active effect list, and drives the
// frame loop that renders every universe at a fixed rate.
package show

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"lume/lib/effect"
	"lume/lib/fixture"
	"lume/lib/params"
	"lume/lib/rhythm"
	"lume/lib/vars"
)

const DefaultFrameInterval = 25 * time.Millisecond // 40 Hz

// Sink receives a universe's finished 512-byte DMX frame. Sends are
// fire-and-forget: the frame loop never blocks on a sink and only logs
// its errors.
type Sink func(universe int, frame []byte) error

type runningEffect struct {
	effect   effect.Effect
	key      string
	priority int
	seq      uint64
}

// Show is one lighting rig under unified control.
type Show struct {
	Metronome   *rhythm.Metronome
	Vars        *vars.Store
	Patch       *fixture.Patch
	Registry    *effect.Registry
	GrandMaster *Master

	mu     sync.Mutex
	active atomic.Pointer[[]*runningEffect]
	seq    atomic.Uint64

	movement *effect.MovementCache
	assigned map[string]any // saved pre-assignment values of frame-assigned variables

	sink Sink
	stop chan struct{}
}

func New(patch *fixture.Patch) *Show {
	s := &Show{
		Metronome:   rhythm.New(rhythm.DefaultTempo),
		Vars:        vars.NewStore(),
		Patch:       patch,
		Registry:    effect.NewRegistry(),
		GrandMaster: NewMaster(nil),
		movement:    effect.NewMovementCache(),
		assigned:    map[string]any{},
	}
	empty := []*runningEffect{}
	s.active.Store(&empty)
	return s
}

// SetSink directs finished frames to a DMX transport.
func (s *Show) SetSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// AddOption adjusts how an effect joins the active list.
type AddOption func(*runningEffect)

// WithPriority raises an effect above its peers; higher priorities
// resolve later and therefore win. Priority dominates recency.
func WithPriority(p int) AddOption {
	return func(re *runningEffect) { re.priority = p }
}

// WithKey names the effect so it can be ended or replaced by key.
// Adding another effect with the same key asks the old one to end first.
func WithKey(key string) AddOption {
	return func(re *runningEffect) { re.key = key }
}

// AddEffect starts an effect running. The active list is replaced
// atomically, so a frame in progress keeps the list it started with and
// the new effect first participates in the next frame.
func (s *Show) AddEffect(e effect.Effect, opts ...AddOption) {
	re := &runningEffect{effect: e, seq: s.seq.Add(1)}
	for _, opt := range opts {
		opt(re)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old := *s.active.Load()
	next := make([]*runningEffect, 0, len(old)+1)
	for _, r := range old {
		if re.key != "" && r.key == re.key {
			if r.effect.End(s.env()) {
				continue
			}
		}
		next = append(next, r)
	}
	// Insert in priority order, after everything at the same priority
	// so recency breaks ties.
	pos := len(next)
	for pos > 0 && next[pos-1].priority > re.priority {
		pos--
	}
	next = append(next, nil)
	copy(next[pos+1:], next[pos:])
	next[pos] = re
	s.active.Store(&next)
}

// EndEffect asks the keyed effect to end. An effect may finish
// immediately or linger to complete a fade; lingering effects stay in
// the list until their liveness check fails.
func (s *Show) EndEffect(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	env := s.env()
	old := *s.active.Load()
	var next []*runningEffect
	found := false
	for _, r := range old {
		if r.key == key {
			found = true
			if r.effect.End(env) {
				continue
			}
		}
		next = append(next, r)
	}
	s.active.Store(&next)
	return found
}

// ClearEffects ends everything, immediately dropping effects that end
// instantly and leaving the rest to fade out.
func (s *Show) ClearEffects() {
	s.mu.Lock()
	defer s.mu.Unlock()
	env := s.env()
	old := *s.active.Load()
	var next []*runningEffect
	for _, r := range old {
		if !r.effect.End(env) {
			next = append(next, r)
		}
	}
	s.active.Store(&next)
}

// ActiveEffects returns the names of running effects in priority order.
func (s *Show) ActiveEffects() []string {
	list := *s.active.Load()
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.effect.Name()
	}
	return out
}

func (s *Show) env() *params.Env {
	return &params.Env{Vars: s.Vars, Snapshot: s.Metronome.Snapshot()}
}

func (s *Show) prune(env *params.Env, list []*runningEffect) []*runningEffect {
	live := list[:0:0]
	removed := false
	for _, r := range list {
		if r.effect.StillActive(env) {
			live = append(live, r)
		} else {
			removed = true
		}
	}
	if !removed {
		return list
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dead := map[*runningEffect]bool{}
	for _, r := range list {
		dead[r] = true
	}
	for _, r := range live {
		delete(dead, r)
	}
	current := *s.active.Load()
	var next []*runningEffect
	for _, r := range current {
		if !dead[r] {
			next = append(next, r)
		}
	}
	s.active.Store(&next)
	return live
}

// Frame renders one frame and returns the finished universe buffers.
// The whole pass runs synchronously: liveness checks, assigner
// generation, resolution and variable application all see the same
// snapshot.
func (s *Show) Frame() map[int][]byte {
	env := s.env()
	live := s.prune(env, *s.active.Load())

	f := effect.NewFrame(env, s.Patch.Universes(), s.movement)
	var assigners []effect.Assigner
	for _, r := range live {
		assigners = append(assigners, s.generate(env, r)...)
	}
	s.Registry.Run(f, assigners)
	s.applyVars(f.PendingVars)
	return f.Buffers
}

// generate shields the frame from a misbehaving effect: a panic inside
// one effect's Generate is logged and that effect contributes nothing,
// rather than aborting the whole universe.
func (s *Show) generate(env *params.Env, r *runningEffect) (out []effect.Assigner) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("effect generate panicked", "effect", r.effect.Name(), "panic", fmt.Sprint(rec))
			out = nil
		}
	}()
	return r.effect.Generate(env)
}

// applyVars applies this frame's variable assignments as one logical
// unit: newly assigned variables have their prior values saved, and a
// variable no one assigns anymore is restored to the value it held
// before effects took it over.
func (s *Show) applyVars(pending map[string]any) {
	updates := map[string]any{}
	for key, value := range pending {
		if _, saved := s.assigned[key]; !saved {
			prior := s.Vars.Get(key)
			if prior == nil {
				prior = removed{}
			}
			s.assigned[key] = prior
		}
		updates[key] = value
	}
	for key, prior := range s.assigned {
		if _, still := pending[key]; still {
			continue
		}
		if _, gone := prior.(removed); gone {
			updates[key] = nil
		} else {
			updates[key] = prior
		}
		delete(s.assigned, key)
	}
	if len(updates) > 0 {
		s.Vars.SetAll(updates)
	}
}

// removed marks a saved prior value of a variable that did not exist
// before effects assigned it.
type removed struct{}

// Start drives the frame loop at the given interval until Stop. Each
// tick renders one frame and hands every universe to the sink.
func (s *Show) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return fmt.Errorf("show: already running")
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.renderTick()
			}
		}
	}()
	return nil
}

func (s *Show) renderTick() {
	buffers := s.Frame()
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink == nil {
		return
	}
	for universe, frame := range buffers {
		if err := sink(universe, frame); err != nil {
			slog.Warn("frame send failed", "universe", universe, "err", err)
		}
	}
}

// Stop halts the frame loop. Active effects stay registered and resume
// when the loop restarts.
func (s *Show) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
