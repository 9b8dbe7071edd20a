package params

import (
	"fmt"

	"lume/lib/fixture"
)

// spatial evaluates a user function once per participating head. With
// scaling enabled, every head's raw value is computed before any single
// result is emitted, because the output range depends on the full set.
type spatial struct {
	heads        []*fixture.Head
	byHead       map[int]Param
	frameDynamic bool
	scaled       bool
	min, max     float64
}

// Spatial builds a per-head parameter from a function evaluated once for
// each participating head at build time. The function may return a
// literal number or a number parameter; a head whose result is a
// frame-dynamic parameter keeps being recomputed every frame.
func Spatial(heads []*fixture.Head, f func(*fixture.Head) any) (HeadParam, error) {
	return buildSpatial(heads, f, false, 0, 0)
}

// SpatialScaled builds a spatial parameter whose per-head results are
// rescaled as a group so they span exactly [min, max].
func SpatialScaled(heads []*fixture.Head, f func(*fixture.Head) any, min, max float64) (HeadParam, error) {
	if max < min {
		return nil, fmt.Errorf("params: spatial range inverted: min %v > max %v", min, max)
	}
	return buildSpatial(heads, f, true, min, max)
}

func buildSpatial(heads []*fixture.Head, f func(*fixture.Head) any, scaled bool, min, max float64) (HeadParam, error) {
	if len(heads) == 0 {
		return nil, fmt.Errorf("params: spatial parameter needs at least one head")
	}
	s := &spatial{
		heads:  heads,
		byHead: make(map[int]Param, len(heads)),
		scaled: scaled,
		min:    min,
		max:    max,
	}
	for _, h := range heads {
		p, err := Bind(f(h), TypeNumber, float64(0))
		if err != nil {
			return nil, fmt.Errorf("params: spatial function for head %d: %w", h.ID, err)
		}
		s.byHead[h.ID] = p
		if p.FrameDynamic() {
			s.frameDynamic = true
		}
	}
	return s, nil
}

func (s *spatial) FrameDynamic() bool { return s.frameDynamic }
func (s *spatial) Type() Type         { return TypeNumber }

// Evaluate without a head returns the value for the first participating
// head, for callers that bound a spatial parameter into a slot that is
// not head-aware.
func (s *spatial) Evaluate(env *Env) any {
	return s.EvaluateForHead(env, s.heads[0])
}

func (s *spatial) EvaluateForHead(env *Env, head *fixture.Head) any {
	p, ok := s.byHead[head.ID]
	if !ok {
		// Head is not part of the group; fall back to the first.
		return s.EvaluateForHead(env, s.heads[0])
	}
	if !s.scaled {
		return ResolveNumber(env, p, 0)
	}

	raw := make([]float64, len(s.heads))
	idx := -1
	lo, hi := 0.0, 0.0
	for i, h := range s.heads {
		raw[i] = ResolveNumber(env, s.byHead[h.ID], 0)
		if i == 0 {
			lo, hi = raw[i], raw[i]
		} else {
			if raw[i] < lo {
				lo = raw[i]
			}
			if raw[i] > hi {
				hi = raw[i]
			}
		}
		if h.ID == head.ID {
			idx = i
		}
	}
	if hi == lo {
		return s.min
	}
	return s.min + (raw[idx]-lo)/(hi-lo)*(s.max-s.min)
}

// Resolve folds each head's parameter but keeps the group structure, so
// scaled evaluation can still see every head's value.
func (s *spatial) Resolve(env *Env) Param {
	return s.resolveHeads(env)
}

func (s *spatial) resolveHeads(env *Env) *spatial {
	out := &spatial{
		heads:  s.heads,
		byHead: make(map[int]Param, len(s.byHead)),
		scaled: s.scaled,
		min:    s.min,
		max:    s.max,
	}
	for id, p := range s.byHead {
		r := p.Resolve(env)
		out.byHead[id] = r
		if r.FrameDynamic() {
			out.frameDynamic = true
		}
	}
	return out
}
