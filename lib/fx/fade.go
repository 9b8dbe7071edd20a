package fx

import (
	"fmt"
	"math"

	"lume/lib/effect"
	"lume/lib/params"
)

type fade struct {
	name     string
	from, to effect.Effect
	phase    params.Param
	registry *effect.Registry
}

// Fade blends two effects through the kind-specific fade functions,
// driven by a phase parameter: 0 is entirely the first effect, 1
// entirely the second. Either side may be a Blank, which fades the other
// side in from or out to its unassigned state. The phase is usually an
// oscillated or variable parameter, making this the building block for
// beat-synced crossfades and cue transitions.
func Fade(name string, from, to effect.Effect, phase any, registry *effect.Registry) (effect.Effect, error) {
	if registry == nil {
		return nil, fmt.Errorf("fx: fade effect %q needs the kind registry", name)
	}
	p, err := params.Bind(phase, params.TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	return &fade{name: name, from: from, to: to, phase: p, registry: registry}, nil
}

func (e *fade) Name() string { return e.name }

func (e *fade) StillActive(env *effect.Env) bool {
	return e.from.StillActive(env) || e.to.StillActive(env)
}

func (e *fade) End(env *effect.Env) bool {
	fromEnded := e.from.End(env)
	toEnded := e.to.End(env)
	return fromEnded && toEnded
}

func (e *fade) Generate(env *effect.Env) []effect.Assigner {
	fraction := clampUnit(params.ResolveNumber(env, e.phase, 0))
	var fromAss, toAss []effect.Assigner
	if e.from.StillActive(env) {
		fromAss = e.from.Generate(env)
	}
	if e.to.StillActive(env) {
		toAss = e.to.Generate(env)
	}
	return fadeAssigners(e.registry, fromAss, toAss, fraction)
}

type assignerKey struct {
	kind     effect.Kind
	targetID string
}

// fadeAssigners pairs two effects' assigners by (kind, target) and
// produces assigners computing the kind-faded value. Targets only one
// side touches fade against a nil endpoint, which each fade function
// maps to that kind's unassigned state.
func fadeAssigners(registry *effect.Registry, from, to []effect.Assigner, fraction float64) []effect.Assigner {
	type pair struct {
		from *effect.Assigner
		to   *effect.Assigner
	}
	var order []assignerKey
	pairs := map[assignerKey]*pair{}
	note := func(a effect.Assigner, side func(*pair, *effect.Assigner)) {
		k := assignerKey{kind: a.Kind, targetID: a.TargetID}
		p, ok := pairs[k]
		if !ok {
			p = &pair{}
			pairs[k] = p
			order = append(order, k)
		}
		side(p, &a)
	}
	for _, a := range from {
		note(a, func(p *pair, a *effect.Assigner) { p.from = a })
	}
	for _, a := range to {
		note(a, func(p *pair, a *effect.Assigner) { p.to = a })
	}

	out := make([]effect.Assigner, 0, len(order))
	for _, k := range order {
		p := pairs[k]
		var template effect.Assigner
		if p.from != nil {
			template = *p.from
		} else {
			template = *p.to
		}
		fader := registry.Fader(k.kind)
		fromA, toA := p.from, p.to
		out = append(out, effect.Assigner{
			Kind:     k.kind,
			TargetID: k.targetID,
			Target:   template.Target,
			Resolve: func(f *effect.Frame, target any, prev any) any {
				var fromVal, toVal any
				if fromA != nil {
					fromVal = fromA.Resolve(f, target, prev)
				}
				if toA != nil {
					toVal = toA.Resolve(f, target, prev)
				}
				return fader(f.Env, target, fromVal, toVal, fraction)
			},
		})
	}
	return out
}

type chase struct {
	name     string
	children []effect.Effect
	position params.Param
	registry *effect.Registry
	beyond   BeyondBehavior
}

// BeyondBehavior controls what a chase shows when its position parameter
// runs off either end of the step list.
type BeyondBehavior int

const (
	BeyondBlank BeyondBehavior = iota // nothing beyond the ends
	BeyondHold                        // hold the first or last step
	BeyondLoop                        // wrap around
)

// Chase steps through effects driven by a one-based position parameter.
// Fractional positions crossfade adjacent steps through the kind fade
// functions, so an oscillated or variable-driven position sweeps the
// chase smoothly in time with the music.
func Chase(name string, children []effect.Effect, position any, registry *effect.Registry, beyond BeyondBehavior) (effect.Effect, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("fx: chase %q has no steps", name)
	}
	if registry == nil {
		return nil, fmt.Errorf("fx: chase %q needs the kind registry", name)
	}
	p, err := params.Bind(position, params.TypeNumber, float64(1))
	if err != nil {
		return nil, err
	}
	return &chase{name: name, children: children, position: p, registry: registry, beyond: beyond}, nil
}

func (e *chase) Name() string { return e.name }

func (e *chase) StillActive(env *effect.Env) bool {
	for _, c := range e.children {
		if c.StillActive(env) {
			return true
		}
	}
	return false
}

func (e *chase) End(env *effect.Env) bool {
	ended := true
	for _, c := range e.children {
		if !c.End(env) {
			ended = false
		}
	}
	return ended
}

func (e *chase) step(env *effect.Env, index int) []effect.Assigner {
	n := len(e.children)
	switch e.beyond {
	case BeyondLoop:
		index = ((index-1)%n+n)%n + 1
	case BeyondHold:
		if index < 1 {
			index = 1
		}
		if index > n {
			index = n
		}
	default:
		if index < 1 || index > n {
			return nil
		}
	}
	c := e.children[index-1]
	if !c.StillActive(env) {
		return nil
	}
	return c.Generate(env)
}

func (e *chase) Generate(env *effect.Env) []effect.Assigner {
	pos := params.ResolveNumber(env, e.position, 1)
	lower := int(math.Floor(pos))
	fraction := pos - float64(lower)
	if fraction == 0 {
		return e.step(env, lower)
	}
	return fadeAssigners(e.registry, e.step(env, lower), e.step(env, lower+1), fraction)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
