// Package fx is the library of ready-made effects: raw channel levels,
// master-scaled dimmers, colors, movement, variable setters, and the
// combinators (scenes, fades, chases) that build looks out of them.
package fx

import (
	"fmt"

	"lume/lib/effect"
	"lume/lib/params"
)

type channelEffect struct {
	effect.Base
	level    params.Param
	channels []effect.Channel
	htp      bool
}

// Channel creates an effect holding raw DMX channels at a level. The
// level accepts anything that binds as a number (literal, variable
// reference, oscillated parameter). With htp set, the effect merges with
// whatever ran before it by keeping the higher value; otherwise it
// overrides outright.
func Channel(name string, level any, channels []effect.Channel, htp bool) (effect.Effect, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("fx: channel effect %q has no channels", name)
	}
	p, err := params.Bind(level, params.TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	return &channelEffect{
		Base:     effect.Base{EffectName: name},
		level:    p,
		channels: channels,
		htp:      htp,
	}, nil
}

func (e *channelEffect) Generate(env *effect.Env) []effect.Assigner {
	out := make([]effect.Assigner, 0, len(e.channels))
	for _, ch := range e.channels {
		out = append(out, effect.Assigner{
			Kind:     effect.KindChannel,
			TargetID: effect.ChannelTargetID(ch.Universe, ch.Index),
			Target:   ch,
			Resolve: func(f *effect.Frame, target any, prev any) any {
				v := params.ResolveNumber(f.Env, e.level, 0)
				return htpMerge(v, prev, e.htp)
			},
		})
	}
	return out
}

func htpMerge(v float64, prev any, htp bool) float64 {
	if !htp {
		return v
	}
	if p, ok := asFloat(prev); ok && p > v {
		return p
	}
	return v
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
