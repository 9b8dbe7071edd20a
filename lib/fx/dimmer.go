package fx

import (
	"fmt"

	"lume/lib/effect"
	"lume/lib/fixture"
	"lume/lib/params"
	"lume/lib/show"
)

type dimmerEffect struct {
	effect.Base
	level  params.Param
	heads  []*fixture.Head
	master *show.Master
	htp    bool
}

// Dimmer creates an effect driving the dimmer function of heads at a
// level from 0 to 255. Every resolved level passes through the master
// chain before reaching the hardware, so the grand master and any
// sub-master scale it down. Dimmers merge highest-takes-precedence by
// default; pass htp false to override lower-priority levels outright.
func Dimmer(name string, level any, heads []*fixture.Head, master *show.Master, htp bool) (effect.Effect, error) {
	var dimmable []*fixture.Head
	for _, h := range heads {
		if h.HasChannel("dimmer") {
			dimmable = append(dimmable, h)
		}
	}
	if len(dimmable) == 0 {
		return nil, fmt.Errorf("fx: dimmer effect %q has no dimmable heads", name)
	}
	p, err := params.Bind(level, params.TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	return &dimmerEffect{
		Base:   effect.Base{EffectName: name},
		level:  p,
		heads:  dimmable,
		master: master,
		htp:    htp,
	}, nil
}

func (e *dimmerEffect) Generate(env *effect.Env) []effect.Assigner {
	out := make([]effect.Assigner, 0, len(e.heads))
	for _, h := range e.heads {
		head := h
		out = append(out, effect.Assigner{
			Kind:     effect.KindFunction,
			TargetID: effect.FunctionTargetID(head, "dimmer"),
			Target:   effect.Function{Head: head, Name: "dimmer"},
			Resolve: func(f *effect.Frame, target any, prev any) any {
				raw := params.EvaluateForHead(f.Env, e.level, head)
				v, ok := asFloat(raw)
				if !ok {
					return prev
				}
				if e.master != nil {
					v = e.master.Scale(v)
				}
				return htpMerge(v, prev, e.htp)
			},
		})
	}
	return out
}
