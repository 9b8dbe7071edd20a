package fx

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"lume/lib/effect"
	"lume/lib/fixture"
	"lume/lib/params"
)

type colorEffect struct {
	effect.Base
	color params.Param
	heads []*fixture.Head
	htp   bool
}

// Color creates an effect setting the color of heads with color-mixing
// channels. With htp set, a previously resolved color survives if it is
// lighter than this effect's color, the color-space analogue of
// highest-takes-precedence.
func Color(name string, color any, heads []*fixture.Head, htp bool) (effect.Effect, error) {
	var mixing []*fixture.Head
	for _, h := range heads {
		if h.HasChannel("red") || h.HasChannel("green") || h.HasChannel("blue") {
			mixing = append(mixing, h)
		}
	}
	if len(mixing) == 0 {
		return nil, fmt.Errorf("fx: color effect %q has no color-mixing heads", name)
	}
	p, err := params.Bind(color, params.TypeColor, colorful.Color{})
	if err != nil {
		return nil, err
	}
	return &colorEffect{
		Base:  effect.Base{EffectName: name},
		color: p,
		heads: mixing,
		htp:   htp,
	}, nil
}

func (e *colorEffect) Generate(env *effect.Env) []effect.Assigner {
	out := make([]effect.Assigner, 0, len(e.heads))
	for _, h := range e.heads {
		head := h
		out = append(out, effect.Assigner{
			Kind:     effect.KindColor,
			TargetID: effect.HeadTargetID(head),
			Target:   head,
			Resolve: func(f *effect.Frame, target any, prev any) any {
				raw := params.EvaluateForHead(f.Env, e.color, head)
				c, ok := raw.(colorful.Color)
				if !ok {
					return prev
				}
				if e.htp {
					if p, ok := prev.(colorful.Color); ok && lightness(p) > lightness(c) {
						return p
					}
				}
				return c
			},
		})
	}
	return out
}

func lightness(c colorful.Color) float64 {
	_, _, l := c.Hsl()
	return l
}
