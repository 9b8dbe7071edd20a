package fx

import (
	"fmt"

	"lume/lib/effect"
	"lume/lib/fixture"
	"lume/lib/params"
)

// Direction creates an effect pointing movable heads along a direction
// vector in show space.
func Direction(name string, direction any, heads []*fixture.Head) (effect.Effect, error) {
	return movementEffect(name, direction, heads, effect.KindDirection, params.TypeVec3)
}

// Aim creates an effect aiming movable heads at a point in show space,
// so each head computes its own angles from its own position.
func Aim(name string, point any, heads []*fixture.Head) (effect.Effect, error) {
	return movementEffect(name, point, heads, effect.KindAim, params.TypeVec3)
}

// PanTilt creates an effect driving movable heads to a pan/tilt angle
// pair relative to their calibration centers.
func PanTilt(name string, panTilt any, heads []*fixture.Head) (effect.Effect, error) {
	return movementEffect(name, panTilt, heads, effect.KindPanTilt, params.TypePanTilt)
}

type movement struct {
	effect.Base
	value params.Param
	heads []*fixture.Head
	kind  effect.Kind
}

func movementEffect(name string, value any, heads []*fixture.Head, kind effect.Kind, typ params.Type) (effect.Effect, error) {
	var movable []*fixture.Head
	for _, h := range heads {
		if h.Movable() {
			movable = append(movable, h)
		}
	}
	if len(movable) == 0 {
		return nil, fmt.Errorf("fx: movement effect %q has no movable heads", name)
	}
	p, err := params.Bind(value, typ, nil)
	if err != nil {
		return nil, err
	}
	return &movement{
		Base:  effect.Base{EffectName: name},
		value: p,
		heads: movable,
		kind:  kind,
	}, nil
}

func (e *movement) Generate(env *effect.Env) []effect.Assigner {
	out := make([]effect.Assigner, 0, len(e.heads))
	for _, h := range e.heads {
		head := h
		out = append(out, effect.Assigner{
			Kind:     e.kind,
			TargetID: effect.HeadTargetID(head),
			Target:   head,
			Resolve: func(f *effect.Frame, target any, prev any) any {
				return params.EvaluateForHead(f.Env, e.value, head)
			},
		})
	}
	return out
}
