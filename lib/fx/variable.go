package fx

import (
	"fmt"

	"lume/lib/effect"
	"lume/lib/params"
)

type variableEffect struct {
	effect.Base
	key   string
	value params.Param
	typ   params.Type
}

// SetVariable creates an effect that assigns a show variable for as
// long as it runs. When the effect ends and nothing else assigns the
// variable, the value it held before is restored automatically.
func SetVariable(name, key string, value any, typ params.Type) (effect.Effect, error) {
	if key == "" {
		return nil, fmt.Errorf("fx: variable effect %q needs a variable key", name)
	}
	p, err := params.Bind(value, typ, nil)
	if err != nil {
		return nil, err
	}
	return &variableEffect{
		Base:  effect.Base{EffectName: name},
		key:   key,
		value: p,
		typ:   typ,
	}, nil
}

func (e *variableEffect) Generate(env *effect.Env) []effect.Assigner {
	return []effect.Assigner{{
		Kind:     effect.KindVariable,
		TargetID: e.key,
		Target:   e.key,
		Resolve: func(f *effect.Frame, target any, prev any) any {
			return e.value.Evaluate(f.Env)
		},
	}}
}
