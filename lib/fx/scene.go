package fx

import (
	"lume/lib/effect"
)

type scene struct {
	name     string
	children []effect.Effect
}

// Scene groups effects so they run and end as one. It stays active while
// any child does, letting slow-fading children finish.
func Scene(name string, children ...effect.Effect) effect.Effect {
	return &scene{name: name, children: children}
}

func (s *scene) Name() string { return s.name }

func (s *scene) StillActive(env *effect.Env) bool {
	for _, c := range s.children {
		if c.StillActive(env) {
			return true
		}
	}
	return false
}

func (s *scene) Generate(env *effect.Env) []effect.Assigner {
	var out []effect.Assigner
	for _, c := range s.children {
		if c.StillActive(env) {
			out = append(out, c.Generate(env)...)
		}
	}
	return out
}

func (s *scene) End(env *effect.Env) bool {
	ended := true
	for _, c := range s.children {
		if !c.End(env) {
			ended = false
		}
	}
	return ended
}

type blank struct {
	effect.Base
}

// Blank is an effect that assigns nothing. Fading to a blank fades every
// attribute to its unassigned state.
func Blank(name string) effect.Effect {
	return &blank{Base: effect.Base{EffectName: name}}
}

func (b *blank) Generate(*effect.Env) []effect.Assigner { return nil }
