package params

import (
	"fmt"

	"lume/lib/oscillator"
)

// Oscillated builds a frame-dynamic number parameter that maps an
// oscillator's unit-interval output onto the range [min, max]. Min and
// max accept anything Bind accepts for numbers, so the range itself may
// ride on show variables or nested parameters.
func Oscillated(osc oscillator.Oscillator, min, max any) (Param, error) {
	if osc == nil {
		return nil, fmt.Errorf("params: oscillated parameter needs an oscillator")
	}
	minP, err := Bind(min, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	maxP, err := Bind(max, TypeNumber, float64(255))
	if err != nil {
		return nil, err
	}
	if allConstant(minP, maxP) {
		lo := ResolveNumber(nil, minP, 0)
		hi := ResolveNumber(nil, maxP, 255)
		if hi < lo {
			return nil, fmt.Errorf("params: oscillated range inverted: min %v > max %v", lo, hi)
		}
	}
	return buildOscillated(osc, minP, maxP), nil
}

func buildOscillated(osc oscillator.Oscillator, minP, maxP Param) Param {
	return &computed{
		typ:          TypeNumber,
		frameDynamic: true,
		eval: func(env *Env) any {
			lo := ResolveNumber(env, minP, 0)
			hi := ResolveNumber(env, maxP, 255)
			return lo + osc(env.Snapshot)*(hi-lo)
		},
		resolve: func(env *Env) Param {
			return buildOscillated(osc, minP.Resolve(env), maxP.Resolve(env))
		},
	}
}
