package params

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB builds a color parameter from red, green and blue components in
// [0,1]. All-literal inputs fold to a constant color immediately.
func RGB(r, g, b any) (Param, error) {
	rP, err := Bind(r, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	gP, err := Bind(g, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	bP, err := Bind(b, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	p := buildRGB(rP, gP, bP)
	if allConstant(rP, gP, bP) {
		return p.Resolve(nil), nil
	}
	return p, nil
}

func buildRGB(rP, gP, bP Param) Param {
	return &computed{
		typ:          TypeColor,
		frameDynamic: anyDynamic(rP, gP, bP),
		eval: func(env *Env) any {
			return colorful.Color{
				R: clampUnit(ResolveNumber(env, rP, 0)),
				G: clampUnit(ResolveNumber(env, gP, 0)),
				B: clampUnit(ResolveNumber(env, bP, 0)),
			}
		},
		resolve: func(env *Env) Param {
			return buildRGB(rP.Resolve(env), gP.Resolve(env), bP.Resolve(env))
		},
	}
}

// HSL builds a color parameter from hue in degrees and saturation and
// lightness in [0,1].
func HSL(h, s, l any) (Param, error) {
	hP, err := Bind(h, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	sP, err := Bind(s, TypeNumber, float64(1))
	if err != nil {
		return nil, err
	}
	lP, err := Bind(l, TypeNumber, float64(0.5))
	if err != nil {
		return nil, err
	}
	p := buildHSL(hP, sP, lP)
	if allConstant(hP, sP, lP) {
		return p.Resolve(nil), nil
	}
	return p, nil
}

func buildHSL(hP, sP, lP Param) Param {
	return &computed{
		typ:          TypeColor,
		frameDynamic: anyDynamic(hP, sP, lP),
		eval: func(env *Env) any {
			h := math.Mod(ResolveNumber(env, hP, 0), 360)
			if h < 0 {
				h += 360
			}
			return colorful.Hsl(h, clampUnit(ResolveNumber(env, sP, 1)), clampUnit(ResolveNumber(env, lP, 0.5)))
		},
		resolve: func(env *Env) Param {
			return buildHSL(hP.Resolve(env), sP.Resolve(env), lP.Resolve(env))
		},
	}
}

// AdjustHue wraps a color parameter, rotating its hue by delta degrees.
func AdjustHue(color, delta any) (Param, error) {
	return adjustColor(color, delta, func(h, s, l, d float64) (float64, float64, float64) {
		return h + d, s, l
	})
}

// AdjustSaturation wraps a color parameter, shifting its saturation by
// delta, clamped to [0,1].
func AdjustSaturation(color, delta any) (Param, error) {
	return adjustColor(color, delta, func(h, s, l, d float64) (float64, float64, float64) {
		return h, clampUnit(s + d), l
	})
}

// AdjustLightness wraps a color parameter, shifting its lightness by
// delta, clamped to [0,1].
func AdjustLightness(color, delta any) (Param, error) {
	return adjustColor(color, delta, func(h, s, l, d float64) (float64, float64, float64) {
		return h, s, clampUnit(l + d)
	})
}

func adjustColor(color, delta any, shift func(h, s, l, d float64) (float64, float64, float64)) (Param, error) {
	cP, err := Bind(color, TypeColor, colorful.Color{})
	if err != nil {
		return nil, err
	}
	dP, err := Bind(delta, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	p := buildAdjusted(cP, dP, shift)
	if allConstant(cP, dP) {
		return p.Resolve(nil), nil
	}
	return p, nil
}

func buildAdjusted(cP, dP Param, shift func(h, s, l, d float64) (float64, float64, float64)) Param {
	return &computed{
		typ:          TypeColor,
		frameDynamic: anyDynamic(cP, dP),
		eval: func(env *Env) any {
			c := ResolveColor(env, cP, colorful.Color{})
			d := ResolveNumber(env, dP, 0)
			h, s, l := c.Hsl()
			h2, s2, l2 := shift(h, s, l, d)
			h2 = math.Mod(h2, 360)
			if h2 < 0 {
				h2 += 360
			}
			return colorful.Hsl(h2, s2, l2)
		},
		resolve: func(env *Env) Param {
			return buildAdjusted(cP.Resolve(env), dP.Resolve(env), shift)
		},
	}
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
