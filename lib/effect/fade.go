package effect

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"lume/lib/fixture"
	"lume/lib/params"
)

// Fade endpoints may still be dynamic parameters; they are resolved once
// here so both endpoints see the same snapshot before interpolating.
func resolveEndpoint(env *Env, target any, v any) any {
	if p, ok := v.(params.Param); ok {
		if h, ok := target.(*fixture.Head); ok {
			return params.EvaluateForHead(env, p, h)
		}
		return p.Evaluate(env)
	}
	return v
}

func targetHead(target any) *fixture.Head {
	switch t := target.(type) {
	case *fixture.Head:
		return t
	case Function:
		return t.Head
	}
	return nil
}

// FadeNumber blends two level values linearly. A nil endpoint is level
// zero.
func FadeNumber(env *Env, target any, from, to any, fraction float64) any {
	if fraction <= 0 {
		return resolveEndpoint(env, target, from)
	}
	if fraction >= 1 {
		return resolveEndpoint(env, target, to)
	}
	a, _ := asNumber(resolveEndpoint(env, target, from))
	b, _ := asNumber(resolveEndpoint(env, target, to))
	return a + (b-a)*fraction
}

// FadeColor blends two colors through HCL space, which keeps mid-fade
// colors perceptually between the endpoints. A nil endpoint is black.
func FadeColor(env *Env, target any, from, to any, fraction float64) any {
	if fraction <= 0 {
		return colorEndpoint(env, target, from)
	}
	if fraction >= 1 {
		return colorEndpoint(env, target, to)
	}
	a := colorEndpoint(env, target, from)
	b := colorEndpoint(env, target, to)
	return a.BlendHcl(b, fraction).Clamped()
}

func colorEndpoint(env *Env, target any, v any) colorful.Color {
	r := resolveEndpoint(env, target, v)
	if r == nil {
		return colorful.Color{}
	}
	if c, ok := r.(colorful.Color); ok {
		return c
	}
	return colorful.Color{}
}

// FadeDirection interpolates two orientations in vector space and
// renormalizes, since a direction is an orientation rather than a
// magnitude. A nil endpoint is the head's rest orientation.
func FadeDirection(env *Env, target any, from, to any, fraction float64) any {
	h := targetHead(target)
	if fraction <= 0 {
		return directionEndpoint(env, target, h, from)
	}
	if fraction >= 1 {
		return directionEndpoint(env, target, h, to)
	}
	a := directionEndpoint(env, target, h, from)
	b := directionEndpoint(env, target, h, to)
	mixed := a.Mul(1 - fraction).Add(b.Mul(fraction))
	if mixed.Len() == 0 {
		return a
	}
	return mixed.Normalize()
}

func directionEndpoint(env *Env, target any, h *fixture.Head, v any) mgl64.Vec3 {
	r := resolveEndpoint(env, target, v)
	if r == nil {
		if h != nil {
			return h.RestDirection()
		}
		return mgl64.Vec3{0, 0, 1}
	}
	if vec, ok := r.(mgl64.Vec3); ok {
		return vec
	}
	return mgl64.Vec3{0, 0, 1}
}

// FadeAim interpolates two aiming points affinely; points have no
// magnitude constraint to restore. A nil endpoint is a point one metre
// along the head's rest orientation, so fading from nothing sweeps the
// beam continuously instead of snapping.
func FadeAim(env *Env, target any, from, to any, fraction float64) any {
	h := targetHead(target)
	if fraction <= 0 {
		return aimEndpoint(env, target, h, from)
	}
	if fraction >= 1 {
		return aimEndpoint(env, target, h, to)
	}
	a := aimEndpoint(env, target, h, from)
	b := aimEndpoint(env, target, h, to)
	return a.Mul(1 - fraction).Add(b.Mul(fraction))
}

func aimEndpoint(env *Env, target any, h *fixture.Head, v any) mgl64.Vec3 {
	r := resolveEndpoint(env, target, v)
	if r == nil {
		if h != nil {
			return h.Position.Add(h.RestDirection())
		}
		return mgl64.Vec3{0, 0, 1}
	}
	if vec, ok := r.(mgl64.Vec3); ok {
		return vec
	}
	return mgl64.Vec3{0, 0, 1}
}

// FadePanTilt interpolates two angle pairs affinely. A nil endpoint is
// the angles the head reaches with its movement channels at zero.
func FadePanTilt(env *Env, target any, from, to any, fraction float64) any {
	h := targetHead(target)
	if fraction <= 0 {
		return panTiltEndpoint(env, target, h, from)
	}
	if fraction >= 1 {
		return panTiltEndpoint(env, target, h, to)
	}
	a := panTiltEndpoint(env, target, h, from)
	b := panTiltEndpoint(env, target, h, to)
	return params.PanTilt{
		Pan:  a.Pan + (b.Pan-a.Pan)*fraction,
		Tilt: a.Tilt + (b.Tilt-a.Tilt)*fraction,
	}
}

func panTiltEndpoint(env *Env, target any, h *fixture.Head, v any) params.PanTilt {
	r := resolveEndpoint(env, target, v)
	if r == nil {
		if h != nil {
			return restAngles(h)
		}
		return params.PanTilt{}
	}
	if pt, ok := r.(params.PanTilt); ok {
		return pt
	}
	return params.PanTilt{}
}

// restAngles converts the all-channels-zero position into angles from
// the calibration center.
func restAngles(h *fixture.Head) params.PanTilt {
	var pt params.PanTilt
	if h.PanHalfCircle != 0 {
		pt.Pan = (0 - h.PanCenter) / h.PanHalfCircle * math.Pi
	}
	if h.TiltHalfCircle != 0 {
		pt.Tilt = (0 - h.TiltCenter) / h.TiltHalfCircle * math.Pi
	}
	return pt
}
