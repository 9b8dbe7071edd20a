package params

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Direction builds a parameter producing a direction vector in show
// space from three component inputs. The vector is normalized at
// evaluation; a zero vector is passed through for the movement resolver
// to treat as "no direction".
func Direction(x, y, z any) (Param, error) {
	return vec3Param(x, y, z, true)
}

// Aim builds a parameter producing a target point in show space.
func Aim(x, y, z any) (Param, error) {
	return vec3Param(x, y, z, false)
}

func vec3Param(x, y, z any, normalize bool) (Param, error) {
	xP, err := Bind(x, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	yP, err := Bind(y, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	zP, err := Bind(z, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	p := buildVec3(xP, yP, zP, normalize)
	if allConstant(xP, yP, zP) {
		return p.Resolve(nil), nil
	}
	return p, nil
}

func buildVec3(xP, yP, zP Param, normalize bool) Param {
	return &computed{
		typ:          TypeVec3,
		frameDynamic: anyDynamic(xP, yP, zP),
		eval: func(env *Env) any {
			v := mgl64.Vec3{
				ResolveNumber(env, xP, 0),
				ResolveNumber(env, yP, 0),
				ResolveNumber(env, zP, 0),
			}
			if normalize && v.Len() > 0 {
				return v.Normalize()
			}
			return v
		},
		resolve: func(env *Env) Param {
			return buildVec3(xP.Resolve(env), yP.Resolve(env), zP.Resolve(env), normalize)
		},
	}
}

// PanTiltParam builds a parameter producing a pan/tilt angle pair. Pan
// and tilt are angles from each head's calibration center, in radians,
// or in degrees when degrees is set.
func PanTiltParam(pan, tilt any, degrees bool) (Param, error) {
	panP, err := Bind(pan, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	tiltP, err := Bind(tilt, TypeNumber, float64(0))
	if err != nil {
		return nil, err
	}
	p := buildPanTilt(panP, tiltP, degrees)
	if allConstant(panP, tiltP) {
		return p.Resolve(nil), nil
	}
	return p, nil
}

func buildPanTilt(panP, tiltP Param, degrees bool) Param {
	scale := 1.0
	if degrees {
		scale = mgl64.DegToRad(1)
	}
	return &computed{
		typ:          TypePanTilt,
		frameDynamic: anyDynamic(panP, tiltP),
		eval: func(env *Env) any {
			return PanTilt{
				Pan:  ResolveNumber(env, panP, 0) * scale,
				Tilt: ResolveNumber(env, tiltP, 0) * scale,
			}
		},
		resolve: func(env *Env) Param {
			return buildPanTilt(panP.Resolve(env), tiltP.Resolve(env), degrees)
		},
	}
}
