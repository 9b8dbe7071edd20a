// Package params implements dynamic parameters: values an effect uses
// that are either fixed when the effect is created, or recomputed on
// every rendered frame (oscillators, show-variable references, spatial
// gradients). Parameters resolve in two phases: a build-time pass folds
// away everything that cannot change between frames, and frame-time
// evaluation computes only the dynamic remainder.
package params

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"lume/lib/fixture"
	"lume/lib/rhythm"
	"lume/lib/vars"
)

// Type tags the kind of value a parameter produces, checked when inputs
// are bound into a typed slot.
type Type int

const (
	TypeNumber Type = iota
	TypeColor
	TypeVec3
	TypePanTilt
)

func (t Type) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeColor:
		return "color"
	case TypeVec3:
		return "vec3"
	case TypePanTilt:
		return "pan-tilt"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Env carries the show-global state a parameter may consult during
// evaluation: the variable store and the frame's metronome snapshot.
type Env struct {
	Vars     *vars.Store
	Snapshot *rhythm.Snapshot
}

// Param is a value that may need recomputing every frame.
//
// Resolve partially evaluates the parameter: sub-values that cannot
// change between frames are computed now and replaced by constants,
// leaving only the frame-dynamic remainder. Resolving an already
// constant parameter returns it unchanged.
type Param interface {
	Evaluate(env *Env) any
	FrameDynamic() bool
	Type() Type
	Resolve(env *Env) Param
}

// HeadParam is a parameter whose value additionally depends on which
// fixture head it is being evaluated for, such as a spatial gradient
// across the rig.
type HeadParam interface {
	Param
	EvaluateForHead(env *Env, head *fixture.Head) any
}

// PanTilt is a pan/tilt angle pair in radians relative to each head's
// calibration center.
type PanTilt struct {
	Pan  float64
	Tilt float64
}

// Var references a named show variable, late-bound at every frame. If
// the variable's current value has the wrong type, Default is used
// instead.
type Var struct {
	Key     string
	Default any
}

type constant struct {
	v   any
	typ Type
}

func (c constant) Evaluate(*Env) any  { return c.v }
func (c constant) FrameDynamic() bool { return false }
func (c constant) Type() Type         { return c.typ }
func (c constant) Resolve(*Env) Param { return c }

// Number wraps a literal number as a constant parameter.
func Number(v float64) Param {
	return constant{v: v, typ: TypeNumber}
}

// Color wraps a literal color as a constant parameter.
func Color(c colorful.Color) Param {
	return constant{v: c, typ: TypeColor}
}

// Vec3 wraps a literal vector or point as a constant parameter.
func Vec3(v mgl64.Vec3) Param {
	return constant{v: v, typ: TypeVec3}
}

type computed struct {
	typ          Type
	frameDynamic bool
	eval         func(*Env) any
	resolve      func(*Env) Param
}

func (p *computed) Evaluate(env *Env) any { return p.eval(env) }
func (p *computed) FrameDynamic() bool    { return p.frameDynamic }
func (p *computed) Type() Type            { return p.typ }

func (p *computed) Resolve(env *Env) Param {
	if !p.frameDynamic {
		return constant{v: p.eval(env), typ: p.typ}
	}
	if p.resolve != nil {
		return p.resolve(env)
	}
	return p
}

// Computed wraps an evaluation function as a parameter. The caller
// states whether the value must be recomputed every frame; a
// non-frame-dynamic computed parameter collapses to a constant when
// resolved.
func Computed(typ Type, frameDynamic bool, eval func(*Env) any) Param {
	return &computed{typ: typ, frameDynamic: frameDynamic, eval: eval}
}

type variableRef struct {
	key string
	typ Type
	def any
}

func (p *variableRef) FrameDynamic() bool { return true }
func (p *variableRef) Type() Type         { return p.typ }
func (p *variableRef) Resolve(*Env) Param { return p }

func (p *variableRef) Evaluate(env *Env) any {
	v := env.Vars.Get(p.key)
	if v == nil {
		return p.def
	}
	coerced, ok := coerce(v, p.typ)
	if !ok {
		slog.Warn("show variable has wrong type for parameter, using default",
			"key", p.key, "want", p.typ.String(), "got", fmt.Sprintf("%T", v))
		return p.def
	}
	return coerced
}

func coerce(v any, typ Type) (any, bool) {
	switch typ {
	case TypeNumber:
		if n, ok := vars.Number(v); ok {
			return n, true
		}
	case TypeColor:
		if c, ok := v.(colorful.Color); ok {
			return c, true
		}
	case TypeVec3:
		if vec, ok := v.(mgl64.Vec3); ok {
			return vec, true
		}
	case TypePanTilt:
		if pt, ok := v.(PanTilt); ok {
			return pt, true
		}
	}
	return nil, false
}

// Bind converts a raw input into a parameter of the required type. A
// literal of the right type becomes a constant; a Var becomes a
// late-bound variable reference with the given default; a Param is used
// directly if its declared type matches. Anything else is a programming
// error reported immediately.
func Bind(input any, typ Type, def any) (Param, error) {
	switch v := input.(type) {
	case nil:
		return nil, fmt.Errorf("params: nil bound where %s expected", typ)
	case Param:
		if v.Type() != typ {
			return nil, fmt.Errorf("params: %s parameter bound where %s expected", v.Type(), typ)
		}
		return v, nil
	case Var:
		d := v.Default
		if d == nil {
			d = def
		}
		if d == nil {
			d = zeroValue(typ)
		}
		return &variableRef{key: v.Key, typ: typ, def: d}, nil
	}
	if typ == TypeColor {
		if s, ok := input.(string); ok {
			c, err := colorful.Hex(s)
			if err != nil {
				return nil, fmt.Errorf("params: bad color literal %q: %w", s, err)
			}
			return constant{v: c, typ: TypeColor}, nil
		}
	}
	coerced, ok := coerce(input, typ)
	if !ok {
		return nil, fmt.Errorf("params: cannot bind %T where %s expected", input, typ)
	}
	return constant{v: coerced, typ: typ}, nil
}

func zeroValue(typ Type) any {
	switch typ {
	case TypeColor:
		return colorful.Color{}
	case TypeVec3:
		return mgl64.Vec3{}
	case TypePanTilt:
		return PanTilt{}
	}
	return float64(0)
}

func anyDynamic(ps ...Param) bool {
	for _, p := range ps {
		if p.FrameDynamic() {
			return true
		}
	}
	return false
}

func allConstant(ps ...Param) bool {
	return !anyDynamic(ps...)
}

// EvaluateForHead evaluates a parameter for a specific head, falling
// back to head-independent evaluation for plain parameters.
func EvaluateForHead(env *Env, p Param, head *fixture.Head) any {
	if hp, ok := p.(HeadParam); ok && head != nil {
		return hp.EvaluateForHead(env, head)
	}
	return p.Evaluate(env)
}

// ResolveNumber evaluates a parameter expected to produce a number,
// substituting def if it produces anything else.
func ResolveNumber(env *Env, p Param, def float64) float64 {
	if p == nil {
		return def
	}
	if n, ok := vars.Number(p.Evaluate(env)); ok {
		return n
	}
	return def
}

// ResolveColor evaluates a parameter expected to produce a color.
func ResolveColor(env *Env, p Param, def colorful.Color) colorful.Color {
	if p == nil {
		return def
	}
	if c, ok := p.Evaluate(env).(colorful.Color); ok {
		return c
	}
	return def
}

// ResolveVec3 evaluates a parameter expected to produce a vector.
func ResolveVec3(env *Env, p Param, def mgl64.Vec3) mgl64.Vec3 {
	if p == nil {
		return def
	}
	if v, ok := p.Evaluate(env).(mgl64.Vec3); ok {
		return v
	}
	return def
}

// ResolvePanTilt evaluates a parameter expected to produce a pan/tilt pair.
func ResolvePanTilt(env *Env, p Param, def PanTilt) PanTilt {
	if p == nil {
		return def
	}
	if pt, ok := p.Evaluate(env).(PanTilt); ok {
		return pt
	}
	return def
}
