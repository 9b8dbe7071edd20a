package effect

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"lume/lib/fixture"
	"lume/lib/params"
)

// Resolver lowers a merged assignment of one kind into concrete output:
// buffer writes, movement updates or buffered variable changes.
type Resolver func(f *Frame, a Assignment)

// Fader blends two resolved values of one kind. It must return from
// unchanged at fraction 0 and to unchanged at fraction 1. A nil endpoint
// means the value the hardware settles into with nothing assigned (rest
// orientation for movement kinds, zero for levels, black for color).
type Fader func(env *Env, target any, from, to any, fraction float64) any

// Registry holds the known attribute kinds in resolution order.
// Extensions register additional kinds with their own resolver, fader
// and position in the order.
type Registry struct {
	order     []Kind
	resolvers map[Kind]Resolver
	faders    map[Kind]Fader
}

// NewRegistry returns a registry with the built-in kinds in their fixed
// precedence order: raw channels first, then head functions, then the
// conceptual kinds that may overwrite their output, with variable
// assignments last since they never touch buffers.
func NewRegistry() *Registry {
	r := &Registry{
		resolvers: map[Kind]Resolver{},
		faders:    map[Kind]Fader{},
	}
	r.mustRegister(KindChannel, resolveChannel, FadeNumber)
	r.mustRegister(KindFunction, resolveFunction, FadeNumber)
	r.mustRegister(KindColor, resolveColor, FadeColor)
	r.mustRegister(KindPanTilt, resolvePanTilt, FadePanTilt)
	r.mustRegister(KindDirection, resolveDirection, FadeDirection)
	r.mustRegister(KindAim, resolveAim, FadeAim)
	r.mustRegister(KindVariable, resolveVariable, nil)
	return r
}

func (r *Registry) mustRegister(kind Kind, res Resolver, fade Fader) {
	if err := r.Register(kind, "", res, fade); err != nil {
		panic(err)
	}
}

// Register adds a kind to the registry. If before names an existing
// kind, the new kind resolves ahead of it; otherwise it is appended to
// the end of the order.
func (r *Registry) Register(kind Kind, before Kind, res Resolver, fade Fader) error {
	if _, exists := r.resolvers[kind]; exists {
		return fmt.Errorf("effect: kind %q already registered", kind)
	}
	if res == nil {
		return fmt.Errorf("effect: kind %q needs a resolver", kind)
	}
	pos := len(r.order)
	if before != "" {
		pos = -1
		for i, k := range r.order {
			if k == before {
				pos = i
				break
			}
		}
		if pos < 0 {
			return fmt.Errorf("effect: kind %q not registered, cannot order before it", before)
		}
	}
	r.order = append(r.order, "")
	copy(r.order[pos+1:], r.order[pos:])
	r.order[pos] = kind
	r.resolvers[kind] = res
	if fade != nil {
		r.faders[kind] = fade
	}
	return nil
}

// Order returns the kinds in resolution order.
func (r *Registry) Order() []Kind {
	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}

// Fader returns the fade function for a kind, or a plain snap (from
// below fraction 1, to at or above) when none is registered.
func (r *Registry) Fader(kind Kind) Fader {
	if f, ok := r.faders[kind]; ok {
		return f
	}
	return func(env *Env, target any, from, to any, fraction float64) any {
		if fraction >= 1 {
			return to
		}
		return from
	}
}

// Run resolves one frame's assigners. Within each kind, assigners are
// grouped by target preserving their order (which is the active effects'
// priority order) and folded left to right, each seeing the previous
// result; the final value goes to the kind's resolver.
func (r *Registry) Run(f *Frame, assigners []Assigner) {
	byKind := map[Kind][]Assigner{}
	for _, a := range assigners {
		byKind[a.Kind] = append(byKind[a.Kind], a)
	}
	for _, kind := range r.order {
		group := byKind[kind]
		if len(group) == 0 {
			continue
		}
		resolver := r.resolvers[kind]
		var targets []string
		grouped := map[string][]Assigner{}
		for _, a := range group {
			if _, seen := grouped[a.TargetID]; !seen {
				targets = append(targets, a.TargetID)
			}
			grouped[a.TargetID] = append(grouped[a.TargetID], a)
		}
		for _, id := range targets {
			r.runTarget(f, kind, resolver, id, grouped[id])
		}
	}
}

// runTarget shields the frame from a misbehaving assigner: a panic
// while resolving one target's chain is logged and that target keeps
// its last value, rather than aborting the whole frame.
func (r *Registry) runTarget(f *Frame, kind Kind, resolver Resolver, id string, chain []Assigner) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("assigner resolve panicked", "kind", string(kind), "target", id, "panic", fmt.Sprint(rec))
		}
	}()
	var value any
	for _, a := range chain {
		value = a.Resolve(f, a.Target, value)
	}
	if value == nil {
		return
	}
	resolver(f, Assignment{Kind: kind, TargetID: id, Target: chain[0].Target, Value: value})
}

func resolveChannel(f *Frame, a Assignment) {
	ch, ok := a.Target.(Channel)
	if !ok {
		return
	}
	if v, ok := asNumber(a.Value); ok {
		f.WriteChannel(ch.Universe, ch.Index, v)
	}
}

func resolveFunction(f *Frame, a Assignment) {
	fn, ok := a.Target.(Function)
	if !ok {
		return
	}
	if v, ok := asNumber(a.Value); ok {
		f.WriteHeadChannel(fn.Head, fn.Name, v)
	}
}

func resolveColor(f *Frame, a Assignment) {
	h, ok := a.Target.(*fixture.Head)
	if !ok {
		return
	}
	c, ok := a.Value.(colorful.Color)
	if !ok {
		return
	}
	f.WriteHeadChannel(h, "red", c.R*255)
	f.WriteHeadChannel(h, "green", c.G*255)
	f.WriteHeadChannel(h, "blue", c.B*255)
	if h.HasChannel("white") {
		f.WriteHeadChannel(h, "white", math.Min(c.R, math.Min(c.G, c.B))*255)
	}
}

func writeMovement(f *Frame, h *fixture.Head, targetID string, pan, tilt float64) {
	f.WriteHeadChannel(h, "pan", pan)
	f.WriteHeadChannel(h, "tilt", tilt)
	f.Movement.Store(targetID, PanTiltDMX{Pan: pan, Tilt: tilt})
}

func previousPosition(f *Frame, h *fixture.Head, targetID string) PanTiltDMX {
	if p, ok := f.Movement.Previous(targetID); ok {
		return p
	}
	pan, tilt := h.RestPanTilt()
	return PanTiltDMX{Pan: pan, Tilt: tilt}
}

func resolvePanTilt(f *Frame, a Assignment) {
	h, ok := a.Target.(*fixture.Head)
	if !ok {
		return
	}
	pt, ok := a.Value.(params.PanTilt)
	if !ok {
		return
	}
	pan := h.PanCenter + pt.Pan/math.Pi*h.PanHalfCircle
	tilt := h.TiltCenter + pt.Tilt/math.Pi*h.TiltHalfCircle
	writeMovement(f, h, a.TargetID, clampDMX(pan), clampDMX(tilt))
}

func resolveDirection(f *Frame, a Assignment) {
	h, ok := a.Target.(*fixture.Head)
	if !ok {
		return
	}
	dir, ok := a.Value.(mgl64.Vec3)
	if !ok || dir.Len() == 0 {
		return
	}
	prev := previousPosition(f, h, a.TargetID)
	pan, tilt := h.DirectionToPanTilt(dir, prev.Pan, prev.Tilt)
	writeMovement(f, h, a.TargetID, pan, tilt)
}

func resolveAim(f *Frame, a Assignment) {
	h, ok := a.Target.(*fixture.Head)
	if !ok {
		return
	}
	point, ok := a.Value.(mgl64.Vec3)
	if !ok {
		return
	}
	prev := previousPosition(f, h, a.TargetID)
	pan, tilt := h.AimToPanTilt(point, prev.Pan, prev.Tilt)
	writeMovement(f, h, a.TargetID, pan, tilt)
}

func resolveVariable(f *Frame, a Assignment) {
	key, ok := a.Target.(string)
	if !ok {
		return
	}
	f.PendingVars[key] = a.Value
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func clampDMX(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
