// Package fixture models patched lighting hardware: fixtures made of one
// or more heads, each with DMX channel addresses, a physical position and
// orientation, and pan/tilt calibration for aiming the beam.
package fixture

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Head is one independently movable light source. Simple fixtures have a
// single head; a multi-cell bar or a moving head with several emitters
// has one Head per cell. Channel indexes are zero-based offsets into the
// head's universe buffer.
type Head struct {
	ID      int
	Fixture *Fixture

	Universe     int
	Channels     map[string]int
	FineChannels map[string]int

	// Physical placement in show space, metres, used by spatial
	// parameters and aim calculations.
	Position mgl64.Vec3
	Rotation mgl64.Quat

	// Pan/tilt calibration in coarse DMX units: the value that centers
	// the axis, and the span corresponding to a half circle.
	PanCenter      float64
	PanHalfCircle  float64
	TiltCenter     float64
	TiltHalfCircle float64
}

// Channel returns the zero-based universe offset of a named function.
func (h *Head) Channel(name string) (int, bool) {
	c, ok := h.Channels[name]
	return c, ok
}

func (h *Head) HasChannel(name string) bool {
	_, ok := h.Channels[name]
	return ok
}

func (h *Head) Movable() bool {
	return h.HasChannel("pan") || h.HasChannel("tilt")
}

// Fixture is a patched unit: one or more heads sharing an identity.
type Fixture struct {
	ID    string
	Heads []*Head
}

// Head returns the fixture's primary head.
func (f *Fixture) Head() *Head {
	return f.Heads[0]
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

// anglesToLocal converts pan/tilt angles (radians, zero = calibration
// center) to a unit direction in the head's local frame, where the beam
// at rest points along +Z and +Y is up.
func anglesToLocal(pan, tilt float64) mgl64.Vec3 {
	return mgl64.Vec3{
		math.Cos(tilt) * math.Sin(pan),
		-math.Sin(tilt),
		math.Cos(tilt) * math.Cos(pan),
	}
}

// PanTiltToDirection converts coarse DMX pan/tilt values into a unit
// direction vector in show space. An axis with no calibration span is
// treated as fixed at its center.
func (h *Head) PanTiltToDirection(pan, tilt float64) mgl64.Vec3 {
	var panRad, tiltRad float64
	if h.PanHalfCircle != 0 {
		panRad = (pan - h.PanCenter) / h.PanHalfCircle * math.Pi
	}
	if h.TiltHalfCircle != 0 {
		tiltRad = (tilt - h.TiltCenter) / h.TiltHalfCircle * math.Pi
	}
	return h.Rotation.Rotate(anglesToLocal(panRad, tiltRad)).Normalize()
}

// RestDirection is the direction the head faces with all movement
// channels at zero. Fades to or from "nothing" aim here so the beam
// moves continuously instead of snapping.
func (h *Head) RestDirection() mgl64.Vec3 {
	return h.PanTiltToDirection(0, 0)
}

// RestPanTilt is the DMX pan/tilt pair for all movement channels at zero.
func (h *Head) RestPanTilt() (float64, float64) {
	return 0, 0
}

// DirectionToPanTilt converts a show-space direction into coarse DMX
// pan/tilt values, choosing among equivalent pan rotations the one
// closest to the head's previous position so movement stays continuous.
func (h *Head) DirectionToPanTilt(dir mgl64.Vec3, prevPan, prevTilt float64) (float64, float64) {
	local := h.Rotation.Inverse().Rotate(dir)
	if local.Len() == 0 {
		return clampDMX(prevPan), clampDMX(prevTilt)
	}
	local = local.Normalize()

	tiltRad := math.Asin(-local.Y())
	panRad := math.Atan2(local.X(), local.Z())

	tilt := h.TiltCenter + tiltRad/math.Pi*h.TiltHalfCircle
	pan := h.PanCenter + panRad/math.Pi*h.PanHalfCircle

	// Moving heads usually cover more than a full circle of pan, so the
	// same direction is reachable at several DMX values.
	span := 2 * math.Abs(h.PanHalfCircle)
	best := pan
	for _, cand := range []float64{pan - span, pan + span} {
		if cand >= 0 && cand <= 255 && math.Abs(cand-prevPan) < math.Abs(best-prevPan) {
			best = cand
		}
	}

	return clampDMX(best), clampDMX(tilt)
}

// AimToPanTilt aims the head at a point in show space.
func (h *Head) AimToPanTilt(point mgl64.Vec3, prevPan, prevTilt float64) (float64, float64) {
	dir := point.Sub(h.Position)
	if dir.Len() == 0 {
		return clampDMX(prevPan), clampDMX(prevTilt)
	}
	return h.DirectionToPanTilt(dir.Normalize(), prevPan, prevTilt)
}
