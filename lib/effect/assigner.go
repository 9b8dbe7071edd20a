package effect

import (
	"fmt"

	"lume/lib/fixture"
)

// Kind identifies the attribute an assigner sets. Kinds resolve in a
// fixed order each frame: raw channel kinds first, so higher-level
// conceptual kinds can override what they wrote.
type Kind string

const (
	KindChannel   Kind = "channel"
	KindFunction  Kind = "function"
	KindColor     Kind = "color"
	KindPanTilt   Kind = "pan-tilt"
	KindDirection Kind = "direction"
	KindAim       Kind = "aim"
	KindVariable  Kind = "variable"
)

// Channel identifies one raw DMX channel as an assignment target.
type Channel struct {
	Universe int
	Index    int
}

// Function identifies a named channel function of a head, such as the
// dimmer, as an assignment target.
type Function struct {
	Head *fixture.Head
	Name string
}

// Assigner is one effect's request to set one attribute on one target
// for the current frame. Resolve receives the previously resolved value
// for the same target (nil if this assigner is first), letting a
// later-running effect blend with or override its predecessors; the
// highest-takes-precedence rule is a max over the previous value.
type Assigner struct {
	Kind     Kind
	TargetID string
	Target   any
	Resolve  func(frame *Frame, target any, prev any) any
}

// Assignment is the winning value for a (kind, target) pair after all
// of a frame's assigners for that target have been folded together.
type Assignment struct {
	Kind     Kind
	TargetID string
	Target   any
	Value    any
}

// ChannelTargetID names a raw channel target.
func ChannelTargetID(universe, index int) string {
	return fmt.Sprintf("u%dc%d", universe, index)
}

// HeadTargetID names a head target.
func HeadTargetID(h *fixture.Head) string {
	return fmt.Sprintf("h%d", h.ID)
}

// FunctionTargetID names a head-function target.
func FunctionTargetID(h *fixture.Head, function string) string {
	return fmt.Sprintf("h%d:%s", h.ID, function)
}
