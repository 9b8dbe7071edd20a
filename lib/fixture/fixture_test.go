package fixture

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const testConfig = `
profiles:
  rgbw-par:
    channels: {dimmer: 1, red: 2, green: 3, blue: 4, white: 5}
  spot:
    channels: {dimmer: 1, pan: 2, tilt: 4}
    fine_channels: {pan: 3, tilt: 5}
    pan: {center: 127.5, half_circle: 85}
    tilt: {center: 127.5, half_circle: 200}
patch:
  - id: par-1
    profile: rgbw-par
    universe: 0
    base: 1
  - id: par-2
    profile: rgbw-par
    universe: 0
    base: 6
  - id: spot-1
    profile: spot
    universe: 1
    base: 101
    position: [1, 3, 0]
`

func TestParsePatch(t *testing.T) {
	patch, err := ParsePatch([]byte(testConfig))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(patch.Fixtures()); got != 3 {
		t.Fatalf("got %d fixtures, want 3", got)
	}
	if got := len(patch.Heads()); got != 3 {
		t.Fatalf("got %d heads, want 3", got)
	}

	par2 := patch.Fixture("par-2").Head()
	if ch, _ := par2.Channel("blue"); ch != 8 {
		t.Errorf("par-2 blue at offset %d, want 8", ch)
	}

	spot := patch.Fixture("spot-1").Head()
	if spot.Universe != 1 {
		t.Errorf("spot-1 universe %d, want 1", spot.Universe)
	}
	if ch, _ := spot.Channel("pan"); ch != 101 {
		t.Errorf("spot-1 pan at offset %d, want 101", ch)
	}
	if ch, ok := spot.FineChannels["pan"]; !ok || ch != 102 {
		t.Errorf("spot-1 fine pan at offset %d, want 102", ch)
	}
	if !spot.Movable() {
		t.Error("spot-1 should be movable")
	}
	if spot.Position != (mgl64.Vec3{1, 3, 0}) {
		t.Errorf("spot-1 position %v", spot.Position)
	}

	if got := patch.Universes(); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("got universes %v, want [0 1]", got)
	}
}

func TestParsePatchErrors(t *testing.T) {
	cases := []string{
		"profiles: {}\npatch:\n  - {id: x, profile: missing, base: 1}\n",
		"profiles: {p: {channels: {dimmer: 1}}}\npatch:\n  - {id: x, profile: p, base: 0}\n",
		"profiles: {p: {channels: {dimmer: 5}}}\npatch:\n  - {id: x, profile: p, base: 510}\n",
		"profiles: {p: {channels: {dimmer: 1}}}\npatch:\n  - {id: x, profile: p, base: 1}\n  - {id: x, profile: p, base: 2}\n",
	}
	for i, cfg := range cases {
		if _, err := ParsePatch([]byte(cfg)); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func testHead() *Head {
	return &Head{
		Channels:       map[string]int{"pan": 0, "tilt": 1},
		Rotation:       mgl64.QuatIdent(),
		PanCenter:      127.5,
		PanHalfCircle:  85,
		TiltCenter:     127.5,
		TiltHalfCircle: 200,
	}
}

func TestPanTiltRoundTrip(t *testing.T) {
	h := testHead()
	for _, tc := range [][2]float64{{127.5, 127.5}, {100, 80}, {160, 180}, {42.5, 127.5}} {
		dir := h.PanTiltToDirection(tc[0], tc[1])
		pan, tilt := h.DirectionToPanTilt(dir, tc[0], tc[1])
		if math.Abs(pan-tc[0]) > 1e-6 || math.Abs(tilt-tc[1]) > 1e-6 {
			t.Errorf("round trip (%v, %v) -> (%v, %v)", tc[0], tc[1], pan, tilt)
		}
	}
}

func TestDirectionCenter(t *testing.T) {
	h := testHead()
	dir := h.PanTiltToDirection(127.5, 127.5)
	if !dir.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("centered head should face +Z, got %v", dir)
	}
}

func TestDirectionWithFixtureRotation(t *testing.T) {
	h := testHead()
	// Hang the fixture rotated a quarter turn about Y: centered
	// pan/tilt now faces +X.
	h.Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	dir := h.PanTiltToDirection(127.5, 127.5)
	if !dir.ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-9) {
		t.Errorf("rotated head should face +X, got %v", dir)
	}
	pan, tilt := h.DirectionToPanTilt(mgl64.Vec3{1, 0, 0}, 127.5, 127.5)
	if math.Abs(pan-127.5) > 1e-6 || math.Abs(tilt-127.5) > 1e-6 {
		t.Errorf("got (%v, %v), want centered", pan, tilt)
	}
}

func TestAimToPanTilt(t *testing.T) {
	h := testHead()
	h.Position = mgl64.Vec3{0, 2, 0}
	// A point straight out along +Z at head height needs no movement
	// from center.
	pan, tilt := h.AimToPanTilt(mgl64.Vec3{0, 2, 5}, 127.5, 127.5)
	if math.Abs(pan-127.5) > 1e-6 || math.Abs(tilt-127.5) > 1e-6 {
		t.Errorf("got (%v, %v), want centered", pan, tilt)
	}
	// A point below the head needs downward tilt, which is positive
	// DMX past center in this calibration.
	_, tilt = h.AimToPanTilt(mgl64.Vec3{0, 0, 5}, 127.5, 127.5)
	if tilt <= 127.5 {
		t.Errorf("expected downward tilt past center, got %v", tilt)
	}
}

func TestRestDirectionWithoutCalibration(t *testing.T) {
	// A head with movement channels but no axis calibration stays fixed
	// at its center instead of producing NaN.
	h := &Head{
		Channels: map[string]int{"pan": 0, "tilt": 1},
		Rotation: mgl64.QuatIdent(),
	}
	rest := h.RestDirection()
	for i, v := range rest {
		if math.IsNaN(v) {
			t.Fatalf("rest direction component %d is NaN: %v", i, rest)
		}
	}
	if !rest.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("uncalibrated head should face +Z, got %v", rest)
	}
}

func TestRestDirection(t *testing.T) {
	h := testHead()
	rest := h.RestDirection()
	want := h.PanTiltToDirection(0, 0)
	if !rest.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("rest direction %v, want %v", rest, want)
	}
	if math.Abs(rest.Len()-1) > 1e-9 {
		t.Errorf("rest direction not unit length: %v", rest.Len())
	}
}
