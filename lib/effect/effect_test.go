package effect

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"lume/lib/fixture"
	"lume/lib/params"
	"lume/lib/rhythm"
	"lume/lib/vars"
)

func testEnv() *Env {
	return &Env{Vars: vars.NewStore(), Snapshot: rhythm.New(120).Snapshot()}
}

func testFrame(env *Env) *Frame {
	return NewFrame(env, []int{0}, nil)
}

func levelAssigner(universe, index int, level float64, htp bool) Assigner {
	return Assigner{
		Kind:     KindChannel,
		TargetID: ChannelTargetID(universe, index),
		Target:   Channel{Universe: universe, Index: index},
		Resolve: func(f *Frame, target any, prev any) any {
			if htp {
				if p, ok := asNumber(prev); ok && p > level {
					return p
				}
			}
			return level
		},
	}
}

func TestChannelResolutionLatestWins(t *testing.T) {
	env := testEnv()
	f := testFrame(env)
	NewRegistry().Run(f, []Assigner{
		levelAssigner(0, 5, 100, false),
		levelAssigner(0, 5, 60, false),
	})
	if got := f.Buffers[0][5]; got != 60 {
		t.Errorf("got %d, want 60 (later effect wins outright)", got)
	}
}

func TestChannelResolutionHTP(t *testing.T) {
	env := testEnv()
	f := testFrame(env)
	NewRegistry().Run(f, []Assigner{
		levelAssigner(0, 5, 100, false),
		levelAssigner(0, 5, 60, true),
	})
	if got := f.Buffers[0][5]; got != 100 {
		t.Errorf("got %d, want 100 (HTP keeps the higher value)", got)
	}
}

func TestHTPMonotone(t *testing.T) {
	env := testEnv()
	f := testFrame(env)
	levels := []float64{40, 180, 20, 90, 250, 3}
	var assigners []Assigner
	for _, l := range levels {
		assigners = append(assigners, levelAssigner(0, 1, l, true))
	}
	NewRegistry().Run(f, assigners)
	got := float64(f.Buffers[0][1])
	for _, l := range levels {
		if got < l {
			t.Fatalf("resolved %v below contributing value %v", got, l)
		}
	}
	if got != 250 {
		t.Errorf("got %v, want 250", got)
	}
}

func TestChannelClamping(t *testing.T) {
	env := testEnv()
	f := testFrame(env)
	NewRegistry().Run(f, []Assigner{
		levelAssigner(0, 2, 400, false),
		levelAssigner(0, 3, -12, false),
	})
	if got := f.Buffers[0][2]; got != 255 {
		t.Errorf("got %d, want clamped 255", got)
	}
	if got := f.Buffers[0][3]; got != 0 {
		t.Errorf("got %d, want clamped 0", got)
	}
}

func TestKindOrder(t *testing.T) {
	r := NewRegistry()
	order := r.Order()
	pos := map[Kind]int{}
	for i, k := range order {
		pos[k] = i
	}
	if pos[KindChannel] > pos[KindColor] || pos[KindFunction] > pos[KindColor] {
		t.Errorf("raw kinds must resolve before conceptual kinds: %v", order)
	}
	if pos[KindColor] > pos[KindDirection] {
		t.Errorf("color resolves before movement: %v", order)
	}
}

func TestRegisterCustomKind(t *testing.T) {
	r := NewRegistry()
	var hit bool
	if err := r.Register("strobe", KindColor, func(f *Frame, a Assignment) { hit = true }, nil); err != nil {
		t.Fatal(err)
	}
	order := r.Order()
	found := -1
	for i, k := range order {
		if k == "strobe" {
			found = i
		}
	}
	if found < 0 {
		t.Fatal("strobe kind not in order")
	}
	if order[found+1] != KindColor {
		t.Errorf("strobe should resolve just before color, got order %v", order)
	}

	f := testFrame(testEnv())
	r.Run(f, []Assigner{{
		Kind:     "strobe",
		TargetID: "x",
		Target:   "x",
		Resolve:  func(*Frame, any, any) any { return 1.0 },
	}})
	if !hit {
		t.Error("custom resolver not invoked")
	}

	if err := r.Register(KindColor, "", func(*Frame, Assignment) {}, nil); err == nil {
		t.Error("expected error re-registering an existing kind")
	}
	if err := r.Register("x", "missing", func(*Frame, Assignment) {}, nil); err == nil {
		t.Error("expected error ordering before an unknown kind")
	}
}

func movementHead() *fixture.Head {
	return &fixture.Head{
		ID:             7,
		Universe:       0,
		Channels:       map[string]int{"pan": 10, "tilt": 11},
		Rotation:       mgl64.QuatIdent(),
		PanCenter:      127.5,
		PanHalfCircle:  85,
		TiltCenter:     127.5,
		TiltHalfCircle: 200,
	}
}

func TestDirectionResolution(t *testing.T) {
	h := movementHead()
	env := testEnv()
	f := testFrame(env)
	reg := NewRegistry()
	reg.Run(f, []Assigner{{
		Kind:     KindDirection,
		TargetID: HeadTargetID(h),
		Target:   h,
		Resolve:  func(*Frame, any, any) any { return mgl64.Vec3{0, 0, 1} },
	}})
	if got := f.Buffers[0][10]; math.Abs(float64(got)-128) > 1 {
		t.Errorf("facing +Z should center pan, got %d", got)
	}
	if prev, ok := f.Movement.Previous(HeadTargetID(h)); !ok {
		t.Error("movement cache not updated")
	} else if math.Abs(prev.Pan-127.5) > 1e-6 {
		t.Errorf("cached pan %v, want 127.5", prev.Pan)
	}
}

func TestColorResolution(t *testing.T) {
	h := &fixture.Head{
		ID:       1,
		Universe: 0,
		Channels: map[string]int{"red": 0, "green": 1, "blue": 2, "white": 3},
	}
	f := testFrame(testEnv())
	NewRegistry().Run(f, []Assigner{{
		Kind:     KindColor,
		TargetID: HeadTargetID(h),
		Target:   h,
		Resolve:  func(*Frame, any, any) any { return colorful.Color{R: 1, G: 0.5, B: 0.5} },
	}})
	if got := f.Buffers[0][0]; got != 255 {
		t.Errorf("red channel %d, want 255", got)
	}
	if got := f.Buffers[0][1]; got != 128 {
		t.Errorf("green channel %d, want 128", got)
	}
	if got := f.Buffers[0][3]; got != 128 {
		t.Errorf("white channel %d, want 128 (min component)", got)
	}
}

func TestVariableResolution(t *testing.T) {
	f := testFrame(testEnv())
	NewRegistry().Run(f, []Assigner{{
		Kind:     KindVariable,
		TargetID: "intensity",
		Target:   "intensity",
		Resolve:  func(*Frame, any, any) any { return 42.0 },
	}})
	if got := f.PendingVars["intensity"]; got != 42.0 {
		t.Errorf("got %v, want 42 buffered", got)
	}
}

func TestFadeBoundaryLaws(t *testing.T) {
	env := testEnv()
	h := movementHead()

	from := mgl64.Vec3{1, 0, 0}
	to := mgl64.Vec3{0, 0, 1}
	if got := FadeDirection(env, h, from, to, 0); got != any(from) {
		t.Errorf("direction fade at 0: got %v, want %v exactly", got, from)
	}
	if got := FadeDirection(env, h, from, to, 1); got != any(to) {
		t.Errorf("direction fade at 1: got %v, want %v exactly", got, to)
	}
	if got := FadeDirection(env, h, nil, to, 0); got != any(h.RestDirection()) {
		t.Errorf("direction fade from nil at 0: got %v, want rest %v", got, h.RestDirection())
	}
	if got := FadeDirection(env, h, nil, to, 1); got != any(to) {
		t.Errorf("direction fade from nil at 1: got %v, want %v", got, to)
	}

	a := params.PanTilt{Pan: 0.5, Tilt: -0.2}
	b := params.PanTilt{Pan: -1, Tilt: 1}
	if got := FadePanTilt(env, h, a, b, 0); got != any(a) {
		t.Errorf("pan-tilt fade at 0: got %v, want %v", got, a)
	}
	if got := FadePanTilt(env, h, a, b, 1); got != any(b) {
		t.Errorf("pan-tilt fade at 1: got %v, want %v", got, b)
	}
	if got := FadePanTilt(env, h, nil, b, 0); got != any(restAngles(h)) {
		t.Errorf("pan-tilt fade from nil at 0: got %v, want rest", got)
	}

	p1 := mgl64.Vec3{1, 2, 3}
	p2 := mgl64.Vec3{-1, 0, 5}
	if got := FadeAim(env, h, p1, p2, 0); got != any(p1) {
		t.Errorf("aim fade at 0: got %v, want %v", got, p1)
	}
	if got := FadeAim(env, h, p1, p2, 1); got != any(p2) {
		t.Errorf("aim fade at 1: got %v, want %v", got, p2)
	}

	if got := FadeNumber(env, nil, 10.0, 200.0, 0); got != 10.0 {
		t.Errorf("number fade at 0: got %v", got)
	}
	if got := FadeNumber(env, nil, 10.0, 200.0, 1); got != 200.0 {
		t.Errorf("number fade at 1: got %v", got)
	}
}

func TestFadeInterpolation(t *testing.T) {
	env := testEnv()
	h := movementHead()

	got := FadeDirection(env, h, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, 0.5).(mgl64.Vec3)
	if math.Abs(got.Len()-1) > 1e-9 {
		t.Errorf("mid-fade direction must stay unit length, got %v", got.Len())
	}
	if math.Abs(got.X()-got.Y()) > 1e-9 {
		t.Errorf("mid-fade should be symmetric, got %v", got)
	}

	aim := FadeAim(env, h, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, 0.25).(mgl64.Vec3)
	if aim != (mgl64.Vec3{0.5, 0, 0}) {
		t.Errorf("aim at 0.25: got %v, want (0.5 0 0)", aim)
	}

	if got := FadeNumber(env, nil, 0.0, 200.0, 0.25); got != 50.0 {
		t.Errorf("number fade at 0.25: got %v, want 50", got)
	}
}

func TestFadeResolvesDynamicEndpoints(t *testing.T) {
	env := testEnv()
	env.Vars.Set("level", 80.0)
	p, err := params.Bind(params.Var{Key: "level", Default: 0.0}, params.TypeNumber, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := FadeNumber(env, nil, p, 200.0, 0.5); got != 140.0 {
		t.Errorf("got %v, want 140", got)
	}
	if got := FadeNumber(env, nil, p, 200.0, 0); got != 80.0 {
		t.Errorf("at 0 the param endpoint resolves to its value: got %v", got)
	}
}

func TestFadeColorBoundaries(t *testing.T) {
	env := testEnv()
	red := colorful.Color{R: 1}
	blue := colorful.Color{B: 1}
	if got := FadeColor(env, nil, red, blue, 0); got != any(red) {
		t.Errorf("color fade at 0: got %v", got)
	}
	if got := FadeColor(env, nil, red, blue, 1); got != any(blue) {
		t.Errorf("color fade at 1: got %v", got)
	}
	if got := FadeColor(env, nil, nil, blue, 0); got != any(colorful.Color{}) {
		t.Errorf("color fade from nil is black: got %v", got)
	}
}

func BenchmarkResolve(b *testing.B) {
	env := testEnv()
	reg := NewRegistry()
	var assigners []Assigner
	for i := 0; i < 64; i++ {
		assigners = append(assigners, levelAssigner(0, i%16, float64(i*3), true))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f := NewFrame(env, []int{0}, nil)
		reg.Run(f, assigners)
	}
}
