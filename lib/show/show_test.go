package show

import (
	"testing"

	"lume/lib/effect"
	"lume/lib/fixture"
	"lume/lib/params"
)

func testPatch(t *testing.T) *fixture.Patch {
	t.Helper()
	p := fixture.NewPatch()
	err := p.Add(&fixture.Fixture{ID: "wash", Heads: []*fixture.Head{{
		Universe: 0,
		Channels: map[string]int{"dimmer": 0, "red": 1, "green": 2, "blue": 3},
	}}})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func levelEffect(name string, level float64, htp bool) effect.Effect {
	return &testEffect{name: name, level: level, htp: htp}
}

type testEffect struct {
	effect.Base
	name  string
	level float64
	htp   bool
}

func (e *testEffect) Name() string { return e.name }

func (e *testEffect) Generate(env *effect.Env) []effect.Assigner {
	return []effect.Assigner{{
		Kind:     effect.KindChannel,
		TargetID: effect.ChannelTargetID(0, 0),
		Target:   effect.Channel{Universe: 0, Index: 0},
		Resolve: func(f *effect.Frame, target any, prev any) any {
			if e.htp {
				if p, ok := prev.(float64); ok && p > e.level {
					return p
				}
			}
			return e.level
		},
	}}
}

func TestMasterChain(t *testing.T) {
	grand := NewMaster(nil)
	mid := NewMaster(grand)
	leaf := NewMaster(mid)

	grand.SetLevel(50)
	mid.SetLevel(50)
	if got := leaf.Scale(200); got != 50 {
		t.Errorf("got %v, want 200 * 0.5 * 0.5 * 1.0 = 50", got)
	}

	mid.SetLevel(0)
	if got := leaf.Scale(200); got != 0 {
		t.Errorf("got %v, want 0 with a zero ancestor", got)
	}

	mid.SetLevel(120)
	if got := mid.Level(); got != 100 {
		t.Errorf("level clamps to 100, got %v", got)
	}
	mid.SetLevel(-5)
	if got := mid.Level(); got != 0 {
		t.Errorf("level clamps to 0, got %v", got)
	}
}

func TestFrameMergesEffectsInPriorityOrder(t *testing.T) {
	s := New(testPatch(t))

	s.AddEffect(levelEffect("base", 100, false))
	s.AddEffect(levelEffect("override", 60, false))
	buffers := s.Frame()
	if got := buffers[0][0]; got != 60 {
		t.Errorf("got %d, want 60 (later effect overrides)", got)
	}

	s.ClearEffects()
	s.AddEffect(levelEffect("base", 100, false))
	s.AddEffect(levelEffect("htp", 60, true))
	buffers = s.Frame()
	if got := buffers[0][0]; got != 100 {
		t.Errorf("got %d, want 100 (HTP keeps the higher)", got)
	}
}

func TestPriorityDominatesRecency(t *testing.T) {
	s := New(testPatch(t))
	s.AddEffect(levelEffect("important", 200, false), WithPriority(10))
	s.AddEffect(levelEffect("late", 30, false))
	buffers := s.Frame()
	if got := buffers[0][0]; got != 200 {
		t.Errorf("got %d, want 200: higher priority resolves after a later low-priority effect", got)
	}

	names := s.ActiveEffects()
	if len(names) != 2 || names[0] != "late" || names[1] != "important" {
		t.Errorf("active order %v, want [late important]", names)
	}
}

func TestAddEffectReplacesByKey(t *testing.T) {
	s := New(testPatch(t))
	s.AddEffect(levelEffect("first", 100, false), WithKey("look"))
	s.AddEffect(levelEffect("second", 50, false), WithKey("look"))
	if names := s.ActiveEffects(); len(names) != 1 || names[0] != "second" {
		t.Errorf("active %v, want just the replacement", names)
	}
	buffers := s.Frame()
	if got := buffers[0][0]; got != 50 {
		t.Errorf("got %d, want the replacement's 50", got)
	}
}

func TestEndEffect(t *testing.T) {
	s := New(testPatch(t))
	s.AddEffect(levelEffect("e", 100, false), WithKey("e"))
	if !s.EndEffect("e") {
		t.Fatal("EndEffect should find the keyed effect")
	}
	if s.EndEffect("e") {
		t.Error("second EndEffect should find nothing")
	}
	buffers := s.Frame()
	if got := buffers[0][0]; got != 0 {
		t.Errorf("got %d, want 0 after the effect ended", got)
	}
}

func TestFrameDropsFinishedEffects(t *testing.T) {
	s := New(testPatch(t))
	e := levelEffect("e", 100, false)
	s.AddEffect(e)
	e.End(s.env())
	s.Frame()
	if names := s.ActiveEffects(); len(names) != 0 {
		t.Errorf("finished effect still listed: %v", names)
	}
}

type varEffect struct {
	effect.Base
	key   string
	value any
}

func (e *varEffect) Name() string { return "set " + e.key }

func (e *varEffect) Generate(env *effect.Env) []effect.Assigner {
	return []effect.Assigner{{
		Kind:     effect.KindVariable,
		TargetID: e.key,
		Target:   e.key,
		Resolve:  func(*effect.Frame, any, any) any { return e.value },
	}}
}

func TestVariableAssignAndRestore(t *testing.T) {
	s := New(testPatch(t))
	s.Vars.Set("intensity", 10.0)

	e := &varEffect{key: "intensity", value: 80.0}
	s.AddEffect(e)
	s.Frame()
	if got := s.Vars.Get("intensity"); got != 80.0 {
		t.Errorf("got %v, want 80 while the effect runs", got)
	}

	e.End(s.env())
	s.Frame()
	if got := s.Vars.Get("intensity"); got != 10.0 {
		t.Errorf("got %v, want prior value 10 restored", got)
	}
}

func TestVariableRemovedWhenNoPriorValue(t *testing.T) {
	s := New(testPatch(t))
	e := &varEffect{key: "fresh", value: 1.0}
	s.AddEffect(e)
	s.Frame()
	if got := s.Vars.Get("fresh"); got != 1.0 {
		t.Errorf("got %v, want 1 while assigned", got)
	}
	e.End(s.env())
	s.Frame()
	if got := s.Vars.Get("fresh"); got != nil {
		t.Errorf("got %v, want the variable gone again", got)
	}
}

func TestVariableVisibleToLaterEffect(t *testing.T) {
	s := New(testPatch(t))
	s.AddEffect(&varEffect{key: "level", value: 150.0})
	s.AddEffect(&paramEffect{p: params.Var{Key: "level", Default: 0.0}})

	// First frame assigns the variable after resolution, so the reading
	// effect sees the default; from the second frame on it sees the value.
	buffers := s.Frame()
	if got := buffers[0][0]; got != 0 {
		t.Errorf("first frame got %d, want default 0", got)
	}
	buffers = s.Frame()
	if got := buffers[0][0]; got != 150 {
		t.Errorf("second frame got %d, want the assigned 150", got)
	}
}

type paramEffect struct {
	effect.Base
	p params.Var
}

func (e *paramEffect) Name() string { return "param" }

func (e *paramEffect) Generate(env *effect.Env) []effect.Assigner {
	bound, err := params.Bind(e.p, params.TypeNumber, float64(0))
	if err != nil {
		panic(err)
	}
	return []effect.Assigner{{
		Kind:     effect.KindChannel,
		TargetID: effect.ChannelTargetID(0, 0),
		Target:   effect.Channel{Universe: 0, Index: 0},
		Resolve: func(f *effect.Frame, target any, prev any) any {
			return params.ResolveNumber(f.Env, bound, 0)
		},
	}}
}

func TestGenerateRecoversFromPanic(t *testing.T) {
	s := New(testPatch(t))
	s.AddEffect(&panicEffect{})
	s.AddEffect(levelEffect("ok", 90, false))
	buffers := s.Frame()
	if got := buffers[0][0]; got != 90 {
		t.Errorf("got %d, want 90: a panicking effect must not take the frame down", got)
	}
}

type panicEffect struct {
	effect.Base
}

func (e *panicEffect) Name() string { return "broken" }

func (e *panicEffect) Generate(*effect.Env) []effect.Assigner {
	panic("boom")
}

func TestControlConcurrentWithFrames(t *testing.T) {
	s := New(testPatch(t))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			s.AddEffect(levelEffect("look", float64(i%200), false), WithKey("look"))
			s.EndEffect("look")
		}
		s.ClearEffects()
	}()
	for {
		s.Frame()
		select {
		case <-done:
			s.Frame()
			return
		default:
		}
	}
}

type resolvePanicEffect struct {
	effect.Base
}

func (e *resolvePanicEffect) Name() string { return "broken resolve" }

func (e *resolvePanicEffect) Generate(*effect.Env) []effect.Assigner {
	return []effect.Assigner{{
		Kind:     effect.KindChannel,
		TargetID: effect.ChannelTargetID(0, 1),
		Target:   effect.Channel{Universe: 0, Index: 1},
		Resolve:  func(*effect.Frame, any, any) any { panic("resolve boom") },
	}}
}

func TestResolveRecoversFromPanic(t *testing.T) {
	s := New(testPatch(t))
	s.AddEffect(&resolvePanicEffect{})
	s.AddEffect(levelEffect("ok", 90, false))
	buffers := s.Frame()
	if got := buffers[0][0]; got != 90 {
		t.Errorf("got %d, want 90: a panicking resolve must not take the frame down", got)
	}
}

func TestFrameBuffersCoverPatchedUniverses(t *testing.T) {
	p := fixture.NewPatch()
	if err := p.Add(&fixture.Fixture{ID: "a", Heads: []*fixture.Head{{Universe: 0, Channels: map[string]int{"dimmer": 0}}}}); err != nil {
		t.Fatal(err)
	}
	if err := p.Add(&fixture.Fixture{ID: "b", Heads: []*fixture.Head{{Universe: 2, Channels: map[string]int{"dimmer": 0}}}}); err != nil {
		t.Fatal(err)
	}
	s := New(p)
	buffers := s.Frame()
	if len(buffers) != 2 {
		t.Fatalf("got %d universes, want 2", len(buffers))
	}
	for _, u := range []int{0, 2} {
		if len(buffers[u]) != 512 {
			t.Errorf("universe %d frame length %d, want 512", u, len(buffers[u]))
		}
	}
}

func BenchmarkFrame(b *testing.B) {
	p := fixture.NewPatch()
	for i := 0; i < 16; i++ {
		if err := p.Add(&fixture.Fixture{
			ID:    string(rune('a' + i)),
			Heads: []*fixture.Head{{Universe: 0, Channels: map[string]int{"dimmer": i}}},
		}); err != nil {
			b.Fatal(err)
		}
	}
	s := New(p)
	for i := 0; i < 8; i++ {
		s.AddEffect(levelEffect("e", float64(i*20), true))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Frame()
	}
}
