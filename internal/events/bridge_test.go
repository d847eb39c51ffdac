package events

import "testing"

type angleState struct {
	angle float64
}

func (s *angleState) Equals(other State) bool {
	o, ok := other.(*angleState)
	return ok && FloatEq(s.angle, o.angle)
}

func (s *angleState) ToMap() map[string]any {
	return map[string]any{"angle": s.angle}
}

func TestOnAndFire(t *testing.T) {
	b := NewBridge()
	var got []any
	b.On("Gate1", "Hit", func(args ...any) { got = append(got, args...) })
	b.Emitter("Gate1").FireGroupEvent("Hit", 42)
	b.Emitter("Gate2").FireGroupEvent("Hit", 7)
	if len(got) != 1 || got[0] != 42 {
		t.Errorf("handler args = %v", got)
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	b := NewBridge()
	calls := 0
	b.On("Kicker1", "Hit", func(args ...any) { panic("boom") })
	b.On("Kicker1", "Hit", func(args ...any) { calls++ })
	b.Fire("Kicker1", "Hit")
	if calls != 1 {
		t.Errorf("second handler calls = %d, want 1", calls)
	}
}

func TestStateLastWriteWins(t *testing.T) {
	b := NewBridge()
	b.ChangeState("Flipper1", &angleState{1})
	b.ChangeState("Gate1", &angleState{0.5})
	b.ChangeState("Flipper1", &angleState{2})

	states := b.PopStates()
	if len(states) != 2 {
		t.Fatalf("popped %d states, want 2", len(states))
	}
	if states[0].Name != "Flipper1" || states[0].State.(*angleState).angle != 2 {
		t.Errorf("first state = %+v", states[0])
	}
	if again := b.PopStates(); len(again) != 0 {
		t.Errorf("states not cleared: %v", again)
	}
}

func TestForgetDropsState(t *testing.T) {
	b := NewBridge()
	b.ChangeState("Ball1", &angleState{1})
	b.ChangeState("Ball2", &angleState{2})
	b.Forget("Ball1")

	if _, ok := b.LastState("Ball1"); ok {
		t.Error("forgotten state still returned by LastState")
	}
	states := b.PopStates()
	if len(states) != 1 || states[0].Name != "Ball2" {
		t.Errorf("pending = %+v, want only Ball2", states)
	}

	calls := 0
	b.SetOnStateChanged(func(string, State) { calls++ })
	b.ChangeState("Ball1", &angleState{1})
	if calls != 1 {
		t.Errorf("state of a reused name was skipped")
	}
}

func TestUnchangedStateIsSkipped(t *testing.T) {
	b := NewBridge()
	calls := 0
	b.SetOnStateChanged(func(string, State) { calls++ })
	b.ChangeState("Flipper1", &angleState{1})
	b.PopStates()
	b.ChangeState("Flipper1", &angleState{1 + 1e-9})
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}
	if _, ok := b.PopState("Flipper1"); ok {
		t.Errorf("equal state should not be buffered")
	}
}

func TestCallbackAndBufferShareSnapshot(t *testing.T) {
	b := NewBridge()
	var seen State
	b.SetOnStateChanged(func(name string, st State) { seen = st })
	b.ChangeState("Plunger", &angleState{3})
	st, ok := b.PopState("Plunger")
	if !ok || st != seen {
		t.Errorf("buffered %v and callback %v differ", st, seen)
	}
}
