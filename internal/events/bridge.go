package events

import (
	"log"
	"math"
)

// Epsilon is the tolerance used when comparing state snapshots.
const Epsilon = 1e-6

// FloatEq compares two snapshot values within Epsilon.
func FloatEq(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// State is a per-element snapshot.
type State interface {
	Equals(other State) bool
	ToMap() map[string]any
}

// NamedState pairs a snapshot with its element name.
type NamedState struct {
	Name  string `json:"name"`
	State State  `json:"state"`
}

// Handler receives the arguments of a fired event.
type Handler func(args ...any)

// Listener observes every event fired through the bridge.
type Listener func(element, event string, args []any)

// Bridge dispatches element events to registered handlers and buffers state
// changes so observers can poll once per frame. It is not safe for concurrent
// use; the owning player serializes access.
type Bridge struct {
	handlers  map[string]map[string][]Handler
	listeners []Listener

	pending map[string]State
	order   []string
	last    map[string]State

	onStateChanged func(name string, state State)
}

func NewBridge() *Bridge {
	return &Bridge{
		handlers: make(map[string]map[string][]Handler),
		pending:  make(map[string]State),
		last:     make(map[string]State),
	}
}

// On registers a handler for an element's event.
func (b *Bridge) On(element, event string, h Handler) {
	byEvent, ok := b.handlers[element]
	if !ok {
		byEvent = make(map[string][]Handler)
		b.handlers[element] = byEvent
	}
	byEvent[event] = append(byEvent[event], h)
}

// Listen registers an observer for all events.
func (b *Bridge) Listen(l Listener) {
	b.listeners = append(b.listeners, l)
}

// Fire runs the handlers of element/event in registration order. A panicking
// handler is logged and does not stop the simulation.
func (b *Bridge) Fire(element, event string, args ...any) {
	for _, l := range b.listeners {
		l(element, event, args)
	}
	for _, h := range b.handlers[element][event] {
		b.call(element, event, h, args)
	}
}

func (b *Bridge) call(element, event string, h Handler, args []any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EVENTS] %s.%s handler panicked: %v", element, event, r)
		}
	}()
	h(args...)
}

// HasHandlers reports whether anything listens to element/event.
func (b *Bridge) HasHandlers(element, event string) bool {
	return len(b.handlers[element][event]) > 0 || len(b.listeners) > 0
}

// Emitter returns the event sink for one element.
func (b *Bridge) Emitter(element string) *Emitter {
	return &Emitter{bridge: b, name: element}
}

// SetOnStateChanged installs the synchronous state-change callback.
func (b *Bridge) SetOnStateChanged(cb func(name string, state State)) {
	b.onStateChanged = cb
}

// ChangeState records a new snapshot for name. Snapshots equal to the last
// recorded one are ignored. Within a frame the last write wins.
func (b *Bridge) ChangeState(name string, state State) {
	if prev, ok := b.last[name]; ok && prev.Equals(state) {
		return
	}
	b.last[name] = state
	if _, ok := b.pending[name]; !ok {
		b.order = append(b.order, name)
	}
	b.pending[name] = state
	if b.onStateChanged != nil {
		b.onStateChanged(name, state)
	}
}

// PopState returns and clears the pending snapshot of one element.
func (b *Bridge) PopState(name string) (State, bool) {
	st, ok := b.pending[name]
	if !ok {
		return nil, false
	}
	delete(b.pending, name)
	for i, n := range b.order {
		if n == name {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return st, true
}

// PopStates returns all pending snapshots in the order they first changed.
func (b *Bridge) PopStates() []NamedState {
	if len(b.order) == 0 {
		return nil
	}
	out := make([]NamedState, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, NamedState{Name: name, State: b.pending[name]})
	}
	b.pending = make(map[string]State)
	b.order = b.order[:0]
	return out
}

// Forget drops every snapshot kept for name, pending or not.
func (b *Bridge) Forget(name string) {
	b.PopState(name)
	delete(b.last, name)
}

// LastState returns the most recent snapshot of name, popped or not.
func (b *Bridge) LastState(name string) (State, bool) {
	st, ok := b.last[name]
	return st, ok
}

// Emitter fires events on behalf of a single element.
type Emitter struct {
	bridge *Bridge
	name   string
}

func (e *Emitter) Name() string { return e.name }

func (e *Emitter) FireGroupEvent(event string, args ...any) {
	e.bridge.Fire(e.name, event, args...)
}

// FireHitEvent fires "Hit" with the ball as argument.
func (e *Emitter) FireHitEvent(ball any) {
	e.bridge.Fire(e.name, "Hit", ball)
}
