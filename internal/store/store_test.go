package store

import (
	"context"
	"errors"
	"testing"

	"github.com/playmatatu/pinball/internal/events"
)

type angleState struct {
	angle float64
}

func (s *angleState) Equals(other events.State) bool {
	o, ok := other.(*angleState)
	return ok && events.FloatEq(s.angle, o.angle)
}

func (s *angleState) ToMap() map[string]any {
	return map[string]any{"angle": s.angle}
}

func TestSnapshotEncodeDecode(t *testing.T) {
	snap := NewSnapshot("s1", 120, []events.NamedState{
		{Name: "LeftFlipper", State: &angleState{angle: 1.25}},
		{Name: "Gate1", State: &angleState{angle: -0.5}},
	})

	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SessionID != "s1" || got.SimTimeMs != 120 {
		t.Errorf("header = %s/%v, want s1/120", got.SessionID, got.SimTimeMs)
	}
	if a, _ := got.States["LeftFlipper"]["angle"].(float64); a != 1.25 {
		t.Errorf("LeftFlipper angle = %v, want 1.25", got.States["LeftFlipper"]["angle"])
	}
	if len(got.States) != 2 {
		t.Errorf("states = %d, want 2", len(got.States))
	}
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	if _, err := DecodeSnapshot([]byte{0xc1}); err == nil {
		t.Error("expected error for invalid msgpack")
	}
}

func TestSnapshotMergeKeepsOlderStates(t *testing.T) {
	base := NewSnapshot("s1", 10, []events.NamedState{
		{Name: "A", State: &angleState{angle: 1}},
		{Name: "B", State: &angleState{angle: 2}},
	})
	base.Merge(NewSnapshot("s1", 20, []events.NamedState{
		{Name: "B", State: &angleState{angle: 3}},
	}))

	if base.SimTimeMs != 20 {
		t.Errorf("SimTimeMs = %v, want 20", base.SimTimeMs)
	}
	if base.States["A"]["angle"] != 1.0 {
		t.Errorf("A = %v, want 1", base.States["A"]["angle"])
	}
	if base.States["B"]["angle"] != 3.0 {
		t.Errorf("B = %v, want 3", base.States["B"]["angle"])
	}
	base.Merge(nil)
	if base.SimTimeMs != 20 {
		t.Error("merging nil changed the snapshot")
	}
}

func TestKeys(t *testing.T) {
	if got := valueKey("Table1", "HighScore"); got != "pinball:value:Table1:HighScore" {
		t.Errorf("valueKey = %q", got)
	}
	if got := StateChannel("abc"); got != "pinball:states:abc" {
		t.Errorf("StateChannel = %q", got)
	}
}

type memValues struct {
	data  map[string]any
	saves int
	fail  error
}

func newMemValues() *memValues {
	return &memValues{data: make(map[string]any)}
}

func (m *memValues) SaveValue(ctx context.Context, table, key string, value any) error {
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.data[table+"/"+key] = value
	return nil
}

func (m *memValues) LoadValue(ctx context.Context, table, key string) (any, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	v, ok := m.data[table+"/"+key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func TestValuesWriteThrough(t *testing.T) {
	cache, durable := newMemValues(), newMemValues()
	v := &Values{Cache: cache, Durable: durable}
	ctx := context.Background()

	if err := v.SaveValue(ctx, "T", "k", 42.0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if cache.data["T/k"] != 42.0 || durable.data["T/k"] != 42.0 {
		t.Errorf("write did not reach both layers: cache=%v durable=%v", cache.data, durable.data)
	}
}

func TestValuesFillsCacheOnMiss(t *testing.T) {
	cache, durable := newMemValues(), newMemValues()
	durable.data["T/k"] = "hello"
	v := &Values{Cache: cache, Durable: durable}

	got, err := v.LoadValue(context.Background(), "T", "k")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %v, want hello", got)
	}
	if cache.data["T/k"] != "hello" {
		t.Error("cache was not filled")
	}
}

func TestValuesDurableFailure(t *testing.T) {
	durable := newMemValues()
	durable.fail = errors.New("db down")
	v := &Values{Cache: newMemValues(), Durable: durable}

	if err := v.SaveValue(context.Background(), "T", "k", 1.0); err == nil {
		t.Error("expected durable error")
	}
}

func TestValuesCacheOnly(t *testing.T) {
	v := &Values{Cache: newMemValues()}
	ctx := context.Background()
	if _, err := v.LoadValue(ctx, "T", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := v.SaveValue(ctx, "T", "k", true); err != nil {
		t.Fatal(err)
	}
	if got, _ := v.LoadValue(ctx, "T", "k"); got != true {
		t.Errorf("got %v, want true", got)
	}
}
