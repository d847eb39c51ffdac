package vmath

import (
	"math"
	"testing"
)

func TestF4RoundsToSinglePrecision(t *testing.T) {
	got := F4(0.1)
	if got == 0.1 {
		t.Fatalf("F4(0.1) kept double precision")
	}
	if got != float64(float32(0.1)) {
		t.Errorf("F4(0.1) = %v, want %v", got, float64(float32(0.1)))
	}
	if F4(math.NaN()) != 0 {
		t.Errorf("F4(NaN) should collapse to 0")
	}
}

func TestSolveQuadratic(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c float64
		t1, t2  float64
		ok      bool
	}{
		{"two roots", 1, -3, 2, 1, 2, true},
		{"double root", 1, -2, 1, 1, 1, true},
		{"no roots", 1, 0, 1, 0, 0, false},
		{"degenerate", 0, 1, 1, 0, 0, false},
	}
	for _, tc := range tests {
		t1, t2, ok := SolveQuadratic(tc.a, tc.b, tc.c)
		if ok != tc.ok {
			t.Errorf("%s: ok=%v, want %v", tc.name, ok, tc.ok)
			continue
		}
		if ok && (!EqualWithin(t1, tc.t1, 1e-5) || !EqualWithin(t2, tc.t2, 1e-5)) {
			t.Errorf("%s: roots=(%v,%v), want (%v,%v)", tc.name, t1, t2, tc.t1, tc.t2)
		}
	}
}

func TestVertexOps(t *testing.T) {
	a := NewVertex3D(1, 0, 0)
	b := NewVertex3D(0, 1, 0)
	if c := a.Cross(b); !c.Equals(NewVertex3D(0, 0, 1)) {
		t.Errorf("cross = %+v, want (0,0,1)", c)
	}
	n := NewVertex3D(3, 4, 0).Normalize()
	if !EqualWithin(n.Length(), 1, 1e-6) {
		t.Errorf("normalized length = %v", n.Length())
	}
	r := NewVertex2D(1, 0).Rotate(math.Pi / 2)
	if !EqualWithin(r.X, 0, 1e-6) || !EqualWithin(r.Y, 1, 1e-6) {
		t.Errorf("rotate = %+v", r)
	}
}

func TestPlacementMatrix(t *testing.T) {
	m := PlacementMatrix(NewVertex3D(100, 200, 0), NewVertex3D(2, 2, 2), NewVertex3D(0, 0, 90))
	p := m.TransformPoint(NewVertex3D(1, 0, 0))
	if !EqualWithin(p.X, 100, 1e-3) || !EqualWithin(p.Y, 202, 1e-3) || !EqualWithin(p.Z, 0, 1e-3) {
		t.Errorf("transformed point = %+v, want (100,202,0)", p)
	}
	v := m.TransformVector(NewVertex3D(1, 0, 0))
	if !EqualWithin(v.X, 0, 1e-3) || !EqualWithin(v.Y, 2, 1e-3) {
		t.Errorf("transformed vector = %+v, want (0,2,0)", v)
	}
}
