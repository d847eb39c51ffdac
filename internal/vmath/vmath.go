package vmath

import "math"

// F4 rounds n to single precision. The collision math is tuned against a float32
// engine, so every stored scalar goes through F4 at the point the engine would
// have narrowed it.
func F4(n float64) float64 {
	if math.IsNaN(n) {
		return 0
	}
	return float64(float32(n))
}

// DegToRad converts degrees to radians (rounded).
func DegToRad(deg float64) float64 {
	return F4(deg * (math.Pi / 180))
}

// RadToDeg converts radians to degrees (rounded).
func RadToDeg(rad float64) float64 {
	return F4(rad * (180 / math.Pi))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// InfNaN reports whether n cannot be used as a collision time.
func InfNaN(n float64) bool {
	return math.IsNaN(n) || math.IsInf(n, 0)
}

// Sqr returns n*n rounded.
func Sqr(n float64) float64 {
	return F4(n * n)
}

// Sign returns -1 for negative values and 1 otherwise.
func Sign(n float64) float64 {
	if n < 0 {
		return -1
	}
	return 1
}

// SolveQuadratic returns the roots of a*t^2 + b*t + c = 0 in ascending order.
// ok is false when the equation has no real roots or is degenerate.
func SolveQuadratic(a, b, c float64) (t1, t2 float64, ok bool) {
	if a == 0 {
		return 0, 0, false
	}
	disc := F4(b*b - 4*a*c)
	if disc < 0 {
		return 0, 0, false
	}
	sq := F4(math.Sqrt(disc))
	inv := F4(1 / (2 * a))
	t1 = F4((-b - sq) * inv)
	t2 = F4((-b + sq) * inv)
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return t1, t2, true
}

// EqualWithin reports whether a and b differ by at most eps.
func EqualWithin(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
