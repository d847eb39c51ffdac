package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/vmath"
)

// springSettle is the distance and speed below which a spring is at rest.
const springSettle = 1e-3

// springGain turns an element speed setting into a spring frequency.
const springGain = 2.0

// spring is a critically damped spring-damper driving an offset toward a
// target. Velocity is in table units per 10 ms.
type spring struct {
	pos, vel float64
}

// step advances the spring by dtime. omega is the natural frequency; zero
// or less snaps straight to the target.
func (s *spring) step(target, omega, dtime float64) {
	if omega <= 0 {
		s.pos, s.vel = target, 0
		return
	}
	acc := omega*omega*(target-s.pos) - 2*omega*s.vel
	s.vel = vmath.F4(s.vel + acc*dtime)
	s.pos = vmath.F4(s.pos + s.vel*dtime)
	if math.Abs(target-s.pos) < springSettle && math.Abs(s.vel) < springSettle {
		s.pos, s.vel = target, 0
	}
}

// clamp keeps the offset in [lo, hi] and stops it at either end.
func (s *spring) clamp(lo, hi float64) {
	if s.pos < lo {
		s.pos, s.vel = lo, 0
	} else if s.pos > hi {
		s.pos, s.vel = hi, 0
	}
}

func (s *spring) atRest(target float64) bool {
	return s.pos == target && s.vel == 0
}
