package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

type KickerData struct {
	Name        string         `json:"name"`
	Center      vmath.Vertex2D `json:"center"`
	Radius      float64        `json:"radius"`
	Orientation float64        `json:"orientation"`
	HitAccuracy float64        `json:"hitAccuracy"`
	HitHeight   float64        `json:"hitHeight"`
	FallThrough bool           `json:"fallThrough"`
	// degrees of random spread added to kick angles
	Scatter    float64 `json:"scatter"`
	Surface    string  `json:"surface"`
	Collidable bool    `json:"collidable"`
}

func DefaultKickerData(name string) KickerData {
	return KickerData{
		Name:        name,
		Radius:      25,
		HitAccuracy: 0.7,
		HitHeight:   40,
		Collidable:  true,
	}
}

// Kicker is a hole that captures balls and kicks them out on command.
type Kicker struct {
	base
	Data KickerData
	hit  *physics.HitCircle
	zLow float64
	ball *physics.Ball
}

func NewKicker(data KickerData) *Kicker {
	k := &Kicker{base: newBase(data.Name, "Kicker"), Data: data}
	k.registerAPI()
	return k
}

func (k *Kicker) Setup(ctx *Context) error {
	k.bind(ctx)
	d := &k.Data
	d.Radius = math.Max(d.Radius, 1)
	d.HitAccuracy = vmath.Clamp(d.HitAccuracy, 0.1, 1)
	k.zLow = ctx.Host.SurfaceHeight(d.Surface, d.Center.X, d.Center.Y)

	k.hit = physics.NewHitCircle(d.Center, d.Radius*d.HitAccuracy, k.zLow, k.zLow+d.HitHeight, physics.ObjKicker)
	k.hit.Rigid = false
	k.hit.Volume = physics.NewBallSet()
	k.attach(k.hit, physics.Material{}, 0, true, &d.Collidable)
	k.hit.OnHit = k.onHit
	return nil
}

// Ball is the currently held ball, if any.
func (k *Kicker) Ball() *physics.Ball {
	return k.ball
}

// CreateBall creates a ball and holds it in the kicker.
func (k *Kicker) CreateBall() *physics.Ball {
	return k.CreateSizedBallWithMass(k.ctx.Table.BallRadius, k.ctx.Table.BallMass)
}

func (k *Kicker) CreateSizedBall(radius float64) *physics.Ball {
	return k.CreateSizedBallWithMass(radius, k.ctx.Table.BallMass)
}

func (k *Kicker) CreateSizedBallWithMass(radius, mass float64) *physics.Ball {
	if radius <= 0 {
		radius = physics.DefaultBallRadius
	}
	pos := vmath.NewVertex3D(k.Data.Center.X, k.Data.Center.Y, k.zLow+radius)
	b := k.ctx.Host.CreateBall(pos, radius, mass)
	if b != nil {
		k.capture(b)
	}
	return b
}

func (k *Kicker) capture(b *physics.Ball) {
	b.Pos = vmath.NewVertex3D(k.Data.Center.X, k.Data.Center.Y, k.zLow+b.Radius)
	b.Vel = vmath.Vertex3D{}
	b.AngularMomentum = vmath.Vertex3D{}
	b.AngularVelocity = vmath.Vertex3D{}
	b.Frozen = true
	b.Holder = k.hit
	k.ball = b
	if k.hit != nil {
		k.hit.Volume.Add(b)
	}
}

// Kick releases the held ball. angle is in degrees clockwise from up the
// table, inclination in degrees above the playfield.
func (k *Kicker) Kick(angle, speed, inclination float64) {
	k.KickXYZ(angle, speed, inclination, nil)
}

// KickXYZ kicks the ball after moving it to pos when given.
func (k *Kicker) KickXYZ(angle, speed, inclination float64, pos *vmath.Vertex3D) {
	k.apply(func() {
		b := k.ball
		if b == nil {
			return
		}
		a := vmath.DegToRad(angle + k.ctx.Rand.Scatter(k.Data.Scatter))
		incl := vmath.DegToRad(inclination)
		sa, ca := math.Sincos(a)
		si, ci := math.Sincos(incl)
		b.Vel = vmath.NewVertex3D(
			vmath.F4(sa*speed*ci),
			vmath.F4(-ca*speed*ci),
			vmath.F4(speed*si),
		)
		if pos != nil {
			b.Pos = *pos
		}
		b.Frozen = false
		b.Holder = nil
		k.ball = nil
	})
}

// DestroyBall removes the held ball and reports how many were destroyed.
func (k *Kicker) DestroyBall() int {
	if k.ball == nil {
		return 0
	}
	b := k.ball
	k.apply(func() {
		k.hit.Volume.Remove(b)
		k.ctx.Host.DestroyBall(b)
		if k.ball == b {
			k.ball = nil
		}
	})
	return 1
}

func (k *Kicker) registerAPI() {
	d := &k.Data
	k.props["Enabled"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		k.apply(func() { d.Collidable = v })
		return nil
	})
	k.props["FallThrough"] = boolField(&d.FallThrough)
	k.props["Scatter"] = floatField(&d.Scatter, 0, 0)
	k.props["Orientation"] = floatField(&d.Orientation, 0, 0)
	k.props["HitAccuracy"] = numProp(func() float64 { return d.HitAccuracy }, func(v float64) error {
		v = vmath.Clamp(v, 0.1, 1)
		k.apply(func() {
			d.HitAccuracy = v
			if k.hit != nil {
				k.hit.Radius = d.Radius * v
				k.hit.CalcHitBBox()
			}
		})
		return nil
	})
	k.props["BallCount"] = Prop{Get: func() any {
		if k.ball != nil {
			return 1
		}
		return 0
	}}

	created := func(b *physics.Ball) (any, error) {
		if b == nil {
			return nil, ErrInvalidCommand
		}
		return b.ID, nil
	}
	k.cmds["CreateBall"] = func(args ...any) (any, error) {
		return created(k.CreateBall())
	}
	k.cmds["CreateSizedBall"] = func(args ...any) (any, error) {
		r, err := argFloat(args, 0, k.ctx.Table.BallRadius)
		if err != nil {
			return nil, err
		}
		return created(k.CreateSizedBall(r))
	}
	k.cmds["CreateSizedBallWithMass"] = func(args ...any) (any, error) {
		r, err := argFloat(args, 0, k.ctx.Table.BallRadius)
		if err != nil {
			return nil, err
		}
		m, err := argFloat(args, 1, k.ctx.Table.BallMass)
		if err != nil {
			return nil, err
		}
		return created(k.CreateSizedBallWithMass(r, m))
	}
	k.cmds["Kick"] = func(args ...any) (any, error) {
		angle, speed, incl, err := kickArgs(args)
		if err != nil {
			return nil, err
		}
		k.Kick(angle, speed, incl)
		return nil, nil
	}
	k.cmds["KickZ"] = func(args ...any) (any, error) {
		angle, speed, incl, err := kickArgs(args)
		if err != nil {
			return nil, err
		}
		z, err := argFloat(args, 3, 0)
		if err != nil {
			return nil, err
		}
		pos := vmath.NewVertex3D(d.Center.X, d.Center.Y, k.zLow+z)
		k.KickXYZ(angle, speed, incl, &pos)
		return nil, nil
	}
	k.cmds["KickXYZ"] = func(args ...any) (any, error) {
		angle, speed, incl, err := kickArgs(args)
		if err != nil {
			return nil, err
		}
		var xyz [3]float64
		for i := range xyz {
			if xyz[i], err = argFloat(args, 3+i, 0); err != nil {
				return nil, err
			}
		}
		pos := vmath.NewVertex3D(xyz[0], xyz[1], xyz[2])
		k.KickXYZ(angle, speed, incl, &pos)
		return nil, nil
	}
	k.cmds["DestroyBall"] = func(args ...any) (any, error) {
		return k.DestroyBall(), nil
	}
}

func kickArgs(args []any) (angle, speed, incl float64, err error) {
	if angle, err = argFloat(args, 0, 0); err != nil {
		return
	}
	if speed, err = argFloat(args, 1, 0); err != nil {
		return
	}
	incl, err = argFloat(args, 2, 0)
	return
}

// onHit runs when a ball center enters or leaves the capture circle.
// Entering balls are held, or dropped through a fall-through hole.
func (k *Kicker) onHit(coll *physics.CollisionEvent, _ float64) {
	b := coll.Ball
	vol := k.hit.Volume
	if coll.HitFlag {
		if vol.Has(b) {
			vol.Remove(b)
			k.fire("Unhit", b)
		}
		return
	}
	if vol.Has(b) {
		return
	}
	vol.Add(b)
	if k.Data.FallThrough {
		k.ctx.Host.DestroyBall(b)
		k.fire("Hit", b)
		return
	}
	if k.ball != nil {
		return
	}
	k.capture(b)
	k.fire("Hit", b)
}
