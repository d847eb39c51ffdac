package element

import (
	"math"

	"github.com/playmatatu/pinball/internal/geom"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

// PhysicsPreset is one of the numbered global physics sets a table can switch to.
type PhysicsPreset struct {
	Gravity           float64 `json:"gravity"`
	Friction          float64 `json:"friction"`
	Elasticity        float64 `json:"elasticity"`
	ElasticityFalloff float64 `json:"elasticityFalloff"`
	Scatter           float64 `json:"scatter"`
	MinSlope          float64 `json:"minSlope"`
	MaxSlope          float64 `json:"maxSlope"`
}

var physicsPresets = map[int]PhysicsPreset{
	1: {Gravity: 1.762985, Friction: 0.075, Elasticity: 0.25, ElasticityFalloff: 0, Scatter: 0, MinSlope: 6, MaxSlope: 6},
	2: {Gravity: 1.81751, Friction: 0.02, Elasticity: 0.3, ElasticityFalloff: 0.2, Scatter: 0, MinSlope: 5.5, MaxSlope: 7},
	3: {Gravity: 1.9, Friction: 0.1, Elasticity: 0.2, ElasticityFalloff: 0, Scatter: 0.5, MinSlope: 6.5, MaxSlope: 6.5},
}

// Preset returns the numbered physics preset.
func Preset(n int) (PhysicsPreset, bool) {
	p, ok := physicsPresets[n]
	return p, ok
}

// Table is the global context shared by all elements of a session.
type Table struct {
	Name        string  `json:"name"`
	Left        float64 `json:"left"`
	Top         float64 `json:"top"`
	Right       float64 `json:"right"`
	Bottom      float64 `json:"bottom"`
	TableHeight float64 `json:"tableHeight"`
	GlassHeight float64 `json:"glassHeight"`

	Gravity           float64 `json:"gravity"`
	Friction          float64 `json:"friction"`
	Elasticity        float64 `json:"elasticity"`
	ElasticityFalloff float64 `json:"elasticityFalloff"`
	// degrees
	Scatter        float64 `json:"scatter"`
	DefaultScatter float64 `json:"defaultScatter"`

	AngleTiltMin     float64 `json:"angleTiltMin"`
	AngleTiltMax     float64 `json:"angleTiltMax"`
	GlobalDifficulty float64 `json:"globalDifficulty"`

	// 0 uses the table's own values, n > 0 selects a preset
	OverridePhysics int `json:"overridePhysics"`

	DetailLevel float64 `json:"detailLevel"`

	BallRadius float64 `json:"ballRadius"`
	BallMass   float64 `json:"ballMass"`

	Materials map[string]*Material `json:"materials"`
}

// DefaultTable returns a standard sized table with stock physics.
func DefaultTable() *Table {
	return &Table{
		Name:              "Table1",
		Right:             1000,
		Bottom:            2222,
		GlassHeight:       210,
		Gravity:           physics.GravityConst,
		Friction:          0.075,
		Elasticity:        0.25,
		ElasticityFalloff: 0,
		AngleTiltMin:      6,
		AngleTiltMax:      6,
		GlobalDifficulty:  0.2,
		DetailLevel:       10,
		BallRadius:        physics.DefaultBallRadius,
		BallMass:          physics.DefaultBallMass,
		Materials:         map[string]*Material{},
	}
}

// Normalize fills absent values with defaults and clamps ranges.
func (t *Table) Normalize() {
	if t.Right <= t.Left {
		t.Right = t.Left + 1000
	}
	if t.Bottom <= t.Top {
		t.Bottom = t.Top + 2222
	}
	if t.GlassHeight <= t.TableHeight {
		t.GlassHeight = t.TableHeight + 210
	}
	if t.Gravity == 0 {
		t.Gravity = physics.GravityConst
	}
	if t.BallRadius <= 0 {
		t.BallRadius = physics.DefaultBallRadius
	}
	if t.BallMass <= 0 {
		t.BallMass = physics.DefaultBallMass
	}
	t.Friction = vmath.Clamp(t.Friction, 0, 1)
	t.GlobalDifficulty = vmath.Clamp(t.GlobalDifficulty, 0, 1)
	t.DetailLevel = vmath.Clamp(t.DetailLevel, 0, 10)
	if t.Materials == nil {
		t.Materials = map[string]*Material{}
	}
	if _, ok := physicsPresets[t.OverridePhysics]; !ok {
		t.OverridePhysics = 0
	}
}

func (t *Table) preset() (PhysicsPreset, bool) {
	if t.OverridePhysics == 0 {
		return PhysicsPreset{}, false
	}
	return Preset(t.OverridePhysics)
}

// Slope returns the playfield inclination in degrees.
func (t *Table) Slope() float64 {
	lo, hi := t.AngleTiltMin, t.AngleTiltMax
	if p, ok := t.preset(); ok {
		lo, hi = p.MinSlope, p.MaxSlope
	}
	return lo + (hi-lo)*t.GlobalDifficulty
}

// GravityVector is the per-frame acceleration direction scaled by gravity.
func (t *Table) GravityVector() vmath.Vertex3D {
	g := t.Gravity
	if p, ok := t.preset(); ok {
		g = p.Gravity
	}
	slope := vmath.DegToRad(t.Slope())
	return vmath.NewVertex3D(0, vmath.F4(math.Sin(slope)*g), vmath.F4(-math.Cos(slope)*g))
}

// PlayfieldMaterial is the table level physics used by the floor and by
// elements flagged as playfield.
func (t *Table) PlayfieldMaterial() physics.Material {
	if p, ok := t.preset(); ok {
		return physics.Material{
			Elasticity:        p.Elasticity,
			ElasticityFalloff: p.ElasticityFalloff,
			Friction:          p.Friction,
			Scatter:           vmath.DegToRad(p.Scatter),
		}
	}
	return physics.Material{
		Elasticity:        t.Elasticity,
		ElasticityFalloff: t.ElasticityFalloff,
		Friction:          t.Friction,
		Scatter:           vmath.DegToRad(t.Scatter),
	}
}

// Accuracy is the curve flattening threshold for the table detail level.
func (t *Table) Accuracy() float64 {
	return geom.Accuracy(t.DetailLevel)
}

// Material looks up a named physics material.
func (t *Table) Material(name string) (*Material, bool) {
	if name == "" {
		return nil, false
	}
	m, ok := t.Materials[name]
	return m, ok
}

// BoundsHits builds the outer walls, the playfield floor and the glass.
func (t *Table) BoundsHits() []physics.HitObject {
	mat := t.PlayfieldMaterial()
	lo, hi := t.TableHeight, t.GlassHeight
	walls := []*physics.LineSeg{
		physics.NewLineSeg(vmath.NewVertex2D(t.Left, t.Bottom), vmath.NewVertex2D(t.Left, t.Top), lo, hi, physics.ObjPlayfield),
		physics.NewLineSeg(vmath.NewVertex2D(t.Right, t.Top), vmath.NewVertex2D(t.Right, t.Bottom), lo, hi, physics.ObjPlayfield),
		physics.NewLineSeg(vmath.NewVertex2D(t.Left, t.Top), vmath.NewVertex2D(t.Right, t.Top), lo, hi, physics.ObjPlayfield),
		physics.NewLineSeg(vmath.NewVertex2D(t.Right, t.Bottom), vmath.NewVertex2D(t.Left, t.Bottom), lo, hi, physics.ObjPlayfield),
	}
	var hits []physics.HitObject
	for _, w := range walls {
		w.Elasticity = 0.2
		w.Friction = 0
		hits = append(hits, w)
	}

	floor := physics.NewHitPlane(vmath.NewVertex3D(0, 0, 1), t.TableHeight)
	floor.SetMaterial(mat)
	floor.Name = t.Name

	glass := physics.NewHitPlane(vmath.NewVertex3D(0, 0, -1), -t.GlassHeight)
	glass.Elasticity = 0.2

	return append(hits, floor, glass)
}
