package element

import (
	"fmt"
	"math"

	"github.com/playmatatu/pinball/internal/geom"
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

// minReducedVertices is the floor for collision mesh reduction.
const minReducedVertices = 420

type PrimitiveData struct {
	Name     string         `json:"name"`
	Mesh     geom.Mesh      `json:"mesh"`
	Position vmath.Vertex3D `json:"position"`
	Size     vmath.Vertex3D `json:"size"`
	// degrees around x, y and z
	Rotation vmath.Vertex3D `json:"rotation"`
	// 0 keeps every vertex, 1 reduces the most
	CollisionReduction float64 `json:"collisionReduction"`
	IsToy              bool    `json:"isToy"`
	HitEvent           bool    `json:"hitEvent"`
	Threshold          float64 `json:"threshold"`
	Collidable         bool    `json:"collidable"`
	PhysicsProps
}

func DefaultPrimitiveData(name string) PrimitiveData {
	return PrimitiveData{
		Name:         name,
		Size:         vmath.NewVertex3D(100, 100, 100),
		Threshold:    2,
		Collidable:   true,
		PhysicsProps: PhysicsProps{Elasticity: 0.3, Friction: 0.3},
	}
}

// Primitive is an arbitrary triangle mesh placed on the table.
type Primitive struct {
	base
	Data PrimitiveData
}

func NewPrimitive(data PrimitiveData) *Primitive {
	p := &Primitive{base: newBase(data.Name, "Primitive"), Data: data}
	p.registerAPI()
	return p
}

// reducedVertexTarget is the vertex budget of the collision mesh.
func reducedVertexTarget(n int, reduction float64) int {
	exp := vmath.Clamp(1-reduction, 0, 1)*0.25 + 0.75
	return int(math.Max(math.Pow(float64(n), exp), minReducedVertices))
}

// CollisionMesh returns the placed and, when large enough, reduced mesh.
func (p *Primitive) CollisionMesh() (*geom.Mesh, error) {
	d := &p.Data
	if err := d.Mesh.Validate(); err != nil {
		return nil, fmt.Errorf("primitive %q: %w", p.name, err)
	}
	m := d.Mesh.Transform(vmath.PlacementMatrix(d.Position, d.Size, d.Rotation))
	if target := reducedVertexTarget(len(m.Vertices), d.CollisionReduction); target < len(m.Vertices) {
		m = geom.ReduceMesh(m, target)
	}
	return m, nil
}

func (p *Primitive) Setup(ctx *Context) error {
	p.bind(ctx)
	d := &p.Data
	if d.IsToy {
		return nil
	}
	m, err := p.CollisionMesh()
	if err != nil {
		return err
	}
	mat := ResolveMaterial(ctx.Table, d.PhysicsProps, false)
	add := func(h physics.HitObject) {
		p.attach(h, mat, d.Threshold, d.HitEvent, &d.Collidable)
	}
	for i := 0; i < m.NumTriangles(); i++ {
		a, b, c := m.Triangle(i)
		tri := physics.NewHitTriangle(a, b, c, physics.ObjPrimitive)
		if tri.IsDegenerate() {
			continue
		}
		add(tri)
	}
	for _, v := range m.Vertices {
		add(physics.NewHitPoint(v, physics.ObjPrimitive))
	}
	return nil
}

func (p *Primitive) registerAPI() {
	d := &p.Data
	p.props["Collidable"] = boolProp(func() bool { return d.Collidable }, func(v bool) error {
		p.apply(func() { d.Collidable = v })
		return nil
	})
	p.props["HasHitEvent"] = boolField(&d.HitEvent)
	p.props["IsToy"] = Prop{Get: func() any { return d.IsToy }}
	p.props["Threshold"] = numProp(func() float64 { return d.Threshold }, func(v float64) error {
		p.apply(func() {
			d.Threshold = v
			for _, h := range p.hits {
				h.Base().Threshold = v
			}
		})
		return nil
	})
}
