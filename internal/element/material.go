package element

import (
	"github.com/playmatatu/pinball/internal/physics"
	"github.com/playmatatu/pinball/internal/vmath"
)

// Material is a named set of physics values defined on the table.
type Material struct {
	Name              string  `json:"name"`
	Elasticity        float64 `json:"elasticity"`
	ElasticityFalloff float64 `json:"elasticityFalloff"`
	Friction          float64 `json:"friction"`
	// degrees
	ScatterAngle float64 `json:"scatterAngle"`
}

// PhysicsProps are the collision values an element carries itself.
type PhysicsProps struct {
	Material          string  `json:"material"`
	OverwritePhysics  bool    `json:"overwritePhysics"`
	Elasticity        float64 `json:"elasticity"`
	ElasticityFalloff float64 `json:"elasticityFalloff"`
	Friction          float64 `json:"friction"`
	// degrees
	Scatter float64 `json:"scatter"`
}

// ResolveMaterial picks the physics values for an element. A named table
// material wins unless the element overwrites physics; playfield elements
// always use the table values.
func ResolveMaterial(t *Table, p PhysicsProps, isPlayfield bool) physics.Material {
	if isPlayfield {
		return t.PlayfieldMaterial()
	}
	if !p.OverwritePhysics {
		if m, ok := t.Material(p.Material); ok {
			return physics.Material{
				Elasticity:        m.Elasticity,
				ElasticityFalloff: m.ElasticityFalloff,
				Friction:          vmath.Clamp(m.Friction, 0, 1),
				Scatter:           vmath.DegToRad(m.ScatterAngle),
			}
		}
	}
	scatter := p.Scatter
	if scatter == 0 {
		scatter = t.DefaultScatter
	}
	return physics.Material{
		Elasticity:        p.Elasticity,
		ElasticityFalloff: p.ElasticityFalloff,
		Friction:          vmath.Clamp(p.Friction, 0, 1),
		Scatter:           vmath.DegToRad(scatter),
	}
}
