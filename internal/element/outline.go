package element

import (
	"github.com/playmatatu/pinball/internal/geom"
	"github.com/playmatatu/pinball/internal/physics"
)

// outlineEdge is a wall built from the polyline edge starting at from.
type outlineEdge struct {
	seg  *physics.LineSeg
	from geom.RenderVertex
}

// outlineSegments returns one wall per edge of a closed polyline with every
// normal pointing out of the shape.
func outlineSegments(poly []geom.RenderVertex, zLow, zHigh float64, t physics.ObjType) []outlineEdge {
	if len(poly) < 2 {
		return nil
	}
	cw := geom.IsClockwise(poly)
	var edges []outlineEdge
	for i := range poly {
		a := poly[i].XY()
		b := poly[(i+1)%len(poly)].XY()
		if a.Equals(b) {
			continue
		}
		if cw {
			a, b = b, a
		}
		edges = append(edges, outlineEdge{seg: physics.NewLineSeg(a, b, zLow, zHigh, t), from: poly[i]})
	}
	return edges
}

// outlineJoints returns a vertical edge at every corner of a closed polyline.
func outlineJoints(poly []geom.RenderVertex, zLow, zHigh float64, t physics.ObjType) []*physics.HitCircle {
	joints := make([]*physics.HitCircle, 0, len(poly))
	for _, v := range poly {
		joints = append(joints, physics.NewHitLineZ(v.XY(), zLow, zHigh, t))
	}
	return joints
}
