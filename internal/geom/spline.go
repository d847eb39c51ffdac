package geom

import (
	"math"

	"github.com/playmatatu/pinball/internal/vmath"
)

const maxSubdivisionDepth = 16

// Accuracy converts a table detail level (0-10) into the squared-area flatness
// threshold used when subdividing curves.
func Accuracy(detailLevel float64) float64 {
	detailLevel = vmath.Clamp(detailLevel, 0, 10)
	return vmath.F4(4 * math.Pow(10, (10-detailLevel)/1.5))
}

// GetRgVertex flattens drag points into a polyline. Closed loops return one vertex
// per polyline corner; open curves also include the final drag point.
func GetRgVertex(points []DragPoint, loop bool, accuracy float64) []RenderVertex {
	count := len(points)
	if count == 0 {
		return nil
	}
	if count == 1 {
		return []RenderVertex{{Vertex3D: points[0].Vertex(), Smooth: points[0].Smooth, IsControlPoint: true}}
	}

	end := count - 1
	if loop {
		end = count
	}

	var out []RenderVertex
	for i := 0; i < end; i++ {
		dp1 := points[i]
		dp2 := points[(i+1)%count]
		if dp1.sameAs(dp2) {
			continue
		}

		iprev := i
		if dp1.Smooth {
			iprev = i - 1
		}
		if iprev < 0 {
			if loop {
				iprev = count - 1
			} else {
				iprev = 0
			}
		}

		inext := i + 1
		if dp2.Smooth {
			inext = i + 2
		}
		if inext >= count {
			if loop {
				inext -= count
			} else {
				inext = count - 1
			}
		}

		cc := NewCatmullCurve(points[iprev].Vertex(), dp1.Vertex(), dp2.Vertex(), points[inext].Vertex())

		rv1 := RenderVertex{Vertex3D: dp1.Vertex(), Smooth: dp1.Smooth, IsSlingshot: dp1.IsSlingshot, IsControlPoint: true}
		rv2 := RenderVertex{Vertex3D: dp2.Vertex(), Smooth: dp2.Smooth, IsSlingshot: dp2.IsSlingshot, IsControlPoint: true}
		out = recurseSmoothLine(out, cc, 0, 1, rv1, rv2, accuracy, 0)
	}

	if !loop {
		last := points[count-1]
		out = append(out, RenderVertex{Vertex3D: last.Vertex(), Smooth: true, IsControlPoint: true})
	}
	return out
}

func recurseSmoothLine(out []RenderVertex, cc CatmullCurve, t1, t2 float64, vt1, vt2 RenderVertex, accuracy float64, depth int) []RenderVertex {
	tMid := (t1 + t2) * 0.5
	mid := RenderVertex{Vertex3D: cc.At(tMid), Smooth: true, IsSlingshot: vt1.IsSlingshot}

	if depth >= maxSubdivisionDepth || flatWithAccuracy(vt1.Vertex3D, vt2.Vertex3D, mid.Vertex3D, accuracy) {
		return append(out, vt1)
	}
	out = recurseSmoothLine(out, cc, t1, tMid, vt1, mid, accuracy, depth+1)
	return recurseSmoothLine(out, cc, tMid, t2, mid, vt2, accuracy, depth+1)
}

// flatWithAccuracy tests twice the triangle area (squared) against the accuracy.
func flatWithAccuracy(v1, v2, mid vmath.Vertex3D, accuracy float64) bool {
	dblArea := (mid.X-v1.X)*(v2.Y-v1.Y) - (v2.X-v1.X)*(mid.Y-v1.Y)
	return vmath.F4(dblArea*dblArea) < accuracy
}

// IsClockwise reports the winding of a closed polyline in screen coordinates
// (y grows downwards).
func IsClockwise(poly []RenderVertex) bool {
	var area float64
	for i := range poly {
		j := (i + 1) % len(poly)
		area += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return area > 0
}

// PathLength returns the accumulated xy length at every vertex of an open polyline.
func PathLength(poly []RenderVertex) (lengths []float64, total float64) {
	lengths = make([]float64, len(poly))
	for i := 1; i < len(poly); i++ {
		total = vmath.F4(total + poly[i].XY().Minus(poly[i-1].XY()).Length())
		lengths[i] = total
	}
	return lengths, total
}
