package geom

import (
	"math"

	"github.com/playmatatu/pinball/internal/vmath"
)

// Edge-collapse mesh simplification. All state lives in a Reducer owned by the
// caller, so several elements can be reduced concurrently.

type pmVertex struct {
	pos      vmath.Vertex3D
	neighbor []int
	face     []int
	objDist  float64
	collapse int
	removed  bool
}

type pmTriangle struct {
	vertex  [3]int
	normal  vmath.Vertex3D
	removed bool
}

// Reducer holds the working arena of one reduction.
type Reducer struct {
	verts []pmVertex
	tris  []pmTriangle
}

// NewReducer loads a mesh into a fresh arena.
func NewReducer(m *Mesh) *Reducer {
	r := &Reducer{
		verts: make([]pmVertex, len(m.Vertices)),
		tris:  make([]pmTriangle, 0, m.NumTriangles()),
	}
	for i, v := range m.Vertices {
		r.verts[i] = pmVertex{pos: v, collapse: -1}
	}
	for i := 0; i < m.NumTriangles(); i++ {
		a, b, c := m.Indices[i*3], m.Indices[i*3+1], m.Indices[i*3+2]
		if a == b || b == c || a == c {
			continue
		}
		r.addTriangle(a, b, c)
	}
	return r
}

func (r *Reducer) addTriangle(a, b, c int) {
	id := len(r.tris)
	r.tris = append(r.tris, pmTriangle{vertex: [3]int{a, b, c}})
	r.computeNormal(id)
	for i := 0; i < 3; i++ {
		v := r.tris[id].vertex[i]
		r.verts[v].face = append(r.verts[v].face, id)
		for j := 0; j < 3; j++ {
			if i != j {
				r.verts[v].neighbor = addUnique(r.verts[v].neighbor, r.tris[id].vertex[j])
			}
		}
	}
}

func (r *Reducer) computeNormal(t int) {
	tri := &r.tris[t]
	tri.normal = vmath.TriangleNormal(r.verts[tri.vertex[0]].pos, r.verts[tri.vertex[1]].pos, r.verts[tri.vertex[2]].pos)
}

func (r *Reducer) hasVertex(t, v int) bool {
	tv := r.tris[t].vertex
	return tv[0] == v || tv[1] == v || tv[2] == v
}

func (r *Reducer) removeIfNonNeighbor(v, n int) {
	if !contains(r.verts[v].neighbor, n) {
		return
	}
	for _, f := range r.verts[v].face {
		if r.hasVertex(f, n) {
			return
		}
	}
	r.verts[v].neighbor = remove(r.verts[v].neighbor, n)
}

func (r *Reducer) deleteTriangle(t int) {
	tri := &r.tris[t]
	tri.removed = true
	for i := 0; i < 3; i++ {
		v := tri.vertex[i]
		r.verts[v].face = remove(r.verts[v].face, t)
	}
	for i := 0; i < 3; i++ {
		i2 := (i + 1) % 3
		r.removeIfNonNeighbor(tri.vertex[i], tri.vertex[i2])
		r.removeIfNonNeighbor(tri.vertex[i2], tri.vertex[i])
	}
}

func (r *Reducer) replaceVertex(t, vOld, vNew int) {
	tri := &r.tris[t]
	for i := 0; i < 3; i++ {
		if tri.vertex[i] == vOld {
			tri.vertex[i] = vNew
		}
	}
	r.verts[vOld].face = remove(r.verts[vOld].face, t)
	r.verts[vNew].face = addUnique(r.verts[vNew].face, t)
	for i := 0; i < 3; i++ {
		r.removeIfNonNeighbor(vOld, tri.vertex[i])
		r.removeIfNonNeighbor(tri.vertex[i], vOld)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j {
				r.verts[tri.vertex[i]].neighbor = addUnique(r.verts[tri.vertex[i]].neighbor, tri.vertex[j])
			}
		}
	}
	r.computeNormal(t)
}

// edgeCollapseCost is the edge length weighted by the curvature between the
// faces around u and the faces shared by u and v.
func (r *Reducer) edgeCollapseCost(u, v int) float64 {
	edgeLength := r.verts[v].pos.Minus(r.verts[u].pos).Length()
	var sides []int
	for _, f := range r.verts[u].face {
		if r.hasVertex(f, v) {
			sides = append(sides, f)
		}
	}
	curvature := 0.0
	for _, f := range r.verts[u].face {
		minCurv := 1.0
		for _, s := range sides {
			dot := r.tris[f].normal.Dot(r.tris[s].normal)
			minCurv = math.Min(minCurv, (1-dot)/2)
		}
		curvature = math.Max(curvature, minCurv)
	}
	return vmath.F4(edgeLength * curvature)
}

func (r *Reducer) edgeCostAtVertex(v int) {
	vert := &r.verts[v]
	if len(vert.neighbor) == 0 {
		vert.collapse = -1
		vert.objDist = -0.01
		return
	}
	vert.objDist = 1e6
	vert.collapse = -1
	for _, n := range vert.neighbor {
		c := r.edgeCollapseCost(v, n)
		if c < r.verts[v].objDist {
			r.verts[v].collapse = n
			r.verts[v].objDist = c
		}
	}
}

func (r *Reducer) collapseEdge(u, v int) {
	if v < 0 {
		r.deleteVertex(u)
		return
	}
	tmp := append([]int(nil), r.verts[u].neighbor...)
	for i := len(r.verts[u].face) - 1; i >= 0; i-- {
		if i >= len(r.verts[u].face) {
			continue
		}
		f := r.verts[u].face[i]
		if r.hasVertex(f, v) {
			r.deleteTriangle(f)
		}
	}
	for i := len(r.verts[u].face) - 1; i >= 0; i-- {
		if i >= len(r.verts[u].face) {
			continue
		}
		r.replaceVertex(r.verts[u].face[i], u, v)
	}
	r.deleteVertex(u)
	for _, n := range tmp {
		r.edgeCostAtVertex(n)
	}
}

func (r *Reducer) deleteVertex(u int) {
	for _, n := range r.verts[u].neighbor {
		r.verts[n].neighbor = remove(r.verts[n].neighbor, u)
	}
	r.verts[u].neighbor = nil
	r.verts[u].removed = true
}

func (r *Reducer) minimumCostEdge() int {
	best := -1
	for i := range r.verts {
		if r.verts[i].removed {
			continue
		}
		if best < 0 || r.verts[i].objDist < r.verts[best].objDist {
			best = i
		}
	}
	return best
}

// progressiveMesh computes the collapse order. permutation maps original vertex
// indices to their position in the collapse order (last collapsed first);
// collapseMap maps each permuted index to the permuted index it collapses into.
func (r *Reducer) progressiveMesh() (collapseMap, permutation []int) {
	n := len(r.verts)
	collapseMap = make([]int, n)
	permutation = make([]int, n)
	for i := range r.verts {
		r.edgeCostAtVertex(i)
	}
	for remaining := n - 1; remaining >= 0; remaining-- {
		mn := r.minimumCostEdge()
		if mn < 0 {
			break
		}
		permutation[mn] = remaining
		collapseMap[remaining] = r.verts[mn].collapse
		r.collapseEdge(mn, r.verts[mn].collapse)
	}
	for i := range collapseMap {
		if collapseMap[i] == -1 {
			collapseMap[i] = 0
		} else {
			collapseMap[i] = permutation[collapseMap[i]]
		}
	}
	return collapseMap, permutation
}

func mapVertex(a, max int, collapseMap []int) int {
	if max <= 0 {
		return 0
	}
	for a >= max {
		a = collapseMap[a]
	}
	return a
}

// ReduceMesh simplifies m down to at most target vertices. Faces that become
// degenerate are dropped.
func ReduceMesh(m *Mesh, target int) *Mesh {
	if target >= len(m.Vertices) || target <= 0 {
		return m
	}
	r := NewReducer(m)
	collapseMap, permutation := r.progressiveMesh()

	permuted := make([]vmath.Vertex3D, len(m.Vertices))
	for i, v := range m.Vertices {
		permuted[permutation[i]] = v
	}

	out := &Mesh{Vertices: permuted[:target]}
	for i := 0; i < m.NumTriangles(); i++ {
		a := mapVertex(permutation[m.Indices[i*3]], target, collapseMap)
		b := mapVertex(permutation[m.Indices[i*3+1]], target, collapseMap)
		c := mapVertex(permutation[m.Indices[i*3+2]], target, collapseMap)
		if a == b || b == c || a == c {
			continue
		}
		out.Indices = append(out.Indices, a, b, c)
	}
	return out
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func addUnique(s []int, v int) []int {
	if contains(s, v) {
		return s
	}
	return append(s, v)
}

func remove(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
