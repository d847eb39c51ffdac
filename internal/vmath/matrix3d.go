package vmath

import "github.com/go-gl/mathgl/mgl32"

// Matrix3D is an affine transform used to place primitive meshes on the table.
type Matrix3D struct {
	m mgl32.Mat4
}

func IdentityMatrix() Matrix3D {
	return Matrix3D{m: mgl32.Ident4()}
}

func TranslateMatrix(x, y, z float64) Matrix3D {
	return Matrix3D{m: mgl32.Translate3D(float32(x), float32(y), float32(z))}
}

func ScaleMatrix(x, y, z float64) Matrix3D {
	return Matrix3D{m: mgl32.Scale3D(float32(x), float32(y), float32(z))}
}

// RotateXMatrix rotates by deg degrees around the x axis.
func RotateXMatrix(deg float64) Matrix3D {
	return Matrix3D{m: mgl32.HomogRotate3DX(mgl32.DegToRad(float32(deg)))}
}

func RotateYMatrix(deg float64) Matrix3D {
	return Matrix3D{m: mgl32.HomogRotate3DY(mgl32.DegToRad(float32(deg)))}
}

func RotateZMatrix(deg float64) Matrix3D {
	return Matrix3D{m: mgl32.HomogRotate3DZ(mgl32.DegToRad(float32(deg)))}
}

// Multiply returns a*b, i.e. b is applied first.
func (a Matrix3D) Multiply(b Matrix3D) Matrix3D {
	return Matrix3D{m: a.m.Mul4(b.m)}
}

// TransformPoint applies the full transform including translation.
func (a Matrix3D) TransformPoint(v Vertex3D) Vertex3D {
	r := a.m.Mul4x1(v.Vec3().Vec4(1))
	w := r[3]
	if w == 0 {
		w = 1
	}
	return FromVec3(mgl32.Vec3{r[0] / w, r[1] / w, r[2] / w})
}

// TransformVector applies rotation and scale only.
func (a Matrix3D) TransformVector(v Vertex3D) Vertex3D {
	return FromVec3(a.m.Mul4x1(v.Vec3().Vec4(0)).Vec3())
}

// PlacementMatrix builds the scale -> rotate (x, y, z) -> translate transform.
func PlacementMatrix(pos, size, rotDeg Vertex3D) Matrix3D {
	return TranslateMatrix(pos.X, pos.Y, pos.Z).
		Multiply(RotateZMatrix(rotDeg.Z)).
		Multiply(RotateYMatrix(rotDeg.Y)).
		Multiply(RotateXMatrix(rotDeg.X)).
		Multiply(ScaleMatrix(size.X, size.Y, size.Z))
}
