package trace

import (
	"github.com/go-gl/mathgl/mgl32"
)

// View generates primary rays from an inverse view-projection matrix and a
// viewport, the same inputs the renderer binds per frame.
type View struct {
	InvViewProj mgl32.Mat4
	Width       int
	Height      int
}

// LookAtView builds a View from camera parameters. fovy is in radians.
func LookAtView(eye, center, up mgl32.Vec3, fovy float32, width, height int) View {
	aspect := float32(width) / float32(height)
	proj := mgl32.Perspective(fovy, aspect, 0.1, 1000)
	view := mgl32.LookAtV(eye, center, up)
	return View{
		InvViewProj: proj.Mul4(view).Inv(),
		Width:       width,
		Height:      height,
	}
}

// Ray returns the origin and unit direction of the primary ray through
// pixel (px, py). Pixel centers are sampled.
func (v View) Ray(px, py int) (origin, dir mgl32.Vec3) {
	ndcX := 2*(float32(px)+0.5)/float32(v.Width) - 1
	ndcY := 1 - 2*(float32(py)+0.5)/float32(v.Height)

	near := v.InvViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := v.InvViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})

	origin = near.Vec3().Mul(1 / near.W())
	farP := far.Vec3().Mul(1 / far.W())
	dir = farP.Sub(origin).Normalize()
	return origin, dir
}
