package game

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transforms are the model matrices of paddle 1, paddle 2 and the ball, in
// draw order.
type Transforms [3]mgl32.Mat4

func model(position mgl32.Vec2, width, height float32) mgl32.Mat4 {
	return mgl32.Translate3D(position.X(), position.Y(), 0).Mul4(mgl32.Scale3D(width, height, 1))
}

func (s State) Transforms() Transforms {
	return Transforms{
		model(s.Paddles[0], PlayerWidth, PlayerHeight),
		model(s.Paddles[1], PlayerWidth, PlayerHeight),
		model(s.Ball.Position, BallSize, BallSize),
	}
}

// Projection maps the court, AspectRatio wide on each side of the center and
// one unit tall on each side, onto clip space.
func Projection() mgl32.Mat4 {
	return mgl32.Ortho2D(-AspectRatio, AspectRatio, -1, 1)
}
