package game

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewState(t *testing.T) {
	state := NewState()

	assert.Equal(t, mgl32.Vec2{-AspectRatio + PlayerPosition, 0}, state.Paddles[0])
	assert.Equal(t, mgl32.Vec2{AspectRatio - PlayerPosition, 0}, state.Paddles[1])
	assert.Equal(t, mgl32.Vec2{0, 0}, state.Ball.Position)
	assert.InDelta(t, 1, state.Ball.Direction.Len(), 1e-6)
	assert.Equal(t, [2]uint{}, state.Scores)
}

func TestStepMovesPaddles(t *testing.T) {
	state := NewState()

	next, _ := Step(state, Input{Paddles: [2]PaddleInput{{Up: true}, {Down: true}}}, constRand(0.5))

	assert.Equal(t, float32(-MovementSpeed), next.Paddles[0].Y())
	assert.Equal(t, float32(MovementSpeed), next.Paddles[1].Y())
	assert.Equal(t, state.Paddles[0].X(), next.Paddles[0].X())

	// The input state is a value and must be left alone.
	assert.Equal(t, float32(0), state.Paddles[0].Y())
}

func TestStepAppliesEachKeyOnItsOwn(t *testing.T) {
	state := NewState()
	state.Paddles[0] = mgl32.Vec2{state.Paddles[0].X(), -0.65}

	next, _ := Step(state, Input{Paddles: [2]PaddleInput{{Up: true, Down: true}, {Up: true, Down: true}}}, constRand(0.5))

	// Up is blocked by the wall, down still goes through.
	assert.InDelta(t, -0.65+MovementSpeed, next.Paddles[0].Y(), 1e-6)
	assert.InDelta(t, 0, next.Paddles[1].Y(), 1e-6)
}

func TestStepCreditsScorer(t *testing.T) {
	state := NewState()
	state.Paddles[1] = mgl32.Vec2{state.Paddles[1].X(), -0.65}
	state.Ball = Ball{
		Position:  mgl32.Vec2{AspectRatio - PlayerPosition - BallSize/2 - 0.01, 0},
		Direction: mgl32.Vec2{1, 1}.Normalize(),
	}

	next, collision := Step(state, Input{}, constRand(0.5))

	assert.Equal(t, Player1, collision.Scorer)
	assert.Equal(t, [2]uint{1, 0}, next.Scores)
	assert.Equal(t, [2]uint{0, 0}, state.Scores)
}

func TestTransforms(t *testing.T) {
	state := NewState()
	state.Ball.Position = mgl32.Vec2{0.25, -0.5}

	transforms := state.Transforms()

	assert.Equal(t, float32(PlayerWidth), transforms[0].At(0, 0))
	assert.Equal(t, float32(PlayerHeight), transforms[0].At(1, 1))
	assert.Equal(t, mgl32.Vec4{state.Paddles[0].X(), 0, 0, 1}, transforms[0].Col(3))
	assert.Equal(t, mgl32.Vec4{state.Paddles[1].X(), 0, 0, 1}, transforms[1].Col(3))

	assert.Equal(t, float32(BallSize), transforms[2].At(0, 0))
	assert.Equal(t, float32(BallSize), transforms[2].At(1, 1))
	assert.Equal(t, mgl32.Vec4{0.25, -0.5, 0, 1}, transforms[2].Col(3))
}

func TestProjectionMapsCourtToClipSpace(t *testing.T) {
	corner := Projection().Mul4x1(mgl32.Vec4{AspectRatio, 1, 0, 1})
	assert.InDelta(t, 1, corner.X(), 1e-6)
	assert.InDelta(t, 1, corner.Y(), 1e-6)

	corner = Projection().Mul4x1(mgl32.Vec4{-AspectRatio, -1, 0, 1})
	assert.InDelta(t, -1, corner.X(), 1e-6)
	assert.InDelta(t, -1, corner.Y(), 1e-6)
}
