package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Player identifies a side of the court. NoPlayer is used when nobody scored.
type Player int

const (
	NoPlayer Player = iota
	Player1
	Player2
)

type CollisionKind int

const (
	CollisionNone CollisionKind = iota
	CollisionWall
	CollisionPaddle
	CollisionGoal
)

func (k CollisionKind) String() string {
	switch k {
	case CollisionWall:
		return "wall"
	case CollisionPaddle:
		return "paddle"
	case CollisionGoal:
		return "goal"
	default:
		return "none"
	}
}

// Collision describes what happened to the ball during one tick. Scorer is
// only set for CollisionGoal.
type Collision struct {
	Kind   CollisionKind
	Scorer Player
}

// Rand is the source of randomness for bounces and serves. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float32() float32
}

type Ball struct {
	Position  mgl32.Vec2
	Direction mgl32.Vec2
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

// MovePaddle returns the paddle's new vertical position, or the old one if
// either edge of the paddle would reach the court bounds.
func MovePaddle(position, amount float32) float32 {
	next := position + amount

	for _, sign := range [2]float32{-1, 1} {
		edge := next + sign*(PlayerHeight/2+Padding)
		if abs32(edge) >= 1 {
			return position
		}
	}

	return next
}

// BallSpeed grows linearly with the vertical component of the direction.
func BallSpeed(direction mgl32.Vec2) float32 {
	t := mgl32.Clamp(abs32(direction.Y()), 0, 1)
	return mgl32.Clamp(MinBallSpeed+(MaxBallSpeed-MinBallSpeed)*t, MinBallSpeed, MaxBallSpeed)
}

// Bounce reflects direction about normal shifted by a horizontal jitter, then
// keeps the ball moving sideways at MinHorizontalSpeed or faster. normal must
// be a unit vector. The component along normal always changes sign, even when
// the jitter would tilt a shallow hit back into the surface.
func Bounce(normal, direction mgl32.Vec2, jitter float32) mgl32.Vec2 {
	n := normal.Add(mgl32.Vec2{jitter, 0})
	reflected := direction.Sub(n.Mul(2 * n.Dot(direction)))

	if along := normal.Dot(reflected); along*normal.Dot(direction) > 0 {
		reflected = reflected.Sub(normal.Mul(2 * along))
	}

	x := abs32(reflected.X())
	if x < MinHorizontalSpeed {
		x = MinHorizontalSpeed
	}
	if reflected.X() < 0 {
		x = -x
	}

	return mgl32.Vec2{x, reflected.Y()}
}

func randomJitter(rng Rand) float32 {
	return (rng.Float32()*2 - 1) * BounceJitter
}

// serve points a fresh ball at the scorer's own side of the court.
func serve(scorer Player, rng Rand) mgl32.Vec2 {
	x := float32(1)
	if scorer == Player1 {
		x = -1
	}

	y := 0.5 + 0.5*rng.Float32()
	if rng.Float32() < 0.5 {
		y = -y
	}

	return mgl32.Vec2{x, y}.Normalize()
}

func overlapsPaddle(ballY, paddleY float32) bool {
	ballTop, ballBottom := ballY-BallSize/2, ballY+BallSize/2
	paddleTop, paddleBottom := paddleY-PlayerHeight/2, paddleY+PlayerHeight/2

	return ballBottom >= paddleTop && ballTop <= paddleBottom
}

// MoveBall advances the ball by one tick. Wall and paddle hits change the
// direction without moving the ball. A ball crossing a goal line that the
// defending paddle does not cover scores for the other player and is served
// again from the center.
func MoveBall(paddles [2]mgl32.Vec2, ball Ball, rng Rand) (Ball, Collision) {
	speed := BallSpeed(ball.Direction)
	next := ball.Position.Add(ball.Direction.Mul(speed))

	for _, sign := range [2]float32{-1, 1} {
		edge := next.Y() + sign*(BallSize/2)
		if abs32(edge) >= 1 {
			ball.Direction = Bounce(mgl32.Vec2{0, 1}, ball.Direction, randomJitter(rng))
			return ball, Collision{Kind: CollisionWall}
		}
	}

	goalLine := AspectRatio - PlayerPosition
	for _, sign := range [2]float32{-1, 1} {
		edge := next.X() + sign*(BallSize/2)
		if abs32(edge) < goalLine {
			continue
		}

		defender, scorer := 0, Player2
		if next.X() > 0 {
			defender, scorer = 1, Player1
		}

		if !overlapsPaddle(next.Y(), paddles[defender].Y()) {
			return Ball{Direction: serve(scorer, rng)}, Collision{Kind: CollisionGoal, Scorer: scorer}
		}

		ball.Direction = Bounce(mgl32.Vec2{1, 0}, ball.Direction, randomJitter(rng))
		return ball, Collision{Kind: CollisionPaddle}
	}

	ball.Position = next
	return ball, Collision{}
}
