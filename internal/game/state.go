package game

import (
	"github.com/go-gl/mathgl/mgl32"
)

// State is everything the simulation mutates. It is a plain value: Step
// returns a new State instead of changing its argument.
type State struct {
	Paddles [2]mgl32.Vec2
	Ball    Ball
	Scores  [2]uint
}

// PaddleInput holds which movement keys are held for one paddle. Up moves
// toward negative y.
type PaddleInput struct {
	Up, Down bool
}

type Input struct {
	Paddles [2]PaddleInput
	Quit    bool
}

func NewState() State {
	return State{
		Paddles: [2]mgl32.Vec2{
			{-AspectRatio + PlayerPosition, 0},
			{AspectRatio - PlayerPosition, 0},
		},
		Ball: Ball{
			Direction: mgl32.Vec2{1, 1}.Normalize(),
		},
	}
}

// Step applies paddle input, moves the ball and credits any goal. Up and down
// are separate moves, each accepted or rejected on its own.
func Step(state State, input Input, rng Rand) (State, Collision) {
	for i, keys := range input.Paddles {
		y := state.Paddles[i].Y()
		if keys.Up {
			y = MovePaddle(y, -MovementSpeed)
		}
		if keys.Down {
			y = MovePaddle(y, MovementSpeed)
		}
		state.Paddles[i] = mgl32.Vec2{state.Paddles[i].X(), y}
	}

	var collision Collision
	state.Ball, collision = MoveBall(state.Paddles, state.Ball, rng)

	if collision.Scorer != NoPlayer {
		state.Scores[collision.Scorer-1]++
	}

	return state, collision
}
