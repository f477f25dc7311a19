package game

const (
	Width  = 1280
	Height = 720

	AspectRatio = float32(Width) / float32(Height)

	PlayerWidth    = 0.1
	PlayerHeight   = 0.6
	PlayerPosition = 0.1
	Padding        = 0.005
	MovementSpeed  = 0.05

	BallSize     = 0.1
	MinBallSpeed = 0.05
	MaxBallSpeed = 0.15

	// BounceJitter bounds the random horizontal offset added to a surface
	// normal when the ball bounces.
	BounceJitter = 0.05
	// MinHorizontalSpeed is the smallest |direction.X| allowed after a bounce.
	MinHorizontalSpeed = 0.5

	TickRate = 60
)
