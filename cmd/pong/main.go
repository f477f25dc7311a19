package main

import (
	"flag"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/loov/hrtime"

	"github.com/vkngwrapper/pong/internal/audio"
	"github.com/vkngwrapper/pong/internal/game"
	"github.com/vkngwrapper/pong/internal/platform"
	"github.com/vkngwrapper/pong/internal/render"
)

const title = "Volcanic Pong"

const statsInterval = 5 * time.Second

type options struct {
	validation bool
	shaderDir  string
	mute       bool
	logLevel   slog.Level
}

func parseOptions() options {
	var opts options
	flag.BoolVar(&opts.validation, "validation", false, "enable the Vulkan validation layer")
	flag.StringVar(&opts.shaderDir, "shaders", "shaders", "directory holding "+render.VertexShaderPath+" and "+render.FragmentShaderPath)
	flag.BoolVar(&opts.mute, "mute", false, "disable sound")
	flag.TextVar(&opts.logLevel, "log-level", slog.LevelInfo, "minimum log level (debug, info, warn, error)")
	flag.Parse()
	return opts
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("session", uuid.NewString())
}

func main() {
	runtime.LockOSThread()

	opts := parseOptions()
	logger := newLogger(opts.logLevel)
	render.SetLogger(logger)

	err := run(opts, logger)
	if err != nil {
		switch {
		case errors.Is(err, render.ErrSetup):
			log.Fatalf("could not start renderer: %+v\n", err)
		case errors.Is(err, render.ErrFrame):
			log.Fatalf("rendering failed: %+v\n", err)
		case errors.HasAssertionFailure(err):
			log.Fatalf("internal error: %+v\n", err)
		default:
			log.Fatalf("%+v\n", err)
		}
	}
}

func run(opts options, logger *slog.Logger) error {
	shaders, err := render.LoadShaders(os.DirFS(opts.shaderDir), render.VertexShaderPath, render.FragmentShaderPath)
	if err != nil {
		return err
	}

	window, err := platform.OpenWindow(title, game.Width, game.Height)
	if err != nil {
		return err
	}
	defer window.Destroy()

	renderer, err := render.NewRenderer(window.Handle(), shaders, render.Options{
		ApplicationName: title,
		Validation:      opts.validation,
		Width:           game.Width,
		Height:          game.Height,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeErr := renderer.Close()
		if closeErr != nil {
			logger.Warn("closing renderer", "err", closeErr)
		}
	}()

	var sounds *audio.Player
	if !opts.mute {
		sounds, err = audio.NewPlayer(logger)
		if err != nil {
			logger.Warn("continuing without sound", "err", err)
		}
	}
	defer sounds.Close()

	return loop(window, renderer, sounds, logger)
}

func loop(window *platform.Window, renderer *render.Renderer, sounds *audio.Player, logger *slog.Logger) error {
	scoreboard := game.NewScoreboard(os.Stdout)
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	clock := game.NewClock(game.TickRate)
	state := game.NewState()
	projection := game.Projection()

	lastStats := hrtime.Now()
	var lastFrames uint64

	for {
		if window.Poll() {
			break
		}

		input := window.Input()
		if input.Quit {
			break
		}

		for ticks := clock.Advance(); ticks > 0; ticks-- {
			var collision game.Collision
			state, collision = game.Step(state, input, rng)

			if collision.Kind != game.CollisionNone {
				sounds.Play(collision.Kind)
			}
			if collision.Kind == game.CollisionGoal {
				scoreboard.Goal(collision.Scorer, state.Scores)
				logger.Info("goal", "scorer", int(collision.Scorer), "score", state.Scores)
			}
		}

		err := renderer.DrawFrame(projection, state.Transforms())
		if err != nil {
			return err
		}

		if elapsed := hrtime.Since(lastStats); elapsed >= statsInterval {
			stats := renderer.Stats()
			fps := float64(stats.FramesSubmitted-lastFrames) / elapsed.Seconds()
			logger.Debug("frame stats", "fps", fps, "frames", stats.FramesSubmitted)
			lastStats, lastFrames = hrtime.Now(), stats.FramesSubmitted
		}
	}

	scoreboard.GameOver(state.Scores)
	return nil
}
