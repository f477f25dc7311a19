package platform

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/pong/internal/game"
)

// Window is a fixed size SDL window with a Vulkan surface and the game's
// keyboard controls.
type Window struct {
	window *sdl.Window
	quit   bool
}

// OpenWindow initializes SDL video and opens the window. The caller must be
// locked to the main OS thread.
func OpenWindow(title string, width, height int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "initializing sdl")
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "creating window")
	}

	return &Window{window: window}, nil
}

// Handle returns the SDL window for surface creation.
func (w *Window) Handle() *sdl.Window {
	return w.window
}

// Poll drains pending events and reports whether the window was asked to
// close.
func (w *Window) Poll() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch event.(type) {
		case *sdl.QuitEvent:
			w.quit = true
		}
	}

	return w.quit
}

// Input samples the keyboard. W and S move the left paddle, the arrow keys
// move the right one and space ends the game.
func (w *Window) Input() game.Input {
	return inputFromKeys(sdl.GetKeyboardState())
}

func inputFromKeys(keys []uint8) game.Input {
	pressed := func(scancode sdl.Scancode) bool {
		return int(scancode) < len(keys) && keys[scancode] != 0
	}

	paddle := func(up, down sdl.Scancode) game.PaddleInput {
		return game.PaddleInput{Up: pressed(up), Down: pressed(down)}
	}

	return game.Input{
		Paddles: [2]game.PaddleInput{
			paddle(sdl.SCANCODE_W, sdl.SCANCODE_S),
			paddle(sdl.SCANCODE_UP, sdl.SCANCODE_DOWN),
		},
		Quit: pressed(sdl.SCANCODE_SPACE),
	}
}

func (w *Window) Destroy() {
	if w.window != nil {
		_ = w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
