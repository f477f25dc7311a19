package render

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type Options struct {
	ApplicationName string
	Validation      bool
	// Width and Height are used when the surface does not dictate an extent.
	Width  int
	Height int
}

// Renderer draws the same quad once per transform every frame, keeping up
// to MaxFramesInFlight frames queued on the GPU.
type Renderer struct {
	device    *Device
	swapchain *Swapchain
	layout    core1_0.PipelineLayout
	pipeline  core1_0.Pipeline
	vertices  vertexBuffer
	frames    *vulkanFrames
	scheduler *FrameScheduler
	encoders  []CommandEncoder
}

func NewRenderer(window *sdl.Window, shaders ShaderCode, opts Options) (*Renderer, error) {
	device, err := NewDevice(window, DeviceOptions{
		ApplicationName: opts.ApplicationName,
		Validation:      opts.Validation,
	})
	if err != nil {
		return nil, err
	}

	r := &Renderer{device: device}
	err = r.init(shaders, core1_0.Extent2D{Width: opts.Width, Height: opts.Height})
	if err != nil {
		closeErr := r.Close()
		if closeErr != nil {
			slogger().Warn("cleanup after failed setup", "err", closeErr)
		}
		return nil, err
	}

	return r, nil
}

func (r *Renderer) init(shaders ShaderCode, fallback core1_0.Extent2D) error {
	var err error
	r.swapchain, err = NewSwapchain(r.device, fallback)
	if err != nil {
		return err
	}

	r.layout, err = createPipelineLayout(r.device.Driver)
	if err != nil {
		return err
	}

	config, err := NewPipelineConfig(r.layout, r.swapchain.RenderPass)
	if err != nil {
		return err
	}

	r.pipeline, err = config.Build(r.device.Driver, shaders.Vertex, shaders.Fragment)
	if err != nil {
		return err
	}

	r.vertices, err = r.device.createVertexBuffer(quadVertices())
	if err != nil {
		return err
	}

	r.frames, err = newVulkanFrames(r.device, r.swapchain)
	if err != nil {
		return err
	}

	for _, image := range r.swapchain.images {
		r.encoders = append(r.encoders, newVulkanEncoder(r.device.Driver, image.commands))
	}
	r.scheduler = NewFrameScheduler(r.frames, r.swapchain.ImageCount())

	slogger().Info("renderer ready", "images", r.swapchain.ImageCount(), "framesInFlight", MaxFramesInFlight)
	return nil
}

// DrawFrame renders the paddles and the ball with the given model matrices.
// It blocks only when MaxFramesInFlight frames are already queued.
func (r *Renderer) DrawFrame(projection mgl32.Mat4, transforms [3]mgl32.Mat4) error {
	return r.scheduler.DrawFrame(func(image int) error {
		target := DrawTarget{
			RenderPass:   r.swapchain.RenderPass,
			Framebuffer:  r.swapchain.images[image].framebuffer,
			Extent:       r.swapchain.Extent,
			Pipeline:     r.pipeline,
			Layout:       r.layout,
			VertexBuffer: r.vertices.buffer,
			VertexCount:  r.vertices.count,
		}

		return Record(r.encoders[image], target, projection, transforms)
	})
}

func (r *Renderer) Stats() Stats {
	if r.scheduler == nil {
		return Stats{}
	}
	return r.scheduler.Stats()
}

// Close waits for the GPU to go idle and destroys everything the renderer
// created, newest first.
func (r *Renderer) Close() error {
	if r.device == nil {
		return nil
	}

	err := r.device.WaitIdle()
	if err != nil {
		err = errors.Wrap(err, "waiting for device idle")
	}

	driver := r.device.Driver
	if r.frames != nil {
		r.frames.destroy()
		r.frames = nil
	}

	r.vertices.destroy(driver)
	r.vertices = vertexBuffer{}

	if r.pipeline.Initialized() {
		driver.DestroyPipeline(r.pipeline, nil)
		r.pipeline = core1_0.Pipeline{}
	}

	if r.layout.Initialized() {
		driver.DestroyPipelineLayout(r.layout, nil)
		r.layout = core1_0.PipelineLayout{}
	}

	if r.swapchain != nil {
		r.swapchain.Destroy()
		r.swapchain = nil
	}

	r.device.Destroy()
	r.device = nil
	r.encoders = nil
	r.scheduler = nil
	return err
}
