package render

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

var depthFormats = []core1_0.Format{
	core1_0.FormatD32SignedFloat,
	core1_0.FormatD32SignedFloatS8UnsignedInt,
	core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
}

// swapchainImage is everything that exists once per presentable image.
type swapchainImage struct {
	image       core1_0.Image
	view        core1_0.ImageView
	depth       core1_0.Image
	depthMemory core1_0.DeviceMemory
	depthView   core1_0.ImageView
	framebuffer core1_0.Framebuffer
	commands    core1_0.CommandBuffer
}

// Swapchain owns the presentable images, their depth attachments and the
// render pass that draws into them.
type Swapchain struct {
	device    *Device
	extension khr_swapchain.ExtensionDriver
	handle    khr_swapchain.Swapchain

	Format      core1_0.Format
	DepthFormat core1_0.Format
	Extent      core1_0.Extent2D
	RenderPass  core1_0.RenderPass

	images []swapchainImage
}

func chooseSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

func choosePresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// chooseExtent uses the surface's extent when it has one, otherwise the
// fallback clamped to what the surface allows.
func chooseExtent(capabilities *khr_surface.SurfaceCapabilities, fallback core1_0.Extent2D) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	width := clampInt(fallback.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width)
	height := clampInt(fallback.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height)
	return core1_0.Extent2D{Width: width, Height: height}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// chooseImageCount asks for one image more than the minimum. A maximum of
// zero means there is no limit.
func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}

	return imageCount
}

func findDepthFormat(features func(core1_0.Format) core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	for _, format := range depthFormats {
		if features(format)&core1_0.FormatFeatureDepthStencilAttachment != 0 {
			return format, nil
		}
	}

	return 0, setupErrorf("none of the depth formats %v can be a depth attachment", depthFormats)
}

// NewSwapchain creates the swapchain for the device's surface together with
// one depth attachment, framebuffer and command buffer per image.
func NewSwapchain(device *Device, fallback core1_0.Extent2D) (*Swapchain, error) {
	s := &Swapchain{
		device:    device,
		extension: khr_swapchain.CreateExtensionDriverFromCoreDriver(device.Driver),
	}

	err := s.create(fallback)
	if err != nil {
		s.Destroy()
		return nil, err
	}

	return s, nil
}

func (s *Swapchain) create(fallback core1_0.Extent2D) error {
	support, err := s.device.querySwapchainSupport(s.device.physicalDevice)
	if err != nil {
		return setupError(err, "querying swapchain support")
	}

	surfaceFormat := chooseSurfaceFormat(support.Formats)
	presentMode := choosePresentMode(support.PresentModes)
	s.Extent = chooseExtent(support.Capabilities, fallback)
	s.Format = surfaceFormat.Format

	s.DepthFormat, err = findDepthFormat(s.device.formatFeatures)
	if err != nil {
		return err
	}

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if s.device.families.graphics != s.device.families.present {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = s.device.families.unique()
	}

	s.handle, _, err = s.extension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: s.device.surface,

		MinImageCount:    chooseImageCount(support.Capabilities),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      s.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return setupError(err, "creating swapchain")
	}

	slogger().Info("created swapchain",
		"format", surfaceFormat.Format.String(),
		"presentMode", presentMode.String(),
		"width", s.Extent.Width,
		"height", s.Extent.Height)

	err = s.createRenderPass()
	if err != nil {
		return err
	}

	return s.createImages()
}

func (s *Swapchain) createRenderPass() error {
	renderPass, _, err := s.device.Driver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         s.Format,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
			{
				Format:         s.DepthFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpDontCare,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				DstAccessMask: core1_0.AccessColorAttachmentWrite | core1_0.AccessDepthStencilAttachmentWrite,
			},
		},
	})
	if err != nil {
		return setupError(err, "creating render pass")
	}

	s.RenderPass = renderPass
	return nil
}

func (s *Swapchain) createImages() error {
	images, _, err := s.extension.GetSwapchainImages(s.handle)
	if err != nil {
		return setupError(err, "getting swapchain images")
	}

	commandBuffers, _, err := s.device.Driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        s.device.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: len(images),
	})
	if err != nil {
		return setupError(err, "allocating command buffers")
	}

	s.images = make([]swapchainImage, len(images))
	for i, image := range images {
		s.images[i].image = image
		s.images[i].commands = commandBuffers[i]

		err = s.createImageResources(&s.images[i])
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "creating resources for swapchain image %d", i), ErrSetup)
		}
	}

	return nil
}

func (s *Swapchain) createImageResources(image *swapchainImage) error {
	var err error
	image.view, err = s.device.createImageView(image.image, s.Format, core1_0.ImageAspectColor)
	if err != nil {
		return err
	}

	image.depth, image.depthMemory, err = s.device.createImage(s.Extent.Width, s.Extent.Height, s.DepthFormat, core1_0.ImageUsageDepthStencilAttachment)
	if err != nil {
		return err
	}

	image.depthView, err = s.device.createImageView(image.depth, s.DepthFormat, core1_0.ImageAspectDepth)
	if err != nil {
		return err
	}

	image.framebuffer, _, err = s.device.Driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass: s.RenderPass,
		Layers:     1,
		Attachments: []core1_0.ImageView{
			image.view,
			image.depthView,
		},
		Width:  s.Extent.Width,
		Height: s.Extent.Height,
	})
	return err
}

// ImageCount is the number of presentable images.
func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// Destroy releases the swapchain and everything created per image. The
// device must be idle.
func (s *Swapchain) Destroy() {
	driver := s.device.Driver

	var commandBuffers []core1_0.CommandBuffer
	for i := len(s.images) - 1; i >= 0; i-- {
		image := s.images[i]

		if image.framebuffer.Initialized() {
			driver.DestroyFramebuffer(image.framebuffer, nil)
		}

		if image.depthView.Initialized() {
			driver.DestroyImageView(image.depthView, nil)
		}

		if image.depth.Initialized() {
			driver.DestroyImage(image.depth, nil)
		}

		if image.depthMemory.Initialized() {
			driver.FreeMemory(image.depthMemory, nil)
		}

		if image.view.Initialized() {
			driver.DestroyImageView(image.view, nil)
		}

		if image.commands.Initialized() {
			commandBuffers = append(commandBuffers, image.commands)
		}
	}
	s.images = nil

	if len(commandBuffers) > 0 {
		driver.FreeCommandBuffers(commandBuffers...)
	}

	if s.RenderPass.Initialized() {
		driver.DestroyRenderPass(s.RenderPass, nil)
		s.RenderPass = core1_0.RenderPass{}
	}

	if s.handle.Initialized() {
		s.extension.DestroySwapchain(s.handle, nil)
		s.handle = khr_swapchain.Swapchain{}
	}
}
