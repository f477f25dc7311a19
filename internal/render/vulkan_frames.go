package render

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

type frameSlot struct {
	imageAvailable core1_0.Semaphore
	renderFinished core1_0.Semaphore
	inFlight       core1_0.Fence
}

// vulkanFrames implements FrameBackend with one set of sync objects per
// frame slot.
type vulkanFrames struct {
	device    *Device
	swapchain *Swapchain
	slots     [MaxFramesInFlight]frameSlot
}

func newVulkanFrames(device *Device, swapchain *Swapchain) (*vulkanFrames, error) {
	f := &vulkanFrames{device: device, swapchain: swapchain}

	for i := range f.slots {
		err := f.createSlot(&f.slots[i])
		if err != nil {
			f.destroy()
			return nil, setupError(err, "creating frame sync objects")
		}
	}

	return f, nil
}

func (f *vulkanFrames) createSlot(slot *frameSlot) error {
	var err error
	slot.imageAvailable, _, err = f.device.Driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return err
	}

	slot.renderFinished, _, err = f.device.Driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return err
	}

	// Signaled so the first wait on each slot returns immediately.
	slot.inFlight, _, err = f.device.Driver.CreateFence(nil, core1_0.FenceCreateInfo{
		Flags: core1_0.FenceCreateSignaled,
	})
	return err
}

func (f *vulkanFrames) WaitForSlot(slot int) error {
	_, err := f.device.Driver.WaitForFences(true, common.NoTimeout, f.slots[slot].inFlight)
	return err
}

func (f *vulkanFrames) ResetSlot(slot int) error {
	_, err := f.device.Driver.ResetFences(f.slots[slot].inFlight)
	return err
}

func (f *vulkanFrames) AcquireImage(slot int) (int, error) {
	imageIndex, _, err := f.swapchain.extension.AcquireNextImage(f.swapchain.handle, common.NoTimeout, &f.slots[slot].imageAvailable, nil)
	return imageIndex, err
}

func (f *vulkanFrames) Submit(slot, image int) error {
	_, err := f.device.Driver.QueueSubmit(f.device.graphicsQueue, &f.slots[slot].inFlight,
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{f.slots[slot].imageAvailable},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput},
			CommandBuffers:   []core1_0.CommandBuffer{f.swapchain.images[image].commands},
			SignalSemaphores: []core1_0.Semaphore{f.slots[slot].renderFinished},
		},
	)
	return err
}

func (f *vulkanFrames) Present(slot, image int) error {
	res, err := f.swapchain.extension.QueuePresent(f.device.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{f.slots[slot].renderFinished},
		Swapchains:     []khr_swapchain.Swapchain{f.swapchain.handle},
		ImageIndices:   []int{image},
	})
	if err != nil {
		return err
	}

	if res == khr_swapchain.VKSuboptimal {
		slogger().Debug("swapchain is suboptimal", "image", image)
	}
	return nil
}

func (f *vulkanFrames) destroy() {
	driver := f.device.Driver
	for i := len(f.slots) - 1; i >= 0; i-- {
		slot := f.slots[i]

		if slot.inFlight.Initialized() {
			driver.DestroyFence(slot.inFlight, nil)
		}

		if slot.renderFinished.Initialized() {
			driver.DestroySemaphore(slot.renderFinished, nil)
		}

		if slot.imageAvailable.Initialized() {
			driver.DestroySemaphore(slot.imageAvailable, nil)
		}
	}
	f.slots = [MaxFramesInFlight]frameSlot{}
}
