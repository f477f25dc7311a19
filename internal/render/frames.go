package render

import (
	"github.com/cockroachdb/errors"
)

// MaxFramesInFlight is the number of frames the CPU may prepare while the GPU
// is still working on earlier ones.
const MaxFramesInFlight = 2

const noSlot = -1

// FrameBackend performs the GPU side of the frame protocol. Slots are indices
// in [0, MaxFramesInFlight) and images are swapchain image indices.
type FrameBackend interface {
	// WaitForSlot blocks until the slot's in-flight fence is signaled.
	WaitForSlot(slot int) error
	// ResetSlot returns the slot's fence to the unsignaled state.
	ResetSlot(slot int) error
	// AcquireImage acquires the next presentable image, signaling the slot's
	// image-available semaphore.
	AcquireImage(slot int) (int, error)
	// Submit submits the image's command buffer, waiting on the slot's
	// image-available semaphore and signaling its render-finished semaphore
	// and fence.
	Submit(slot, image int) error
	// Present queues the image for presentation once the slot's
	// render-finished semaphore is signaled.
	Present(slot, image int) error
}

// Stats describes the scheduler's progress.
type Stats struct {
	FramesSubmitted uint64
	CurrentSlot     int
}

// FrameScheduler cycles frame slots over the swapchain images, making sure
// no slot's resources and no image are reused while the GPU still needs them.
type FrameScheduler struct {
	backend        FrameBackend
	imagesInFlight []int
	currentFrame   int
	submitted      uint64
}

func NewFrameScheduler(backend FrameBackend, imageCount int) *FrameScheduler {
	imagesInFlight := make([]int, imageCount)
	for i := range imagesInFlight {
		imagesInFlight[i] = noSlot
	}

	return &FrameScheduler{
		backend:        backend,
		imagesInFlight: imagesInFlight,
	}
}

// DrawFrame runs one frame: it acquires an image, hands it to record once the
// image is no longer in use, then submits and presents it.
func (s *FrameScheduler) DrawFrame(record func(image int) error) error {
	image, err := s.acquireNextImage()
	if err != nil {
		return err
	}

	err = s.claimImage(image)
	if err != nil {
		return err
	}

	err = record(image)
	if err != nil {
		return frameError(err, "recording frame")
	}

	return s.submit(image)
}

func (s *FrameScheduler) Stats() Stats {
	return Stats{
		FramesSubmitted: s.submitted,
		CurrentSlot:     s.currentFrame,
	}
}

func (s *FrameScheduler) acquireNextImage() (int, error) {
	err := s.backend.WaitForSlot(s.currentFrame)
	if err != nil {
		return 0, frameError(err, "waiting for frame slot")
	}

	image, err := s.backend.AcquireImage(s.currentFrame)
	if err != nil {
		return 0, frameError(err, "acquiring swapchain image")
	}

	if image < 0 || image >= len(s.imagesInFlight) {
		return 0, errors.AssertionFailedf("acquired image %d out of %d", image, len(s.imagesInFlight))
	}

	return image, nil
}

// claimImage waits for the slot that last used the image and makes the
// current slot its owner.
func (s *FrameScheduler) claimImage(image int) error {
	owner := s.imagesInFlight[image]
	if owner != noSlot && owner != s.currentFrame {
		err := s.backend.WaitForSlot(owner)
		if err != nil {
			return frameError(err, "waiting for image in flight")
		}
	}

	s.imagesInFlight[image] = s.currentFrame
	return nil
}

func (s *FrameScheduler) submit(image int) error {
	err := s.backend.ResetSlot(s.currentFrame)
	if err != nil {
		return frameError(err, "resetting frame fence")
	}

	err = s.backend.Submit(s.currentFrame, image)
	if err != nil {
		return frameError(err, "submitting frame")
	}

	err = s.backend.Present(s.currentFrame, image)
	if err != nil {
		slogger().Warn("present failed", "image", image, "slot", s.currentFrame, "err", err)
	}

	s.submitted++
	s.currentFrame = (s.currentFrame + 1) % MaxFramesInFlight
	return nil
}
