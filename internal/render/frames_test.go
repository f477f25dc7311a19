package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFrames models fences and command buffer usage closely enough to catch
// protocol violations: it records an error whenever a fence is reset without
// having been waited on, or an image is recorded while its last submission
// is still pending.
type fakeFrames struct {
	imageCount int
	nextImage  int

	signaled     [MaxFramesInFlight]bool
	observed     [MaxFramesInFlight]bool
	imageOwner   []int
	imagePending []bool

	calls      []string
	violations []string

	acquireImage func() int
	// waitErr fails WaitForSlot for the slot it names.
	waitErr    map[int]error
	acquireErr error
	resetErr   error
	submitErr  error
	presentErr error
}

func newFakeFrames(imageCount int) *fakeFrames {
	f := &fakeFrames{
		imageCount:   imageCount,
		imageOwner:   make([]int, imageCount),
		imagePending: make([]bool, imageCount),
	}
	for i := range f.signaled {
		f.signaled[i] = true
	}
	for i := range f.imageOwner {
		f.imageOwner[i] = noSlot
	}
	return f
}

func (f *fakeFrames) violate(format string, args ...any) {
	f.violations = append(f.violations, fmt.Sprintf(format, args...))
}

func (f *fakeFrames) WaitForSlot(slot int) error {
	f.calls = append(f.calls, fmt.Sprintf("wait:%d", slot))
	if err := f.waitErr[slot]; err != nil {
		return err
	}
	f.signaled[slot] = true
	f.observed[slot] = true
	for image, owner := range f.imageOwner {
		if owner == slot {
			f.imagePending[image] = false
		}
	}
	return nil
}

func (f *fakeFrames) ResetSlot(slot int) error {
	f.calls = append(f.calls, fmt.Sprintf("reset:%d", slot))
	if f.resetErr != nil {
		return f.resetErr
	}
	if !f.observed[slot] || !f.signaled[slot] {
		f.violate("slot %d reset before its fence was observed signaled", slot)
	}
	f.signaled[slot] = false
	f.observed[slot] = false
	return nil
}

func (f *fakeFrames) AcquireImage(slot int) (int, error) {
	if f.acquireErr != nil {
		f.calls = append(f.calls, fmt.Sprintf("acquire:%d", slot))
		return 0, f.acquireErr
	}
	image := f.nextImage
	if f.acquireImage != nil {
		image = f.acquireImage()
	} else {
		f.nextImage = (f.nextImage + 1) % f.imageCount
	}
	f.calls = append(f.calls, fmt.Sprintf("acquire:%d=%d", slot, image))
	return image, nil
}

func (f *fakeFrames) Submit(slot, image int) error {
	f.calls = append(f.calls, fmt.Sprintf("submit:%d/%d", slot, image))
	if f.submitErr != nil {
		return f.submitErr
	}
	if f.signaled[slot] {
		f.violate("slot %d submitted with a signaled fence", slot)
	}
	f.imageOwner[image] = slot
	f.imagePending[image] = true
	return nil
}

func (f *fakeFrames) Present(slot, image int) error {
	f.calls = append(f.calls, fmt.Sprintf("present:%d/%d", slot, image))
	return f.presentErr
}

func (f *fakeFrames) record(image int) error {
	if f.imagePending[image] {
		f.violate("image %d recorded while still in flight", image)
	}
	return nil
}

func TestFramePacingOverManyFrames(t *testing.T) {
	for _, imageCount := range []int{2, 3, 4} {
		t.Run(fmt.Sprintf("%d images", imageCount), func(t *testing.T) {
			backend := newFakeFrames(imageCount)
			scheduler := NewFrameScheduler(backend, imageCount)

			for i := 0; i < 2*MaxFramesInFlight*imageCount; i++ {
				require.NoError(t, scheduler.DrawFrame(backend.record))
				assert.Equal(t, (i+1)%MaxFramesInFlight, scheduler.Stats().CurrentSlot)
			}

			assert.Empty(t, backend.violations)
			assert.Equal(t, uint64(2*MaxFramesInFlight*imageCount), scheduler.Stats().FramesSubmitted)
		})
	}
}

func TestFrameWaitsForImageOwner(t *testing.T) {
	backend := newFakeFrames(3)
	scheduler := NewFrameScheduler(backend, 3)

	for i := 0; i < 4; i++ {
		require.NoError(t, scheduler.DrawFrame(backend.record))
	}

	assert.Equal(t, []string{
		"wait:0", "acquire:0=0", "reset:0", "submit:0/0", "present:0/0",
		"wait:1", "acquire:1=1", "reset:1", "submit:1/1", "present:1/1",
		"wait:0", "acquire:0=2", "reset:0", "submit:0/2", "present:0/2",
		"wait:1", "acquire:1=0", "wait:0", "reset:1", "submit:1/0", "present:1/0",
	}, backend.calls)
	assert.Empty(t, backend.violations)
}

func TestFrameToleratesPresentFailure(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	backend := newFakeFrames(3)
	backend.presentErr = errors.New("out of date")
	scheduler := NewFrameScheduler(backend, 3)

	require.NoError(t, scheduler.DrawFrame(backend.record))
	require.NoError(t, scheduler.DrawFrame(backend.record))

	assert.Equal(t, Stats{FramesSubmitted: 2, CurrentSlot: 0}, scheduler.Stats())
	assert.Contains(t, buf.String(), "present failed")
	assert.Contains(t, buf.String(), "out of date")
}

func TestFrameSubmitFailureIsFatal(t *testing.T) {
	backend := newFakeFrames(3)
	backend.submitErr = errors.New("device lost")
	scheduler := NewFrameScheduler(backend, 3)

	err := scheduler.DrawFrame(backend.record)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrame))
	assert.Contains(t, err.Error(), "device lost")
	assert.Equal(t, Stats{}, scheduler.Stats())
}

func TestFrameBackendFailuresAreFatal(t *testing.T) {
	gpuErr := errors.New("device lost")

	tests := []struct {
		name  string
		warm  int
		setup func(f *fakeFrames)
	}{
		{
			name:  "slot fence wait",
			setup: func(f *fakeFrames) { f.waitErr = map[int]error{0: gpuErr} },
		},
		{
			name:  "acquire",
			setup: func(f *fakeFrames) { f.acquireErr = gpuErr },
		},
		{
			// Frame 4 reacquires image 0, which slot 0 still owns.
			name:  "image owner wait",
			warm:  3,
			setup: func(f *fakeFrames) { f.waitErr = map[int]error{0: gpuErr} },
		},
		{
			name:  "fence reset",
			setup: func(f *fakeFrames) { f.resetErr = gpuErr },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeFrames(3)
			scheduler := NewFrameScheduler(backend, 3)
			for i := 0; i < tt.warm; i++ {
				require.NoError(t, scheduler.DrawFrame(backend.record))
			}
			before := scheduler.Stats()
			tt.setup(backend)
			backend.calls = nil

			err := scheduler.DrawFrame(backend.record)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFrame))
			assert.True(t, errors.Is(err, gpuErr))
			assert.Equal(t, before, scheduler.Stats())
			for _, call := range backend.calls {
				assert.NotContains(t, call, "submit")
				assert.NotContains(t, call, "present")
			}
		})
	}
}

func TestFrameRecordFailureLeavesFenceSignaled(t *testing.T) {
	backend := newFakeFrames(3)
	scheduler := NewFrameScheduler(backend, 3)

	err := scheduler.DrawFrame(func(int) error {
		return errors.New("encoder broke")
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrame))
	assert.NotContains(t, backend.calls, "reset:0")
	assert.True(t, backend.signaled[0])
}

func TestFrameRejectsUnknownImage(t *testing.T) {
	backend := newFakeFrames(3)
	backend.acquireImage = func() int { return 7 }
	scheduler := NewFrameScheduler(backend, 3)

	err := scheduler.DrawFrame(backend.record)

	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestDefaultLoggerIsSilent(t *testing.T) {
	SetLogger(nil)
	assert.False(t, slogger().Enabled(context.Background(), slog.LevelError))
}
