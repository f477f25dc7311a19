package render

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	other := khr_surface.SurfaceFormat{Format: core1_0.FormatR8G8B8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	assert.Equal(t, preferred, chooseSurfaceFormat([]khr_surface.SurfaceFormat{other, preferred}))
	assert.Equal(t, other, chooseSurfaceFormat([]khr_surface.SurfaceFormat{other}))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, khr_surface.PresentModeMailbox, choosePresentMode([]khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox}))
	assert.Equal(t, khr_surface.PresentModeFIFO, choosePresentMode([]khr_surface.PresentMode{khr_surface.PresentModeImmediate}))
	assert.Equal(t, khr_surface.PresentModeFIFO, choosePresentMode(nil))
}

func TestChooseExtent(t *testing.T) {
	fallback := core1_0.Extent2D{Width: 1280, Height: 720}

	defined := &khr_surface.SurfaceCapabilities{CurrentExtent: core1_0.Extent2D{Width: 800, Height: 600}}
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, chooseExtent(defined, fallback))

	undefined := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}
	assert.Equal(t, fallback, chooseExtent(undefined, fallback))

	undefined.MaxImageExtent = core1_0.Extent2D{Width: 1024, Height: 4096}
	undefined.MinImageExtent = core1_0.Extent2D{Width: 1, Height: 800}
	assert.Equal(t, core1_0.Extent2D{Width: 1024, Height: 800}, chooseExtent(undefined, fallback))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, 3, chooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}))
	assert.Equal(t, 3, chooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, 2, chooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
}

func TestFindDepthFormat(t *testing.T) {
	supports := func(supported ...core1_0.Format) func(core1_0.Format) core1_0.FormatFeatureFlags {
		return func(format core1_0.Format) core1_0.FormatFeatureFlags {
			for _, s := range supported {
				if s == format {
					return core1_0.FormatFeatureDepthStencilAttachment | core1_0.FormatFeatureSampledImage
				}
			}
			return core1_0.FormatFeatureSampledImage
		}
	}

	format, err := findDepthFormat(supports(core1_0.FormatD32SignedFloat, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt))
	require.NoError(t, err)
	assert.Equal(t, core1_0.FormatD32SignedFloat, format)

	format, err = findDepthFormat(supports(core1_0.FormatD24UnsignedNormalizedS8UnsignedInt))
	require.NoError(t, err)
	assert.Equal(t, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt, format)

	_, err = findDepthFormat(supports())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSetup))
}
