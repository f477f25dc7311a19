package render

import (
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

var deviceExtensions = []string{khr_swapchain.ExtensionName}

type DeviceOptions struct {
	ApplicationName string
	// Validation enables the Khronos validation layer and routes its
	// messages to the logger.
	Validation bool
}

// Device owns the instance, surface, logical device and command pool that
// everything else is created from.
type Device struct {
	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver
	Driver         core1_0.CoreDeviceDriver

	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	families       queueFamilies
	graphicsQueue  core1_0.Queue
	presentQueue   core1_0.Queue
	commandPool    core1_0.CommandPool
}

type queueFamilies struct {
	graphics int
	present  int
}

func (f queueFamilies) complete() bool {
	return f.graphics >= 0 && f.present >= 0
}

func (f queueFamilies) unique() []int {
	if f.graphics == f.present {
		return []int{f.graphics}
	}
	return []int{f.graphics, f.present}
}

type swapchainSupport struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// NewDevice brings up Vulkan for the window. On failure everything created
// so far is destroyed.
func NewDevice(window *sdl.Window, opts DeviceOptions) (*Device, error) {
	globalDriver, err := core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, setupError(err, "loading vulkan")
	}

	d := &Device{globalDriver: globalDriver}
	steps := []func() error{
		func() error { return d.createInstance(window.VulkanGetInstanceExtensions(), opts) },
		func() error { return d.createSurface(window) },
		d.pickPhysicalDevice,
		d.createLogicalDevice,
		d.createCommandPool,
	}

	for _, step := range steps {
		err = step()
		if err != nil {
			d.Destroy()
			return nil, err
		}
	}

	return d, nil
}

func (d *Device) createInstance(windowExtensions []string, opts DeviceOptions) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := d.globalDriver.AvailableExtensions()
	if err != nil {
		return setupError(err, "listing instance extensions")
	}

	missing := missingExtensions(extensions, windowExtensions)
	if len(missing) > 0 {
		return setupErrorf("window needs missing instance extensions %v", missing)
	}
	instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, windowExtensions...)

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	validation := opts.Validation
	if validation {
		layers, _, err := d.globalDriver.AvailableLayers()
		if err != nil {
			return setupError(err, "listing instance layers")
		}

		_, hasLayer := layers[validationLayer]
		_, hasDebugUtils := extensions[ext_debug_utils.ExtensionName]
		if !hasLayer || !hasDebugUtils {
			slogger().Warn("validation requested but not available, install the Vulkan SDK",
				"layer", hasLayer, "debugUtils", hasDebugUtils)
			validation = false
		}
	}

	if validation {
		instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, validationLayer)
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		instanceOptions.Next = debugMessengerOptions()
	}

	d.instanceDriver, _, err = d.globalDriver.CreateInstance(nil, instanceOptions)
	if err != nil {
		return setupError(err, "creating instance")
	}

	if validation {
		d.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
		d.debugMessenger, _, err = d.debugDriver.CreateDebugUtilsMessenger(nil, debugMessengerOptions())
		if err != nil {
			return setupError(err, "creating debug messenger")
		}
	}

	return nil
}

func debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logDebug,
	}
}

func logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	logger := slogger().With("type", msgType.String())
	if severity&ext_debug_utils.SeverityError != 0 {
		logger.Error(data.Message)
	} else {
		logger.Warn(data.Message)
	}
	return false
}

func (d *Device) createSurface(window *sdl.Window) error {
	d.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(d.instanceDriver)
	surface, err := vkng_sdl2.CreateSurface(d.instanceDriver.Instance(), d.surfaceExtension, window)
	if err != nil {
		return setupError(err, "creating surface")
	}

	d.surface = surface
	return nil
}

func (d *Device) pickPhysicalDevice() error {
	physicalDevices, _, err := d.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return setupError(err, "enumerating physical devices")
	}

	for _, device := range physicalDevices {
		families, ok := d.isDeviceSuitable(device)
		if !ok {
			continue
		}

		d.physicalDevice = device
		d.families = families

		properties, err := d.instanceDriver.GetPhysicalDeviceProperties(device)
		if err == nil {
			slogger().Info("using GPU", "name", properties.DeviceName)
		}
		return nil
	}

	return setupErrorf("no GPU supports graphics and presentation to this window")
}

func (d *Device) isDeviceSuitable(device core1_0.PhysicalDevice) (queueFamilies, bool) {
	families, err := d.findQueueFamilies(device)
	if err != nil || !families.complete() {
		return families, false
	}

	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil || len(missingExtensions(extensions, deviceExtensions)) > 0 {
		return families, false
	}

	support, err := d.querySwapchainSupport(device)
	if err != nil {
		return families, false
	}

	return families, len(support.Formats) > 0 && len(support.PresentModes) > 0
}

func (d *Device) findQueueFamilies(device core1_0.PhysicalDevice) (queueFamilies, error) {
	var flags []core1_0.QueueFlags
	for _, family := range d.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device) {
		flags = append(flags, family.QueueFlags)
	}

	return findQueueFamilies(flags, func(family int) (bool, error) {
		supported, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceSupport(d.surface, device, family)
		return supported, err
	})
}

// findQueueFamilies prefers a single family that can both draw and present,
// then falls back to the first of each.
func findQueueFamilies(flags []core1_0.QueueFlags, presentSupported func(family int) (bool, error)) (queueFamilies, error) {
	families := queueFamilies{graphics: -1, present: -1}

	for family, queueFlags := range flags {
		graphics := queueFlags&core1_0.QueueGraphics != 0
		present, err := presentSupported(family)
		if err != nil {
			return families, err
		}

		if graphics && present {
			return queueFamilies{graphics: family, present: family}, nil
		}

		if graphics && families.graphics < 0 {
			families.graphics = family
		}

		if present && families.present < 0 {
			families.present = family
		}
	}

	return families, nil
}

func missingExtensions[T any](available map[string]T, required []string) []string {
	var missing []string
	for _, extension := range required {
		_, hasExtension := available[extension]
		if !hasExtension {
			missing = append(missing, extension)
		}
	}

	return missing
}

func (d *Device) querySwapchainSupport(device core1_0.PhysicalDevice) (swapchainSupport, error) {
	var support swapchainSupport
	var err error

	support.Capabilities, _, err = d.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(d.surface, device)
	if err != nil {
		return support, err
	}

	support.Formats, _, err = d.surfaceExtension.GetPhysicalDeviceSurfaceFormats(d.surface, device)
	if err != nil {
		return support, err
	}

	support.PresentModes, _, err = d.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(d.surface, device)
	return support, err
}

func (d *Device) createLogicalDevice() error {
	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range d.families.unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	extensions, _, err := d.instanceDriver.EnumerateDeviceExtensionProperties(d.physicalDevice)
	if err != nil {
		return setupError(err, "listing device extensions")
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	d.Driver, _, err = d.instanceDriver.CreateDevice(d.physicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return setupError(err, "creating logical device")
	}

	d.graphicsQueue = d.Driver.GetQueue(d.families.graphics, 0)
	d.presentQueue = d.Driver.GetQueue(d.families.present, 0)
	return nil
}

func (d *Device) createCommandPool() error {
	pool, _, err := d.Driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateTransient | core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: d.families.graphics,
	})
	if err != nil {
		return setupError(err, "creating command pool")
	}

	d.commandPool = pool
	return nil
}

func (d *Device) createBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	buffer, _, err := d.Driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	memRequirements := d.Driver.GetBufferMemoryRequirements(buffer)
	memoryTypeIndex, err := d.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		return buffer, core1_0.DeviceMemory{}, err
	}

	memory, _, err := d.Driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return buffer, core1_0.DeviceMemory{}, err
	}

	_, err = d.Driver.BindBufferMemory(buffer, memory, 0)
	return buffer, memory, err
}

func (d *Device) createImage(width, height int, format core1_0.Format, usage core1_0.ImageUsageFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	image, _, err := d.Driver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return core1_0.Image{}, core1_0.DeviceMemory{}, err
	}

	memReqs := d.Driver.GetImageMemoryRequirements(image)
	memoryIndex, err := d.findMemoryType(memReqs.MemoryTypeBits, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return image, core1_0.DeviceMemory{}, err
	}

	imageMemory, _, err := d.Driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		return image, core1_0.DeviceMemory{}, err
	}

	_, err = d.Driver.BindImageMemory(image, imageMemory, 0)
	return image, imageMemory, err
}

func (d *Device) createImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (core1_0.ImageView, error) {
	imageView, _, err := d.Driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, err
}

func (d *Device) findMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := d.instanceDriver.GetPhysicalDeviceMemoryProperties(d.physicalDevice)
	for i, memoryType := range memProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (memoryType.PropertyFlags&properties) == properties {
			return i, nil
		}
	}

	return 0, setupErrorf("no memory type matches %s", properties)
}

func (d *Device) formatFeatures(format core1_0.Format) core1_0.FormatFeatureFlags {
	return d.instanceDriver.GetPhysicalDeviceFormatProperties(d.physicalDevice, format).OptimalTilingFeatures
}

// WaitIdle blocks until the GPU has finished all submitted work.
func (d *Device) WaitIdle() error {
	if d.Driver == nil {
		return nil
	}

	_, err := d.Driver.DeviceWaitIdle()
	return err
}

// Destroy releases everything in reverse order of creation. It is safe on
// a partially created device.
func (d *Device) Destroy() {
	if d.commandPool.Initialized() {
		d.Driver.DestroyCommandPool(d.commandPool, nil)
		d.commandPool = core1_0.CommandPool{}
	}

	if d.Driver != nil {
		d.Driver.DestroyDevice(nil)
		d.Driver = nil
	}

	if d.surface.Initialized() {
		d.surfaceExtension.DestroySurface(d.surface, nil)
		d.surface = khr_surface.Surface{}
	}

	if d.debugMessenger.Initialized() {
		d.debugDriver.DestroyDebugUtilsMessenger(d.debugMessenger, nil)
		d.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if d.instanceDriver != nil {
		d.instanceDriver.DestroyInstance(nil)
		d.instanceDriver = nil
	}
}
