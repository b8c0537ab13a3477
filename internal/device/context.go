package device

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
var deviceExtensions = []string{khr_swapchain.ExtensionName}

// Context owns the instance, surface, logical device, its queues and the
// command pool. It implements present.Device and present.SwapchainDevice.
type Context struct {
	cfg Config
	log *slog.Logger

	window *sdl.Window
	loader core.Loader

	instance       core1_0.Instance
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	surface        khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	device         core1_0.Device
	families       QueueFamilyIndices

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	swapchainExtension khr_swapchain.Extension
	commandPool        core1_0.CommandPool
}

// New creates everything up to the command pool for window. On failure the
// partially created objects are destroyed.
func New(window *sdl.Window, cfg Config) (*Context, error) {
	ctx := &Context{
		cfg:    cfg,
		log:    cfg.logger(),
		window: window,
	}

	err := ctx.init()
	if err != nil {
		ctx.Destroy()
		return nil, err
	}

	return ctx, nil
}

func (c *Context) init() error {
	var err error
	c.loader, err = core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return errors.Wrap(err, "create vulkan loader")
	}

	err = c.createInstance()
	if err != nil {
		return err
	}

	err = c.setupDebugMessenger()
	if err != nil {
		return err
	}

	err = c.createSurface()
	if err != nil {
		return err
	}

	err = c.pickPhysicalDevice()
	if err != nil {
		return err
	}

	err = c.createLogicalDevice()
	if err != nil {
		return err
	}

	return c.createCommandPool()
}

// Device is the logical device, for collaborators that build their own
// resources on it.
func (c *Context) Device() core1_0.Device { return c.device }

func (c *Context) PhysicalDevice() core1_0.PhysicalDevice { return c.physicalDevice }

// Destroy releases everything New created. The device must be idle and every
// object created on it must already be destroyed.
func (c *Context) Destroy() {
	if c.commandPool != nil {
		c.commandPool.Destroy(nil)
		c.commandPool = nil
	}

	if c.device != nil {
		c.device.Destroy(nil)
		c.device = nil
	}

	if c.debugMessenger != nil {
		c.debugMessenger.Destroy(nil)
		c.debugMessenger = nil
	}

	if c.surface != nil {
		c.surface.Destroy(nil)
		c.surface = nil
	}

	if c.instance != nil {
		c.instance.Destroy(nil)
		c.instance = nil
	}
}

func (c *Context) createInstance() error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    c.cfg.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "vulkan-presenter",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	sdlExtensions := c.window.VulkanGetInstanceExtensions()
	extensions, _, err := c.loader.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}

	for _, ext := range sdlExtensions {
		_, hasExt := extensions[ext]
		if !hasExt {
			return errors.Newf("createInstance: cannot initialize sdl: missing extension %s", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}

	if c.cfg.Validation {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
	}

	layers, _, err := c.loader.AvailableLayers()
	if err != nil {
		return errors.Wrap(err, "enumerate instance layers")
	}

	if c.cfg.Validation {
		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return errors.Newf("createInstance: cannot add validation- layer %s not available- install LunarG Vulkan SDK", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		// Messages emitted during instance creation.
		instanceOptions.Next = c.debugMessengerOptions()
	}

	c.instance, _, err = c.loader.CreateInstance(nil, instanceOptions)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}

	return nil
}

func (c *Context) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    c.logDebug,
	}
}

func (c *Context) setupDebugMessenger() error {
	if !c.cfg.Validation {
		return nil
	}

	var err error
	debugLoader := ext_debug_utils.CreateExtensionFromInstance(c.instance)
	c.debugMessenger, _, err = debugLoader.CreateDebugUtilsMessenger(c.instance, nil, c.debugMessengerOptions())
	if err != nil {
		return errors.Wrap(err, "create debug messenger")
	}

	return nil
}

func (c *Context) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	c.log.Log(context.Background(), debugLevel(severity), data.Message,
		slog.String("type", msgType.String()),
		slog.String("severity", severity.String()))
	return false
}

func debugLevel(severity ext_debug_utils.DebugUtilsMessageSeverityFlags) slog.Level {
	if severity&ext_debug_utils.SeverityError != 0 {
		return slog.LevelError
	}
	if severity&ext_debug_utils.SeverityWarning != 0 {
		return slog.LevelWarn
	}
	return slog.LevelDebug
}

func (c *Context) createSurface() error {
	surfaceLoader := khr_surface.CreateExtensionFromInstance(c.instance)

	surface, err := vkng_sdl2.CreateSurface(c.instance, surfaceLoader, c.window)
	if err != nil {
		return errors.Wrap(err, "create window surface")
	}

	c.surface = surface
	return nil
}

func (c *Context) pickPhysicalDevice() error {
	physicalDevices, _, err := c.instance.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}

	for _, device := range physicalDevices {
		if c.isDeviceSuitable(device) {
			c.physicalDevice = device
			break
		}
	}

	if c.physicalDevice == nil {
		return errors.Newf("failed to find a suitable GPU among %d devices", len(physicalDevices))
	}

	properties, err := c.physicalDevice.Properties()
	if err != nil {
		return errors.Wrap(err, "read device properties")
	}
	c.log.Info("physical device selected",
		slog.String("name", properties.DeviceName),
		slog.Int("maxPushConstantsSize", properties.Limits.MaxPushConstantsSize))

	return nil
}

func (c *Context) createLogicalDevice() error {
	indices, err := c.findQueueFamilies(c.physicalDevice)
	if err != nil {
		return err
	}
	c.families = indices

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range indices.Unique() {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	var extensionNames []string
	extensionNames = append(extensionNames, deviceExtensions...)

	// Required on portability implementations such as MoltenVK.
	extensions, _, err := c.physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return errors.Wrap(err, "enumerate device extensions")
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	c.device, _, err = c.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueFamilyOptions,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return errors.Wrap(err, "create logical device")
	}

	c.graphicsQueue = c.device.GetQueue(*indices.GraphicsFamily, 0)
	c.presentQueue = c.device.GetQueue(*indices.PresentFamily, 0)
	c.swapchainExtension = khr_swapchain.CreateExtensionFromDevice(c.device)
	return nil
}

func (c *Context) createCommandPool() error {
	pool, _, err := c.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: *c.families.GraphicsFamily,
	})
	if err != nil {
		return errors.Wrap(err, "create command pool")
	}

	c.commandPool = pool
	return nil
}
