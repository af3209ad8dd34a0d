// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkx

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/garnet/core"
)

// ownership decides what Shutdown is allowed to destroy.
type ownership interface {
	release(p *Procs)
}

// engineOwned tracks the resources a context created itself. Fields are
// filled as initialization progresses, so releasing after a partial
// failure destroys exactly what exists. Teardown order is device,
// callback, instance.
type engineOwned struct {
	instance vk.Instance
	callback vk.DebugReportCallback
	device   vk.Device
}

func (o *engineOwned) release(p *Procs) {
	if o.device != nil {
		p.DeviceWaitIdle(o.device)
		p.DestroyDevice(o.device, nil)
		o.device = nil
	}
	if o.callback != vk.NullDebugReportCallback {
		p.DestroyDebugReportCallback(o.instance, o.callback, nil)
		o.callback = vk.NullDebugReportCallback
	}
	if o.instance != nil {
		p.DestroyInstance(o.instance, nil)
		o.instance = nil
	}
}

// borrowed marks a context whose handles belong to the embedding
// application. Shutdown never destroys them.
type borrowed struct{}

func (borrowed) release(*Procs) {}

// ExternalHandles carries native handles created by an embedding
// application, for contexts that execute on a device the engine did
// not create.
type ExternalHandles struct {
	Instance         vk.Instance
	PhysicalDevice   vk.PhysicalDevice
	Device           vk.Device
	Queue            vk.Queue
	QueueFamilyIndex uint32
}

// Device is one negotiated execution context. It either creates and
// owns its instance and logical device, or wraps handles supplied via
// ExternalHandles. The function table and the negotiated capability
// set are written once during Initialize and read-only afterwards.
type Device struct {
	config core.DeviceConfiguration
	log    core.Logger

	procs Procs
	own   ownership

	bindGlobal   func(entry unsafe.Pointer, p *Procs) error
	bindInstance func(instance vk.Instance, p *Procs) error

	instance       vk.Instance
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	queue          vk.Queue
	queueFamily    uint32

	properties       vk.PhysicalDeviceProperties
	memoryProperties vk.PhysicalDeviceMemoryProperties
	features         vk.PhysicalDeviceFeatures
	extensions       []string

	initialized bool
}

type nopLogger struct{}

func (nopLogger) Log(core.Severity, string) {}

// NewDevice returns a context that will create and own its instance
// and logical device. A nil logger discards diagnostic messages.
func NewDevice(config core.DeviceConfiguration, log core.Logger) *Device {
	if len(config.ValidationLayers) == 0 {
		config.ValidationLayers = core.DefaultValidationLayers()
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Device{
		config:       config,
		log:          log,
		own:          &engineOwned{},
		bindGlobal:   bindGlobalProcs,
		bindInstance: bindInstanceProcs,
	}
}

// NewExternalDevice returns a context wrapping handles the embedding
// application created. Shutdown will never destroy them.
func NewExternalDevice(handles ExternalHandles, log core.Logger) *Device {
	if log == nil {
		log = nopLogger{}
	}
	return &Device{
		log:            log,
		own:            borrowed{},
		bindGlobal:     bindGlobalProcs,
		bindInstance:   bindInstanceProcs,
		instance:       handles.Instance,
		physicalDevice: handles.PhysicalDevice,
		device:         handles.Device,
		queue:          handles.Queue,
		queueFamily:    handles.QueueFamilyIndex,
	}
}

// Initialize negotiates the context against the given requirements.
// For an owned context it creates the instance, picks the first
// physical device satisfying the requirements and creates the logical
// device. For an external context it verifies the supplied device
// against the requirements instead. entryPoint is the loader's
// vkGetInstanceProcAddr, nil selects the platform default loader.
//
// Initialize runs at most once. On failure the context is unusable
// except for Shutdown.
func (d *Device) Initialize(entryPoint unsafe.Pointer, requiredFeatures []core.Feature, requiredExtensions []string) error {
	if d.initialized {
		return invalidState("device context is already initialized")
	}
	switch own := d.own.(type) {
	case *engineOwned:
		if err := d.initializeOwned(own, entryPoint, requiredFeatures, requiredExtensions); err != nil {
			return err
		}
	case borrowed:
		if err := d.initializeBorrowed(entryPoint, requiredFeatures, requiredExtensions); err != nil {
			return err
		}
	}
	if err := d.cacheProperties(); err != nil {
		return err
	}
	d.initialized = true
	return nil
}

func (d *Device) initializeOwned(own *engineOwned, entryPoint unsafe.Pointer, requiredFeatures []core.Feature, requiredExtensions []string) error {
	if err := d.bindGlobal(entryPoint, &d.procs); err != nil {
		return err
	}
	if err := d.checkValidationLayers(); err != nil {
		return err
	}
	if err := d.checkDebugExtension(); err != nil {
		return err
	}
	if err := d.createInstance(own); err != nil {
		return err
	}
	if err := d.bindInstance(d.instance, &d.procs); err != nil {
		return err
	}
	if err := d.createDebugCallback(own); err != nil {
		return err
	}
	if err := d.choosePhysicalDevice(requiredFeatures, requiredExtensions); err != nil {
		return err
	}
	if err := d.createDevice(own, requiredFeatures, requiredExtensions); err != nil {
		return err
	}
	return d.retrieveQueue()
}

func (d *Device) initializeBorrowed(entryPoint unsafe.Pointer, requiredFeatures []core.Feature, requiredExtensions []string) error {
	if err := d.bindGlobal(entryPoint, &d.procs); err != nil {
		return err
	}
	if err := d.bindInstance(d.instance, &d.procs); err != nil {
		return err
	}
	var available vk.PhysicalDeviceFeatures
	d.procs.GetPhysicalDeviceFeatures(d.physicalDevice, &available)
	available.Deref()
	if missing := missingFeatures(available, requiredFeatures); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFeatures, featureList(missing))
	}
	extensions, err := d.deviceExtensions(d.physicalDevice)
	if err != nil {
		return err
	}
	if missing := missingStrings(extensions, requiredExtensions); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedExtensions, strings.Join(missing, ", "))
	}
	return nil
}

// checkValidationLayers verifies every configured layer is present on
// the host, reporting all absent layers at once.
func (d *Device) checkValidationLayers() error {
	var count uint32
	if err := vk.Error(d.procs.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return errors.New("vk.EnumerateInstanceLayerProperties(): " + err.Error())
	}
	layers := make([]vk.LayerProperties, count)
	if err := vk.Error(d.procs.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return errors.New("vk.EnumerateInstanceLayerProperties(): " + err.Error())
	}
	available := make(map[string]bool, count)
	for i := range layers {
		layers[i].Deref()
		available[vk.ToString(layers[i].LayerName[:])] = true
	}
	var missing []string
	for _, name := range d.config.ValidationLayers {
		if !available[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingLayers, strings.Join(missing, ", "))
	}
	return nil
}

// checkDebugExtension verifies at least one configured layer
// advertises the debug report extension the callback needs.
func (d *Device) checkDebugExtension() error {
	for _, layer := range d.config.ValidationLayers {
		var count uint32
		if err := vk.Error(d.procs.EnumerateInstanceExtensionProperties(layer, &count, nil)); err != nil {
			return errors.New("vk.EnumerateInstanceExtensionProperties(): " + err.Error())
		}
		extensions := make([]vk.ExtensionProperties, count)
		if err := vk.Error(d.procs.EnumerateInstanceExtensionProperties(layer, &count, extensions)); err != nil {
			return errors.New("vk.EnumerateInstanceExtensionProperties(): " + err.Error())
		}
		for i := range extensions {
			extensions[i].Deref()
			if vk.ToString(extensions[i].ExtensionName[:]) == DebugReportExtension {
				return nil
			}
		}
	}
	return errors.New("extension " + DebugReportExtension + " is not advertised by any validation layer")
}

func (d *Device) createInstance(own *engineOwned) error {
	var instance vk.Instance
	if err := vk.Error(d.procs.CreateInstance(&vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        DefaultApplicationInfo,
		EnabledLayerCount:       uint32(len(d.config.ValidationLayers)),
		PpEnabledLayerNames:     safeStrings(d.config.ValidationLayers),
		EnabledExtensionCount:   1,
		PpEnabledExtensionNames: safeStrings([]string{DebugReportExtension}),
	}, nil, &instance)); err != nil {
		return errors.New("vk.CreateInstance(): " + err.Error())
	}
	d.instance = instance
	own.instance = instance
	return nil
}

func (d *Device) createDebugCallback(own *engineOwned) error {
	var callback vk.DebugReportCallback
	if err := vk.Error(d.procs.CreateDebugReportCallback(d.instance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
		PfnCallback: d.debugReport,
	}, nil, &callback)); err != nil {
		return errors.New("vk.CreateDebugReportCallback(): " + err.Error())
	}
	own.callback = callback
	return nil
}

func (d *Device) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint, location uint, messageCode int32, layerPrefix string, message string, userData unsafe.Pointer) vk.Bool32 {
	var severity core.Severity
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		severity = core.ErrorSeverity
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		severity = core.WarningSeverity
	default:
		severity = core.UnknownSeverity
	}
	d.log.Log(severity, fmt.Sprintf("[%s] %s", layerPrefix, message))
	return vk.Bool32(vk.False)
}

// choosePhysicalDevice walks the devices in enumeration order and picks
// the first one that supports the requested features and extensions
// and exposes a compute capable queue family. First fit, not best fit.
func (d *Device) choosePhysicalDevice(requiredFeatures []core.Feature, requiredExtensions []string) error {
	var count uint32
	if err := vk.Error(d.procs.EnumeratePhysicalDevices(d.instance, &count, nil)); err != nil {
		return errors.New("vk.EnumeratePhysicalDevices(): " + err.Error())
	}
	if count == 0 {
		return ErrNoSuitableDevice
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(d.procs.EnumeratePhysicalDevices(d.instance, &count, devices)); err != nil {
		return errors.New("vk.EnumeratePhysicalDevices(): " + err.Error())
	}
	for _, device := range devices {
		var available vk.PhysicalDeviceFeatures
		d.procs.GetPhysicalDeviceFeatures(device, &available)
		available.Deref()
		if !hasAllFeatures(available, requiredFeatures) {
			continue
		}
		extensions, err := d.deviceExtensions(device)
		if err != nil {
			return err
		}
		if len(missingStrings(extensions, requiredExtensions)) > 0 {
			continue
		}
		family, ok := d.computeCapableFamily(device)
		if !ok {
			continue
		}
		d.physicalDevice = device
		d.queueFamily = family
		return nil
	}
	return ErrNoSuitableDevice
}

// computeCapableFamily returns the index of the first queue family
// that offers graphics and compute together or compute alone.
func (d *Device) computeCapableFamily(device vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	d.procs.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	if count == 0 {
		return 0, false
	}
	families := make([]vk.QueueFamilyProperties, count)
	d.procs.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)
	both := vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit)
	for i := range families {
		families[i].Deref()
		flags := families[i].QueueFlags
		if flags&both == both || flags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

func (d *Device) createDevice(own *engineOwned, requiredFeatures []core.Feature, requiredExtensions []string) error {
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.queueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	var device vk.Device
	if err := vk.Error(d.procs.CreateDevice(d.physicalDevice, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: safeStrings(requiredExtensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{requestedFeatures(requiredFeatures)},
	}, nil, &device)); err != nil {
		return errors.New("vk.CreateDevice(): " + err.Error())
	}
	d.device = device
	own.device = device
	return nil
}

func (d *Device) retrieveQueue() error {
	var queue vk.Queue
	d.procs.GetDeviceQueue(d.device, d.queueFamily, 0, &queue)
	if queue == nil {
		return errors.New("vk.GetDeviceQueue(): null queue handle")
	}
	d.queue = queue
	return nil
}

// deviceExtensions lists the extension names a physical device
// advertises.
func (d *Device) deviceExtensions(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vk.Error(d.procs.EnumerateDeviceExtensionProperties(device, "", &count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	properties := make([]vk.ExtensionProperties, count)
	if err := vk.Error(d.procs.EnumerateDeviceExtensionProperties(device, "", &count, properties)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	extensions := make([]string, 0, count)
	for i := range properties {
		properties[i].Deref()
		extensions = append(extensions, vk.ToString(properties[i].ExtensionName[:]))
	}
	return extensions, nil
}

func (d *Device) cacheProperties() error {
	d.procs.GetPhysicalDeviceProperties(d.physicalDevice, &d.properties)
	d.properties.Deref()
	d.procs.GetPhysicalDeviceMemoryProperties(d.physicalDevice, &d.memoryProperties)
	d.memoryProperties.Deref()
	d.procs.GetPhysicalDeviceFeatures(d.physicalDevice, &d.features)
	d.features.Deref()
	extensions, err := d.deviceExtensions(d.physicalDevice)
	if err != nil {
		return err
	}
	d.extensions = extensions
	return nil
}

// Shutdown releases everything the context owns. Safe to call on a
// context that never initialized or only partially initialized, and
// safe to call more than once. A context wrapping external handles
// destroys nothing.
func (d *Device) Shutdown() {
	d.own.release(&d.procs)
}

// missingStrings returns the required entries absent from available.
// Order does not matter and duplicates collapse.
func missingStrings(available, required []string) []string {
	present := make(map[string]bool, len(available))
	for _, s := range available {
		present[s] = true
	}
	var missing []string
	reported := make(map[string]bool, len(required))
	for _, s := range required {
		if present[s] || reported[s] {
			continue
		}
		reported[s] = true
		missing = append(missing, s)
	}
	return missing
}

// LogicalDevice returns the negotiated logical device handle.
func (d *Device) LogicalDevice() vk.Device {
	return d.device
}

// PhysicalDevice returns the selected physical device handle.
func (d *Device) PhysicalDevice() vk.PhysicalDevice {
	return d.physicalDevice
}

// Queue returns the device queue work is submitted to.
func (d *Device) Queue() vk.Queue {
	return d.queue
}

// QueueFamilyIndex returns the family the queue was created from.
func (d *Device) QueueFamilyIndex() uint32 {
	return d.queueFamily
}

// Properties returns the cached property block of the selected
// physical device.
func (d *Device) Properties() vk.PhysicalDeviceProperties {
	return d.properties
}

// MemoryProperties returns the cached memory property block of the
// selected physical device.
func (d *Device) MemoryProperties() vk.PhysicalDeviceMemoryProperties {
	return d.memoryProperties
}

// SupportedFeatures returns the catalog features the selected device
// supports, in catalog order.
func (d *Device) SupportedFeatures() []core.Feature {
	return supportedFeatures(d.features)
}

// SupportedExtensions returns the extension names the selected device
// advertises.
func (d *Device) SupportedExtensions() []string {
	return d.extensions
}

// Procs exposes the bound function table for collaborators issuing
// native calls on this context.
func (d *Device) Procs() *Procs {
	return &d.procs
}
