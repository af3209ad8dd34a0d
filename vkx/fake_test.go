// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkx

import (
	"unsafe"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/garnet/core"
)

// fakeGPU models one physical device for negotiation tests.
type fakeGPU struct {
	id         uint32
	name       string
	features   vk.PhysicalDeviceFeatures
	extensions []string
	layers     []string
	families   []vk.QueueFlags
	memory     []vk.DeviceSize
}

// fakeHost models the native layer behind a Procs table. Every call is
// recorded by name and results can be forced per call to drive error
// paths.
type fakeHost struct {
	instanceLayers  []string
	layerExtensions map[string][]string
	gpus            []fakeGPU

	results   map[string]vk.Result
	nullQueue bool

	calls      []string
	handles    []vk.PhysicalDevice
	callback   func(vk.DebugReportFlags, vk.DebugReportObjectType, uint, uint, int32, string, string, unsafe.Pointer) vk.Bool32
	deviceInfo *vk.DeviceCreateInfo
	shaderInfo *vk.ShaderModuleCreateInfo
}

// defaultHost returns a host with one capable device and the default
// validation layer advertising the debug report extension.
func defaultHost() *fakeHost {
	layer := core.DefaultValidationLayers()[0]
	return &fakeHost{
		instanceLayers: []string{layer},
		layerExtensions: map[string][]string{
			layer: {DebugReportExtension},
		},
		gpus: []fakeGPU{{
			id:         7,
			name:       "fake-gpu-0",
			extensions: []string{"VK_KHR_storage_buffer_storage_class"},
			families:   []vk.QueueFlags{vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit)},
			memory:     []vk.DeviceSize{1 << 30},
		}},
	}
}

func (h *fakeHost) record(name string) {
	h.calls = append(h.calls, name)
}

func (h *fakeHost) result(name string) vk.Result {
	if r, ok := h.results[name]; ok {
		return r
	}
	return vk.Success
}

func (h *fakeHost) force(name string, r vk.Result) {
	if h.results == nil {
		h.results = make(map[string]vk.Result)
	}
	h.results[name] = r
}

func (h *fakeHost) count(name string) int {
	n := 0
	for _, c := range h.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (h *fakeHost) callIndex(name string) int {
	for i, c := range h.calls {
		if c == name {
			return i
		}
	}
	return -1
}

func (h *fakeHost) physicalDevices() []vk.PhysicalDevice {
	if h.handles == nil {
		h.handles = make([]vk.PhysicalDevice, len(h.gpus))
		for i := range h.gpus {
			h.handles[i] = vk.PhysicalDevice(unsafe.Pointer(new(int)))
		}
	}
	return h.handles
}

func (h *fakeHost) gpuAt(device vk.PhysicalDevice) *fakeGPU {
	for i, handle := range h.physicalDevices() {
		if handle == device {
			return &h.gpus[i]
		}
	}
	return nil
}

func nameBytes(name string) [256]byte {
	var out [256]byte
	copy(out[:], name)
	return out
}

// procs builds a complete table backed by the host.
func (h *fakeHost) procs() Procs {
	return Procs{
		EnumerateInstanceLayerProperties: func(count *uint32, properties []vk.LayerProperties) vk.Result {
			h.record("EnumerateInstanceLayerProperties")
			if r := h.result("EnumerateInstanceLayerProperties"); r != vk.Success {
				return r
			}
			*count = uint32(len(h.instanceLayers))
			for i := range properties {
				properties[i] = vk.LayerProperties{LayerName: nameBytes(h.instanceLayers[i])}
			}
			return vk.Success
		},
		EnumerateInstanceExtensionProperties: func(layerName string, count *uint32, properties []vk.ExtensionProperties) vk.Result {
			h.record("EnumerateInstanceExtensionProperties")
			if r := h.result("EnumerateInstanceExtensionProperties"); r != vk.Success {
				return r
			}
			extensions := h.layerExtensions[layerName]
			*count = uint32(len(extensions))
			for i := range properties {
				properties[i] = vk.ExtensionProperties{ExtensionName: nameBytes(extensions[i])}
			}
			return vk.Success
		},
		CreateInstance: func(info *vk.InstanceCreateInfo, allocator *vk.AllocationCallbacks, instance *vk.Instance) vk.Result {
			h.record("CreateInstance")
			if r := h.result("CreateInstance"); r != vk.Success {
				return r
			}
			*instance = vk.Instance(unsafe.Pointer(new(int)))
			return vk.Success
		},
		DestroyInstance: func(instance vk.Instance, allocator *vk.AllocationCallbacks) {
			h.record("DestroyInstance")
		},
		CreateDebugReportCallback: func(instance vk.Instance, info *vk.DebugReportCallbackCreateInfo, allocator *vk.AllocationCallbacks, callback *vk.DebugReportCallback) vk.Result {
			h.record("CreateDebugReportCallback")
			if r := h.result("CreateDebugReportCallback"); r != vk.Success {
				return r
			}
			h.callback = info.PfnCallback
			*callback = vk.DebugReportCallback(unsafe.Pointer(new(int)))
			return vk.Success
		},
		DestroyDebugReportCallback: func(instance vk.Instance, callback vk.DebugReportCallback, allocator *vk.AllocationCallbacks) {
			h.record("DestroyDebugReportCallback")
		},
		EnumeratePhysicalDevices: func(instance vk.Instance, count *uint32, devices []vk.PhysicalDevice) vk.Result {
			h.record("EnumeratePhysicalDevices")
			if r := h.result("EnumeratePhysicalDevices"); r != vk.Success {
				return r
			}
			handles := h.physicalDevices()
			*count = uint32(len(handles))
			copy(devices, handles)
			return vk.Success
		},
		GetPhysicalDeviceFeatures: func(device vk.PhysicalDevice, features *vk.PhysicalDeviceFeatures) {
			h.record("GetPhysicalDeviceFeatures")
			if gpu := h.gpuAt(device); gpu != nil {
				*features = gpu.features
			}
		},
		GetPhysicalDeviceProperties: func(device vk.PhysicalDevice, properties *vk.PhysicalDeviceProperties) {
			h.record("GetPhysicalDeviceProperties")
			if gpu := h.gpuAt(device); gpu != nil {
				*properties = vk.PhysicalDeviceProperties{
					DeviceID:   gpu.id,
					DeviceName: nameBytes(gpu.name),
				}
			}
		},
		GetPhysicalDeviceMemoryProperties: func(device vk.PhysicalDevice, properties *vk.PhysicalDeviceMemoryProperties) {
			h.record("GetPhysicalDeviceMemoryProperties")
			gpu := h.gpuAt(device)
			if gpu == nil {
				return
			}
			var out vk.PhysicalDeviceMemoryProperties
			out.MemoryHeapCount = uint32(len(gpu.memory))
			for i, size := range gpu.memory {
				out.MemoryHeaps[i] = vk.MemoryHeap{Size: size}
			}
			*properties = out
		},
		GetPhysicalDeviceQueueFamilyProperties: func(device vk.PhysicalDevice, count *uint32, properties []vk.QueueFamilyProperties) {
			h.record("GetPhysicalDeviceQueueFamilyProperties")
			gpu := h.gpuAt(device)
			if gpu == nil {
				*count = 0
				return
			}
			*count = uint32(len(gpu.families))
			for i := range properties {
				properties[i] = vk.QueueFamilyProperties{QueueFlags: gpu.families[i]}
			}
		},
		EnumerateDeviceExtensionProperties: func(device vk.PhysicalDevice, layerName string, count *uint32, properties []vk.ExtensionProperties) vk.Result {
			h.record("EnumerateDeviceExtensionProperties")
			if r := h.result("EnumerateDeviceExtensionProperties"); r != vk.Success {
				return r
			}
			gpu := h.gpuAt(device)
			if gpu == nil {
				*count = 0
				return vk.Success
			}
			*count = uint32(len(gpu.extensions))
			for i := range properties {
				properties[i] = vk.ExtensionProperties{ExtensionName: nameBytes(gpu.extensions[i])}
			}
			return vk.Success
		},
		EnumerateDeviceLayerProperties: func(device vk.PhysicalDevice, count *uint32, properties []vk.LayerProperties) vk.Result {
			h.record("EnumerateDeviceLayerProperties")
			if r := h.result("EnumerateDeviceLayerProperties"); r != vk.Success {
				return r
			}
			gpu := h.gpuAt(device)
			if gpu == nil {
				*count = 0
				return vk.Success
			}
			*count = uint32(len(gpu.layers))
			for i := range properties {
				properties[i] = vk.LayerProperties{LayerName: nameBytes(gpu.layers[i])}
			}
			return vk.Success
		},
		CreateDevice: func(physicalDevice vk.PhysicalDevice, info *vk.DeviceCreateInfo, allocator *vk.AllocationCallbacks, device *vk.Device) vk.Result {
			h.record("CreateDevice")
			if r := h.result("CreateDevice"); r != vk.Success {
				return r
			}
			h.deviceInfo = info
			*device = vk.Device(unsafe.Pointer(new(int)))
			return vk.Success
		},
		DestroyDevice: func(device vk.Device, allocator *vk.AllocationCallbacks) {
			h.record("DestroyDevice")
		},
		DeviceWaitIdle: func(device vk.Device) vk.Result {
			h.record("DeviceWaitIdle")
			return h.result("DeviceWaitIdle")
		},
		GetDeviceQueue: func(device vk.Device, family, index uint32, queue *vk.Queue) {
			h.record("GetDeviceQueue")
			if h.nullQueue {
				return
			}
			*queue = vk.Queue(unsafe.Pointer(new(int)))
		},
		CreateCommandPool: func(device vk.Device, info *vk.CommandPoolCreateInfo, allocator *vk.AllocationCallbacks, pool *vk.CommandPool) vk.Result {
			h.record("CreateCommandPool")
			if r := h.result("CreateCommandPool"); r != vk.Success {
				return r
			}
			*pool = vk.CommandPool(unsafe.Pointer(new(int)))
			return vk.Success
		},
		DestroyCommandPool: func(device vk.Device, pool vk.CommandPool, allocator *vk.AllocationCallbacks) {
			h.record("DestroyCommandPool")
		},
		AllocateCommandBuffers: func(device vk.Device, info *vk.CommandBufferAllocateInfo, buffers []vk.CommandBuffer) vk.Result {
			h.record("AllocateCommandBuffers")
			if r := h.result("AllocateCommandBuffers"); r != vk.Success {
				return r
			}
			for i := range buffers {
				buffers[i] = vk.CommandBuffer(unsafe.Pointer(new(int)))
			}
			return vk.Success
		},
		FreeCommandBuffers: func(device vk.Device, pool vk.CommandPool, count uint32, buffers []vk.CommandBuffer) {
			h.record("FreeCommandBuffers")
		},
		BeginCommandBuffer: func(buffer vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result {
			h.record("BeginCommandBuffer")
			return h.result("BeginCommandBuffer")
		},
		EndCommandBuffer: func(buffer vk.CommandBuffer) vk.Result {
			h.record("EndCommandBuffer")
			return h.result("EndCommandBuffer")
		},
		ResetCommandBuffer: func(buffer vk.CommandBuffer, flags vk.CommandBufferResetFlags) vk.Result {
			h.record("ResetCommandBuffer")
			return h.result("ResetCommandBuffer")
		},
		CreateFence: func(device vk.Device, info *vk.FenceCreateInfo, allocator *vk.AllocationCallbacks, fence *vk.Fence) vk.Result {
			h.record("CreateFence")
			if r := h.result("CreateFence"); r != vk.Success {
				return r
			}
			*fence = vk.Fence(unsafe.Pointer(new(int)))
			return vk.Success
		},
		DestroyFence: func(device vk.Device, fence vk.Fence, allocator *vk.AllocationCallbacks) {
			h.record("DestroyFence")
		},
		ResetFences: func(device vk.Device, count uint32, fences []vk.Fence) vk.Result {
			h.record("ResetFences")
			return h.result("ResetFences")
		},
		WaitForFences: func(device vk.Device, count uint32, fences []vk.Fence, waitAll vk.Bool32, timeout uint64) vk.Result {
			h.record("WaitForFences")
			return h.result("WaitForFences")
		},
		QueueSubmit: func(queue vk.Queue, count uint32, infos []vk.SubmitInfo, fence vk.Fence) vk.Result {
			h.record("QueueSubmit")
			return h.result("QueueSubmit")
		},
		CreateShaderModule: func(device vk.Device, info *vk.ShaderModuleCreateInfo, allocator *vk.AllocationCallbacks, module *vk.ShaderModule) vk.Result {
			h.record("CreateShaderModule")
			if r := h.result("CreateShaderModule"); r != vk.Success {
				return r
			}
			h.shaderInfo = info
			*module = vk.ShaderModule(unsafe.Pointer(new(int)))
			return vk.Success
		},
		DestroyShaderModule: func(device vk.Device, module vk.ShaderModule, allocator *vk.AllocationCallbacks) {
			h.record("DestroyShaderModule")
		},
		CreatePipelineLayout: func(device vk.Device, info *vk.PipelineLayoutCreateInfo, allocator *vk.AllocationCallbacks, layout *vk.PipelineLayout) vk.Result {
			h.record("CreatePipelineLayout")
			if r := h.result("CreatePipelineLayout"); r != vk.Success {
				return r
			}
			*layout = vk.PipelineLayout(unsafe.Pointer(new(int)))
			return vk.Success
		},
		DestroyPipelineLayout: func(device vk.Device, layout vk.PipelineLayout, allocator *vk.AllocationCallbacks) {
			h.record("DestroyPipelineLayout")
		},
		CreateComputePipelines: func(device vk.Device, cache vk.PipelineCache, count uint32, infos []vk.ComputePipelineCreateInfo, allocator *vk.AllocationCallbacks, pipelines []vk.Pipeline) vk.Result {
			h.record("CreateComputePipelines")
			if r := h.result("CreateComputePipelines"); r != vk.Success {
				return r
			}
			for i := range pipelines {
				pipelines[i] = vk.Pipeline(unsafe.Pointer(new(int)))
			}
			return vk.Success
		},
		DestroyPipeline: func(device vk.Device, pipeline vk.Pipeline, allocator *vk.AllocationCallbacks) {
			h.record("DestroyPipeline")
		},
		CmdBindPipeline: func(buffer vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
			h.record("CmdBindPipeline")
		},
		CmdDispatch: func(buffer vk.CommandBuffer, x, y, z uint32) {
			h.record("CmdDispatch")
		},
	}
}

// fakeDevice builds an owned context whose binders install the host's
// table instead of loading native symbols.
func fakeDevice(h *fakeHost, log core.Logger) *Device {
	d := NewDevice(core.DeviceConfiguration{}, log)
	d.bindGlobal = func(entry unsafe.Pointer, p *Procs) error {
		*p = h.procs()
		return nil
	}
	d.bindInstance = func(instance vk.Instance, p *Procs) error {
		return nil
	}
	return d
}

// fakeExternalDevice builds a borrowed context bound to the host's
// table.
func fakeExternalDevice(h *fakeHost, handles ExternalHandles, log core.Logger) *Device {
	d := NewExternalDevice(handles, log)
	d.bindGlobal = func(entry unsafe.Pointer, p *Procs) error {
		*p = h.procs()
		return nil
	}
	d.bindInstance = func(instance vk.Instance, p *Procs) error {
		return nil
	}
	return d
}

type loggedEntry struct {
	severity core.Severity
	message  string
}

// recordingLogger captures log output for assertions.
type recordingLogger struct {
	entries []loggedEntry
}

func (l *recordingLogger) Log(severity core.Severity, message string) {
	l.entries = append(l.entries, loggedEntry{severity, message})
}
