// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkx

import (
	"errors"
	"unsafe"

	vk "github.com/devblok/vulkan"
)

// Procs is the per-context table of native entry points the engine
// issues calls through. A device context fills it in two stages during
// Initialize: the global slots before an instance exists, the rest once
// one does. After Initialize the table is read-only.
type Procs struct {
	// Global slots, usable before an instance exists.
	EnumerateInstanceLayerProperties     func(count *uint32, properties []vk.LayerProperties) vk.Result
	EnumerateInstanceExtensionProperties func(layerName string, count *uint32, properties []vk.ExtensionProperties) vk.Result
	CreateInstance                       func(info *vk.InstanceCreateInfo, allocator *vk.AllocationCallbacks, instance *vk.Instance) vk.Result

	// Instance slots.
	DestroyInstance                        func(instance vk.Instance, allocator *vk.AllocationCallbacks)
	CreateDebugReportCallback              func(instance vk.Instance, info *vk.DebugReportCallbackCreateInfo, allocator *vk.AllocationCallbacks, callback *vk.DebugReportCallback) vk.Result
	DestroyDebugReportCallback             func(instance vk.Instance, callback vk.DebugReportCallback, allocator *vk.AllocationCallbacks)
	EnumeratePhysicalDevices               func(instance vk.Instance, count *uint32, devices []vk.PhysicalDevice) vk.Result
	GetPhysicalDeviceFeatures              func(device vk.PhysicalDevice, features *vk.PhysicalDeviceFeatures)
	GetPhysicalDeviceProperties            func(device vk.PhysicalDevice, properties *vk.PhysicalDeviceProperties)
	GetPhysicalDeviceMemoryProperties      func(device vk.PhysicalDevice, properties *vk.PhysicalDeviceMemoryProperties)
	GetPhysicalDeviceQueueFamilyProperties func(device vk.PhysicalDevice, count *uint32, properties []vk.QueueFamilyProperties)
	EnumerateDeviceExtensionProperties     func(device vk.PhysicalDevice, layerName string, count *uint32, properties []vk.ExtensionProperties) vk.Result
	EnumerateDeviceLayerProperties         func(device vk.PhysicalDevice, count *uint32, properties []vk.LayerProperties) vk.Result
	CreateDevice                           func(physicalDevice vk.PhysicalDevice, info *vk.DeviceCreateInfo, allocator *vk.AllocationCallbacks, device *vk.Device) vk.Result
	DestroyDevice                          func(device vk.Device, allocator *vk.AllocationCallbacks)
	DeviceWaitIdle                         func(device vk.Device) vk.Result
	GetDeviceQueue                         func(device vk.Device, family, index uint32, queue *vk.Queue)

	// Command recording and submission.
	CreateCommandPool      func(device vk.Device, info *vk.CommandPoolCreateInfo, allocator *vk.AllocationCallbacks, pool *vk.CommandPool) vk.Result
	DestroyCommandPool     func(device vk.Device, pool vk.CommandPool, allocator *vk.AllocationCallbacks)
	AllocateCommandBuffers func(device vk.Device, info *vk.CommandBufferAllocateInfo, buffers []vk.CommandBuffer) vk.Result
	FreeCommandBuffers     func(device vk.Device, pool vk.CommandPool, count uint32, buffers []vk.CommandBuffer)
	BeginCommandBuffer     func(buffer vk.CommandBuffer, info *vk.CommandBufferBeginInfo) vk.Result
	EndCommandBuffer       func(buffer vk.CommandBuffer) vk.Result
	ResetCommandBuffer     func(buffer vk.CommandBuffer, flags vk.CommandBufferResetFlags) vk.Result
	CreateFence            func(device vk.Device, info *vk.FenceCreateInfo, allocator *vk.AllocationCallbacks, fence *vk.Fence) vk.Result
	DestroyFence           func(device vk.Device, fence vk.Fence, allocator *vk.AllocationCallbacks)
	ResetFences            func(device vk.Device, count uint32, fences []vk.Fence) vk.Result
	WaitForFences          func(device vk.Device, count uint32, fences []vk.Fence, waitAll vk.Bool32, timeout uint64) vk.Result
	QueueSubmit            func(queue vk.Queue, count uint32, infos []vk.SubmitInfo, fence vk.Fence) vk.Result

	// Pipelines.
	CreateShaderModule     func(device vk.Device, info *vk.ShaderModuleCreateInfo, allocator *vk.AllocationCallbacks, module *vk.ShaderModule) vk.Result
	DestroyShaderModule    func(device vk.Device, module vk.ShaderModule, allocator *vk.AllocationCallbacks)
	CreatePipelineLayout   func(device vk.Device, info *vk.PipelineLayoutCreateInfo, allocator *vk.AllocationCallbacks, layout *vk.PipelineLayout) vk.Result
	DestroyPipelineLayout  func(device vk.Device, layout vk.PipelineLayout, allocator *vk.AllocationCallbacks)
	CreateComputePipelines func(device vk.Device, cache vk.PipelineCache, count uint32, infos []vk.ComputePipelineCreateInfo, allocator *vk.AllocationCallbacks, pipelines []vk.Pipeline) vk.Result
	DestroyPipeline        func(device vk.Device, pipeline vk.Pipeline, allocator *vk.AllocationCallbacks)
	CmdBindPipeline        func(buffer vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline)
	CmdDispatch            func(buffer vk.CommandBuffer, x, y, z uint32)
}

// bindGlobalProcs points the entry point loader at the embedder
// supplied vkGetInstanceProcAddr (or the platform default when entry is
// nil) and fills the pre-instance slots.
func bindGlobalProcs(entry unsafe.Pointer, p *Procs) error {
	if entry == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return errors.New("vk.SetDefaultGetInstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(entry)
	}
	if err := vk.Init(); err != nil {
		return errors.New("vk.Init(): " + err.Error())
	}

	p.EnumerateInstanceLayerProperties = vk.EnumerateInstanceLayerProperties
	p.EnumerateInstanceExtensionProperties = vk.EnumerateInstanceExtensionProperties
	p.CreateInstance = vk.CreateInstance
	return nil
}

// bindInstanceProcs loads the instance scoped symbols and fills the
// remaining slots.
func bindInstanceProcs(instance vk.Instance, p *Procs) error {
	vk.InitInstance(instance)

	p.DestroyInstance = vk.DestroyInstance
	p.CreateDebugReportCallback = vk.CreateDebugReportCallback
	p.DestroyDebugReportCallback = vk.DestroyDebugReportCallback
	p.EnumeratePhysicalDevices = vk.EnumeratePhysicalDevices
	p.GetPhysicalDeviceFeatures = vk.GetPhysicalDeviceFeatures
	p.GetPhysicalDeviceProperties = vk.GetPhysicalDeviceProperties
	p.GetPhysicalDeviceMemoryProperties = vk.GetPhysicalDeviceMemoryProperties
	p.GetPhysicalDeviceQueueFamilyProperties = vk.GetPhysicalDeviceQueueFamilyProperties
	p.EnumerateDeviceExtensionProperties = vk.EnumerateDeviceExtensionProperties
	p.EnumerateDeviceLayerProperties = vk.EnumerateDeviceLayerProperties
	p.CreateDevice = vk.CreateDevice
	p.DestroyDevice = vk.DestroyDevice
	p.DeviceWaitIdle = vk.DeviceWaitIdle
	p.GetDeviceQueue = vk.GetDeviceQueue

	p.CreateCommandPool = vk.CreateCommandPool
	p.DestroyCommandPool = vk.DestroyCommandPool
	p.AllocateCommandBuffers = vk.AllocateCommandBuffers
	p.FreeCommandBuffers = vk.FreeCommandBuffers
	p.BeginCommandBuffer = vk.BeginCommandBuffer
	p.EndCommandBuffer = vk.EndCommandBuffer
	p.ResetCommandBuffer = vk.ResetCommandBuffer
	p.CreateFence = vk.CreateFence
	p.DestroyFence = vk.DestroyFence
	p.ResetFences = vk.ResetFences
	p.WaitForFences = func(device vk.Device, count uint32, fences []vk.Fence, waitAll vk.Bool32, timeout uint64) vk.Result {
		return vk.WaitForFences(device, count, fences, waitAll, uint(timeout))
	}
	p.QueueSubmit = vk.QueueSubmit

	p.CreateShaderModule = vk.CreateShaderModule
	p.DestroyShaderModule = vk.DestroyShaderModule
	p.CreatePipelineLayout = vk.CreatePipelineLayout
	p.DestroyPipelineLayout = vk.DestroyPipelineLayout
	p.CreateComputePipelines = vk.CreateComputePipelines
	p.DestroyPipeline = vk.DestroyPipeline
	p.CmdBindPipeline = vk.CmdBindPipeline
	p.CmdDispatch = vk.CmdDispatch
	return nil
}
