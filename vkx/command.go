// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkx

import (
	"errors"
	"fmt"
	"time"

	vk "github.com/devblok/vulkan"
)

// BufferState is a command buffer's position in its recording cycle.
type BufferState int

const (
	// InitialBufferState means no commands are recorded.
	InitialBufferState BufferState = iota

	// RecordingBufferState means the buffer is between begin and end.
	RecordingBufferState

	// ExecutableBufferState means recording ended and the buffer is
	// ready to submit.
	ExecutableBufferState
)

func (s BufferState) String() string {
	switch s {
	case InitialBufferState:
		return "initial"
	case RecordingBufferState:
		return "recording"
	case ExecutableBufferState:
		return "executable"
	}
	return "unknown"
}

// CommandPool owns the arena command buffers are allocated from, bound
// to one queue family of one device context. The context is borrowed
// and must outlive the pool.
type CommandPool struct {
	device *Device
	pool   vk.CommandPool
}

// NewCommandPool returns an uninitialized pool backed by the given
// context.
func NewCommandPool(device *Device) *CommandPool {
	return &CommandPool{device: device}
}

// Initialize creates the arena on the given queue family. Buffers
// allocated from it can be reset individually rather than only through
// a bulk pool reset.
func (p *CommandPool) Initialize(queueFamilyIndex uint32) error {
	var pool vk.CommandPool
	if err := vk.Error(p.device.procs.CreateCommandPool(p.device.LogicalDevice(), &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: queueFamilyIndex,
	}, nil, &pool)); err != nil {
		return errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	p.pool = pool
	return nil
}

// Shutdown destroys the arena if it was created. The pool must not be
// used afterwards.
func (p *CommandPool) Shutdown() {
	if p.pool != vk.NullCommandPool {
		p.device.procs.DestroyCommandPool(p.device.LogicalDevice(), p.pool, nil)
		p.pool = vk.NullCommandPool
	}
}

// Handle returns the native pool handle.
func (p *CommandPool) Handle() vk.CommandPool {
	return p.pool
}

// CommandBuffer is one recordable unit of work plus the fence that
// reports its completion. Its state strictly cycles Initial, Recording,
// Executable and back to Initial on a successful submit; out-of-order
// calls fail with ErrInvalidState and leave the state unchanged.
type CommandBuffer struct {
	device *Device
	pool   *CommandPool

	buffer vk.CommandBuffer
	fence  vk.Fence
	state  BufferState
}

// NewCommandBuffer returns an uninitialized buffer tied to the given
// pool and its context.
func NewCommandBuffer(device *Device, pool *CommandPool) *CommandBuffer {
	return &CommandBuffer{device: device, pool: pool}
}

// Initialize allocates the buffer from its pool and creates the fence
// submissions signal.
func (b *CommandBuffer) Initialize() error {
	buffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(b.device.procs.AllocateCommandBuffers(b.device.LogicalDevice(), &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        b.pool.Handle(),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, buffers)); err != nil {
		return errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}
	b.buffer = buffers[0]

	var fence vk.Fence
	if err := vk.Error(b.device.procs.CreateFence(b.device.LogicalDevice(), &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}, nil, &fence)); err != nil {
		return errors.New("vk.CreateFence(): " + err.Error())
	}
	b.fence = fence
	b.state = InitialBufferState
	return nil
}

// State returns the buffer's position in the recording cycle.
func (b *CommandBuffer) State() BufferState {
	return b.state
}

// Handle returns the native buffer handle for recording commands into.
func (b *CommandBuffer) Handle() vk.CommandBuffer {
	return b.buffer
}

// BeginIfNotInRecording moves the buffer into Recording with a one
// time submit begin. Calling it while already Recording is a no-op
// success. Calling it on an Executable buffer fails, the recorded work
// has to be submitted first.
func (b *CommandBuffer) BeginIfNotInRecording() error {
	if b.state == RecordingBufferState {
		return nil
	}
	if b.state == ExecutableBufferState {
		return invalidState("cannot begin a buffer in %s state", b.state)
	}
	if err := vk.Error(b.device.procs.BeginCommandBuffer(b.buffer, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})); err != nil {
		return errors.New("vk.BeginCommandBuffer(): " + err.Error())
	}
	b.state = RecordingBufferState
	return nil
}

// End closes the recording and makes the buffer executable.
func (b *CommandBuffer) End() error {
	if b.state != RecordingBufferState {
		return invalidState("cannot end a buffer in %s state", b.state)
	}
	if err := vk.Error(b.device.procs.EndCommandBuffer(b.buffer)); err != nil {
		return errors.New("vk.EndCommandBuffer(): " + err.Error())
	}
	b.state = ExecutableBufferState
	return nil
}

// SubmitAndReset submits the executable buffer to the context queue
// and blocks until the fence signals or the timeout passes. On success
// the buffer is reset and returns to Initial. On ErrTimeout the buffer
// stays Executable and is not reset, since its completion status on
// the device is unknown; the caller decides whether to wait again or
// abandon the context. Only one submission may be outstanding at a
// time.
func (b *CommandBuffer) SubmitAndReset(timeout time.Duration) error {
	if b.state != ExecutableBufferState {
		return invalidState("cannot submit a buffer in %s state", b.state)
	}
	fences := []vk.Fence{b.fence}
	if err := vk.Error(b.device.procs.ResetFences(b.device.LogicalDevice(), 1, fences)); err != nil {
		return errors.New("vk.ResetFences(): " + err.Error())
	}
	if err := vk.Error(b.device.procs.QueueSubmit(b.device.Queue(), 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{b.buffer},
	}}, b.fence)); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}
	result := b.device.procs.WaitForFences(b.device.LogicalDevice(), 1, fences, vk.True, uint64(timeout.Nanoseconds()))
	if result == vk.Timeout {
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	}
	if err := vk.Error(result); err != nil {
		return errors.New("vk.WaitForFences(): " + err.Error())
	}
	if err := vk.Error(b.device.procs.ResetCommandBuffer(b.buffer, 0)); err != nil {
		return errors.New("vk.ResetCommandBuffer(): " + err.Error())
	}
	b.state = InitialBufferState
	return nil
}

// Shutdown destroys the fence then frees the buffer from its pool.
// Safe to call from any state, including before Initialize and after a
// previous Shutdown.
func (b *CommandBuffer) Shutdown() {
	if b.fence != vk.NullFence {
		b.device.procs.DestroyFence(b.device.LogicalDevice(), b.fence, nil)
		b.fence = vk.NullFence
	}
	if b.buffer != nil {
		b.device.procs.FreeCommandBuffers(b.device.LogicalDevice(), b.pool.Handle(), 1, []vk.CommandBuffer{b.buffer})
		b.buffer = nil
	}
	b.state = InitialBufferState
}
