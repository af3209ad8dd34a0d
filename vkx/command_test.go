// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkx

import (
	"errors"
	"testing"
	"time"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/garnet/core"
)

func initializedDevice(t *testing.T, h *fakeHost) *Device {
	t.Helper()
	d := fakeDevice(h, nil)
	if err := d.Initialize(nil, nil, nil); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return d
}

func readyBuffer(t *testing.T, h *fakeHost) (*CommandPool, *CommandBuffer) {
	t.Helper()
	d := initializedDevice(t, h)
	pool := NewCommandPool(d)
	if err := pool.Initialize(d.QueueFamilyIndex()); err != nil {
		t.Fatalf("pool Initialize failed: %v", err)
	}
	buffer := NewCommandBuffer(d, pool)
	if err := buffer.Initialize(); err != nil {
		t.Fatalf("buffer Initialize failed: %v", err)
	}
	return pool, buffer
}

func TestCommandBufferCycle(t *testing.T) {
	h := defaultHost()
	_, buffer := readyBuffer(t, h)

	if buffer.State() != InitialBufferState {
		t.Fatalf("fresh buffer in %s state", buffer.State())
	}
	if err := buffer.BeginIfNotInRecording(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if buffer.State() != RecordingBufferState {
		t.Fatalf("buffer in %s state after begin", buffer.State())
	}
	if err := buffer.End(); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if buffer.State() != ExecutableBufferState {
		t.Fatalf("buffer in %s state after end", buffer.State())
	}
	if err := buffer.SubmitAndReset(core.DefaultFenceTimeout); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if buffer.State() != InitialBufferState {
		t.Fatalf("buffer in %s state after submit", buffer.State())
	}

	reset := h.callIndex("ResetFences")
	submit := h.callIndex("QueueSubmit")
	wait := h.callIndex("WaitForFences")
	recycle := h.callIndex("ResetCommandBuffer")
	if !(reset < submit && submit < wait && wait < recycle) {
		t.Errorf("submission calls out of order: %v", h.calls)
	}
}

func TestBeginIsIdempotentWhileRecording(t *testing.T) {
	h := defaultHost()
	_, buffer := readyBuffer(t, h)

	if err := buffer.BeginIfNotInRecording(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := buffer.BeginIfNotInRecording(); err != nil {
		t.Fatalf("repeated begin failed: %v", err)
	}
	if h.count("BeginCommandBuffer") != 1 {
		t.Errorf("begin recorded %d times", h.count("BeginCommandBuffer"))
	}
	if buffer.State() != RecordingBufferState {
		t.Errorf("buffer in %s state", buffer.State())
	}
}

func TestBeginFromExecutableFails(t *testing.T) {
	h := defaultHost()
	_, buffer := readyBuffer(t, h)

	if err := buffer.BeginIfNotInRecording(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := buffer.End(); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if err := buffer.BeginIfNotInRecording(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if buffer.State() != ExecutableBufferState {
		t.Errorf("failed begin changed state to %s", buffer.State())
	}
}

func TestEndRequiresRecording(t *testing.T) {
	h := defaultHost()
	_, buffer := readyBuffer(t, h)

	if err := buffer.End(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState from initial, got %v", err)
	}
	if buffer.State() != InitialBufferState {
		t.Errorf("failed end changed state to %s", buffer.State())
	}

	if err := buffer.BeginIfNotInRecording(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := buffer.End(); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if err := buffer.End(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState from executable, got %v", err)
	}
	if h.count("EndCommandBuffer") != 1 {
		t.Errorf("end recorded %d times", h.count("EndCommandBuffer"))
	}
}

func TestSubmitRequiresExecutable(t *testing.T) {
	h := defaultHost()
	_, buffer := readyBuffer(t, h)

	if err := buffer.SubmitAndReset(time.Second); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState from initial, got %v", err)
	}
	if err := buffer.BeginIfNotInRecording(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := buffer.SubmitAndReset(time.Second); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState from recording, got %v", err)
	}
	if h.count("QueueSubmit") != 0 {
		t.Error("work was submitted from an invalid state")
	}
}

func TestSubmitTimeoutKeepsBufferExecutable(t *testing.T) {
	h := defaultHost()
	_, buffer := readyBuffer(t, h)

	if err := buffer.BeginIfNotInRecording(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := buffer.End(); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	h.force("WaitForFences", vk.Timeout)
	err := buffer.SubmitAndReset(time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if buffer.State() != ExecutableBufferState {
		t.Fatalf("timed out buffer in %s state", buffer.State())
	}
	if h.count("ResetCommandBuffer") != 0 {
		t.Error("timed out buffer was reset")
	}

	h.force("WaitForFences", vk.Success)
	if err := buffer.SubmitAndReset(time.Second); err != nil {
		t.Fatalf("resubmission after timeout failed: %v", err)
	}
	if buffer.State() != InitialBufferState {
		t.Errorf("buffer in %s state after resubmission", buffer.State())
	}
}

func TestSubmitFailureSurfaces(t *testing.T) {
	h := defaultHost()
	_, buffer := readyBuffer(t, h)

	if err := buffer.BeginIfNotInRecording(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := buffer.End(); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	h.force("QueueSubmit", vk.ErrorDeviceLost)
	err := buffer.SubmitAndReset(time.Second)
	if err == nil {
		t.Fatal("submission succeeded against a lost device")
	}
	if errors.Is(err, ErrTimeout) {
		t.Errorf("native failure reported as timeout: %v", err)
	}
	if h.count("ResetCommandBuffer") != 0 {
		t.Error("failed submission reset the buffer")
	}
}

func TestCommandBufferShutdown(t *testing.T) {
	h := defaultHost()
	_, buffer := readyBuffer(t, h)

	if err := buffer.BeginIfNotInRecording(); err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	buffer.Shutdown()
	fence := h.callIndex("DestroyFence")
	free := h.callIndex("FreeCommandBuffers")
	if fence == -1 || free == -1 {
		t.Fatalf("missing teardown calls: %v", h.calls)
	}
	if fence > free {
		t.Errorf("fence destroyed after the buffer was freed: %v", h.calls)
	}
	if buffer.State() != InitialBufferState {
		t.Errorf("buffer in %s state after shutdown", buffer.State())
	}

	buffer.Shutdown()
	if h.count("DestroyFence") != 1 || h.count("FreeCommandBuffers") != 1 {
		t.Error("repeated shutdown released resources twice")
	}
}

func TestCommandBufferShutdownBeforeInitialize(t *testing.T) {
	h := defaultHost()
	d := initializedDevice(t, h)
	pool := NewCommandPool(d)
	buffer := NewCommandBuffer(d, pool)

	buffer.Shutdown()
	if h.count("DestroyFence") != 0 || h.count("FreeCommandBuffers") != 0 {
		t.Error("uninitialized buffer issued teardown calls")
	}
}

func TestCommandPoolLifecycle(t *testing.T) {
	h := defaultHost()
	d := initializedDevice(t, h)

	pool := NewCommandPool(d)
	pool.Shutdown()
	if h.count("DestroyCommandPool") != 0 {
		t.Error("uninitialized pool issued a destroy call")
	}

	if err := pool.Initialize(d.QueueFamilyIndex()); err != nil {
		t.Fatalf("pool Initialize failed: %v", err)
	}
	if pool.Handle() == vk.NullCommandPool {
		t.Fatal("initialized pool has a null handle")
	}

	pool.Shutdown()
	pool.Shutdown()
	if h.count("DestroyCommandPool") != 1 {
		t.Errorf("pool destroyed %d times", h.count("DestroyCommandPool"))
	}
}

func TestCommandPoolInitializeFailure(t *testing.T) {
	h := defaultHost()
	d := initializedDevice(t, h)
	h.force("CreateCommandPool", vk.ErrorOutOfDeviceMemory)

	pool := NewCommandPool(d)
	if err := pool.Initialize(d.QueueFamilyIndex()); err == nil {
		t.Fatal("pool Initialize succeeded against a failing host")
	}
	if pool.Handle() != vk.NullCommandPool {
		t.Error("failed pool kept a handle")
	}
}
