// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkx

import (
	"errors"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/garnet/core"
)

// ComputePipeline is a validated compute descriptor realized on a
// device context, ready to record dispatches.
type ComputePipeline struct {
	device *Device

	layout   vk.PipelineLayout
	pipeline vk.Pipeline
}

// NewComputePipeline validates the descriptor and builds the native
// pipeline from its compute stage binding. The bound shader must be a
// *ShaderModule created on the same context.
func NewComputePipeline(device *Device, descriptor *core.Pipeline) (*ComputePipeline, error) {
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}
	binding := descriptor.Shaders()[0]
	module, ok := binding.Shader().(*ShaderModule)
	if !ok {
		return nil, errors.New("pipeline shader is not a device shader module")
	}
	stage, err := module.StageCreateInfo(binding.Type(), binding.EntryPoint())
	if err != nil {
		return nil, err
	}

	var layout vk.PipelineLayout
	if err := vk.Error(device.procs.CreatePipelineLayout(device.LogicalDevice(), &vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}, nil, &layout)); err != nil {
		return nil, errors.New("vk.CreatePipelineLayout(): " + err.Error())
	}

	pipelines := make([]vk.Pipeline, 1)
	if err := vk.Error(device.procs.CreateComputePipelines(device.LogicalDevice(), vk.NullPipelineCache, 1, []vk.ComputePipelineCreateInfo{{
		SType:  vk.StructureTypeComputePipelineCreateInfo,
		Stage:  stage,
		Layout: layout,
	}}, nil, pipelines)); err != nil {
		device.procs.DestroyPipelineLayout(device.LogicalDevice(), layout, nil)
		return nil, errors.New("vk.CreateComputePipelines(): " + err.Error())
	}
	return &ComputePipeline{
		device:   device,
		layout:   layout,
		pipeline: pipelines[0],
	}, nil
}

// Handle returns the native pipeline handle.
func (p *ComputePipeline) Handle() vk.Pipeline {
	return p.pipeline
}

// RecordDispatch records a dispatch of the given work group counts
// into the command buffer, beginning the recording first if needed.
func (p *ComputePipeline) RecordDispatch(buffer *CommandBuffer, x, y, z uint32) error {
	if err := buffer.BeginIfNotInRecording(); err != nil {
		return err
	}
	p.device.procs.CmdBindPipeline(buffer.Handle(), vk.PipelineBindPointCompute, p.pipeline)
	p.device.procs.CmdDispatch(buffer.Handle(), x, y, z)
	return nil
}

// Shutdown destroys the native pipeline and its layout.
func (p *ComputePipeline) Shutdown() {
	if p.pipeline != vk.NullPipeline {
		p.device.procs.DestroyPipeline(p.device.LogicalDevice(), p.pipeline, nil)
		p.pipeline = vk.NullPipeline
	}
	if p.layout != vk.NullPipelineLayout {
		p.device.procs.DestroyPipelineLayout(p.device.LogicalDevice(), p.layout, nil)
		p.layout = vk.NullPipelineLayout
	}
}
