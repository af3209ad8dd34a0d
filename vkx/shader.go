// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkx

import (
	"errors"
	"fmt"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/garnet/core"
)

// ShaderModule is compiled shader code uploaded to a device context.
// It implements core.Shader, so pipeline descriptors can bind it.
type ShaderModule struct {
	device     *Device
	name       string
	shaderType core.ShaderType
	module     vk.ShaderModule
}

// NewShaderModule uploads shader code to the context and wraps the
// resulting module. The name identifies the module in binding lookups
// and log output, the type tags the stage it was compiled for.
func NewShaderModule(device *Device, name string, shaderType core.ShaderType, code []byte) (*ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.New("shader code size must be a non-zero multiple of 4 bytes")
	}
	var module vk.ShaderModule
	if err := vk.Error(device.procs.CreateShaderModule(device.LogicalDevice(), &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    core.SliceUint32(code),
	}, nil, &module)); err != nil {
		return nil, errors.New("vk.CreateShaderModule(): " + err.Error())
	}
	return &ShaderModule{
		device:     device,
		name:       name,
		shaderType: shaderType,
		module:     module,
	}, nil
}

// Name implements core.Shader.
func (s *ShaderModule) Name() string {
	return s.name
}

// Type implements core.Shader.
func (s *ShaderModule) Type() core.ShaderType {
	return s.shaderType
}

// Handle returns the native module handle.
func (s *ShaderModule) Handle() vk.ShaderModule {
	return s.module
}

// StageCreateInfo builds the stage description used when the module is
// attached to a pipeline at the given stage.
func (s *ShaderModule) StageCreateInfo(stage core.ShaderType, entryPoint string) (vk.PipelineShaderStageCreateInfo, error) {
	bits, err := nativeStage(stage)
	if err != nil {
		return vk.PipelineShaderStageCreateInfo{}, err
	}
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  bits,
		Module: s.module,
		PName:  safeString(entryPoint),
	}, nil
}

// Shutdown destroys the native module. The module must not be bound to
// any pipeline that is still in use.
func (s *ShaderModule) Shutdown() {
	if s.module != vk.NullShaderModule {
		s.device.procs.DestroyShaderModule(s.device.LogicalDevice(), s.module, nil)
		s.module = vk.NullShaderModule
	}
}

// nativeStage maps an engine stage tag to the native stage bit.
func nativeStage(t core.ShaderType) (vk.ShaderStageFlagBits, error) {
	switch t {
	case core.ComputeShaderType:
		return vk.ShaderStageComputeBit, nil
	case core.VertexShaderType:
		return vk.ShaderStageVertexBit, nil
	case core.FragmentShaderType:
		return vk.ShaderStageFragmentBit, nil
	case core.GeometryShaderType:
		return vk.ShaderStageGeometryBit, nil
	case core.TessellationControlShaderType:
		return vk.ShaderStageTessellationControlBit, nil
	case core.TessellationEvaluationShaderType:
		return vk.ShaderStageTessellationEvaluationBit, nil
	}
	return 0, fmt.Errorf("no native stage for shader type %s", t)
}
