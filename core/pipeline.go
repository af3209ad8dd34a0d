// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
)

// ErrShaderNotFound is returned by binding mutations that name a shader
// the pipeline has no binding for.
var ErrShaderNotFound = errors.New("shader not found in pipeline")

// PipelineType represents the kind of work a pipeline performs.
type PipelineType int

// The two pipeline kinds
const (
	ComputePipelineType PipelineType = iota
	GraphicsPipelineType
)

func (t PipelineType) String() string {
	if t == ComputePipelineType {
		return "compute"
	}
	return "graphics"
}

// Default framebuffer dimensions for graphics pipelines.
const (
	DefaultFramebufferWidth  = 250
	DefaultFramebufferHeight = 250
)

// ShaderBinding attaches one shader to a pipeline stage, together with
// the entry point and the optimization passes requested for it. The
// shader itself is borrowed, the binding never owns it.
type ShaderBinding struct {
	shader        Shader
	shaderType    ShaderType
	entryPoint    string
	optimizations []string
}

// Shader returns the bound shader object.
func (b *ShaderBinding) Shader() Shader {
	return b.shader
}

// Type returns the stage the shader is bound to, which may differ from
// the stage the shader reports for itself.
func (b *ShaderBinding) Type() ShaderType {
	return b.shaderType
}

// EntryPoint returns the entry point name, "main" unless overridden.
func (b *ShaderBinding) EntryPoint() string {
	return b.entryPoint
}

// Optimizations returns the optimization pass names in order.
func (b *ShaderBinding) Optimizations() []string {
	return b.optimizations
}

// Pipeline describes a compute or graphics pipeline before it is
// realised by an execution backend. It collects shader bindings and
// fixed-function parameters and can check its own structural rules
// with Validate.
type Pipeline struct {
	pipelineType PipelineType
	name         string
	bindings     []ShaderBinding

	fbWidth  uint32
	fbHeight uint32
}

// NewPipeline creates an empty pipeline of the given kind with the
// default framebuffer dimensions.
func NewPipeline(t PipelineType) *Pipeline {
	return &Pipeline{
		pipelineType: t,
		fbWidth:      DefaultFramebufferWidth,
		fbHeight:     DefaultFramebufferHeight,
	}
}

// Type returns the pipeline kind.
func (p *Pipeline) Type() PipelineType {
	return p.pipelineType
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// SetName names the pipeline for diagnostics.
func (p *Pipeline) SetName(name string) {
	p.name = name
}

// FramebufferWidth returns the framebuffer width in pixels.
func (p *Pipeline) FramebufferWidth() uint32 {
	return p.fbWidth
}

// FramebufferHeight returns the framebuffer height in pixels.
func (p *Pipeline) FramebufferHeight() uint32 {
	return p.fbHeight
}

// SetFramebufferWidth overrides the default framebuffer width.
func (p *Pipeline) SetFramebufferWidth(width uint32) {
	p.fbWidth = width
}

// SetFramebufferHeight overrides the default framebuffer height.
func (p *Pipeline) SetFramebufferHeight(height uint32) {
	p.fbHeight = height
}

// Shaders returns the current shader bindings in attach order.
func (p *Pipeline) Shaders() []ShaderBinding {
	return p.bindings
}

func (p *Pipeline) findBinding(shader Shader) int {
	if shader == nil {
		return -1
	}
	for i := range p.bindings {
		if p.bindings[i].shader == shader {
			return i
		}
	}
	return -1
}

// AddShader attaches a shader at the given stage. Attaching a shader
// that is already bound moves it to the new stage instead of creating
// a second binding.
func (p *Pipeline) AddShader(shader Shader, t ShaderType) error {
	if shader == nil {
		return errors.New("shader can not be nil when attached to pipeline")
	}
	if i := p.findBinding(shader); i >= 0 {
		p.bindings[i].shaderType = t
		return nil
	}
	p.bindings = append(p.bindings, ShaderBinding{
		shader:     shader,
		shaderType: t,
		entryPoint: "main",
	})
	return nil
}

// SetShaderType moves an already bound shader to a different stage.
func (p *Pipeline) SetShaderType(shader Shader, t ShaderType) error {
	i := p.findBinding(shader)
	if i < 0 {
		return p.missing(shader)
	}
	p.bindings[i].shaderType = t
	return nil
}

// SetShaderEntryPoint overrides the entry point of a bound shader.
func (p *Pipeline) SetShaderEntryPoint(shader Shader, entryPoint string) error {
	i := p.findBinding(shader)
	if i < 0 {
		return p.missing(shader)
	}
	p.bindings[i].entryPoint = entryPoint
	return nil
}

// SetShaderOptimizations sets the optimization passes for a bound shader.
func (p *Pipeline) SetShaderOptimizations(shader Shader, passes []string) error {
	i := p.findBinding(shader)
	if i < 0 {
		return p.missing(shader)
	}
	p.bindings[i].optimizations = passes
	return nil
}

func (p *Pipeline) missing(shader Shader) error {
	if shader == nil {
		return ErrShaderNotFound
	}
	return fmt.Errorf("%w: %s", ErrShaderNotFound, shader.Name())
}

// Validate checks the structural rules for the pipeline kind. It reads
// nothing but the bindings and may be called repeatedly, including
// after further mutation.
func (p *Pipeline) Validate() error {
	if p.pipelineType == ComputePipelineType {
		return p.validateCompute()
	}
	return p.validateGraphics()
}

func (p *Pipeline) validateCompute() error {
	if len(p.bindings) != 1 {
		return errors.New("compute pipeline must have exactly one shader")
	}
	if p.bindings[0].shaderType != ComputeShaderType {
		return errors.New("compute pipeline must have a compute shader")
	}
	return nil
}

func (p *Pipeline) validateGraphics() error {
	var vertex, fragment bool
	for i := range p.bindings {
		switch p.bindings[i].shaderType {
		case ComputeShaderType:
			return errors.New("graphics pipeline can not contain a compute shader")
		case VertexShaderType:
			vertex = true
		case FragmentShaderType:
			fragment = true
		}
	}
	if !vertex {
		return errors.New("graphics pipeline is missing a vertex shader")
	}
	if !fragment {
		return errors.New("graphics pipeline is missing a fragment shader")
	}
	return nil
}
