// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds the API-agnostic parts of the engine: the shader
// and pipeline model, the device feature catalog and the configuration
// that the execution layers consume.
package core

import "strings"

// ShaderType represents the pipeline stage a shader occupies.
type ShaderType int

// Identifies shader objects with their stages
const (
	ComputeShaderType ShaderType = iota
	VertexShaderType
	FragmentShaderType
	GeometryShaderType
	TessellationControlShaderType
	TessellationEvaluationShaderType
	UnknownShaderType
)

func (t ShaderType) String() string {
	switch t {
	case ComputeShaderType:
		return "compute"
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	case GeometryShaderType:
		return "geometry"
	case TessellationControlShaderType:
		return "tessellation control"
	case TessellationEvaluationShaderType:
		return "tessellation evaluation"
	default:
		return "unknown"
	}
}

// ShaderTypeFromPath guesses the stage of a shader file from the
// glslang naming convention (name.comp.spv, name.vert.spv and so on).
func ShaderTypeFromPath(path string) ShaderType {
	name := strings.TrimSuffix(path, ".spv")
	switch {
	case strings.HasSuffix(name, ".comp"):
		return ComputeShaderType
	case strings.HasSuffix(name, ".vert"):
		return VertexShaderType
	case strings.HasSuffix(name, ".frag"):
		return FragmentShaderType
	case strings.HasSuffix(name, ".geom"):
		return GeometryShaderType
	case strings.HasSuffix(name, ".tesc"):
		return TessellationControlShaderType
	case strings.HasSuffix(name, ".tese"):
		return TessellationEvaluationShaderType
	default:
		return UnknownShaderType
	}
}

// Shader is the minimal surface a pipeline needs from a shader object.
// Identity is interface equality, the engine never copies shaders.
type Shader interface {
	// Name returns a human readable identifier for diagnostics
	Name() string

	// Type returns the stage this shader was compiled for
	Type() ShaderType
}

// Severity classifies messages coming out of the native debug layers.
type Severity int

// Severities in decreasing order of importance. Anything the native
// layer reports that is neither an error nor a warning lands on
// UnknownSeverity.
const (
	ErrorSeverity Severity = iota
	WarningSeverity
	UnknownSeverity
)

func (s Severity) String() string {
	switch s {
	case ErrorSeverity:
		return "error"
	case WarningSeverity:
		return "warning"
	default:
		return "unknown"
	}
}

// Logger is the sink for engine and native layer diagnostics.
// Implementations decide where the messages end up.
type Logger interface {
	Log(severity Severity, message string)
}
