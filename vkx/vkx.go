// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkx implements the Vulkan execution layer: device context
// negotiation, the command buffer state machine and compute pipeline
// execution. Everything talks to the native API through a per-context
// proc table, so embedders can supply their own entry point and tests
// can supply their own table.
package vkx

import (
	"errors"
	"fmt"

	vk "github.com/devblok/vulkan"
)

// package errors
var (
	// ErrNoSuitableDevice means no physical device satisfied the
	// requested features, extensions and queue capabilities.
	ErrNoSuitableDevice = errors.New("no suitable physical device found")

	// ErrUnsupportedFeatures is returned when an externally supplied
	// device lacks requested capability flags.
	ErrUnsupportedFeatures = errors.New("device does not support all required features")

	// ErrUnsupportedExtensions is returned when an externally supplied
	// device lacks requested extensions.
	ErrUnsupportedExtensions = errors.New("device does not support all required extensions")

	// ErrMissingLayers is returned when required validation layers are
	// absent from the host. The wrapped message lists every missing
	// layer, not only the first.
	ErrMissingLayers = errors.New("missing validation layers")

	// ErrTimeout is returned by SubmitAndReset when the fence wait
	// exceeds its deadline. The command buffer is left untouched.
	ErrTimeout = errors.New("fence wait timed out")

	// ErrInvalidState is returned when an operation is invoked from a
	// lifecycle state that forbids it.
	ErrInvalidState = errors.New("invalid state")
)

// DebugReportExtension is the instance extension the validation layers
// report through.
const DebugReportExtension = "VK_EXT_debug_report"

// DefaultApplicationInfo identifies the engine to the driver.
var DefaultApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   "Garnet\x00",
	PEngineName:        "https://github.com/devblok/garnet\x00",
}

func invalidState(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func safeString(s string) string {
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, s+"\x00")
	}
	return safe
}
