// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "time"

// DefaultFenceTimeout bounds fence waits when the execution
// configuration does not say otherwise.
const DefaultFenceTimeout = 100 * time.Millisecond

// DefaultValidationLayers returns the validation layers a device context
// insists on when the configuration leaves the list empty. Returned
// fresh so callers can append without sharing.
func DefaultValidationLayers() []string {
	return []string{"VK_LAYER_LUNARG_standard_validation"}
}

// Configuration defines a global engine configuration setting
type Configuration struct {
	Device    DeviceConfiguration
	Execution ExecutionConfiguration
}

// DeviceConfiguration is used to configure the device context.
// Validation layers are per context, two contexts in one process
// may run with different lists.
type DeviceConfiguration struct {
	// ValidationLayers that must be present on the host before an
	// owned instance is created. Empty means DefaultValidationLayers().
	ValidationLayers []string
}

// ExecutionConfiguration is used to configure command submission
type ExecutionConfiguration struct {
	// FenceTimeout bounds the host-side wait after a submission.
	// Zero means DefaultFenceTimeout.
	FenceTimeout time.Duration
}
