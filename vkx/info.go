// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkx

import (
	"errors"

	vk "github.com/devblok/vulkan"
)

// PhysicalDeviceInfo describes one physical device on the host, for
// inspection tooling. Features lists every capability flag a request
// could include against the device, engine provided markers included.
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        vk.DeviceSize
	Features      []string
}

// PhysicalDevicesInfo collects descriptive information about every
// physical device on the host, not only the negotiated one. A device
// whose queries fail is marked Invalid instead of aborting the whole
// listing. Valid only after Initialize.
func (d *Device) PhysicalDevicesInfo() ([]PhysicalDeviceInfo, error) {
	var count uint32
	if err := vk.Error(d.procs.EnumeratePhysicalDevices(d.instance, &count, nil)); err != nil {
		return nil, errors.New("vk.EnumeratePhysicalDevices(): " + err.Error())
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(d.procs.EnumeratePhysicalDevices(d.instance, &count, devices)); err != nil {
		return nil, errors.New("vk.EnumeratePhysicalDevices(): " + err.Error())
	}
	info := make([]PhysicalDeviceInfo, count)
	for i, device := range devices {
		info[i] = d.describeDevice(device)
	}
	return info, nil
}

func (d *Device) describeDevice(device vk.PhysicalDevice) PhysicalDeviceInfo {
	var info PhysicalDeviceInfo

	extensions, err := d.deviceExtensions(device)
	if err != nil {
		info.Invalid = true
	}
	info.Extensions = extensions

	layers, err := d.deviceLayers(device)
	if err != nil {
		info.Invalid = true
	}
	info.Layers = layers

	var memory vk.PhysicalDeviceMemoryProperties
	d.procs.GetPhysicalDeviceMemoryProperties(device, &memory)
	memory.Deref()
	for i := uint32(0); i < memory.MemoryHeapCount; i++ {
		info.Memory += memory.MemoryHeaps[i].Size
	}

	var features vk.PhysicalDeviceFeatures
	d.procs.GetPhysicalDeviceFeatures(device, &features)
	features.Deref()
	for _, f := range supportedFeatures(features) {
		info.Features = append(info.Features, f.String())
	}

	var properties vk.PhysicalDeviceProperties
	d.procs.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.DriverVersion = int(properties.DriverVersion)
	info.Name = vk.ToString(properties.DeviceName[:])
	return info
}

func (d *Device) deviceLayers(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vk.Error(d.procs.EnumerateDeviceLayerProperties(device, &count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceLayerProperties(): " + err.Error())
	}
	properties := make([]vk.LayerProperties, count)
	if err := vk.Error(d.procs.EnumerateDeviceLayerProperties(device, &count, properties)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceLayerProperties(): " + err.Error())
	}
	layers := make([]string, 0, count)
	for i := range properties {
		properties[i].Deref()
		layers = append(layers, vk.ToString(properties[i].LayerName[:]))
	}
	return layers, nil
}
