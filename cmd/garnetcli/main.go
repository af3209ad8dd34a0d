// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"fmt"

	"github.com/devblok/garnet/core"
	"github.com/devblok/garnet/vkx"
)

func main() {
	device := vkx.NewDevice(core.DeviceConfiguration{}, nil)
	if err := device.Initialize(nil, nil, nil); err != nil {
		panic(err)
	}

	info, err := device.PhysicalDevicesInfo()
	if err != nil {
		panic(err)
	}

	if bytes, err := json.Marshal(info); err == nil {
		fmt.Printf("%s", bytes)
	} else {
		panic(err)
	}

	device.Shutdown()
}
