// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"io/ioutil"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"
	"time"

	vk "github.com/devblok/vulkan"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/garnet/core"
	"github.com/devblok/garnet/utility/gar"
	"github.com/devblok/garnet/vkx"
)

func init() {
	runtime.LockOSThread()
}

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

// Execution setup
var (
	shaderFile = flag.String("shader", "", "SPIR-V compute shader to execute")
	bundleFile = flag.String("bundle", "", "Read the shader from this gar bundle instead of disk")
	entryPoint = flag.String("entry", "main", "Shader entry point to execute")
	features   = flag.String("features", "", "Comma separated capability flags the device must support")
	extensions = flag.String("extensions", "", "Comma separated device extensions to enable")
	groupsX    = flag.Uint("x", 1, "Work group count on x")
	groupsY    = flag.Uint("y", 1, "Work group count on y")
	groupsZ    = flag.Uint("z", 1, "Work group count on z")
)

var configuration = core.Configuration{
	Execution: core.ExecutionConfiguration{
		FenceTimeout: core.DefaultFenceTimeout,
	},
}

// deviceLogger feeds device context diagnostics into logrus.
type deviceLogger struct{}

func (deviceLogger) Log(severity core.Severity, message string) {
	switch severity {
	case core.ErrorSeverity:
		log.Error(message)
	case core.WarningSeverity:
		log.Warn(message)
	default:
		log.Info(message)
	}
}

// loadEnvironment pulls GARNET_* overrides into the configuration,
// reading a .env file first when one is present.
func loadEnvironment() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Warnf("environment file not loaded: %v", err)
		}
	}
	if layers := envy.Get("GARNET_VALIDATION_LAYERS", ""); layers != "" {
		configuration.Device.ValidationLayers = splitList(layers)
	}
	if timeout := envy.Get("GARNET_FENCE_TIMEOUT", ""); timeout != "" {
		if d, err := time.ParseDuration(timeout); err != nil {
			log.Warnf("invalid GARNET_FENCE_TIMEOUT: %v", err)
		} else {
			configuration.Execution.FenceTimeout = d
		}
	}
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseFeatures(list string) ([]core.Feature, error) {
	var out []core.Feature
	for _, name := range splitList(list) {
		f, err := core.FeatureNamed(name)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func loadShaderCode() ([]byte, error) {
	if *bundleFile == "" {
		return ioutil.ReadFile(*shaderFile)
	}
	f, err := os.Open(*bundleFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ar, err := gar.Open(f)
	if err != nil {
		return nil, err
	}
	return ar.ReadAll(*shaderFile)
}

func main() {
	flag.Parse()
	loadEnvironment()

	if *shaderFile == "" {
		flag.PrintDefaults()
		return
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		panic(err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		panic(err)
	}
	defer sdl.VulkanUnloadLibrary()

	shaderType := core.ShaderTypeFromPath(*shaderFile)
	if shaderType != core.ComputeShaderType {
		panic(errors.New("only compute shaders can be dispatched, got " + shaderType.String()))
	}

	required, err := parseFeatures(*features)
	if err != nil {
		panic(err)
	}

	device := vkx.NewDevice(configuration.Device, deviceLogger{})
	if err := device.Initialize(sdl.VulkanGetVkGetInstanceProcAddr(), required, splitList(*extensions)); err != nil {
		panic(err)
	}
	defer device.Shutdown()

	properties := device.Properties()
	log.WithField("device", vk.ToString(properties.DeviceName[:])).Info("device context ready")

	code, err := loadShaderCode()
	if err != nil {
		panic(err)
	}

	module, err := vkx.NewShaderModule(device, *shaderFile, shaderType, code)
	if err != nil {
		panic(err)
	}
	defer module.Shutdown()

	descriptor := core.NewPipeline(core.ComputePipelineType)
	descriptor.SetName(*shaderFile)
	if err := descriptor.AddShader(module, core.ComputeShaderType); err != nil {
		panic(err)
	}
	if err := descriptor.SetShaderEntryPoint(module, *entryPoint); err != nil {
		panic(err)
	}

	pipeline, err := vkx.NewComputePipeline(device, descriptor)
	if err != nil {
		panic(err)
	}
	defer pipeline.Shutdown()

	pool := vkx.NewCommandPool(device)
	if err := pool.Initialize(device.QueueFamilyIndex()); err != nil {
		panic(err)
	}
	defer pool.Shutdown()

	buffer := vkx.NewCommandBuffer(device, pool)
	if err := buffer.Initialize(); err != nil {
		panic(err)
	}
	defer buffer.Shutdown()

	if err := pipeline.RecordDispatch(buffer, uint32(*groupsX), uint32(*groupsY), uint32(*groupsZ)); err != nil {
		panic(err)
	}
	if err := buffer.End(); err != nil {
		panic(err)
	}

	started := time.Now()
	if err := buffer.SubmitAndReset(configuration.Execution.FenceTimeout); err != nil {
		panic(err)
	}

	log.WithFields(log.Fields{
		"pipeline": descriptor.Name(),
		"elapsed":  time.Since(started),
	}).Info("dispatch completed")

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic(err)
		}
	}
}
