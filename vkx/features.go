// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkx

import (
	"strings"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/garnet/core"
)

// featureFields maps every negotiable capability to its field in the
// native feature struct. Engine internal markers have no entry, they
// never cross the driver boundary.
var featureFields = map[core.Feature]func(*vk.PhysicalDeviceFeatures) *vk.Bool32{
	core.RobustBufferAccessFeature:                      func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.RobustBufferAccess },
	core.FullDrawIndexUint32Feature:                     func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.FullDrawIndexUint32 },
	core.ImageCubeArrayFeature:                          func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ImageCubeArray },
	core.IndependentBlendFeature:                        func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.IndependentBlend },
	core.GeometryShaderFeature:                          func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.GeometryShader },
	core.TessellationShaderFeature:                      func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.TessellationShader },
	core.SampleRateShadingFeature:                       func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SampleRateShading },
	core.DualSrcBlendFeature:                            func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.DualSrcBlend },
	core.LogicOpFeature:                                 func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.LogicOp },
	core.MultiDrawIndirectFeature:                       func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.MultiDrawIndirect },
	core.DrawIndirectFirstInstanceFeature:               func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.DrawIndirectFirstInstance },
	core.DepthClampFeature:                              func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.DepthClamp },
	core.DepthBiasClampFeature:                          func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.DepthBiasClamp },
	core.FillModeNonSolidFeature:                        func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.FillModeNonSolid },
	core.DepthBoundsFeature:                             func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.DepthBounds },
	core.WideLinesFeature:                               func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.WideLines },
	core.LargePointsFeature:                             func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.LargePoints },
	core.AlphaToOneFeature:                              func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.AlphaToOne },
	core.MultiViewportFeature:                           func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.MultiViewport },
	core.SamplerAnisotropyFeature:                       func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SamplerAnisotropy },
	core.TextureCompressionETC2Feature:                  func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.TextureCompressionETC2 },
	core.TextureCompressionASTCLDRFeature:               func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.TextureCompressionASTC_LDR },
	core.TextureCompressionBCFeature:                    func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.TextureCompressionBC },
	core.OcclusionQueryPreciseFeature:                   func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.OcclusionQueryPrecise },
	core.PipelineStatisticsQueryFeature:                 func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.PipelineStatisticsQuery },
	core.VertexPipelineStoresAndAtomicsFeature:          func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.VertexPipelineStoresAndAtomics },
	core.FragmentStoresAndAtomicsFeature:                func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.FragmentStoresAndAtomics },
	core.ShaderTessellationAndGeometryPointSizeFeature:  func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderTessellationAndGeometryPointSize },
	core.ShaderImageGatherExtendedFeature:               func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderImageGatherExtended },
	core.ShaderStorageImageExtendedFormatsFeature:       func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageImageExtendedFormats },
	core.ShaderStorageImageMultisampleFeature:           func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageImageMultisample },
	core.ShaderStorageImageReadWithoutFormatFeature:     func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageImageReadWithoutFormat },
	core.ShaderStorageImageWriteWithoutFormatFeature:    func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageImageWriteWithoutFormat },
	core.ShaderUniformBufferArrayDynamicIndexingFeature: func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderUniformBufferArrayDynamicIndexing },
	core.ShaderSampledImageArrayDynamicIndexingFeature:  func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderSampledImageArrayDynamicIndexing },
	core.ShaderStorageBufferArrayDynamicIndexingFeature: func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageBufferArrayDynamicIndexing },
	core.ShaderStorageImageArrayDynamicIndexingFeature:  func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderStorageImageArrayDynamicIndexing },
	core.ShaderClipDistanceFeature:                      func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderClipDistance },
	core.ShaderCullDistanceFeature:                      func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderCullDistance },
	core.ShaderFloat64Feature:                           func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderFloat64 },
	core.ShaderInt64Feature:                             func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderInt64 },
	core.ShaderInt16Feature:                             func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderInt16 },
	core.ShaderResourceResidencyFeature:                 func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderResourceResidency },
	core.ShaderResourceMinLodFeature:                    func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.ShaderResourceMinLod },
	core.SparseBindingFeature:                           func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseBinding },
	core.SparseResidencyBufferFeature:                   func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidencyBuffer },
	core.SparseResidencyImage2DFeature:                  func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidencyImage2D },
	core.SparseResidencyImage3DFeature:                  func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidencyImage3D },
	core.SparseResidency2SamplesFeature:                 func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidency2Samples },
	core.SparseResidency4SamplesFeature:                 func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidency4Samples },
	core.SparseResidency8SamplesFeature:                 func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidency8Samples },
	core.SparseResidency16SamplesFeature:                func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidency16Samples },
	core.SparseResidencyAliasedFeature:                  func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.SparseResidencyAliased },
	core.VariableMultisampleRateFeature:                 func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.VariableMultisampleRate },
	core.InheritedQueriesFeature:                        func(f *vk.PhysicalDeviceFeatures) *vk.Bool32 { return &f.InheritedQueries },
}

// requestedFeatures builds the native feature set handed to device
// creation. Internal markers and unknown values are left out.
func requestedFeatures(features []core.Feature) vk.PhysicalDeviceFeatures {
	var out vk.PhysicalDeviceFeatures
	for _, f := range features {
		if f.Internal() {
			continue
		}
		if field, ok := featureFields[f]; ok {
			*field(&out) = vk.True
		}
	}
	return out
}

// missingFeatures returns the requested features the given set does not
// provide. Internal markers are provided by the engine itself and so
// are never reported missing.
func missingFeatures(available vk.PhysicalDeviceFeatures, requested []core.Feature) []core.Feature {
	var missing []core.Feature
	for _, f := range requested {
		if f.Internal() {
			continue
		}
		field, ok := featureFields[f]
		if !ok || *field(&available) != vk.True {
			missing = append(missing, f)
		}
	}
	return missing
}

// hasAllFeatures reports whether the given set provides every requested
// feature.
func hasAllFeatures(available vk.PhysicalDeviceFeatures, requested []core.Feature) bool {
	return len(missingFeatures(available, requested)) == 0
}

// supportedFeatures projects a native feature set back onto the
// catalog, in catalog order. Internal markers always read as supported.
func supportedFeatures(available vk.PhysicalDeviceFeatures) []core.Feature {
	var supported []core.Feature
	for _, f := range core.Catalog() {
		if f.Internal() {
			supported = append(supported, f)
			continue
		}
		if field, ok := featureFields[f]; ok && *field(&available) == vk.True {
			supported = append(supported, f)
		}
	}
	return supported
}

// featureList formats feature names for error and log output.
func featureList(features []core.Feature) string {
	names := make([]string, 0, len(features))
	for _, f := range features {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}
