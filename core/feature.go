// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "errors"

// Feature is one optional device capability that a run can request.
// The set is closed: one flag per field of the native physical device
// feature block, plus a few engine-internal markers that configure the
// engine itself rather than the device.
type Feature int

// The feature catalog. Order follows the native feature block.
const (
	RobustBufferAccessFeature Feature = iota
	FullDrawIndexUint32Feature
	ImageCubeArrayFeature
	IndependentBlendFeature
	GeometryShaderFeature
	TessellationShaderFeature
	SampleRateShadingFeature
	DualSrcBlendFeature
	LogicOpFeature
	MultiDrawIndirectFeature
	DrawIndirectFirstInstanceFeature
	DepthClampFeature
	DepthBiasClampFeature
	FillModeNonSolidFeature
	DepthBoundsFeature
	WideLinesFeature
	LargePointsFeature
	AlphaToOneFeature
	MultiViewportFeature
	SamplerAnisotropyFeature
	TextureCompressionETC2Feature
	TextureCompressionASTCLDRFeature
	TextureCompressionBCFeature
	OcclusionQueryPreciseFeature
	PipelineStatisticsQueryFeature
	VertexPipelineStoresAndAtomicsFeature
	FragmentStoresAndAtomicsFeature
	ShaderTessellationAndGeometryPointSizeFeature
	ShaderImageGatherExtendedFeature
	ShaderStorageImageExtendedFormatsFeature
	ShaderStorageImageMultisampleFeature
	ShaderStorageImageReadWithoutFormatFeature
	ShaderStorageImageWriteWithoutFormatFeature
	ShaderUniformBufferArrayDynamicIndexingFeature
	ShaderSampledImageArrayDynamicIndexingFeature
	ShaderStorageBufferArrayDynamicIndexingFeature
	ShaderStorageImageArrayDynamicIndexingFeature
	ShaderClipDistanceFeature
	ShaderCullDistanceFeature
	ShaderFloat64Feature
	ShaderInt64Feature
	ShaderInt16Feature
	ShaderResourceResidencyFeature
	ShaderResourceMinLodFeature
	SparseBindingFeature
	SparseResidencyBufferFeature
	SparseResidencyImage2DFeature
	SparseResidencyImage3DFeature
	SparseResidency2SamplesFeature
	SparseResidency4SamplesFeature
	SparseResidency8SamplesFeature
	SparseResidency16SamplesFeature
	SparseResidencyAliasedFeature
	VariableMultisampleRateFeature
	InheritedQueriesFeature

	// Engine-internal markers, no native equivalent.
	FramebufferFeature
	DepthStencilFeature
	FenceTimeoutFeature

	UnknownFeature
)

var featureNames = map[Feature]string{
	RobustBufferAccessFeature:                      "robust-buffer-access",
	FullDrawIndexUint32Feature:                     "full-draw-index-uint32",
	ImageCubeArrayFeature:                          "image-cube-array",
	IndependentBlendFeature:                        "independent-blend",
	GeometryShaderFeature:                          "geometry-shader",
	TessellationShaderFeature:                      "tessellation-shader",
	SampleRateShadingFeature:                       "sample-rate-shading",
	DualSrcBlendFeature:                            "dual-src-blend",
	LogicOpFeature:                                 "logic-op",
	MultiDrawIndirectFeature:                       "multi-draw-indirect",
	DrawIndirectFirstInstanceFeature:               "draw-indirect-first-instance",
	DepthClampFeature:                              "depth-clamp",
	DepthBiasClampFeature:                          "depth-bias-clamp",
	FillModeNonSolidFeature:                        "fill-mode-non-solid",
	DepthBoundsFeature:                             "depth-bounds",
	WideLinesFeature:                               "wide-lines",
	LargePointsFeature:                             "large-points",
	AlphaToOneFeature:                              "alpha-to-one",
	MultiViewportFeature:                           "multi-viewport",
	SamplerAnisotropyFeature:                       "sampler-anisotropy",
	TextureCompressionETC2Feature:                  "texture-compression-etc2",
	TextureCompressionASTCLDRFeature:               "texture-compression-astc-ldr",
	TextureCompressionBCFeature:                    "texture-compression-bc",
	OcclusionQueryPreciseFeature:                   "occlusion-query-precise",
	PipelineStatisticsQueryFeature:                 "pipeline-statistics-query",
	VertexPipelineStoresAndAtomicsFeature:          "vertex-pipeline-stores-and-atomics",
	FragmentStoresAndAtomicsFeature:                "fragment-stores-and-atomics",
	ShaderTessellationAndGeometryPointSizeFeature:  "shader-tessellation-and-geometry-point-size",
	ShaderImageGatherExtendedFeature:               "shader-image-gather-extended",
	ShaderStorageImageExtendedFormatsFeature:       "shader-storage-image-extended-formats",
	ShaderStorageImageMultisampleFeature:           "shader-storage-image-multisample",
	ShaderStorageImageReadWithoutFormatFeature:     "shader-storage-image-read-without-format",
	ShaderStorageImageWriteWithoutFormatFeature:    "shader-storage-image-write-without-format",
	ShaderUniformBufferArrayDynamicIndexingFeature: "shader-uniform-buffer-array-dynamic-indexing",
	ShaderSampledImageArrayDynamicIndexingFeature:  "shader-sampled-image-array-dynamic-indexing",
	ShaderStorageBufferArrayDynamicIndexingFeature: "shader-storage-buffer-array-dynamic-indexing",
	ShaderStorageImageArrayDynamicIndexingFeature:  "shader-storage-image-array-dynamic-indexing",
	ShaderClipDistanceFeature:                      "shader-clip-distance",
	ShaderCullDistanceFeature:                      "shader-cull-distance",
	ShaderFloat64Feature:                           "shader-float64",
	ShaderInt64Feature:                             "shader-int64",
	ShaderInt16Feature:                             "shader-int16",
	ShaderResourceResidencyFeature:                 "shader-resource-residency",
	ShaderResourceMinLodFeature:                    "shader-resource-min-lod",
	SparseBindingFeature:                           "sparse-binding",
	SparseResidencyBufferFeature:                   "sparse-residency-buffer",
	SparseResidencyImage2DFeature:                  "sparse-residency-image2d",
	SparseResidencyImage3DFeature:                  "sparse-residency-image3d",
	SparseResidency2SamplesFeature:                 "sparse-residency-2-samples",
	SparseResidency4SamplesFeature:                 "sparse-residency-4-samples",
	SparseResidency8SamplesFeature:                 "sparse-residency-8-samples",
	SparseResidency16SamplesFeature:                "sparse-residency-16-samples",
	SparseResidencyAliasedFeature:                  "sparse-residency-aliased",
	VariableMultisampleRateFeature:                 "variable-multisample-rate",
	InheritedQueriesFeature:                        "inherited-queries",
	FramebufferFeature:                             "framebuffer",
	DepthStencilFeature:                            "depth-stencil",
	FenceTimeoutFeature:                            "fence-timeout",
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return "unknown"
}

// Internal reports whether the flag is an engine-internal marker.
// Markers are accepted in requests but never checked against or
// enabled on the device.
func (f Feature) Internal() bool {
	switch f {
	case FramebufferFeature, DepthStencilFeature, FenceTimeoutFeature:
		return true
	}
	return false
}

// FeatureNamed resolves the canonical name of a feature flag, as used
// in request lists.
func FeatureNamed(name string) (Feature, error) {
	for f, n := range featureNames {
		if n == name {
			return f, nil
		}
	}
	return UnknownFeature, errors.New("unknown feature: " + name)
}

// Catalog returns every feature flag in the catalog, markers included,
// in declaration order.
func Catalog() []Feature {
	features := make([]Feature, 0, len(featureNames))
	for f := RobustBufferAccessFeature; f < UnknownFeature; f++ {
		features = append(features, f)
	}
	return features
}
