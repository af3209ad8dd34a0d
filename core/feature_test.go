// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/devblok/garnet/core"
)

func TestFeatureNamesRoundTrip(t *testing.T) {
	catalog := core.Catalog()
	if len(catalog) == 0 {
		t.Fatal("empty feature catalog")
	}

	seen := make(map[string]core.Feature, len(catalog))
	for _, feature := range catalog {
		name := feature.String()
		if name == "" || name == "unknown" {
			t.Errorf("feature %d has no canonical name", feature)
			continue
		}
		if prev, ok := seen[name]; ok {
			t.Errorf("name %q maps to both %d and %d", name, prev, feature)
		}
		seen[name] = feature

		parsed, err := core.FeatureNamed(name)
		if err != nil {
			t.Errorf("FeatureNamed(%q): %v", name, err)
		}
		if parsed != feature {
			t.Errorf("FeatureNamed(%q) = %d, want %d", name, parsed, feature)
		}
	}
}

func TestFeatureNamedUnknown(t *testing.T) {
	feature, err := core.FeatureNamed("definitely-not-a-feature")
	if err == nil {
		t.Error("expected an error for an unknown name")
	}
	if feature != core.UnknownFeature {
		t.Errorf("expected UnknownFeature, got %d", feature)
	}
}

func TestFeatureInternalMarkers(t *testing.T) {
	markers := []core.Feature{
		core.FramebufferFeature,
		core.DepthStencilFeature,
		core.FenceTimeoutFeature,
	}
	for _, marker := range markers {
		if !marker.Internal() {
			t.Errorf("%s should be an internal marker", marker)
		}
	}
	if core.WideLinesFeature.Internal() {
		t.Error("wide-lines is a native feature, not a marker")
	}

	var internal int
	for _, feature := range core.Catalog() {
		if feature.Internal() {
			internal++
		}
	}
	if internal != len(markers) {
		t.Errorf("expected %d internal markers in the catalog, found %d", len(markers), internal)
	}
}

func TestShaderTypeFromPath(t *testing.T) {
	cases := []struct {
		path string
		want core.ShaderType
	}{
		{path: "kernel.comp.spv", want: core.ComputeShaderType},
		{path: "shaders/cube.vert.spv", want: core.VertexShaderType},
		{path: "cube.frag.spv", want: core.FragmentShaderType},
		{path: "fur.geom.spv", want: core.GeometryShaderType},
		{path: "patch.tesc.spv", want: core.TessellationControlShaderType},
		{path: "patch.tese.spv", want: core.TessellationEvaluationShaderType},
		{path: "README.md", want: core.UnknownShaderType},
		{path: "kernel.spv", want: core.UnknownShaderType},
	}
	for _, tc := range cases {
		if got := core.ShaderTypeFromPath(tc.path); got != tc.want {
			t.Errorf("ShaderTypeFromPath(%q) = %s, want %s", tc.path, got, tc.want)
		}
	}
}
