package render

import (
	"strings"
	"testing"
)

func TestPerturbShaderEmbedded(t *testing.T) {
	if perturbShaderSource == "" {
		t.Fatal("perturb shader source is empty")
	}
	if len(perturbShaderSource) < 500 {
		t.Errorf("perturb shader source suspiciously short: %d bytes", len(perturbShaderSource))
	}
}

func TestPerturbShaderContainsExpectedContent(t *testing.T) {
	required := []string{
		"@compute",
		"@workgroup_size(8, 8)",
		"fn main",
		"struct Params",
		"struct Region",
		"var<uniform> params",
		"var<storage, read> orbit",
		"var<storage, read_write> iterations",
		"var<storage, read_write> glitch",
		"65536.0",
	}
	for _, req := range required {
		if !strings.Contains(perturbShaderSource, req) {
			t.Errorf("perturb shader missing %q", req)
		}
	}
}

func TestPerturbShaderBindingsMatchLayout(t *testing.T) {
	// Seven bindings, numbered densely from zero, all in group 0.
	for _, binding := range []string{
		"@group(0) @binding(0)",
		"@group(0) @binding(1)",
		"@group(0) @binding(2)",
		"@group(0) @binding(3)",
		"@group(0) @binding(4)",
		"@group(0) @binding(5)",
		"@group(0) @binding(6)",
	} {
		if !strings.Contains(perturbShaderSource, binding) {
			t.Errorf("perturb shader missing %q", binding)
		}
	}
	if strings.Contains(perturbShaderSource, "@binding(7)") {
		t.Error("perturb shader has more bindings than the pipeline layout")
	}
}

func TestPerturbShaderGlitchCriterion(t *testing.T) {
	// The glitch test compares the delta against the reference magnitude,
	// with a floor guard for near-zero reference points.
	required := []string{
		"const GLITCH_TOLERANCE: f32 = 1e-6;",
		"const GLITCH_REF_FLOOR: f32 = 1e-20;",
		"ref_mag_sq > GLITCH_REF_FLOOR",
		"dot(dz, dz) > GLITCH_TOLERANCE * ref_mag_sq",
	}
	for _, req := range required {
		if !strings.Contains(perturbShaderSource, req) {
			t.Errorf("perturb shader missing %q", req)
		}
	}
}
