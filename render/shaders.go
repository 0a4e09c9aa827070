package render

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shaders/perturb.wgsl
var perturbShaderSource string

// KernelSource returns the embedded WGSL source of the perturbation
// kernel, for hosts that build their own pipelines around it.
func KernelSource() string { return perturbShaderSource }

// CompileShaderToSPIRV compiles WGSL source to a SPIR-V uint32 slice.
// Most hal backends accept WGSL directly; the SPIR-V path exists for
// backends that want precompiled code and for validating the kernel
// without a device.
func CompileShaderToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}
