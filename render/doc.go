// Package render dispatches the perturbation kernel on the GPU.
//
// The package receives a device from the host application and never
// creates one: hosts pass a [DeviceHandle] (or raw hal handles) into
// [NewRenderer], which compiles the embedded WGSL kernel, uploads the
// engine's packed orbit and series buffers, and reads back per-pixel
// iteration counts and glitch flags.
//
// The division of labor with the engine is strict. The engine decides
// modes, computes orbits, and packs buffers on the CPU; this package
// only moves those buffers across the device boundary and runs the
// kernel. Nothing here inspects orbit contents.
package render
