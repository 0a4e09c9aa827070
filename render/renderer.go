package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/deepzoom"
	"github.com/gogpu/deepzoom/internal/buf"
)

// ErrNoReference is returned when a perturbation frame state carries no
// usable reference data.
var ErrNoReference = errors.New("render: frame state carries no reference orbit")

// ErrStandardMode is returned when Render is called with a standard-mode
// frame. Shallow zooms iterate directly and do not go through the
// perturbation kernel; hosts run their plain escape-time pass instead.
var ErrStandardMode = errors.New("render: standard mode does not use the perturbation kernel")

// fenceTimeout bounds the wait for kernel completion.
const fenceTimeout = 5 * time.Second

// Capability bits in the kernel uniform. Must match perturb.wgsl.
const (
	flagSeries   = 1 << 0
	flagGlitch   = 1 << 1
	flagMultiRef = 1 << 2
)

// frameParams is the kernel uniform. Field order and padding must match
// the Params struct in perturb.wgsl.
type frameParams struct {
	CenterReHi float32
	CenterReLo float32
	CenterImHi float32
	CenterImLo float32
	ScaleHi    float32
	ScaleLo    float32
	Aspect     float32
	Flags      uint32

	MaxIterations  uint32
	RefLength      uint32
	SkipIterations uint32
	RegionCount    uint32
	Width          uint32
	Height         uint32
	Pad0           uint32
	Pad1           uint32
}

// gpuRegion is the per-region record in the regions storage buffer.
// Must match the Region struct in perturb.wgsl.
type gpuRegion struct {
	X0, Y0, X1, Y1   float32
	DeltaRe, DeltaIm float32
	Offset, Length   uint32
	Skip             uint32
	Pad0, Pad1, Pad2 uint32
}

// Result is the readback of one kernel dispatch: per-pixel escape
// iterations and glitch flags, row-major at the renderer's viewport size.
// A glitch flag holds the iteration at which perturbation broke down for
// that pixel, or zero when the pixel is clean.
type Result struct {
	Width, Height int
	Iterations    []uint32
	GlitchFlags   []uint32
}

// Renderer owns the perturbation compute pipeline on a device received
// from the host. It uploads the engine's packed buffers, dispatches the
// kernel, and reads back iteration counts and glitch flags.
//
// The renderer never creates or destroys the device. Viewport dimensions
// are fixed at construction; hosts recreate the renderer on resize.
//
// Renderer is NOT safe for concurrent use.
type Renderer struct {
	device hal.Device
	queue  hal.Queue

	// ownedInstance is set when the renderer created its own device via
	// NewRendererFromBackend; Destroy then tears the device down too.
	ownedInstance hal.Instance

	width, height uint32

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// NewRenderer creates a renderer on the given hal device and queue and
// compiles the perturbation pipeline.
func NewRenderer(device hal.Device, queue hal.Queue, width, height int) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: viewport %dx%d out of range", width, height)
	}
	r := &Renderer{
		device: device,
		queue:  queue,
		width:  uint32(width),
		height: uint32(height),
	}
	if err := r.createPipeline(); err != nil {
		return nil, err
	}
	slogger().Debug("render: perturbation pipeline ready",
		"width", width, "height", height)
	return r, nil
}

// NewRendererFromProvider creates a renderer from a host device provider
// that exposes raw hal handles via HALProvider.
func NewRendererFromProvider(provider any, width, height int) (*Renderer, error) {
	device, queue, err := halFromProvider(provider)
	if err != nil {
		return nil, err
	}
	return NewRenderer(device, queue, width, height)
}

// NewRendererFromBackend creates a renderer on its own device opened from
// a registered hal backend, preferring a discrete or integrated GPU.
// Destroy tears the device down along with the pipeline.
func NewRendererFromBackend(backendType gputypes.Backend, width, height int) (*Renderer, error) {
	backend, ok := hal.GetBackend(backendType)
	if !ok {
		return nil, fmt.Errorf("render: backend %v not available", backendType)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("render: no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	r, err := NewRenderer(openDev.Device, openDev.Queue, width, height)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	r.ownedInstance = instance
	slogger().Info("render: opened own device", "adapter", selected.Info.Name)
	return r, nil
}

// Destroy releases the pipeline resources. The device and queue belong
// to the host and are left alone.
func (r *Renderer) Destroy() {
	if r.device == nil {
		return
	}
	if r.pipeline != nil {
		r.device.DestroyComputePipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.bindLayout != nil {
		r.device.DestroyBindGroupLayout(r.bindLayout)
		r.bindLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
	if r.ownedInstance != nil {
		r.device.Destroy()
		r.ownedInstance.Destroy()
		r.ownedInstance = nil
		r.device = nil
		r.queue = nil
	}
}

// Size returns the viewport dimensions.
func (r *Renderer) Size() (width, height int) {
	return int(r.width), int(r.height)
}

func (r *Renderer) createPipeline() error {
	shader, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "perturb",
		Source: hal.ShaderSource{WGSL: perturbShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile perturb shader: %w", err)
	}
	r.shader = shader

	bindLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "perturb_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 4, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 5, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 6, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	r.bindLayout = bindLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "perturb_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	pipeline, err := r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   "perturb_pipeline",
		Layout:  r.pipeLayout,
		Compute: hal.ComputeState{Module: r.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	r.pipeline = pipeline
	return nil
}

// Render uploads the frame's packed orbit data, dispatches the kernel
// over the viewport, and reads back the per-pixel results. The frame
// state must come from an engine Frame call in perturbation mode.
func (r *Renderer) Render(state deepzoom.FrameState) (*Result, error) {
	if state.Mode.Rendering != deepzoom.RenderModePerturbation {
		return nil, ErrStandardMode
	}
	params, orbitData, seriesA, seriesB, regionData, err := r.packFrame(state)
	if err != nil {
		return nil, err
	}
	return r.dispatch(params, orbitData, seriesA, seriesB, regionData)
}

// packFrame flattens a frame state into the kernel's buffer layouts.
func (r *Renderer) packFrame(state deepzoom.FrameState) (frameParams, []float32, []float32, []float32, []gpuRegion, error) {
	params := frameParams{
		Aspect:        float32(r.width) / float32(r.height),
		MaxIterations: uint32(state.MaxIterations),
		Width:         r.width,
		Height:        r.height,
	}
	params.CenterReHi, params.CenterReLo = buf.SplitDouble(real(state.Center))
	params.CenterImHi, params.CenterImLo = buf.SplitDouble(imag(state.Center))
	params.ScaleHi, params.ScaleLo = buf.SplitDouble(state.Scale)
	if state.Mode.Caps.Glitch {
		params.Flags |= flagGlitch
	}

	var orbitData, seriesA, seriesB []float32
	var regionData []gpuRegion

	switch {
	case state.Mode.Caps.MultiRef:
		if len(state.Regions) == 0 {
			return params, nil, nil, nil, nil, ErrNoReference
		}
		params.Flags |= flagMultiRef
		if state.Mode.Caps.Series {
			params.Flags |= flagSeries
		}
		params.RegionCount = uint32(len(state.Regions))
		for _, reg := range state.Regions {
			orbitData = reg.Orbit.PackPoints(orbitData)
			seriesA = reg.Orbit.Series.PackA(seriesA)
			seriesB = reg.Orbit.Series.PackB(seriesB)
			// Delta is computed by the partition in its native precision;
			// reg.Center - state.Center would cancel to zero at
			// double-double depth.
			delta := reg.Delta
			regionData = append(regionData, gpuRegion{
				X0: float32(reg.Bounds.X0), Y0: float32(reg.Bounds.Y0),
				X1: float32(reg.Bounds.X1), Y1: float32(reg.Bounds.Y1),
				DeltaRe: float32(real(delta)), DeltaIm: float32(imag(delta)),
				Offset: uint32(reg.Offset), Length: uint32(reg.Length),
				Skip: uint32(reg.SkipIterations),
			})
		}
	default:
		ref := state.Reference
		if ref == nil {
			return params, nil, nil, nil, nil, ErrNoReference
		}
		params.RefLength = uint32(ref.Len())
		orbitData = ref.PackPoints(nil)
		if state.Mode.Caps.Series && ref.Series != nil {
			params.Flags |= flagSeries
			params.SkipIterations = uint32(ref.Series.SkipIterations())
			seriesA = ref.Series.PackA(nil)
			seriesB = ref.Series.PackB(nil)
		}
	}

	// Zero-sized bindings are invalid; pad unused buffers with one entry.
	if len(seriesA) == 0 {
		seriesA = []float32{0, 0}
		seriesB = []float32{0, 0}
	}
	if len(regionData) == 0 {
		regionData = []gpuRegion{{}}
	}
	return params, orbitData, seriesA, seriesB, regionData, nil
}

// dispatch runs one kernel invocation over the viewport: upload, compute
// pass, copy to staging, fence wait, readback.
func (r *Renderer) dispatch(params frameParams, orbitData, seriesA, seriesB []float32, regionData []gpuRegion) (*Result, error) {
	pixels := uint64(r.width) * uint64(r.height)
	outputSize := pixels * 4

	paramsBytes := structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params)) //nolint:gosec // fixed-layout uniform
	regionBytes := regionsToBytes(regionData)

	uploads := []struct {
		label string
		data  []byte
	}{
		{"perturb_params", paramsBytes},
		{"perturb_orbit", floatsToBytes(orbitData)},
		{"perturb_series_a", floatsToBytes(seriesA)},
		{"perturb_series_b", floatsToBytes(seriesB)},
		{"perturb_regions", regionBytes},
	}

	bufs := make([]hal.Buffer, 0, 9)
	defer func() {
		for _, b := range bufs {
			r.device.DestroyBuffer(b)
		}
	}()

	entries := make([]gputypes.BindGroupEntry, 0, 7)
	for i, up := range uploads {
		usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
		if i == 0 {
			usage = gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
		}
		b, err := r.device.CreateBuffer(&hal.BufferDescriptor{
			Label: up.label, Size: uint64(len(up.data)), Usage: usage,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s buffer: %w", up.label, err)
		}
		bufs = append(bufs, b)
		r.queue.WriteBuffer(b, 0, up.data)
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i),
			Resource: gputypes.BufferBinding{Buffer: b.NativeHandle(), Offset: 0, Size: uint64(len(up.data))},
		})
	}

	makeOutput := func(label string) (hal.Buffer, hal.Buffer, error) {
		out, err := r.device.CreateBuffer(&hal.BufferDescriptor{
			Label: label, Size: outputSize,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create %s buffer: %w", label, err)
		}
		bufs = append(bufs, out)
		staging, err := r.device.CreateBuffer(&hal.BufferDescriptor{
			Label: label + "_staging", Size: outputSize,
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create %s staging buffer: %w", label, err)
		}
		bufs = append(bufs, staging)
		return out, staging, nil
	}

	iterBuf, iterStaging, err := makeOutput("perturb_iterations")
	if err != nil {
		return nil, err
	}
	glitchBuf, glitchStaging, err := makeOutput("perturb_glitch")
	if err != nil {
		return nil, err
	}
	entries = append(entries,
		gputypes.BindGroupEntry{Binding: 5, Resource: gputypes.BufferBinding{Buffer: iterBuf.NativeHandle(), Offset: 0, Size: outputSize}},
		gputypes.BindGroupEntry{Binding: 6, Resource: gputypes.BufferBinding{Buffer: glitchBuf.NativeHandle(), Offset: 0, Size: outputSize}},
	)

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "perturb_bind", Layout: r.bindLayout, Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	defer r.device.DestroyBindGroup(bindGroup)

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "perturb_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("perturb"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "perturb_pass"})
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch((r.width+7)/8, (r.height+7)/8, 1)
	pass.End()

	encoder.CopyBufferToBuffer(iterBuf, iterStaging, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: outputSize}})
	encoder.CopyBufferToBuffer(glitchBuf, glitchStaging, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: outputSize}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	fence, err := r.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer r.device.DestroyFence(fence)

	if err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := r.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("wait for kernel: ok=%v err=%w", fenceOK, err)
	}

	result := &Result{
		Width:       int(r.width),
		Height:      int(r.height),
		Iterations:  make([]uint32, pixels),
		GlitchFlags: make([]uint32, pixels),
	}
	readback := make([]byte, outputSize)
	if err := r.queue.ReadBuffer(iterStaging, 0, readback); err != nil {
		return nil, fmt.Errorf("read iterations: %w", err)
	}
	bytesToUint32s(readback, result.Iterations)
	if err := r.queue.ReadBuffer(glitchStaging, 0, readback); err != nil {
		return nil, fmt.Errorf("read glitch flags: %w", err)
	}
	bytesToUint32s(readback, result.GlitchFlags)

	slogger().Debug("render: kernel dispatched",
		"points", len(orbitData)/2,
		"regions", params.RegionCount,
		"skip", params.SkipIterations)
	return result, nil
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}

// regionsToBytes serializes the region table for GPU upload.
func regionsToBytes(regions []gpuRegion) []byte {
	size := int(unsafe.Sizeof(gpuRegion{}))
	out := make([]byte, size*len(regions))
	for i := range regions {
		src := structToBytes(unsafe.Pointer(&regions[i]), unsafe.Sizeof(regions[i])) //nolint:gosec // fixed-layout record
		copy(out[i*size:], src)
	}
	return out
}

func floatsToBytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func bytesToUint32s(src []byte, dst []uint32) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(src[i*4:])
	}
}
