//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/outline"
	"github.com/gogpu/outline/internal/jfa"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// gridSize is the byte size of the per-pass Grid uniform.
const gridSize = 32

// seedSize is the byte size of one vec2<f32> seed.
const seedSize = 8

// fenceTimeout bounds the wait for one frame's command buffer.
const fenceTimeout = 5 * time.Second

// Binding slots shared by every pipeline.
const (
	bindParams = iota
	bindGrid
	bindMask
	bindRegion
	bindSeedsIn
	bindSeedsOut
	bindPixels
	bindScratch
)

// FloodBackend runs region, seed, flood and composite on the GPU using
// wgpu/hal compute shaders. It implements outline.Backend.
type FloodBackend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shaders    [4]hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	dilate    hal.ComputePipeline
	initSeeds hal.ComputePipeline
	flood     hal.ComputePipeline
	composite hal.ComputePipeline

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

var _ outline.Backend = (*FloodBackend)(nil)

func (b *FloodBackend) Name() string { return "wgpu" }

// SetLogger implements the logger propagation hook of outline.SetLogger.
func (b *FloodBackend) SetLogger(l *slog.Logger) { setLogger(l) }

// Init validates the shaders and opens a Vulkan device. Unlike a frame-time
// failure, an Init failure is returned so the backend is never registered.
// Init on a ready backend keeps its device.
func (b *FloodBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gpuReady {
		return nil
	}
	if _, err := CompileShaders(); err != nil {
		return fmt.Errorf("gpu-jfa: %w", err)
	}
	if err := b.initGPU(); err != nil {
		b.releaseLocked()
		return fmt.Errorf("gpu-jfa: %w", err)
	}
	return nil
}

func (b *FloodBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseLocked()
}

func (b *FloodBackend) releaseLocked() {
	b.destroyPipelines()
	if !b.externalDevice {
		if b.device != nil {
			b.device.Destroy()
		}
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
	b.device = nil
	b.instance = nil
	b.queue = nil
	b.gpuReady = false
	b.externalDevice = false
}

// Ready reports whether the backend holds a device and pipelines.
func (b *FloodBackend) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gpuReady
}

// SetDeviceProvider switches the backend to a shared GPU device from an
// external provider. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (b *FloodBackend) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return errors.New("gpu-jfa: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return errors.New("gpu-jfa: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return errors.New("gpu-jfa: provider HalQueue is not hal.Queue")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseLocked()
	b.device = device
	b.queue = queue
	b.externalDevice = true

	if err := b.createPipelines(); err != nil {
		b.gpuReady = false
		return fmt.Errorf("gpu-jfa: create pipelines with shared device: %w", err)
	}
	b.gpuReady = true
	slogger().Info("gpu-jfa: switched to shared GPU device")
	return nil
}

// Flood implements outline.Backend.
func (b *FloodBackend) Flood(req *outline.FloodRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.gpuReady {
		return outline.ErrFallbackToCPU
	}
	w, h := req.Scene.Rect.Dx(), req.Scene.Rect.Dy()
	if w == 0 || h == 0 {
		return outline.ErrFallbackToCPU
	}
	if err := b.dispatch(req, uint32(w), uint32(h)); err != nil { //nolint:gosec // image dimensions fit uint32
		slogger().Warn("gpu-jfa: dispatch failed", "size", image.Pt(w, h), "err", err)
		return err
	}
	return nil
}

// frameBuffers holds the per-frame device buffers.
type frameBuffers struct {
	params, mask, region, scratch hal.Buffer
	seeds                         [2]hal.Buffer
	pixels, staging               hal.Buffer
	pixelSize, seedBufSize        uint64
}

// pass is one compute pass of the frame.
type pass struct {
	label    string
	pipeline hal.ComputePipeline
	grid     []byte
	seedIn   int // index into frameBuffers.seeds bound at bindSeedsIn
}

func (b *FloodBackend) dispatch(req *outline.FloodRequest, w, h uint32) error {
	bufs, err := b.createFrameBuffers(w, h)
	defer b.destroyFrameBuffers(bufs)
	if err != nil {
		return err
	}

	b.queue.WriteBuffer(bufs.params, 0, req.Uniforms.Bytes())
	b.queue.WriteBuffer(bufs.mask, 0, packMask(req.Mask, int(w), int(h)))
	b.queue.WriteBuffer(bufs.pixels, 0, packPixels(req.Scene, int(w), int(h)))

	passes := b.planPasses(req, w, h)
	uniformBufs, bindGroups, err := b.createPassBindings(passes, bufs)
	defer b.cleanupBindings(uniformBufs, bindGroups)
	if err != nil {
		return err
	}

	if err := b.encodeAndSubmit(passes, bindGroups, bufs, w, h); err != nil {
		return err
	}

	readback := make([]byte, bufs.pixelSize)
	if err := b.queue.ReadBuffer(bufs.staging, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	unpackPixels(readback, req.Dst, int(w), int(h))
	slogger().Debug("gpu-jfa: frame", "passes", len(passes), "size", image.Pt(int(w), int(h)))
	return nil
}

// Buffer selectors of the dilate shader.
const (
	selMask    = 0
	selRegion  = 1
	selScratch = 2
)

// gridParams is the Grid uniform. Field meaning at offsets 12..23 depends on
// the shader: init reads flag as use_region; dilate reads axis, flag as the
// source selector and dst as the destination selector.
type gridParams struct {
	width, height uint32
	step          int32
	axis          int32
	flag          uint32
	dst           uint32
}

func (g gridParams) bytes() []byte {
	b := make([]byte, gridSize)
	binary.LittleEndian.PutUint32(b[0:], g.width)
	binary.LittleEndian.PutUint32(b[4:], g.height)
	binary.LittleEndian.PutUint32(b[8:], uint32(g.step))  //nolint:gosec // two's complement i32
	binary.LittleEndian.PutUint32(b[12:], uint32(g.axis)) //nolint:gosec // two's complement i32
	binary.LittleEndian.PutUint32(b[16:], g.flag)
	binary.LittleEndian.PutUint32(b[20:], g.dst)
	return b
}

// dilationSteps splits a Chebyshev radius into dilate steps. Each step is at
// most 2*reach+1 so the covered interval stays contiguous; the steps sum to
// radius exactly. Radius 0 is a single step 0 (copy with threshold).
func dilationSteps(radius int) []int {
	if radius <= 0 {
		return []int{0}
	}
	var steps []int
	for reach := 0; reach < radius; {
		s := min(2*reach+1, radius-reach)
		steps = append(steps, s)
		reach += s
	}
	return steps
}

// planDilation returns the row passes followed by the column passes. The
// first pass reads the mask; the others alternate between region and
// scratch so the last one writes region.
func (b *FloodBackend) planDilation(radius int, w, h uint32) []pass {
	steps := dilationSteps(radius)
	total := 2 * len(steps)
	passes := make([]pass, 0, total)
	src := uint32(selMask)
	for i := range total {
		dst := uint32(selScratch)
		if (total-1-i)%2 == 0 {
			dst = selRegion
		}
		g := gridParams{width: w, height: h, step: int32(steps[i%len(steps)]), flag: src, dst: dst} //nolint:gosec // radius <= outline.MaxMaxWidth
		if i >= len(steps) {
			g.axis = 1
		}
		passes = append(passes, pass{"dilate", b.dilate, g.bytes(), 0})
		src = dst
	}
	return passes
}

// planPasses lists the passes of one frame. init writes seed buffer 0;
// flood pass i reads buffer i%2 and writes the other one.
func (b *FloodBackend) planPasses(req *outline.FloodRequest, w, h uint32) []pass {
	grid := gridParams{width: w, height: h}
	var passes []pass
	if req.RegionMask {
		passes = b.planDilation(req.MaxWidth, w, h)
		grid.flag = 1
	}
	// A pass writes bindSeedsOut, which is buffer 1-seedIn.
	passes = append(passes, pass{"init", b.initSeeds, grid.bytes(), 1})
	grid.flag = 0
	for i, step := range req.Steps {
		g := grid
		g.step = int32(step) //nolint:gosec // step <= outline.MaxMaxWidth
		passes = append(passes, pass{"flood", b.flood, g.bytes(), i % 2})
	}
	passes = append(passes, pass{"composite", b.composite, grid.bytes(), len(req.Steps) % 2})
	return passes
}

func (b *FloodBackend) createFrameBuffers(w, h uint32) (*frameBuffers, error) {
	n := uint64(w) * uint64(h)
	bufs := &frameBuffers{pixelSize: n * 4, seedBufSize: n * seedSize}

	storage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	specs := []struct {
		dst   *hal.Buffer
		label string
		size  uint64
		usage gputypes.BufferUsage
	}{
		{&bufs.params, "jfa_params", uint64(jfa.UniformSize), gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst},
		{&bufs.mask, "jfa_mask", bufs.pixelSize, storage},
		{&bufs.region, "jfa_region", bufs.pixelSize, storage},
		{&bufs.scratch, "jfa_scratch", bufs.pixelSize, storage},
		{&bufs.seeds[0], "jfa_seeds_0", bufs.seedBufSize, storage},
		{&bufs.seeds[1], "jfa_seeds_1", bufs.seedBufSize, storage},
		{&bufs.pixels, "jfa_pixels", bufs.pixelSize, storage | gputypes.BufferUsageCopySrc},
		{&bufs.staging, "jfa_staging", bufs.pixelSize, gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst},
	}
	for _, s := range specs {
		buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{Label: s.label, Size: s.size, Usage: s.usage})
		if err != nil {
			return bufs, fmt.Errorf("create %s buffer: %w", s.label, err)
		}
		*s.dst = buf
	}
	return bufs, nil
}

func (b *FloodBackend) destroyFrameBuffers(bufs *frameBuffers) {
	if bufs == nil {
		return
	}
	for _, buf := range []hal.Buffer{
		bufs.params, bufs.mask, bufs.region, bufs.scratch,
		bufs.seeds[0], bufs.seeds[1], bufs.pixels, bufs.staging,
	} {
		if buf != nil {
			b.device.DestroyBuffer(buf)
		}
	}
}

// createPassBindings creates one Grid uniform buffer and one bind group per
// pass. All bind groups share the frame buffers; only the seed pair order
// and the Grid contents differ.
func (b *FloodBackend) createPassBindings(passes []pass, bufs *frameBuffers) ([]hal.Buffer, []hal.BindGroup, error) {
	uniformBufs := make([]hal.Buffer, 0, len(passes))
	bindGroups := make([]hal.BindGroup, 0, len(passes))

	for i, p := range passes {
		ub, err := b.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "jfa_grid", Size: gridSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return uniformBufs, bindGroups, fmt.Errorf("create grid buffer %d: %w", i, err)
		}
		uniformBufs = append(uniformBufs, ub)
		b.queue.WriteBuffer(ub, 0, p.grid)

		seedIn, seedOut := bufs.seeds[p.seedIn], bufs.seeds[1-p.seedIn]
		bg, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label: "jfa_bind_" + p.label, Layout: b.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: bindParams, Resource: gputypes.BufferBinding{Buffer: bufs.params.NativeHandle(), Size: uint64(jfa.UniformSize)}},
				{Binding: bindGrid, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Size: gridSize}},
				{Binding: bindMask, Resource: gputypes.BufferBinding{Buffer: bufs.mask.NativeHandle(), Size: bufs.pixelSize}},
				{Binding: bindRegion, Resource: gputypes.BufferBinding{Buffer: bufs.region.NativeHandle(), Size: bufs.pixelSize}},
				{Binding: bindSeedsIn, Resource: gputypes.BufferBinding{Buffer: seedIn.NativeHandle(), Size: bufs.seedBufSize}},
				{Binding: bindSeedsOut, Resource: gputypes.BufferBinding{Buffer: seedOut.NativeHandle(), Size: bufs.seedBufSize}},
				{Binding: bindPixels, Resource: gputypes.BufferBinding{Buffer: bufs.pixels.NativeHandle(), Size: bufs.pixelSize}},
				{Binding: bindScratch, Resource: gputypes.BufferBinding{Buffer: bufs.scratch.NativeHandle(), Size: bufs.pixelSize}},
			},
		})
		if err != nil {
			return uniformBufs, bindGroups, fmt.Errorf("create bind group %s: %w", p.label, err)
		}
		bindGroups = append(bindGroups, bg)
	}
	return uniformBufs, bindGroups, nil
}

// cleanupBindings destroys uniform buffers and bind groups.
func (b *FloodBackend) cleanupBindings(uniformBufs []hal.Buffer, bindGroups []hal.BindGroup) {
	for _, bg := range bindGroups {
		if bg != nil {
			b.device.DestroyBindGroup(bg)
		}
	}
	for _, ub := range uniformBufs {
		if ub != nil {
			b.device.DestroyBuffer(ub)
		}
	}
}

// encodeAndSubmit records every pass into one command encoder, copies the
// pixel buffer to staging and waits for the fence.
func (b *FloodBackend) encodeAndSubmit(passes []pass, bindGroups []hal.BindGroup, bufs *frameBuffers, w, h uint32) error {
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "jfa_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("jfa_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	for i, p := range passes {
		cp := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "jfa_" + p.label})
		cp.SetPipeline(p.pipeline)
		cp.SetBindGroup(0, bindGroups[i], nil)
		cp.Dispatch((w+7)/8, (h+7)/8, 1)
		cp.End()
	}

	encoder.CopyBufferToBuffer(bufs.pixels, bufs.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: bufs.pixelSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)
	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

func (b *FloodBackend) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	b.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return errors.New("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	b.device = openDev.Device
	b.queue = openDev.Queue
	if err := b.createPipelines(); err != nil {
		return fmt.Errorf("create pipelines: %w", err)
	}
	b.gpuReady = true
	slogger().Info("gpu-jfa: GPU backend initialized", "adapter", selected.Info.Name)
	return nil
}

func (b *FloodBackend) createPipelines() error {
	for i, s := range shaderSources() {
		module, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  s.name,
			Source: hal.ShaderSource{WGSL: s.source},
		})
		if err != nil {
			return fmt.Errorf("compile %s shader: %w", s.name, err)
		}
		b.shaders[i] = module
	}

	compute := gputypes.ShaderStageCompute
	uniform := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	readOnly := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	readWrite := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}

	bindLayout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "jfa_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: bindParams, Visibility: compute, Buffer: uniform},
			{Binding: bindGrid, Visibility: compute, Buffer: uniform},
			{Binding: bindMask, Visibility: compute, Buffer: readOnly},
			{Binding: bindRegion, Visibility: compute, Buffer: readWrite},
			{Binding: bindSeedsIn, Visibility: compute, Buffer: readOnly},
			{Binding: bindSeedsOut, Visibility: compute, Buffer: readWrite},
			{Binding: bindPixels, Visibility: compute, Buffer: readWrite},
			{Binding: bindScratch, Visibility: compute, Buffer: readWrite},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	b.bindLayout = bindLayout

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "jfa_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{b.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	b.pipeLayout = pipeLayout

	specs := []struct {
		dst    *hal.ComputePipeline
		label  string
		module hal.ShaderModule
		entry  string
	}{
		{&b.dilate, "jfa_dilate", b.shaders[0], "dilate"},
		{&b.initSeeds, "jfa_init", b.shaders[1], "main"},
		{&b.flood, "jfa_flood", b.shaders[2], "main"},
		{&b.composite, "jfa_composite", b.shaders[3], "main"},
	}
	for _, s := range specs {
		pipeline, err := b.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label: s.label, Layout: b.pipeLayout,
			Compute: hal.ComputeState{Module: s.module, EntryPoint: s.entry},
		})
		if err != nil {
			return fmt.Errorf("create %s pipeline: %w", s.label, err)
		}
		*s.dst = pipeline
	}
	return nil
}

func (b *FloodBackend) destroyPipelines() {
	if b.device == nil {
		return
	}
	for _, p := range []*hal.ComputePipeline{&b.dilate, &b.initSeeds, &b.flood, &b.composite} {
		if *p != nil {
			b.device.DestroyComputePipeline(*p)
			*p = nil
		}
	}
	if b.pipeLayout != nil {
		b.device.DestroyPipelineLayout(b.pipeLayout)
		b.pipeLayout = nil
	}
	if b.bindLayout != nil {
		b.device.DestroyBindGroupLayout(b.bindLayout)
		b.bindLayout = nil
	}
	for i, s := range b.shaders {
		if s != nil {
			b.device.DestroyShaderModule(s)
			b.shaders[i] = nil
		}
	}
}
