//go:build !nogpu

// Package gpu runs the outline passes as WGSL compute shaders on wgpu/hal.
//
// Every frame is one command encoder holding one compute pass per stage:
//
//	dilate (rows) x K -> dilate (columns) x K -> init -> flood x N -> composite
//
// Shaders contain no loops. The dilation radius is split into K steps on the
// host and every step is its own pass, the same way the flood runs one pass
// per jump distance.
//
// Compute passes in one encoder are separated by implicit storage buffer
// barriers, which gives the full barrier the flood needs between steps. The
// two seed buffers are bound in alternating order so that no pass writes the
// buffer it reads. After the composite the pixel buffer is copied to a
// staging buffer and read back after a fence wait.
//
// The shader sources are embedded and validated with naga when the backend
// is initialized; a source that does not compile keeps the backend from
// registering.
package gpu
