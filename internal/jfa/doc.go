// Package jfa implements the per-pixel passes of the outline pipeline on the
// CPU: region dilation, seed initialization, jump flood propagation and
// distance compositing.
//
// Every pass is a pure transform from input images to an output image that
// never aliases an input buffer the same pass reads at other pixels. Passes
// are split into tiles and dispatched on a parallel.WorkerPool; the return of
// each pass is a full barrier, so pass i+1 always observes the complete
// output of pass i.
//
// All images must have their origin at (0, 0).
package jfa
