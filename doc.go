// Package outline draws screen-space outlines around tagged 3D objects.
//
// # Overview
//
// An outline is a band of constant pixel width drawn around the silhouette of
// every object carrying an outline tag. The band is computed from a distance
// field built with the Jump Flood Algorithm (JFA), so its cost depends on the
// maximum width, not on scene complexity.
//
// # Quick Start
//
//	import "github.com/gogpu/outline"
//
//	p, err := outline.New(800, 600)
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	out, err := p.Render(ctx, outline.Frame{
//		Scene:   sceneImage,          // *image.RGBA, already shaded by the host
//		Objects: objects,             // scene.Set; tagged objects get outlines
//		Camera:  camera,
//	})
//
// # Passes
//
// Every frame runs, in order:
//   - silhouette: tagged objects are rasterized into a coverage mask
//   - region (optional): separable dilation bounding the pixels of interest
//   - seed: covered pixels store their own coordinate, others a sentinel
//   - flood: ceil(log2(MaxWidth))+1 jump flood passes over a ping-pong pair
//   - composite: the outline color is blended into the scene by distance
//
// Passes are data parallel inside and fully ordered between each other.
// WithAnalytic replaces seed, flood and composite with a single sampling pass.
//
// # GPU
//
// The CPU executor is always available. Importing the gpu package registers a
// wgpu/hal backend that runs the same passes as compute shaders:
//
//	import _ "github.com/gogpu/outline/gpu"
//
// Runtime GPU failures fall back to the CPU executor for that frame.
//
// # Coordinate System
//
// Images have their origin at the top-left, X increases right and Y down.
// The scene image and the camera viewport must have the same size.
package outline

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"
)
