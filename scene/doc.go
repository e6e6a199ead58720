// Package scene describes the host-side inputs of the outline pipeline:
// triangle meshes, their world transforms, the camera they are viewed
// through and the per-object outline tag.
//
// The types are deliberately small. A host engine with its own scene graph
// converts its renderable set into a Set each frame; nothing here is retained
// by the pipeline across frames.
//
// # Coordinate System
//
// World space is right-handed with +Y up. Cameras look down -Z in view space.
// Projected pixel coordinates have their origin at the top-left corner of the
// viewport with Y increasing down, matching image.Image.
package scene
