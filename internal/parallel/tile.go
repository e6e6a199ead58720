// Package parallel provides the tile-based dispatch used by every outline pass.
//
// A pass over an image is split into 64x64 pixel tiles (the CPU equivalent of
// a compute workgroup). Tiles of one pass are independent; passes are ordered
// by WorkerPool.ExecuteAll, which returns only after every tile has finished.
package parallel

// Tile size constants, matching the 8x8 workgroups of the GPU shaders
// multiplied out to a cache-friendly block.
const (
	// TileWidth is the width of a tile in pixels.
	TileWidth = 64

	// TileHeight is the height of a tile in pixels.
	TileHeight = 64
)

// Tile is a rectangular block of pixels [X0, X1) x [Y0, Y1) in image space.
type Tile struct {
	X0, Y0 int
	X1, Y1 int
}
