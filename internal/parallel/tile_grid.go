package parallel

// TileGrid divides a width x height image into tiles. Edge tiles are
// smaller when the image is not evenly divisible by the tile size.
//
// A TileGrid is immutable after creation and safe for concurrent reads.
type TileGrid struct {
	tiles  []Tile
	width  int
	height int
}

// NewTileGrid creates a grid covering a width x height image.
// Non-positive dimensions yield an empty grid.
func NewTileGrid(width, height int) *TileGrid {
	if width <= 0 || height <= 0 {
		return &TileGrid{}
	}

	tilesX := (width + TileWidth - 1) / TileWidth
	tilesY := (height + TileHeight - 1) / TileHeight

	g := &TileGrid{
		tiles:  make([]Tile, 0, tilesX*tilesY),
		width:  width,
		height: height,
	}

	for ty := range tilesY {
		for tx := range tilesX {
			g.tiles = append(g.tiles, Tile{
				X0: tx * TileWidth,
				Y0: ty * TileHeight,
				X1: min((tx+1)*TileWidth, width),
				Y1: min((ty+1)*TileHeight, height),
			})
		}
	}

	return g
}

// Tiles returns the tiles in row-major order.
// The returned slice must not be modified.
func (g *TileGrid) Tiles() []Tile {
	return g.tiles
}

// Width returns the image width in pixels.
func (g *TileGrid) Width() int { return g.width }

// Height returns the image height in pixels.
func (g *TileGrid) Height() int { return g.height }
