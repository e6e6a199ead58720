package jfa

import "github.com/gogpu/outline/internal/parallel"

type tile = parallel.Tile

// Executor runs passes over a fixed-size image.
type Executor struct {
	pool *parallel.WorkerPool
	grid *parallel.TileGrid
}

// NewExecutor returns an executor for a width x height image.
// A nil pool runs every tile on the calling goroutine.
func NewExecutor(pool *parallel.WorkerPool, width, height int) *Executor {
	return &Executor{
		pool: pool,
		grid: parallel.NewTileGrid(width, height),
	}
}

// Width returns the image width the executor was created for.
func (e *Executor) Width() int { return e.grid.Width() }

// Height returns the image height the executor was created for.
func (e *Executor) Height() int { return e.grid.Height() }

// run executes fn for every tile and returns after the last one finished.
func (e *Executor) run(fn func(tile)) {
	tiles := e.grid.Tiles()
	if e.pool == nil {
		for _, t := range tiles {
			fn(t)
		}
		return
	}
	e.pool.Dispatch(tiles, fn)
}
