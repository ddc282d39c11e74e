package renderer

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// TileFunc processes one tile. Tiles have disjoint bounds, so a TileFunc may write
// any per-pixel slot inside its tile without locking.
type TileFunc func(ctx context.Context, tile *Tile) error

// WorkerPool dispatches tiles to a bounded number of goroutines
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Run calls fn for every tile and waits for all of them. The first error cancels the
// tiles that have not started yet. Cancelling ctx stops dispatch between tiles.
func (wp *WorkerPool) Run(ctx context.Context, tiles []*Tile, fn TileFunc) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(wp.numWorkers)

	for _, tile := range tiles {
		if egCtx.Err() != nil {
			break
		}

		tile := tile
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if err := fn(egCtx, tile); err != nil {
				return fmt.Errorf("while processing tile id=%d: %w", tile.ID, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	// A cancellation that raced the last tile still aborts the pass
	return ctx.Err()
}
