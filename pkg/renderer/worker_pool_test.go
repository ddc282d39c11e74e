package renderer

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_VisitsEveryTile(t *testing.T) {
	tiles := NewTileGrid(40, 40, 8)
	visits := make([]int32, len(tiles))

	pool := NewWorkerPool(3)
	err := pool.Run(context.Background(), tiles, func(ctx context.Context, tile *Tile) error {
		atomic.AddInt32(&visits[tile.ID], 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for id, n := range visits {
		if n != 1 {
			t.Errorf("Tile %d visited %d times", id, n)
		}
	}
}

func TestWorkerPool_DefaultWorkers(t *testing.T) {
	if got := NewWorkerPool(0).GetNumWorkers(); got != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), got)
	}
	if got := NewWorkerPool(5).GetNumWorkers(); got != 5 {
		t.Errorf("Expected 5 workers, got %d", got)
	}
}

func TestWorkerPool_PropagatesError(t *testing.T) {
	tiles := NewTileGrid(32, 32, 8)
	boom := errors.New("boom")

	err := NewWorkerPool(2).Run(context.Background(), tiles, func(ctx context.Context, tile *Tile) error {
		if tile.ID == 3 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped tile error, got %v", err)
	}
}

func TestWorkerPool_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := NewWorkerPool(2).Run(ctx, NewTileGrid(32, 32, 8), func(ctx context.Context, tile *Tile) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no tiles to run after cancellation, got %d", calls)
	}
}
