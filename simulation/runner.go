package simulation

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// ChunkSize is the number of consecutive simulations sharing one substream.
// Fixing it keeps results independent of the worker count.
const ChunkSize = 64

// Runner fans simulation indices out over a bounded set of workers
type Runner struct {
	Seed    uint64
	Workers int
}

func NewRunner(seed uint64, workers int) Runner {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return Runner{Seed: seed, Workers: workers}
}

// DefaultWorkers is the host's logical core count.
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Run calls fn once for every simulation index in [0, n). Each chunk of
// ChunkSize indices gets its own substream, so fn must only write to the
// output slot of its own index.
func (r Runner) Run(ctx context.Context, n int, fn func(rng *rand.Rand, sim int) error) error {
	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for chunk := 0; chunk*ChunkSize < n; chunk++ {
		chunk := chunk
		g.Go(func() error {
			rng := Substream(r.Seed, chunk)
			end := (chunk + 1) * ChunkSize
			if end > n {
				end = n
			}
			for sim := chunk * ChunkSize; sim < end; sim++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(rng, sim); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
