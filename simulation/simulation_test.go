package simulation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func draws(t *testing.T, r Runner, n int) []float64 {
	out := make([]float64, n)
	err := r.Run(context.Background(), n, func(rng *rand.Rand, sim int) error {
		out[sim] = rng.NormFloat64()
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestRunnerDeterministicAcrossWorkerCounts(t *testing.T) {
	one := draws(t, NewRunner(42, 1), 1000)
	many := draws(t, NewRunner(42, 8), 1000)
	assert.Equal(t, one, many)

	other := draws(t, NewRunner(43, 8), 1000)
	assert.NotEqual(t, one, other)
}

func TestRunnerStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	err := NewRunner(1, 4).Run(context.Background(), 500, func(_ *rand.Rand, sim int) error {
		if sim == 200 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunnerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewRunner(1, 2).Run(ctx, 100, func(_ *rand.Rand, _ int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPricePath(t *testing.T) {
	path := make([]float64, 10)
	PricePath(NewRand(7), 100, 0, path)
	for _, p := range path {
		assert.Equal(t, 100.0, p)
	}

	PricePath(NewRand(7), 100, 0.02, path)
	assert.NotEqual(t, 100.0, path[9])
}

func TestCorrelatedDrawReproducesCovariance(t *testing.T) {
	l := mat.NewTriDense(2, mat.Lower, []float64{
		1, 0,
		0.8, 0.6,
	})
	rng := NewRand(11)
	z := mat.NewVecDense(2, nil)
	out := mat.NewVecDense(2, nil)

	const n = 20000
	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		CorrelatedDraw(rng, l, z, out)
		a[i], b[i] = out.AtVec(0), out.AtVec(1)
	}
	assert.InDelta(t, 0.8, stat.Covariance(a, b, nil), 0.05)
	assert.InDelta(t, 1.0, stat.Variance(b, nil), 0.05)
}

func TestDefaultWorkers(t *testing.T) {
	assert.Positive(t, DefaultWorkers())
	assert.Equal(t, DefaultWorkers(), NewRunner(1, 0).Workers)
	assert.Equal(t, 3, NewRunner(1, 3).Workers)
}
