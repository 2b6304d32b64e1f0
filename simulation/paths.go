package simulation

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// PricePath fills path with one simulated walk of len(path) days from start,
// using S[t] = S[t-1] + vol·Z·S[t-1].
func PricePath(rng *rand.Rand, start, vol float64, path []float64) {
	prev := start
	for day := range path {
		prev = prev + vol*rng.NormFloat64()*prev
		path[day] = prev
	}
}

// CorrelatedDraw writes L·z into out for a fresh standard-normal vector z.
func CorrelatedDraw(rng *rand.Rand, l mat.Matrix, z, out *mat.VecDense) {
	for i := 0; i < z.Len(); i++ {
		z.SetVec(i, rng.NormFloat64())
	}
	out.MulVec(l, z)
}
