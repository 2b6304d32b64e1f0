package stats

import (
	"github.com/bcdannyboy/varisk/models"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Covariance is the sample covariance of a and b.
//
// Series of different length are cut to their common newest prefix: with
// newest-first ordering a[:m] and b[:m] cover the same most recent m days.
// Deeper history in the longer series is ignored, which biases the estimate
// toward the recent window when depths differ.
func Covariance(a, b []float64) (float64, error) {
	m := len(a)
	if len(b) < m {
		m = len(b)
	}
	if m < 2 {
		return 0, models.InvalidInput("length", m, "covariance needs at least two overlapping returns")
	}
	return stat.Covariance(a[:m], b[:m], nil), nil
}

// CovarianceMatrix builds the symmetric covariance matrix of the given return series.
func CovarianceMatrix(series [][]float64) (*mat.SymDense, error) {
	n := len(series)
	if n == 0 {
		return nil, models.InvalidInput("series", 0, "no return series")
	}
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c, err := Covariance(series[i], series[j])
			if err != nil {
				return nil, err
			}
			cov.SetSym(i, j, c)
		}
	}
	return cov, nil
}

// maxCondition bounds the condition number of a usable covariance factor.
// Collinear series can factorize on a rounding-positive pivot.
const maxCondition = 1e12

// CholeskyLower returns L with L·Lᵀ = m.
func CholeskyLower(m mat.Symmetric) (*mat.TriDense, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(m); !ok || chol.Cond() > maxCondition {
		return nil, models.NotPositiveDefinite(m.SymmetricDim())
	}
	var l mat.TriDense
	chol.LTo(&l)
	return &l, nil
}

// PortfolioVariance computes vᵀΣv.
func PortfolioVariance(cov mat.Symmetric, weights []float64) float64 {
	v := mat.NewVecDense(len(weights), weights)
	return mat.Inner(v, cov, v)
}
