package em

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Responsibilities converts an N×K matrix of per-sample log-scores and a
// length-K mixing-weight vector into an N×K responsibility matrix whose rows
// sum to 1. Pure function.
//
// Each row is normalized in log space: the row maximum of score+log(tau) is
// subtracted before exponentiation, so finite inputs cannot overflow and at
// least one entry of every row exponentiates to exactly 1.
func Responsibilities(scores *mat.Dense, tau []float64) (*mat.Dense, error) {
	n, k := scores.Dims()
	if len(tau) != k {
		return nil, fmt.Errorf("%w: %d mixing weights for %d clusters", ErrDimension, len(tau), k)
	}
	logTau := make([]float64, k)
	for j, t := range tau {
		logTau[j] = math.Log(t)
	}

	resp := mat.NewDense(n, k, nil)
	w := make([]float64, k)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			w[j] = scores.At(i, j) + logTau[j]
		}
		lse := floats.LogSumExp(w)
		if math.IsInf(lse, -1) || math.IsNaN(lse) {
			return nil, fmt.Errorf("%w: sample %d", ErrNumericDegeneracy, i)
		}
		for j := 0; j < k; j++ {
			resp.Set(i, j, math.Exp(w[j]-lse))
		}
	}
	return resp, nil
}

// MixingWeights estimates tau from the column sums of a responsibility
// matrix plus the chi pseudo-count, normalized to sum to 1.
func MixingWeights(resp *mat.Dense, chi float64) []float64 {
	n, k := resp.Dims()
	tau := make([]float64, k)
	for j := 0; j < k; j++ {
		sum := chi
		for i := 0; i < n; i++ {
			sum += resp.At(i, j)
		}
		tau[j] = sum
	}
	total := floats.Sum(tau)
	for j := range tau {
		tau[j] /= total
	}
	return tau
}

// HardAssignments maps each sample to its highest-responsibility cluster.
// Ties resolve to the lowest cluster index.
func HardAssignments(resp *mat.Dense) []int {
	n, k := resp.Dims()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		best, arg := resp.At(i, 0), 0
		for j := 1; j < k; j++ {
			if v := resp.At(i, j); v > best {
				best, arg = v, j
			}
		}
		out[i] = arg
	}
	return out
}
