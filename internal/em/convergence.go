package em

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SquaredDiff returns the sum of squared element-wise differences between
// two successive responsibility matrices. Zero exactly when they are equal.
func SquaredDiff(prev, cur *mat.Dense) float64 {
	n, k := prev.Dims()
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			d := cur.At(i, j) - prev.At(i, j)
			total += d * d
		}
	}
	return total
}

// LogLikelihood computes the total data log-likelihood
// sum_i log( sum_k exp(score[i,k]) * tau[k] ) with the same log-sum-exp
// stabilization as the responsibility engine.
func LogLikelihood(scores *mat.Dense, tau []float64) float64 {
	n, k := scores.Dims()
	logTau := make([]float64, k)
	for j, t := range tau {
		logTau[j] = math.Log(t)
	}
	w := make([]float64, k)
	ll := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			w[j] = scores.At(i, j) + logTau[j]
		}
		ll += floats.LogSumExp(w)
	}
	return ll
}
