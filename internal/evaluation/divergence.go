package evaluation

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ScoreDistributions turns an N×K log-score matrix into per-sample
// probability distributions over the clusters. Each row is normalized with
// the same log-sum-exp stabilization the responsibility engine uses, just
// without the mixing-weight prior.
func ScoreDistributions(scores *mat.Dense) *mat.Dense {
	n, k := scores.Dims()
	out := mat.NewDense(n, k, nil)
	w := make([]float64, k)
	for i := 0; i < n; i++ {
		mat.Row(w, i, scores)
		lse := floats.LogSumExp(w)
		for j := 0; j < k; j++ {
			out.Set(i, j, math.Exp(w[j]-lse))
		}
	}
	return out
}

// JensenShannon computes the Jensen–Shannon divergence between two discrete
// distributions of equal length:
//
//	JS(P,Q) = 0.5·Σ P·log(P/M) + 0.5·Σ Q·log(Q/M),  M = (P+Q)/2
//
// Symmetric, non-negative, and zero exactly when P equals Q. Zero-probability
// entries contribute nothing.
func JensenShannon(p, q []float64) float64 {
	js := 0.0
	for i := range p {
		m := 0.5 * (p[i] + q[i])
		if p[i] > 0 {
			js += 0.5 * p[i] * math.Log(p[i]/m)
		}
		if q[i] > 0 {
			js += 0.5 * q[i] * math.Log(q[i]/m)
		}
	}
	if js < 0 {
		// Floating rounding can push an identical pair a hair below zero.
		return 0
	}
	return js
}

// DissimilarityMatrix builds the N×N symmetric matrix of Jensen–Shannon
// divergences between the samples' cluster-score distributions. It feeds the
// multidimensional-scaling projection.
func DissimilarityMatrix(scores *mat.Dense) *mat.SymDense {
	dist := ScoreDistributions(scores)
	n, k := dist.Dims()
	d := mat.NewSymDense(n, nil)
	pi := make([]float64, k)
	pj := make([]float64, k)
	for i := 0; i < n; i++ {
		mat.Row(pi, i, dist)
		for j := i + 1; j < n; j++ {
			mat.Row(pj, j, dist)
			d.SetSym(i, j, JensenShannon(pi, pj))
		}
	}
	return d
}
