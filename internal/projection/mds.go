// Package projection reduces the pairwise sample dissimilarities to 2-D
// coordinates for visualization using classical (Torgerson) multidimensional
// scaling.
package projection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point2D is one sample placed in the plane.
type Point2D struct {
	X, Y float64
}

// MDS2D embeds an N×N symmetric dissimilarity matrix into two dimensions.
//
// Classical MDS double-centers the squared dissimilarities,
// B = -0.5 · J · D² · J with J = I - 11ᵀ/n, and embeds on the two leading
// eigenpairs of B. Negative eigenvalues (the dissimilarities need not be
// Euclidean) clamp their axis to zero.
func MDS2D(d *mat.SymDense) ([]Point2D, error) {
	n := d.SymmetricDim()
	if n < 2 {
		return nil, fmt.Errorf("projection: need at least 2 samples, got %d", n)
	}

	// Double-centered squared dissimilarities.
	sq := make([]float64, n*n)
	rowMeans := make([]float64, n)
	grand := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := d.At(i, j)
			v *= v
			sq[i*n+j] = v
			rowMeans[i] += v
			grand += v
		}
	}
	for i := range rowMeans {
		rowMeans[i] /= float64(n)
	}
	grand /= float64(n * n)

	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, -0.5*(sq[i*n+j]-rowMeans[i]-rowMeans[j]+grand))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(b, true); !ok {
		return nil, fmt.Errorf("projection: eigendecomposition failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// gonum returns eigenvalues in ascending order; the two leading
	// components sit at the end.
	axes := [2]int{n - 1, n - 2}
	points := make([]Point2D, n)
	for a, idx := range axes {
		lambda := vals[idx]
		if lambda <= 0 {
			continue
		}
		scale := math.Sqrt(lambda)
		for i := 0; i < n; i++ {
			coord := vecs.At(i, idx) * scale
			if a == 0 {
				points[i].X = coord
			} else {
				points[i].Y = coord
			}
		}
	}
	return points, nil
}
