// Package labelmatch aligns discovered cluster indices with ground-truth
// group labels. Mixture components carry no canonical order, so evaluation
// first needs the permutation maximizing total overlap, an instance of the
// assignment problem, solved here with the O(k³) Hungarian algorithm.
package labelmatch

import (
	"fmt"
	"math"
)

// Match finds the permutation of the k discovered cluster labels onto the
// ground-truth group labels that maximizes the number of correctly labelled
// samples. perm[c] is the true group assigned to discovered cluster c;
// correct is the resulting count of matching samples.
//
// Deterministic: equal-overlap optima resolve to the permutation the
// fixed-order Hungarian sweep reaches first, so identical inputs always
// produce identical output.
func Match(assigned, truth []int, k int) (perm []int, correct int, err error) {
	if len(assigned) != len(truth) {
		return nil, 0, fmt.Errorf("labelmatch: %d assignments for %d truth labels", len(assigned), len(truth))
	}
	if k <= 0 {
		return nil, 0, fmt.Errorf("labelmatch: invalid cluster count %d", k)
	}

	// Square overlap matrix, padded when the true group count differs from k.
	dim := k
	for _, g := range truth {
		if g < 0 {
			return nil, 0, fmt.Errorf("labelmatch: negative truth label %d", g)
		}
		if g+1 > dim {
			dim = g + 1
		}
	}
	for _, c := range assigned {
		if c < 0 || c >= k {
			return nil, 0, fmt.Errorf("labelmatch: assignment %d outside [0,%d)", c, k)
		}
	}

	overlap := make([][]int, dim)
	for i := range overlap {
		overlap[i] = make([]int, dim)
	}
	for i, c := range assigned {
		overlap[c][truth[i]]++
	}

	// Hungarian minimizes, so feed it negated overlaps.
	cost := make([][]int, dim)
	for i := range cost {
		cost[i] = make([]int, dim)
		for j := range cost[i] {
			cost[i][j] = -overlap[i][j]
		}
	}

	full := solveAssignment(cost)
	perm = full[:k]
	for c := 0; c < k; c++ {
		correct += overlap[c][perm[c]]
	}
	return perm, correct, nil
}

// solveAssignment returns the minimum-cost row→column assignment of a square
// cost matrix using the Hungarian algorithm with row/column potentials.
func solveAssignment(cost [][]int) []int {
	n := len(cost)
	const inf = math.MaxInt / 2

	// 1-based working arrays; p[j] is the row matched to column j.
	u := make([]int, n+1)
	v := make([]int, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]int, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}
		for {
			used[j0] = true
			i0, delta, j1 := p[j0], inf, 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		// Augment along the found path.
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	result := make([]int, n)
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			result[p[j]-1] = j - 1
		}
	}
	return result
}
