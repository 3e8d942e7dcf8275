package evaluation

import "math"

// Partition-agreement diagnostics between the discovered subtype assignment
// (after label permutation) and the generating group labels. These complement
// the raw correct-sample count: ARI exposes cluster collapse that per-sample
// accuracy can hide, and VI gives an information-theoretic distance.

// contingency builds the joint count table of two label vectors along with
// its row and column marginals. Labels are remapped to dense indices in
// first-appearance order.
func contingency(a, b []int) (nij [][]int, rowSums, colSums []int) {
	aIdx := make(map[int]int)
	bIdx := make(map[int]int)
	for _, l := range a {
		if _, ok := aIdx[l]; !ok {
			aIdx[l] = len(aIdx)
		}
	}
	for _, l := range b {
		if _, ok := bIdx[l]; !ok {
			bIdx[l] = len(bIdx)
		}
	}

	nij = make([][]int, len(aIdx))
	for i := range nij {
		nij[i] = make([]int, len(bIdx))
	}
	for s := range a {
		nij[aIdx[a[s]]][bIdx[b[s]]]++
	}

	rowSums = make([]int, len(aIdx))
	colSums = make([]int, len(bIdx))
	for i := range nij {
		for j := range nij[i] {
			rowSums[i] += nij[i][j]
			colSums[j] += nij[i][j]
		}
	}
	return nij, rowSums, colSums
}

// AdjustedRandIndex computes the ARI between a discovered assignment and the
// true group labels:
//
//	ARI = (RI - Expected_RI) / (Max_RI - Expected_RI)
//
// Ranges from -1 (worse than chance) to 1 (identical partitions); 0 means
// chance-level agreement.
func AdjustedRandIndex(discovered, truth []int) float64 {
	n := len(discovered)
	if n != len(truth) || n < 2 {
		return 0.0
	}

	nij, rowSums, colSums := contingency(discovered, truth)

	sumNijC2 := 0.0
	for i := range nij {
		for j := range nij[i] {
			sumNijC2 += comb2(nij[i][j])
		}
	}
	sumAiC2 := 0.0
	for _, a := range rowSums {
		sumAiC2 += comb2(a)
	}
	sumBjC2 := 0.0
	for _, b := range colSums {
		sumBjC2 += comb2(b)
	}

	nC2 := comb2(n)
	if nC2 == 0 {
		return 0.0
	}
	expected := (sumAiC2 * sumBjC2) / nC2
	maxIndex := 0.5 * (sumAiC2 + sumBjC2)
	denom := maxIndex - expected
	if math.Abs(denom) < 1e-12 {
		return 1.0
	}
	return (sumNijC2 - expected) / denom
}

// VariationOfInformation computes the VI distance between the discovered
// assignment and the true labels, VI = H(C|C') + H(C'|C) in bits. Lower is
// better; 0 means identical partitions.
func VariationOfInformation(discovered, truth []int) float64 {
	n := len(discovered)
	if n != len(truth) || n < 2 {
		return 0.0
	}

	nij, rowSums, colSums := contingency(discovered, truth)
	nf := float64(n)

	var hAB, hBA float64
	for i := range nij {
		for j := range nij[i] {
			c := nij[i][j]
			if c == 0 {
				continue
			}
			pij := float64(c) / nf
			if colSums[j] > 0 {
				hAB -= pij * math.Log2(float64(c)/float64(colSums[j]))
			}
			if rowSums[i] > 0 {
				hBA -= pij * math.Log2(float64(c)/float64(rowSums[i]))
			}
		}
	}
	return hAB + hBA
}

// comb2 computes C(n,2).
func comb2(n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(n) * float64(n-1) / 2.0
}
