package evaluation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/xhyuo/pancancer-clustering/internal/bayesnet"
)

const epsilon = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestJensenShannon(t *testing.T) {
	uniform := []float64{0.25, 0.25, 0.25, 0.25}
	peaked := []float64{0.97, 0.01, 0.01, 0.01}

	if js := JensenShannon(uniform, uniform); !floatEquals(js, 0) {
		t.Fatalf("JS(p,p) = %v, want 0", js)
	}
	ab := JensenShannon(uniform, peaked)
	ba := JensenShannon(peaked, uniform)
	if !floatEquals(ab, ba) {
		t.Fatalf("JS not symmetric: %v vs %v", ab, ba)
	}
	if ab <= 0 {
		t.Fatalf("JS of distinct distributions = %v, want > 0", ab)
	}
	// Bounded above by log 2.
	disjointA := []float64{1, 0}
	disjointB := []float64{0, 1}
	if js := JensenShannon(disjointA, disjointB); !floatEquals(js, math.Log(2)) {
		t.Fatalf("JS of disjoint supports = %v, want log 2", js)
	}
}

func TestScoreDistributionsRowsNormalize(t *testing.T) {
	scores := mat.NewDense(3, 2, []float64{
		-10, -12,
		-800, -801,
		-5, -5,
	})
	dist := ScoreDistributions(scores)
	n, k := dist.Dims()
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < k; j++ {
			sum += dist.At(i, j)
		}
		if !floatEquals(sum, 1) {
			t.Fatalf("row %d sums to %v", i, sum)
		}
	}
	// Equal scores mean equal probabilities.
	if !floatEquals(dist.At(2, 0), 0.5) {
		t.Fatalf("equal-score row split %v/%v", dist.At(2, 0), dist.At(2, 1))
	}
}

func TestDissimilarityMatrix(t *testing.T) {
	scores := mat.NewDense(3, 2, []float64{
		-1, -10,
		-1, -10, // identical profile to sample 0
		-10, -1,
	})
	d := DissimilarityMatrix(scores)
	if d.SymmetricDim() != 3 {
		t.Fatalf("dim = %d, want 3", d.SymmetricDim())
	}
	for i := 0; i < 3; i++ {
		if d.At(i, i) != 0 {
			t.Fatalf("diagonal entry (%d,%d) = %v", i, i, d.At(i, i))
		}
	}
	if !floatEquals(d.At(0, 1), 0) {
		t.Fatalf("identical samples at distance %v", d.At(0, 1))
	}
	if d.At(0, 2) <= 0 {
		t.Fatalf("opposed samples at distance %v, want > 0", d.At(0, 2))
	}
	if !floatEquals(d.At(0, 2), d.At(2, 0)) {
		t.Fatal("matrix not symmetric")
	}
}

func TestAdjustedRandIndex(t *testing.T) {
	cases := []struct {
		name       string
		discovered []int
		truth      []int
		want       float64
		approx     bool
	}{
		{
			name:       "identical partitions",
			discovered: []int{0, 0, 1, 1, 2, 2},
			truth:      []int{0, 0, 1, 1, 2, 2},
			want:       1.0,
		},
		{
			name:       "relabelled partitions",
			discovered: []int{1, 1, 2, 2, 0, 0},
			truth:      []int{0, 0, 1, 1, 2, 2},
			want:       1.0,
		},
		{
			name:       "single cluster vs split",
			discovered: []int{0, 0, 0, 0},
			truth:      []int{0, 0, 1, 1},
			want:       0.0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AdjustedRandIndex(tc.discovered, tc.truth)
			if !floatEquals(got, tc.want) {
				t.Fatalf("ARI = %v, want %v", got, tc.want)
			}
		})
	}

	// Degenerate inputs return 0 rather than panicking.
	if got := AdjustedRandIndex([]int{0}, []int{0, 1}); got != 0 {
		t.Fatalf("length mismatch ARI = %v, want 0", got)
	}
}

func TestVariationOfInformation(t *testing.T) {
	identical := []int{0, 0, 1, 1}
	if vi := VariationOfInformation(identical, identical); !floatEquals(vi, 0) {
		t.Fatalf("VI of identical partitions = %v, want 0", vi)
	}

	// Relabelling leaves the partition, and hence VI, unchanged.
	relabel := []int{1, 1, 0, 0}
	if vi := VariationOfInformation(relabel, identical); !floatEquals(vi, 0) {
		t.Fatalf("VI of relabelled partition = %v, want 0", vi)
	}

	// One partition refines the other: VI equals the conditional entropy,
	// here 1 bit.
	coarse := []int{0, 0, 0, 0}
	fine := []int{0, 0, 1, 1}
	if vi := VariationOfInformation(coarse, fine); !floatEquals(vi, 1.0) {
		t.Fatalf("VI of 2-way refinement = %v, want 1", vi)
	}
}

func TestCompareStructures(t *testing.T) {
	truth := bayesnet.NewStructure(4)
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 3}} {
		if err := truth.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}

	learned := bayesnet.NewStructure(4)
	// Recovers 0->1 and 1->2, misses 2->3, invents 0->3.
	for _, e := range [][2]int{{0, 1}, {1, 2}, {0, 3}} {
		if err := learned.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}

	rec := CompareStructures(1, learned, truth)
	if rec.Cluster != 1 {
		t.Fatalf("cluster = %d, want 1", rec.Cluster)
	}
	if rec.TruePos != 2 || rec.TrueEdges != 3 {
		t.Fatalf("TP = %d/%d, want 2/3", rec.TruePos, rec.TrueEdges)
	}
	// 4*3 ordered pairs minus 3 true edges.
	if rec.FalsePos != 1 || rec.NonEdges != 9 {
		t.Fatalf("FP = %d/%d, want 1/9", rec.FalsePos, rec.NonEdges)
	}
	if !floatEquals(rec.TPR, 2.0/3.0) || !floatEquals(rec.FPR, 1.0/9.0) {
		t.Fatalf("TPR = %v, FPR = %v", rec.TPR, rec.FPR)
	}

	// Perfect recovery.
	perfect := CompareStructures(0, truth, truth)
	if !floatEquals(perfect.TPR, 1) || !floatEquals(perfect.FPR, 0) {
		t.Fatalf("perfect recovery scored TPR=%v FPR=%v", perfect.TPR, perfect.FPR)
	}
}
