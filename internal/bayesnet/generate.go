package bayesnet

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Synthetic ground-truth generation: random DAGs with a power-law bias on
// parent choice, Beta-sampled CPTs, and cohort sampling across groups.
// Everything is deterministic under a fixed rand.Source.

// GenerateStructure draws a random DAG over n variables. Children consider
// only lower-numbered variables as parents (which enforces acyclicity), the
// in-degree follows an approximate power law capped at maxParents, and parent
// selection prefers variables that already have high out-degree, yielding
// hub-dominated structures.
func GenerateStructure(n, maxParents int, src rand.Source) *Structure {
	rng := rand.New(src)
	s := NewStructure(n)
	outdeg := make([]int, n)
	for child := 1; child < n; child++ {
		limit := maxParents
		if child < limit {
			limit = child
		}
		m := powerLawDraw(rng, limit)
		for picked := 0; picked < m; picked++ {
			// Preferential attachment over the eligible earlier nodes.
			total := 0.0
			for p := 0; p < child; p++ {
				if !s.HasEdge(p, child) {
					total += float64(1 + outdeg[p])
				}
			}
			if total == 0 {
				break
			}
			r := rng.Float64() * total
			for p := 0; p < child; p++ {
				if s.HasEdge(p, child) {
					continue
				}
				r -= float64(1 + outdeg[p])
				if r <= 0 {
					if err := s.AddEdge(p, child); err == nil {
						outdeg[p]++
					}
					break
				}
			}
		}
	}
	return s
}

// powerLawDraw samples an in-degree in [0, limit] with P(m) roughly
// proportional to m^-2 for m >= 1.
func powerLawDraw(rng *rand.Rand, limit int) int {
	if limit <= 0 {
		return 0
	}
	weights := make([]float64, limit+1)
	weights[0] = 0.5
	for m := 1; m <= limit; m++ {
		weights[m] = 1 / float64(m*m)
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for m, w := range weights {
		r -= w
		if r <= 0 {
			return m
		}
	}
	return limit
}

// GenerateNetwork attaches Beta(a,a)-sampled CPTs to a structure. With a < 1
// the draws concentrate near 0 and 1, producing informative conditionals
// that make the groups statistically separable.
func GenerateNetwork(s *Structure, a float64, src rand.Source) (*Network, error) {
	if a <= 0 {
		return nil, fmt.Errorf("bayesnet: beta shape must be > 0, got %g", a)
	}
	beta := distuv.Beta{Alpha: a, Beta: a, Src: src}
	cpt := make([][]float64, s.NumVars())
	for v := range cpt {
		q := 1 << s.NumParents(v)
		cpt[v] = make([]float64, q)
		for j := range cpt[v] {
			cpt[v][j] = beta.Rand()
		}
	}
	return NewNetwork(s, cpt)
}

// SampleCohort draws counts[g] observations from each group network and
// returns the stacked dataset together with the true group label per row.
// Rows are grouped by source; the EM layer never sees the labels.
func SampleCohort(networks []*Network, counts []int, src rand.Source) (*Dataset, []int, error) {
	if len(networks) == 0 || len(networks) != len(counts) {
		return nil, nil, fmt.Errorf("bayesnet: %d networks for %d group counts", len(networks), len(counts))
	}
	n := networks[0].Structure().NumVars()
	names := make([]string, n)
	for j := range names {
		names[j] = fmt.Sprintf("m%d", j)
	}

	rng := rand.New(src)
	var rows [][]uint8
	var labels []int
	for g, nw := range networks {
		if nw.Structure().NumVars() != n {
			return nil, nil, fmt.Errorf("bayesnet: group %d has %d variables, want %d", g, nw.Structure().NumVars(), n)
		}
		for i := 0; i < counts[g]; i++ {
			rows = append(rows, nw.Sample(rng))
			labels = append(labels, g)
		}
	}
	data, err := NewDataset(names, rows)
	if err != nil {
		return nil, nil, err
	}
	return data, labels, nil
}
