package bayesnet

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Network couples a Structure with its conditional probability tables.
// cpt[v][j] is P(v=1 | parent configuration j), with parent values packed as
// bits in ascending parent order, matching the scorer's convention.
type Network struct {
	structure *Structure
	cpt       [][]float64
	topo      []int
}

// NewNetwork builds a network from a structure and matching CPTs.
func NewNetwork(s *Structure, cpt [][]float64) (*Network, error) {
	if len(cpt) != s.NumVars() {
		return nil, fmt.Errorf("bayesnet: %d CPTs for %d variables", len(cpt), s.NumVars())
	}
	for v := range cpt {
		want := 1 << s.NumParents(v)
		if len(cpt[v]) != want {
			return nil, fmt.Errorf("bayesnet: variable %d has %d CPT rows, want %d", v, len(cpt[v]), want)
		}
		for _, p := range cpt[v] {
			if p < 0 || p > 1 {
				return nil, fmt.Errorf("bayesnet: variable %d has conditional probability %g outside [0,1]", v, p)
			}
		}
	}
	topo, err := s.TopoOrder()
	if err != nil {
		return nil, err
	}
	return &Network{structure: s.Clone(), cpt: cpt, topo: topo}, nil
}

// Structure returns the network's DAG. Callers must not modify it.
func (nw *Network) Structure() *Structure { return nw.structure }

// Sample draws one observation by ancestral sampling in topological order.
func (nw *Network) Sample(rng *rand.Rand) []uint8 {
	row := make([]uint8, nw.structure.NumVars())
	for _, v := range nw.topo {
		j := 0
		for bit, p := range nw.structure.Parents(v) {
			if row[p] == 1 {
				j |= 1 << bit
			}
		}
		if rng.Float64() < nw.cpt[v][j] {
			row[v] = 1
		}
	}
	return row
}
