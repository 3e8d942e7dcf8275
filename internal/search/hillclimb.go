// Package search implements the structure-learning half of the score oracle:
// greedy hill climbing over DAG space under a decomposable BDe score.
package search

import (
	"fmt"

	"github.com/xhyuo/pancancer-clustering/internal/bayesnet"
)

const (
	defaultMaxParents = 3
	defaultMaxMoves   = 1000

	// Minimum score gain for a move to count as an improvement. Keeps the
	// climb from chasing floating-point noise.
	minGain = 1e-9
)

// Oracle performs greedy structure search and per-sample scoring against a
// ScoreConfig. It satisfies the EM orchestrator's ScoreOracle contract.
//
// The search is deterministic: candidate moves are scanned in a fixed
// (parent, child) order and the best strictly-improving move is applied, with
// the first maximum winning ties.
type Oracle struct {
	// MaxParents bounds the in-degree of any variable. Zero means the default.
	MaxParents int
	// MaxMoves caps the number of applied moves per search. Zero means the default.
	MaxMoves int
}

type move struct {
	kind   int // 0 add, 1 remove, 2 reverse
	parent int
	child  int
	gain   float64
}

// Search climbs from the hint structure (or the empty graph when hint is
// nil) and returns the best structure found. Only the families touched by a
// candidate move are rescored, exploiting score decomposability.
func (o *Oracle) Search(cfg *bayesnet.ScoreConfig, hint *bayesnet.Structure) (*bayesnet.Structure, error) {
	if cfg == nil {
		return nil, fmt.Errorf("search: nil score config")
	}
	n := cfg.NumVars()
	if n == 0 {
		return nil, fmt.Errorf("search: dataset has no variables")
	}
	maxParents := o.MaxParents
	if maxParents <= 0 {
		maxParents = defaultMaxParents
	}
	maxMoves := o.MaxMoves
	if maxMoves <= 0 {
		maxMoves = defaultMaxMoves
	}

	var cur *bayesnet.Structure
	if hint != nil {
		if hint.NumVars() != n {
			return nil, fmt.Errorf("search: hint has %d variables, dataset has %d", hint.NumVars(), n)
		}
		cur = hint.Clone()
	} else {
		cur = bayesnet.NewStructure(n)
	}

	// Per-child family score cache.
	fam := make([]float64, n)
	for v := 0; v < n; v++ {
		fam[v] = cfg.FamilyScore(v, cur.Parents(v))
	}

	for applied := 0; applied < maxMoves; applied++ {
		best := o.bestMove(cfg, cur, fam, maxParents)
		if best == nil {
			break
		}
		switch best.kind {
		case 0:
			if err := cur.AddEdge(best.parent, best.child); err != nil {
				return nil, fmt.Errorf("search: applying add %d->%d: %w", best.parent, best.child, err)
			}
			fam[best.child] = cfg.FamilyScore(best.child, cur.Parents(best.child))
		case 1:
			cur.RemoveEdge(best.parent, best.child)
			fam[best.child] = cfg.FamilyScore(best.child, cur.Parents(best.child))
		case 2:
			cur.RemoveEdge(best.parent, best.child)
			if err := cur.AddEdge(best.child, best.parent); err != nil {
				return nil, fmt.Errorf("search: applying reverse %d->%d: %w", best.parent, best.child, err)
			}
			fam[best.child] = cfg.FamilyScore(best.child, cur.Parents(best.child))
			fam[best.parent] = cfg.FamilyScore(best.parent, cur.Parents(best.parent))
		}
	}
	return cur, nil
}

// bestMove scans add/remove/reverse candidates and returns the highest-gain
// strictly-improving move, or nil when the climb is at a local maximum.
func (o *Oracle) bestMove(cfg *bayesnet.ScoreConfig, cur *bayesnet.Structure, fam []float64, maxParents int) *move {
	n := cur.NumVars()
	var best *move

	consider := func(m move) {
		if m.gain > minGain && (best == nil || m.gain > best.gain) {
			c := m
			best = &c
		}
	}

	for p := 0; p < n; p++ {
		for c := 0; c < n; c++ {
			if p == c {
				continue
			}
			if !cur.HasEdge(p, c) {
				// Add p->c.
				if cur.NumParents(c) >= maxParents {
					continue
				}
				if !canAdd(cur, p, c) {
					continue
				}
				parents := withParent(cur.Parents(c), p)
				consider(move{kind: 0, parent: p, child: c,
					gain: cfg.FamilyScore(c, parents) - fam[c]})
				continue
			}

			// Remove p->c.
			dropped := withoutParent(cur.Parents(c), p)
			removeGain := cfg.FamilyScore(c, dropped) - fam[c]
			consider(move{kind: 1, parent: p, child: c, gain: removeGain})

			// Reverse p->c into c->p.
			if cur.NumParents(p) >= maxParents {
				continue
			}
			cur.RemoveEdge(p, c)
			ok := canAdd(cur, c, p)
			cur.AddEdge(p, c)
			if !ok {
				continue
			}
			newChild := cfg.FamilyScore(c, dropped)
			newParent := cfg.FamilyScore(p, withParent(cur.Parents(p), c))
			consider(move{kind: 2, parent: p, child: c,
				gain: newChild - fam[c] + newParent - fam[p]})
		}
	}
	return best
}

// canAdd checks acyclicity of inserting p->c without mutating cur.
func canAdd(cur *bayesnet.Structure, p, c int) bool {
	trial := cur.Clone()
	return trial.AddEdge(p, c) == nil
}

// withParent returns parents ∪ {p} in ascending order.
func withParent(parents []int, p int) []int {
	out := make([]int, 0, len(parents)+1)
	inserted := false
	for _, q := range parents {
		if !inserted && p < q {
			out = append(out, p)
			inserted = true
		}
		out = append(out, q)
	}
	if !inserted {
		out = append(out, p)
	}
	return out
}

// withoutParent returns parents \ {p}.
func withoutParent(parents []int, p int) []int {
	out := make([]int, 0, len(parents))
	for _, q := range parents {
		if q != p {
			out = append(out, q)
		}
	}
	return out
}

// Scores evaluates every sample against a fixed structure under the given
// configuration. This is the oracle's cheap scoring mode; see
// ScoreConfig.SampleLogScores for the parameter estimation.
func (o *Oracle) Scores(cfg *bayesnet.ScoreConfig, s *bayesnet.Structure) ([]float64, error) {
	if cfg == nil {
		return nil, fmt.Errorf("search: nil score config")
	}
	return cfg.SampleLogScores(s)
}
