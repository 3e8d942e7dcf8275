package bayesnet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ScoreConfig binds a dataset, a per-sample weight vector, and the scoring
// hyperparameters into one opaque configuration. The EM orchestrator builds
// one per cluster per outer iteration and hands it to the score oracle; it
// never inspects the internals.
//
// The score is the BDe family marginal likelihood with a uniform Dirichlet
// prior of total mass chi spread over each family's parameter space, plus a
// per-parent penalty of kappa in log space.
type ScoreConfig struct {
	data    *Dataset
	weights []float64
	chi     float64
	kappa   float64
}

// NewScoreConfig validates the inputs and builds a configuration. A nil
// weight vector means unit weights. chi must be strictly positive: it is the
// guard that keeps every family count positive even when a cluster's
// responsibility column is nearly empty.
func NewScoreConfig(data *Dataset, weights []float64, chi, kappa float64) (*ScoreConfig, error) {
	if data == nil {
		return nil, fmt.Errorf("bayesnet: nil dataset")
	}
	if chi <= 0 {
		return nil, fmt.Errorf("bayesnet: prior pseudo-count chi must be > 0, got %g", chi)
	}
	if kappa < 0 {
		return nil, fmt.Errorf("bayesnet: structure penalty kappa must be >= 0, got %g", kappa)
	}
	if weights != nil {
		if len(weights) != data.Len() {
			return nil, fmt.Errorf("bayesnet: %d weights for %d samples", len(weights), data.Len())
		}
		for i, w := range weights {
			if w < 0 || math.IsNaN(w) {
				return nil, fmt.Errorf("bayesnet: invalid weight %g at sample %d", w, i)
			}
		}
	}
	return &ScoreConfig{data: data, weights: weights, chi: chi, kappa: kappa}, nil
}

// TotalWeight returns the sum of the sample weights.
func (c *ScoreConfig) TotalWeight() float64 {
	if c.weights == nil {
		return float64(c.data.Len())
	}
	return floats.Sum(c.weights)
}

// NumVars returns the variable count of the underlying dataset.
func (c *ScoreConfig) NumVars() int { return c.data.NumVars() }

// familyCounts accumulates the weighted counts for one child variable and an
// ordered parent set. The result is indexed by parentConfig*2 + childValue,
// where the parent configuration packs parent values as bits in parent order.
func (c *ScoreConfig) familyCounts(child int, parents []int) []float64 {
	q := 1 << len(parents)
	counts := make([]float64, q*2)
	for i := 0; i < c.data.Len(); i++ {
		w := 1.0
		if c.weights != nil {
			w = c.weights[i]
			if w == 0 {
				continue
			}
		}
		row := c.data.Row(i)
		j := 0
		for bit, p := range parents {
			if row[p] == 1 {
				j |= 1 << bit
			}
		}
		counts[j*2+int(row[child])] += w
	}
	return counts
}

// FamilyScore returns the penalized BDe log score of one family.
func (c *ScoreConfig) FamilyScore(child int, parents []int) float64 {
	q := 1 << len(parents)
	alphaJC := c.chi / float64(q*2)
	alphaJ := c.chi / float64(q)
	counts := c.familyCounts(child, parents)

	lgAlphaJ, _ := math.Lgamma(alphaJ)
	lgAlphaJC, _ := math.Lgamma(alphaJC)

	score := -c.kappa * float64(len(parents))
	for j := 0; j < q; j++ {
		n0 := counts[j*2]
		n1 := counts[j*2+1]
		lgJ, _ := math.Lgamma(alphaJ + n0 + n1)
		lg0, _ := math.Lgamma(alphaJC + n0)
		lg1, _ := math.Lgamma(alphaJC + n1)
		score += lgAlphaJ - lgJ + lg0 - lgAlphaJC + lg1 - lgAlphaJC
	}
	return score
}

// StructureScore returns the total decomposable score of a structure: the
// sum of its family scores.
func (c *ScoreConfig) StructureScore(s *Structure) float64 {
	total := 0.0
	for v := 0; v < s.NumVars(); v++ {
		total += c.FamilyScore(v, s.Parents(v))
	}
	return total
}

// SampleLogScores scores every sample of the dataset against a fixed
// structure. Parameters are the posterior-mean CPTs under the configuration's
// weighted counts and Dirichlet prior, so the result is a length-N vector of
// per-sample log-likelihoods.
func (c *ScoreConfig) SampleLogScores(s *Structure) ([]float64, error) {
	if s == nil {
		return nil, fmt.Errorf("bayesnet: nil structure")
	}
	if s.NumVars() != c.data.NumVars() {
		return nil, fmt.Errorf("bayesnet: structure has %d variables, dataset has %d", s.NumVars(), c.data.NumVars())
	}

	n := c.data.NumVars()
	// theta[v][j] = P(v=1 | parent config j) under posterior-mean estimates.
	theta := make([][]float64, n)
	parentSets := make([][]int, n)
	for v := 0; v < n; v++ {
		parents := s.Parents(v)
		parentSets[v] = parents
		q := 1 << len(parents)
		alphaJC := c.chi / float64(q*2)
		alphaJ := c.chi / float64(q)
		counts := c.familyCounts(v, parents)
		theta[v] = make([]float64, q)
		for j := 0; j < q; j++ {
			n0 := counts[j*2]
			n1 := counts[j*2+1]
			theta[v][j] = (alphaJC + n1) / (alphaJ + n0 + n1)
		}
	}

	scores := make([]float64, c.data.Len())
	for i := range scores {
		row := c.data.Row(i)
		ll := 0.0
		for v := 0; v < n; v++ {
			j := 0
			for bit, p := range parentSets[v] {
				if row[p] == 1 {
					j |= 1 << bit
				}
			}
			p1 := theta[v][j]
			if row[v] == 1 {
				ll += math.Log(p1)
			} else {
				ll += math.Log(1 - p1)
			}
		}
		scores[i] = ll
	}
	return scores, nil
}
