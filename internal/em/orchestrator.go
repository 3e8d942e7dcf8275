// Package em drives structural expectation-maximization over mixtures of
// Bayesian networks: an outer loop that re-learns one network structure per
// cluster from responsibility-weighted data, and a cheap inner loop that
// refines responsibilities with the structures held fixed.
package em

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/xhyuo/pancancer-clustering/internal/bayesnet"
	"github.com/xhyuo/pancancer-clustering/internal/evaluation"
	"github.com/xhyuo/pancancer-clustering/internal/labelmatch"
	"github.com/xhyuo/pancancer-clustering/pkg/models"
)

// ScoreOracle is the structure-learning collaborator. Search returns the
// best structure reachable from the hint under the configuration's weighted
// score; Scores evaluates every sample against a fixed structure.
type ScoreOracle interface {
	Search(cfg *bayesnet.ScoreConfig, hint *bayesnet.Structure) (*bayesnet.Structure, error)
	Scores(cfg *bayesnet.ScoreConfig, s *bayesnet.Structure) ([]float64, error)
}

// Config carries the numeric configuration of a fit. Zero values fall back
// to defaults where noted.
type Config struct {
	K             int      // number of clusters, >= 2
	Chi           float64  // prior pseudo-count, > 0 (default 1)
	Kappa         float64  // structure penalty, >= 0
	Epsilon       float64  // outer-loop convergence threshold (default 1e-6)
	InnerIters    int      // inner iterations per outer pass (default 10)
	MaxOuterIters int      // safety cap on outer iterations (default 50)
	Seeds         []uint64 // one independent restart per seed
	Workers       int      // parallelism bound (default NumCPU)
}

func (c Config) withDefaults() Config {
	if c.Chi == 0 {
		c.Chi = 1
	}
	if c.Epsilon == 0 {
		c.Epsilon = 1e-6
	}
	if c.InnerIters == 0 {
		c.InnerIters = 10
	}
	if c.MaxOuterIters == 0 {
		c.MaxOuterIters = 50
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	return c
}

func (c Config) validate() error {
	if c.K < 2 {
		return fmt.Errorf("em: need at least 2 clusters, got %d", c.K)
	}
	if c.Chi <= 0 {
		return fmt.Errorf("em: chi must be > 0, got %g", c.Chi)
	}
	if c.Kappa < 0 {
		return fmt.Errorf("em: kappa must be >= 0, got %g", c.Kappa)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("em: epsilon must be > 0, got %g", c.Epsilon)
	}
	if c.InnerIters < 0 {
		return fmt.Errorf("em: inner iteration count must be positive, got %d", c.InnerIters)
	}
	if c.MaxOuterIters < 0 {
		return fmt.Errorf("em: outer iteration cap must be positive, got %d", c.MaxOuterIters)
	}
	return nil
}

// GroundTruth carries the generating labels and structures, consumed only by
// the diagnostic tracking; the core loop never reads it.
type GroundTruth struct {
	Labels     []int
	Structures []*bayesnet.Structure
}

// ClusterCenter bundles the state of one mixture component for the duration
// of an outer iteration: the learned structure, its mixing weight, and the
// score configuration the structure was learned under.
type ClusterCenter struct {
	Structure *bayesnet.Structure
	Tau       float64
	cfg       *bayesnet.ScoreConfig
}

// RunRecord is the complete result of one restart. Runs own their state;
// the multi-start driver only collects finished records.
type RunRecord struct {
	RunID      string
	Seed       uint64
	Converged  bool
	OuterIters int
	Trajectory []models.IterationStats
	Recovery   [][]models.EdgeRecovery // per outer iteration, per cluster
	Resp       *mat.Dense
	Scores     *mat.Dense
	Centers    []ClusterCenter
	Assignment []int // hard arg-max assignment, unpermuted
	Perm       []int // cluster -> true group, nil without ground truth
	Correct    int
	LogLik     float64
	Err        error // set when the run aborted; such runs carry no matrices
}

// Accuracy returns the matched-sample fraction, or 0 without ground truth.
func (r *RunRecord) Accuracy() float64 {
	if r.Resp == nil || r.Perm == nil {
		return 0
	}
	n, _ := r.Resp.Dims()
	return float64(r.Correct) / float64(n)
}

// Run executes one complete EM fit from a single random initialization.
// progress may be nil; when set it receives one event per outer iteration
// and a final run_complete event.
func Run(ctx context.Context, data *bayesnet.Dataset, oracle ScoreOracle, cfg Config,
	seed uint64, truth *GroundTruth, progress func(models.ProgressEvent)) (*RunRecord, error) {

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if data.Len() == 0 {
		return nil, fmt.Errorf("em: empty dataset")
	}
	if truth != nil && len(truth.Labels) != data.Len() {
		return nil, fmt.Errorf("%w: %d truth labels for %d samples", ErrDimension, len(truth.Labels), data.Len())
	}

	rec := &RunRecord{
		RunID:   uuid.New().String(),
		Seed:    seed,
		Centers: make([]ClusterCenter, cfg.K),
	}

	rng := rand.New(rand.NewSource(seed))
	resp := initResponsibilities(data.Len(), cfg.K, rng)

	var (
		scores *mat.Dense
		tau    []float64
	)

	for outer := 0; outer < cfg.MaxOuterIters; outer++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("em: run %d cancelled: %w", seed, err)
		}

		prev := mat.DenseCopyOf(resp)

		// M-step: re-learn one structure per cluster from the current
		// responsibility column, warm-starting from the previous center.
		// The K searches touch disjoint columns and disjoint centers, so
		// they fan out safely.
		if err := relearnCenters(cfg, data, oracle, resp, rec.Centers); err != nil {
			return nil, fmt.Errorf("em: run %d outer %d: %w", seed, outer, err)
		}

		// Score all samples once per outer pass; the inner loop holds both
		// the structures and these score vectors fixed.
		var err error
		scores, err = scoreMatrix(cfg, oracle, rec.Centers, data.Len())
		if err != nil {
			return nil, fmt.Errorf("em: run %d outer %d: %w", seed, outer, err)
		}

		// Inner loop: alternate tau re-estimation and the E-step.
		for inner := 0; inner < cfg.InnerIters; inner++ {
			tau = MixingWeights(resp, cfg.Chi)
			resp, err = Responsibilities(scores, tau)
			if err != nil {
				return nil, fmt.Errorf("em: run %d outer %d inner %d: %w", seed, outer, inner, err)
			}
		}
		for k := range rec.Centers {
			rec.Centers[k].Tau = tau[k]
		}

		delta := SquaredDiff(prev, resp)
		ll := LogLikelihood(scores, tau)
		rec.OuterIters = outer + 1

		stats := models.IterationStats{Iter: outer, LogLik: ll, Delta: delta}
		if truth != nil {
			assignment := HardAssignments(resp)
			perm, correct, err := labelmatch.Match(assignment, truth.Labels, cfg.K)
			if err != nil {
				return nil, fmt.Errorf("em: run %d outer %d: %w", seed, outer, err)
			}
			rec.Perm = perm
			rec.Correct = correct
			stats.Correct = correct

			if len(truth.Structures) > 0 {
				iterRec := make([]models.EdgeRecovery, cfg.K)
				for k := 0; k < cfg.K; k++ {
					iterRec[k] = evaluation.CompareStructures(k, rec.Centers[k].Structure, truth.Structures[perm[k]])
				}
				rec.Recovery = append(rec.Recovery, iterRec)
			}
		}
		rec.Trajectory = append(rec.Trajectory, stats)
		rec.LogLik = ll

		converged := delta < cfg.Epsilon
		if progress != nil {
			progress(models.ProgressEvent{
				Type: "iteration", RunID: rec.RunID, Seed: seed, OuterIter: outer,
				LogLik: ll, Delta: delta, Correct: stats.Correct, Converged: converged,
			})
		}
		if converged {
			rec.Converged = true
			break
		}
	}

	rec.Resp = resp
	rec.Scores = scores
	rec.Assignment = HardAssignments(resp)
	if !rec.Converged {
		// Warning-with-result policy: surface the cap hit, keep the record.
		log.Printf("[EM] run seed=%d hit the outer-iteration cap (%d) without converging: %v",
			seed, cfg.MaxOuterIters, ErrNonConvergence)
	}
	if progress != nil {
		progress(models.ProgressEvent{
			Type: "run_complete", RunID: rec.RunID, Seed: seed,
			OuterIter: rec.OuterIters - 1, LogLik: rec.LogLik,
			Correct: rec.Correct, Converged: rec.Converged,
		})
	}
	return rec, nil
}

// initResponsibilities draws positive random responsibilities, each row
// normalized to sum to 1. The run's rand.Source is the sole randomness.
func initResponsibilities(n, k int, rng *rand.Rand) *mat.Dense {
	resp := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		row := resp.RawRowView(i)
		for j := range row {
			// Strictly positive so no cluster starts empty.
			row[j] = rng.Float64() + 1e-3
		}
		sum := floats.Sum(row)
		for j := range row {
			row[j] /= sum
		}
	}
	return resp
}

// relearnCenters runs the per-cluster structure searches for one outer
// iteration, replacing each center wholesale.
func relearnCenters(cfg Config, data *bayesnet.Dataset, oracle ScoreOracle,
	resp *mat.Dense, centers []ClusterCenter) error {

	p := pool.New().WithMaxGoroutines(cfg.Workers).WithErrors()
	for k := 0; k < cfg.K; k++ {
		k := k
		p.Go(func() error {
			weights := mat.Col(nil, k, resp)
			if floats.Sum(weights) <= 0 {
				return fmt.Errorf("%w: cluster %d", ErrDegenerateAssignment, k)
			}
			scfg, err := bayesnet.NewScoreConfig(data, weights, cfg.Chi, cfg.Kappa)
			if err != nil {
				return fmt.Errorf("cluster %d: %w", k, err)
			}
			structure, err := oracle.Search(scfg, centers[k].Structure)
			if err != nil {
				return fmt.Errorf("cluster %d search: %w", k, err)
			}
			centers[k] = ClusterCenter{Structure: structure, cfg: scfg}
			return nil
		})
	}
	return p.Wait()
}

// scoreMatrix assembles the N×K matrix of per-sample log-scores against the
// current centers, each column under its own score configuration.
func scoreMatrix(cfg Config, oracle ScoreOracle, centers []ClusterCenter, n int) (*mat.Dense, error) {
	scores := mat.NewDense(n, cfg.K, nil)
	p := pool.New().WithMaxGoroutines(cfg.Workers).WithErrors()
	for k := 0; k < cfg.K; k++ {
		k := k
		p.Go(func() error {
			col, err := oracle.Scores(centers[k].cfg, centers[k].Structure)
			if err != nil {
				return fmt.Errorf("cluster %d scoring: %w", k, err)
			}
			scores.SetCol(k, col)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}
