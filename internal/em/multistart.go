package em

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/xhyuo/pancancer-clustering/internal/bayesnet"
	"github.com/xhyuo/pancancer-clustering/pkg/models"
)

// FitBest executes one independent EM run per configured seed and ranks the
// results by terminal log-likelihood. Runs share nothing: each owns its
// responsibility matrix, centers, and RNG stream, so they execute on a
// bounded worker pool.
//
// The returned slice holds every run, winner first. Aborted runs keep their
// error attached, sort last, and never block or corrupt sibling runs. The
// error return is non-nil only when no run produced a result.
func FitBest(ctx context.Context, data *bayesnet.Dataset, oracle ScoreOracle, cfg Config,
	truth *GroundTruth, progress func(models.ProgressEvent)) ([]*RunRecord, error) {

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(cfg.Seeds) == 0 {
		return nil, fmt.Errorf("em: no seeds configured")
	}

	records := make([]*RunRecord, len(cfg.Seeds))
	p := pool.New().WithMaxGoroutines(cfg.Workers)
	for i, seed := range cfg.Seeds {
		i, seed := i, seed
		p.Go(func() {
			rec, err := Run(ctx, data, oracle, cfg, seed, truth, progress)
			if err != nil {
				log.Printf("[EM] run seed=%d aborted: %v", seed, err)
				rec = &RunRecord{RunID: uuid.New().String(), Seed: seed, Err: err}
			}
			records[i] = rec
		})
	}
	p.Wait()

	rankRecords(records)

	if records[0].Err != nil {
		return records, fmt.Errorf("em: all %d runs failed, first error: %w", len(records), records[0].Err)
	}
	return records, nil
}

// rankRecords orders runs in place: successful runs by log-likelihood
// descending, equal likelihoods broken by the lower seed, failures last
// (ordered among themselves by seed).
func rankRecords(records []*RunRecord) {
	sort.SliceStable(records, func(a, b int) bool {
		ra, rb := records[a], records[b]
		if (ra.Err == nil) != (rb.Err == nil) {
			return ra.Err == nil
		}
		if ra.Err != nil {
			return ra.Seed < rb.Seed
		}
		if ra.LogLik != rb.LogLik {
			return ra.LogLik > rb.LogLik
		}
		return ra.Seed < rb.Seed
	})
}
