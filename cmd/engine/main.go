package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar"
	"golang.org/x/exp/rand"

	"github.com/xhyuo/pancancer-clustering/internal/api"
	"github.com/xhyuo/pancancer-clustering/internal/bayesnet"
	"github.com/xhyuo/pancancer-clustering/internal/db"
	"github.com/xhyuo/pancancer-clustering/internal/em"
	"github.com/xhyuo/pancancer-clustering/internal/evaluation"
	"github.com/xhyuo/pancancer-clustering/internal/projection"
	"github.com/xhyuo/pancancer-clustering/internal/report"
	"github.com/xhyuo/pancancer-clustering/internal/search"
	"github.com/xhyuo/pancancer-clustering/pkg/models"
)

func main() {
	log.Println("Starting Pan-Cancer Subtype Clustering Engine...")

	numGroups := getEnvInt("NUM_CLUSTERS", 3)
	numVars := getEnvInt("NUM_VARIABLES", 20)
	samplesPerGroup := getEnvInt("SAMPLES_PER_GROUP", 400)
	maxParents := getEnvInt("MAX_PARENTS", 3)
	betaShape := getEnvFloat("BETA_SHAPE", 0.5)
	cohortSeed := uint64(getEnvInt("COHORT_SEED", 1))

	cfg := em.Config{
		K:             numGroups,
		Chi:           getEnvFloat("CHI", 1),
		Kappa:         getEnvFloat("KAPPA", 0),
		Epsilon:       getEnvFloat("EPSILON", 1e-6),
		InnerIters:    getEnvInt("INNER_ITERS", 10),
		MaxOuterIters: getEnvInt("MAX_OUTER_ITERS", 50),
		Seeds:         parseSeeds(getEnvOrDefault("SEEDS", "17,29,43,71,97")),
	}

	// Persistence is optional: without DATABASE_URL the API serves results
	// from the in-memory cache only.
	var store *db.RunStore
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		conn, err := db.Connect(dbURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to PostgreSQL, continuing without persisting runs. Error: %v", err)
		} else {
			defer conn.Close()
			if err := conn.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			} else {
				store = conn
			}
		}
	} else {
		log.Println("[Engine] DATABASE_URL not set, serving results from memory only")
	}

	// Synthetic cohort: one ground-truth network per subtype, sampled into a
	// single stacked dataset. Fully deterministic under COHORT_SEED.
	src := rand.NewSource(cohortSeed)
	structures := make([]*bayesnet.Structure, numGroups)
	networks := make([]*bayesnet.Network, numGroups)
	counts := make([]int, numGroups)
	for g := 0; g < numGroups; g++ {
		structures[g] = bayesnet.GenerateStructure(numVars, maxParents, src)
		nw, err := bayesnet.GenerateNetwork(structures[g], betaShape, src)
		if err != nil {
			log.Fatalf("Failed to generate subtype network %d: %v", g, err)
		}
		networks[g] = nw
		counts[g] = samplesPerGroup
	}
	data, labels, err := bayesnet.SampleCohort(networks, counts, src)
	if err != nil {
		log.Fatalf("Failed to sample cohort: %v", err)
	}
	log.Printf("[Engine] Cohort ready: %d samples, %d binary markers, %d subtypes",
		data.Len(), data.NumVars(), numGroups)

	truth := &em.GroundTruth{Labels: labels, Structures: structures}

	wsHub := api.NewHub()
	go wsHub.Run()

	bar := progressbar.New(len(cfg.Seeds))
	progress := func(ev models.ProgressEvent) {
		wsHub.BroadcastEvent(ev)
		if ev.Type == "run_complete" {
			bar.Add(1)
		}
	}

	oracle := &search.Oracle{MaxParents: maxParents}
	start := time.Now()
	records, err := em.FitBest(context.Background(), data, oracle, cfg, truth, progress)
	if err != nil {
		log.Fatalf("Fit failed: %v", err)
	}
	fmt.Println()
	log.Printf("[Engine] %d restarts finished in %s", len(cfg.Seeds), time.Since(start).Round(time.Millisecond))

	report.WriteRunTable(os.Stdout, records)
	winner := records[0]
	report.WriteTrajectory(os.Stdout, winner)

	summaries := make([]models.RunSummary, 0, len(records))
	trajectories := make(map[string][]models.IterationStats, len(records))
	for _, rec := range records {
		summaries = append(summaries, summarize(rec, labels))
		trajectories[rec.RunID] = rec.Trajectory
	}

	// Embed the cohort by the winner's cluster-score profile and plot it.
	var points []models.EmbeddingPoint
	dmat := evaluation.DissimilarityMatrix(winner.Scores)
	coords, err := projection.MDS2D(dmat)
	if err != nil {
		log.Printf("Warning: embedding failed: %v", err)
	} else {
		mapped := mappedAssignment(winner)
		points = make([]models.EmbeddingPoint, len(coords))
		for i, pt := range coords {
			points[i] = models.EmbeddingPoint{
				X: pt.X, Y: pt.Y,
				Cluster:   mapped[i],
				TrueGroup: labels[i],
			}
		}
		plotPath := getEnvOrDefault("EMBEDDING_PNG", "embedding.png")
		if err := report.SaveEmbeddingPlot(plotPath, "Cohort embedding (Jensen-Shannon + MDS)", points); err != nil {
			log.Printf("Warning: failed to save embedding plot: %v", err)
		} else {
			log.Printf("[Engine] Embedding plot written to %s", plotPath)
		}
	}

	if store != nil {
		for i, sum := range summaries {
			if err := store.SaveRun(context.Background(), sum, trajectories[sum.RunID]); err != nil {
				log.Printf("Failed to save run %d to DB: %v", i, err)
			}
		}
	}

	cache := api.NewResultCache()
	cache.SetRuns(summaries, trajectories)
	cache.SetEmbedding(points)

	r := api.SetupRouter(store, cache, wsHub)
	port := getEnvOrDefault("PORT", "5341")
	log.Printf("Engine running on :%s (winner seed %d, log-lik %.4f, accuracy %.2f%%)\n",
		port, winner.Seed, winner.LogLik, 100*winner.Accuracy())
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// summarize flattens a run record into its persistable surface, including
// partition-agreement diagnostics against the generating labels.
func summarize(rec *em.RunRecord, labels []int) models.RunSummary {
	sum := models.RunSummary{
		RunID:     rec.RunID,
		Seed:      rec.Seed,
		CreatedAt: time.Now().UTC(),
	}
	if rec.Err != nil {
		sum.Error = rec.Err.Error()
		return sum
	}
	sum.Converged = rec.Converged
	sum.OuterIters = rec.OuterIters
	sum.LogLik = rec.LogLik
	sum.Correct = rec.Correct
	sum.Accuracy = rec.Accuracy()
	if rec.Perm != nil {
		mapped := mappedAssignment(rec)
		sum.ARI = evaluation.AdjustedRandIndex(mapped, labels)
		sum.VI = evaluation.VariationOfInformation(mapped, labels)
	}
	return sum
}

// mappedAssignment applies the matched label permutation to the hard cluster
// assignment so it is directly comparable with the true group labels.
func mappedAssignment(rec *em.RunRecord) []int {
	mapped := make([]int, len(rec.Assignment))
	for i, c := range rec.Assignment {
		if rec.Perm != nil {
			mapped[i] = rec.Perm[c]
		} else {
			mapped[i] = c
		}
	}
	return mapped
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		log.Fatalf("FATAL: environment variable %s must be an integer, got %q", key, val)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		log.Fatalf("FATAL: environment variable %s must be a number, got %q", key, val)
	}
	return fallback
}

// parseSeeds splits a comma-separated seed list.
func parseSeeds(csv string) []uint64 {
	var seeds []uint64
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		s, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			log.Fatalf("FATAL: invalid seed %q in SEEDS", part)
		}
		seeds = append(seeds, s)
	}
	return seeds
}
