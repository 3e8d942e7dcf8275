package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xhyuo/pancancer-clustering/internal/em"
	"github.com/xhyuo/pancancer-clustering/pkg/models"
)

func TestWriteRunTable(t *testing.T) {
	records := []*em.RunRecord{
		{RunID: "a", Seed: 17, Converged: true, OuterIters: 4, LogLik: -1234.5},
		{RunID: "b", Seed: 29, Converged: false, OuterIters: 50, LogLik: -1300.0},
		{RunID: "c", Seed: 43, Err: errors.New("numeric degeneracy")},
	}

	var buf bytes.Buffer
	WriteRunTable(&buf, records)
	out := buf.String()

	for _, want := range []string{"SEED", "17", "converged", "CAP HIT", "failed: numeric degeneracy"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTrajectory(t *testing.T) {
	rec := &em.RunRecord{
		RunID: "run-1",
		Seed:  7,
		Trajectory: []models.IterationStats{
			{Iter: 0, LogLik: -500, Delta: 12.5, Correct: 300},
			{Iter: 1, LogLik: -480, Delta: 0.002, Correct: 390},
		},
		Recovery: [][]models.EdgeRecovery{
			{{Cluster: 0, TruePos: 5, TrueEdges: 6, FalsePos: 1, NonEdges: 50, TPR: 5.0 / 6, FPR: 0.02}},
		},
	}

	var buf bytes.Buffer
	WriteTrajectory(&buf, rec)
	out := buf.String()

	if !strings.Contains(out, "run-1") || !strings.Contains(out, "seed 7") {
		t.Fatalf("header missing run identity:\n%s", out)
	}
	if !strings.Contains(out, "Structural recovery") {
		t.Fatalf("recovery table missing:\n%s", out)
	}
	if !strings.Contains(out, "5/6") {
		t.Fatalf("recovery counts missing:\n%s", out)
	}
}

func TestWriteTrajectoryWithoutGroundTruth(t *testing.T) {
	rec := &em.RunRecord{
		RunID:      "run-2",
		Seed:       11,
		Trajectory: []models.IterationStats{{Iter: 0, LogLik: -100, Delta: 1}},
	}
	var buf bytes.Buffer
	WriteTrajectory(&buf, rec)
	if strings.Contains(buf.String(), "Structural recovery") {
		t.Fatal("recovery table printed without recovery data")
	}
}
