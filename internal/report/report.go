// Package report renders fit results for human inspection: ranking and
// trajectory tables on a writer, and a 2-D embedding scatter plot.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/xhyuo/pancancer-clustering/internal/em"
)

// WriteRunTable prints the ranked restarts, winner first. Runs that hit the
// safety cap or aborted are flagged rather than hidden.
func WriteRunTable(w io.Writer, records []*em.RunRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSEED\tSTATUS\tOUTER ITERS\tLOG-LIK\tACCURACY")
	for rank, rec := range records {
		status := "converged"
		switch {
		case rec.Err != nil:
			status = "failed: " + rec.Err.Error()
		case !rec.Converged:
			status = "CAP HIT"
		}
		if rec.Err != nil {
			fmt.Fprintf(tw, "%d\t%d\t%s\t-\t-\t-\n", rank+1, rec.Seed, status)
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%.4f\t%.2f%%\n",
			rank+1, rec.Seed, status, rec.OuterIters, rec.LogLik, 100*rec.Accuracy())
	}
	tw.Flush()
}

// WriteTrajectory prints the per-iteration diagnostics of one run, including
// the structural recovery rates when ground truth was available.
func WriteTrajectory(w io.Writer, rec *em.RunRecord) {
	fmt.Fprintf(w, "Run %s (seed %d)\n", rec.RunID, rec.Seed)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITER\tLOG-LIK\tDELTA\tCORRECT")
	for _, it := range rec.Trajectory {
		fmt.Fprintf(tw, "%d\t%.4f\t%.3e\t%d\n", it.Iter, it.LogLik, it.Delta, it.Correct)
	}
	tw.Flush()

	if len(rec.Recovery) == 0 {
		return
	}
	fmt.Fprintln(w, "Structural recovery (final iteration):")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLUSTER\tTP\tFP\tTPR\tFPR")
	for _, cr := range rec.Recovery[len(rec.Recovery)-1] {
		fmt.Fprintf(tw, "%d\t%d/%d\t%d/%d\t%.3f\t%.3f\n",
			cr.Cluster, cr.TruePos, cr.TrueEdges, cr.FalsePos, cr.NonEdges, cr.TPR, cr.FPR)
	}
	tw.Flush()
}
