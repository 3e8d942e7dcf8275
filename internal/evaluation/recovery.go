// Package evaluation measures the quality of a converged fit: structural
// recovery of the cluster centers against the generating networks, pairwise
// sample dissimilarity for visualization, and partition-agreement
// diagnostics.
package evaluation

import (
	"github.com/xhyuo/pancancer-clustering/internal/bayesnet"
	"github.com/xhyuo/pancancer-clustering/pkg/models"
)

// CompareStructures counts directed-edge agreement between a learned cluster
// center and its matched ground-truth structure. True-positive rate is
// recovered edges over true edges; false-positive rate is spurious edges
// over the directed non-edges of the truth.
func CompareStructures(cluster int, learned, truth *bayesnet.Structure) models.EdgeRecovery {
	n := truth.NumVars()
	rec := models.EdgeRecovery{Cluster: cluster}
	for p := 0; p < n; p++ {
		for c := 0; c < n; c++ {
			if p == c {
				continue
			}
			switch {
			case truth.HasEdge(p, c):
				rec.TrueEdges++
				if learned.HasEdge(p, c) {
					rec.TruePos++
				}
			default:
				rec.NonEdges++
				if learned.HasEdge(p, c) {
					rec.FalsePos++
				}
			}
		}
	}
	if rec.TrueEdges > 0 {
		rec.TPR = float64(rec.TruePos) / float64(rec.TrueEdges)
	}
	if rec.NonEdges > 0 {
		rec.FPR = float64(rec.FalsePos) / float64(rec.NonEdges)
	}
	return rec
}
