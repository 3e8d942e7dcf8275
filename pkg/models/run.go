package models

import "time"

// IterationStats records the diagnostics of a single outer EM iteration.
type IterationStats struct {
	Iter    int     `json:"iter"`
	Correct int     `json:"correct"` // correctly labelled samples after permutation matching
	LogLik  float64 `json:"logLik"`  // total data log-likelihood at the end of the iteration
	Delta   float64 `json:"delta"`   // squared-difference responsibility change vs. previous iteration
}

// EdgeRecovery measures how well a learned cluster center recovers the
// edges of its matched ground-truth network.
type EdgeRecovery struct {
	Cluster   int     `json:"cluster"`
	TruePos   int     `json:"truePos"`   // true edges present in the learned structure
	FalsePos  int     `json:"falsePos"`  // learned edges absent from the truth
	TrueEdges int     `json:"trueEdges"` // edge count of the ground-truth structure
	NonEdges  int     `json:"nonEdges"`  // directed non-edges of the truth (FPR denominator)
	TPR       float64 `json:"tpr"`
	FPR       float64 `json:"fpr"`
}

// RunSummary is the persistable/serializable surface of one EM restart.
type RunSummary struct {
	RunID      string    `json:"runId"`
	Seed       uint64    `json:"seed"`
	Converged  bool      `json:"converged"` // false when the run hit the outer-iteration safety cap
	OuterIters int       `json:"outerIters"`
	LogLik     float64   `json:"logLik"`
	Correct    int       `json:"correct"`
	Accuracy   float64   `json:"accuracy"`
	ARI        float64   `json:"ari"`
	VI         float64   `json:"vi"`
	Error      string    `json:"error,omitempty"` // non-empty when the run aborted
	CreatedAt  time.Time `json:"createdAt"`
}

// ProgressEvent is broadcast over the WebSocket hub while a fit is running.
type ProgressEvent struct {
	Type      string  `json:"type"` // "iteration" or "run_complete"
	RunID     string  `json:"runId"`
	Seed      uint64  `json:"seed"`
	OuterIter int     `json:"outerIter"`
	LogLik    float64 `json:"logLik"`
	Delta     float64 `json:"delta"`
	Correct   int     `json:"correct"`
	Converged bool    `json:"converged"`
}

// EmbeddingPoint is one sample projected into 2-D for visualization.
type EmbeddingPoint struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Cluster   int     `json:"cluster"`   // discovered cluster after permutation matching
	TrueGroup int     `json:"trueGroup"` // generating subtype, -1 when unknown
}
