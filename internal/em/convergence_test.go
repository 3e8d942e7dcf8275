package em

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSquaredDiff(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{0.1, 0.9, 0.6, 0.4})
	b := mat.NewDense(2, 2, []float64{0.1, 0.9, 0.6, 0.4})
	if d := SquaredDiff(a, b); d != 0 {
		t.Fatalf("equal matrices differ by %v", d)
	}

	c := mat.NewDense(2, 2, []float64{0.2, 0.8, 0.6, 0.4})
	// Two entries moved by 0.1 each: 2 * 0.01.
	if d := SquaredDiff(a, c); math.Abs(d-0.02) > 1e-12 {
		t.Fatalf("SquaredDiff = %v, want 0.02", d)
	}
}

func TestLogLikelihoodMatchesNaive(t *testing.T) {
	scores := mat.NewDense(2, 2, []float64{
		math.Log(0.4), math.Log(0.1),
		math.Log(0.2), math.Log(0.7),
	})
	tau := []float64{0.6, 0.4}

	want := math.Log(0.4*0.6+0.1*0.4) + math.Log(0.2*0.6+0.7*0.4)
	got := LogLikelihood(scores, tau)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("LogLikelihood = %v, naive = %v", got, want)
	}
}

func TestLogLikelihoodStableAtExtremeMagnitudes(t *testing.T) {
	// Naive exponentiation would underflow these to log(0).
	scores := mat.NewDense(1, 2, []float64{-2000, -2001})
	got := LogLikelihood(scores, []float64{0.5, 0.5})
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("LogLikelihood = %v, want finite", got)
	}
	if got > -2000 || got < -2002 {
		t.Fatalf("LogLikelihood = %v outside the plausible range", got)
	}
}
