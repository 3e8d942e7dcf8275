package labelmatch

import (
	"testing"
)

func TestMatchIdentity(t *testing.T) {
	assigned := []int{0, 0, 1, 1, 2, 2}
	truth := []int{0, 0, 1, 1, 2, 2}

	perm, correct, err := Match(assigned, truth, 3)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if correct != 6 {
		t.Fatalf("correct = %d, want 6", correct)
	}
	for c, g := range perm {
		if c != g {
			t.Fatalf("perm = %v, want identity", perm)
		}
	}
}

func TestMatchRecoversPermutation(t *testing.T) {
	// Discovered labels are the truth cycled by one.
	truth := []int{0, 0, 0, 1, 1, 1, 2, 2, 2}
	assigned := make([]int, len(truth))
	for i, g := range truth {
		assigned[i] = (g + 1) % 3
	}

	perm, correct, err := Match(assigned, truth, 3)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if correct != len(truth) {
		t.Fatalf("correct = %d, want %d", correct, len(truth))
	}
	want := []int{2, 0, 1}
	for c := range want {
		if perm[c] != want[c] {
			t.Fatalf("perm = %v, want %v", perm, want)
		}
	}
}

func TestMatchAgainstBruteForce(t *testing.T) {
	// Noisy assignment: Hungarian must still find the overlap-maximizing
	// permutation, which brute force verifies.
	assigned := []int{0, 0, 1, 2, 2, 1, 0, 2, 1, 1, 0, 2, 2, 0, 1}
	truth := []int{1, 1, 2, 0, 0, 2, 1, 0, 2, 0, 1, 2, 0, 2, 2}
	k := 3

	_, correct, err := Match(assigned, truth, k)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}

	best := 0
	perms := permutations([]int{0, 1, 2})
	for _, p := range perms {
		score := 0
		for i := range assigned {
			if p[assigned[i]] == truth[i] {
				score++
			}
		}
		if score > best {
			best = score
		}
	}
	if correct != best {
		t.Fatalf("Hungarian found %d correct, brute force found %d", correct, best)
	}
}

func TestMatchDeterministic(t *testing.T) {
	// Fully symmetric overlap: every permutation is optimal, so repeated
	// calls must settle on the same one.
	assigned := []int{0, 1, 2, 0, 1, 2}
	truth := []int{0, 0, 0, 1, 1, 1}

	first, _, err := Match(assigned, truth, 3)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	for trial := 0; trial < 5; trial++ {
		perm, _, err := Match(assigned, truth, 3)
		if err != nil {
			t.Fatalf("Match: %v", err)
		}
		for c := range first {
			if perm[c] != first[c] {
				t.Fatalf("trial %d: perm = %v, first = %v", trial, perm, first)
			}
		}
	}
}

func TestMatchPadsUnequalLabelSpaces(t *testing.T) {
	// Truth uses 4 groups while only 2 clusters were discovered.
	assigned := []int{0, 0, 1, 1}
	truth := []int{3, 3, 1, 2}

	perm, correct, err := Match(assigned, truth, 2)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(perm) != 2 {
		t.Fatalf("perm length = %d, want 2", len(perm))
	}
	if perm[0] != 3 {
		t.Fatalf("cluster 0 matched to group %d, want 3", perm[0])
	}
	if correct < 3 {
		t.Fatalf("correct = %d, want >= 3", correct)
	}
}

func TestMatchInputErrors(t *testing.T) {
	if _, _, err := Match([]int{0}, []int{0, 1}, 2); err == nil {
		t.Fatal("expected error for length mismatch")
	}
	if _, _, err := Match([]int{0}, []int{0}, 0); err == nil {
		t.Fatal("expected error for non-positive k")
	}
	if _, _, err := Match([]int{0, 2}, []int{0, 1}, 2); err == nil {
		t.Fatal("expected error for out-of-range assignment")
	}
	if _, _, err := Match([]int{0, 1}, []int{0, -1}, 2); err == nil {
		t.Fatal("expected error for negative truth label")
	}
}

// permutations returns all orderings of xs.
func permutations(xs []int) [][]int {
	if len(xs) <= 1 {
		return [][]int{append([]int(nil), xs...)}
	}
	var out [][]int
	for i := range xs {
		rest := make([]int, 0, len(xs)-1)
		rest = append(rest, xs[:i]...)
		rest = append(rest, xs[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]int{xs[i]}, p...))
		}
	}
	return out
}
