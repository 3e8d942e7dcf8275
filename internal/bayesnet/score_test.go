package bayesnet

import (
	"math"
	"testing"
)

// repeatRows builds a dataset from a pattern block repeated count times.
func repeatRows(t *testing.T, names []string, block [][]uint8, count int) *Dataset {
	t.Helper()
	var rows [][]uint8
	for i := 0; i < count; i++ {
		rows = append(rows, block...)
	}
	d, err := NewDataset(names, rows)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return d
}

func TestNewScoreConfigValidation(t *testing.T) {
	d := repeatRows(t, []string{"a", "b"}, [][]uint8{{0, 1}}, 4)

	cases := []struct {
		name    string
		weights []float64
		chi     float64
		kappa   float64
		wantErr bool
	}{
		{"valid unit weights", nil, 1, 0, false},
		{"valid explicit weights", []float64{1, 0.5, 0, 2}, 2, 0.1, false},
		{"zero chi", nil, 0, 0, true},
		{"negative chi", nil, -1, 0, true},
		{"negative kappa", nil, 1, -0.5, true},
		{"weight length mismatch", []float64{1, 1}, 1, 0, true},
		{"negative weight", []float64{1, -1, 1, 1}, 1, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewScoreConfig(d, tc.weights, tc.chi, tc.kappa)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestStructureScoreIsFamilySum(t *testing.T) {
	d := repeatRows(t, []string{"a", "b", "c"},
		[][]uint8{{0, 0, 1}, {1, 1, 0}, {1, 0, 0}, {0, 1, 1}}, 10)
	cfg, err := NewScoreConfig(d, nil, 1, 0)
	if err != nil {
		t.Fatalf("NewScoreConfig: %v", err)
	}

	s := NewStructure(3)
	mustAdd(t, s, 0, 1)
	mustAdd(t, s, 1, 2)

	want := 0.0
	for v := 0; v < 3; v++ {
		want += cfg.FamilyScore(v, s.Parents(v))
	}
	got := cfg.StructureScore(s)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("StructureScore = %v, family sum = %v", got, want)
	}
}

func TestFamilyScoreRewardsRealDependence(t *testing.T) {
	// b copies a exactly; c is an independent fair coin against a.
	block := [][]uint8{
		{0, 0, 0}, {0, 0, 1}, {1, 1, 0}, {1, 1, 1},
	}
	d := repeatRows(t, []string{"a", "b", "c"}, block, 25)
	cfg, err := NewScoreConfig(d, nil, 1, 0)
	if err != nil {
		t.Fatalf("NewScoreConfig: %v", err)
	}

	withEdge := cfg.FamilyScore(1, []int{0})
	without := cfg.FamilyScore(1, nil)
	if withEdge <= without {
		t.Fatalf("deterministic dependence not rewarded: with=%v without=%v", withEdge, without)
	}

	// Independence: the marginal likelihood itself must prefer no parent.
	indepWith := cfg.FamilyScore(2, []int{0})
	indepWithout := cfg.FamilyScore(2, nil)
	if indepWith >= indepWithout {
		t.Fatalf("independent parent not penalized: with=%v without=%v", indepWith, indepWithout)
	}
}

func TestKappaPenalizesParents(t *testing.T) {
	block := [][]uint8{{0, 0}, {1, 1}}
	d := repeatRows(t, []string{"a", "b"}, block, 20)

	plain, err := NewScoreConfig(d, nil, 1, 0)
	if err != nil {
		t.Fatalf("NewScoreConfig: %v", err)
	}
	penalized, err := NewScoreConfig(d, nil, 1, 2.5)
	if err != nil {
		t.Fatalf("NewScoreConfig: %v", err)
	}

	diff := plain.FamilyScore(1, []int{0}) - penalized.FamilyScore(1, []int{0})
	if math.Abs(diff-2.5) > 1e-12 {
		t.Fatalf("penalty difference = %v, want 2.5", diff)
	}
	// No parents, no penalty.
	if plain.FamilyScore(1, nil) != penalized.FamilyScore(1, nil) {
		t.Fatal("kappa changed a parentless family score")
	}
}

func TestZeroWeightSamplesAreIgnored(t *testing.T) {
	names := []string{"a", "b"}
	rows := [][]uint8{{0, 0}, {1, 1}, {1, 0}, {0, 1}}
	d, err := NewDataset(names, rows)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	sub, err := NewDataset(names, rows[:2])
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}

	masked, err := NewScoreConfig(d, []float64{1, 1, 0, 0}, 1, 0)
	if err != nil {
		t.Fatalf("NewScoreConfig: %v", err)
	}
	direct, err := NewScoreConfig(sub, nil, 1, 0)
	if err != nil {
		t.Fatalf("NewScoreConfig: %v", err)
	}

	s := NewStructure(2)
	mustAdd(t, s, 0, 1)
	if got, want := masked.StructureScore(s), direct.StructureScore(s); math.Abs(got-want) > 1e-12 {
		t.Fatalf("masked score = %v, direct score on kept rows = %v", got, want)
	}
	if masked.TotalWeight() != 2 {
		t.Fatalf("TotalWeight = %v, want 2", masked.TotalWeight())
	}
}

func TestSampleLogScores(t *testing.T) {
	block := [][]uint8{{0, 0}, {1, 1}}
	d := repeatRows(t, []string{"a", "b"}, block, 30)
	cfg, err := NewScoreConfig(d, nil, 1, 0)
	if err != nil {
		t.Fatalf("NewScoreConfig: %v", err)
	}

	s := NewStructure(2)
	mustAdd(t, s, 0, 1)
	scores, err := cfg.SampleLogScores(s)
	if err != nil {
		t.Fatalf("SampleLogScores: %v", err)
	}
	if len(scores) != d.Len() {
		t.Fatalf("got %d scores for %d samples", len(scores), d.Len())
	}
	for i, sc := range scores {
		if sc >= 0 || math.IsInf(sc, 0) || math.IsNaN(sc) {
			t.Fatalf("score[%d] = %v, want finite negative", i, sc)
		}
	}
	// Both observed patterns are equally frequent, so they score equally.
	if math.Abs(scores[0]-scores[1]) > 1e-12 {
		t.Fatalf("equal-frequency patterns scored differently: %v vs %v", scores[0], scores[1])
	}

	// Dimension mismatch surfaces as an error, not a panic.
	if _, err := cfg.SampleLogScores(NewStructure(3)); err == nil {
		t.Fatal("expected error for structure/dataset variable mismatch")
	}
}

func TestDatasetValidation(t *testing.T) {
	if _, err := NewDataset(nil, nil); err == nil {
		t.Fatal("expected error for zero variables")
	}
	if _, err := NewDataset([]string{"a", "b"}, [][]uint8{{0}}); err == nil {
		t.Fatal("expected error for short row")
	}
	if _, err := NewDataset([]string{"a"}, [][]uint8{{2}}); err == nil {
		t.Fatal("expected error for non-binary value")
	}
}
