package prng

import "testing"

func TestSeededDeterminism(t *testing.T) {
	a := NewSeeded(12345)
	b := NewSeeded(12345)

	for i := 0; i < 100; i++ {
		av := a.Range(0, 100)
		bv := b.Range(0, 100)
		if av != bv {
			t.Fatalf("sequence diverged at step %d: %d != %d", i, av, bv)
		}
	}
}

func TestSeededDifferentSeedsDiverge(t *testing.T) {
	a := NewSeeded(1)
	b := NewSeeded(2)

	same := true
	for i := 0; i < 20; i++ {
		if a.Next() != b.Next() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different seeds to diverge within 20 draws")
	}
}

func TestChanceBounds(t *testing.T) {
	p := NewSeeded(7)
	if !p.Chance(1, 1) {
		t.Fatal("Chance(1,1) must always be true")
	}
	if p.Chance(0, 1) {
		t.Fatal("Chance(0,1) must always be false")
	}
}

func TestSampleEmpty(t *testing.T) {
	p := NewSeeded(1)
	if got := p.Sample(nil); got != "" {
		t.Fatalf("expected empty string for empty slice, got %q", got)
	}
}
