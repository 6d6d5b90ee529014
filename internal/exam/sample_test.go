package exam

import (
	"fmt"
	"testing"
)

func makePool(n int) []Question {
	pool := make([]Question, n)
	for i := range pool {
		pool[i] = Question{
			ID:            i + 1,
			Text:          fmt.Sprintf("q%d", i+1),
			Options:       []string{"a", "b"},
			CorrectAnswer: 1,
		}
	}
	return pool
}

func TestSampleSizeAndUniqueness(t *testing.T) {
	pool := makePool(20)
	for k := 1; k <= 20; k++ {
		got := Sample(pool, k)
		if len(got) != k {
			t.Fatalf("k=%d: got %d questions", k, len(got))
		}
		seen := map[int]bool{}
		for _, q := range got {
			if seen[q.ID] {
				t.Fatalf("k=%d: duplicate question %d", k, q.ID)
			}
			if q.ID < 1 || q.ID > 20 {
				t.Fatalf("k=%d: question %d not from pool", k, q.ID)
			}
			seen[q.ID] = true
		}
	}
}

func TestSampleClampsToPoolSize(t *testing.T) {
	pool := makePool(5)
	got := Sample(pool, 10)
	if len(got) != 5 {
		t.Fatalf("want full pool of 5, got %d", len(got))
	}
	seen := map[int]bool{}
	for _, q := range got {
		seen[q.ID] = true
	}
	if len(seen) != 5 {
		t.Fatalf("clamped sample must contain every question, got %v", seen)
	}
}

func TestSampleLeavesPoolIntact(t *testing.T) {
	pool := makePool(10)
	Sample(pool, 10)
	for i, q := range pool {
		if q.ID != i+1 {
			t.Fatalf("pool order mutated at %d: %d", i, q.ID)
		}
	}
}

func TestSampleDegenerateInputs(t *testing.T) {
	if got := Sample(nil, 3); got != nil {
		t.Errorf("empty pool: got %v", got)
	}
	if got := Sample(makePool(3), 0); got != nil {
		t.Errorf("zero count: got %v", got)
	}
}
