package chunker_test

import (
	"math/rand"
	"strings"
	"testing"
	"testing/quick"

	"github.com/valpere/autocorrect/internal/chunker"
)

func sentence(n int) string { return strings.Repeat("x", n) }

func TestBatch_SingleSentence(t *testing.T) {
	batches := chunker.Batch([]string{"This is broken grammar."}, chunker.DefaultMaxChars)
	if len(batches) != 1 || batches[0] != "This is broken grammar." {
		t.Errorf("unexpected batches %q", batches)
	}
}

func TestBatch_JoinsWithSpaces(t *testing.T) {
	batches := chunker.Batch([]string{"One.", "Two.", "Three."}, 100)
	if len(batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(batches))
	}
	if batches[0] != "One. Two. Three." {
		t.Errorf("got %q", batches[0])
	}
}

// 1000/2000/1500 characters against a 2000 budget: no two neighbours fit
// together, so every sentence gets its own batch.
func TestBatch_GreedyPackingScenario(t *testing.T) {
	s1, s2, s3 := sentence(1000), sentence(2000), sentence(1500)

	batches := chunker.Batch([]string{s1, s2, s3}, 2000)

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	for i, want := range []string{s1, s2, s3} {
		if batches[i] != want {
			t.Errorf("batch %d has %d chars, want %d", i, chunker.Len(batches[i]), len(want))
		}
	}
}

func TestBatch_PacksWhatFits(t *testing.T) {
	s := []string{sentence(900), sentence(900), sentence(900), sentence(199)}

	batches := chunker.Batch(s, 2000)

	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if chunker.Len(batches[0]) != 1801 {
		t.Errorf("first batch = %d chars, want 1801", chunker.Len(batches[0]))
	}
	if chunker.Len(batches[1]) != 1100 {
		t.Errorf("second batch = %d chars, want 1100", chunker.Len(batches[1]))
	}
}

func TestBatch_SeparatorCountsAgainstBudget(t *testing.T) {
	batches := chunker.Batch([]string{sentence(1000), sentence(1000)}, 2000)
	if len(batches) != 2 {
		t.Errorf("1000+1+1000 exceeds 2000, expected 2 batches, got %d", len(batches))
	}
}

func TestBatch_OversizedSentenceKept(t *testing.T) {
	big := sentence(2500)

	batches := chunker.Batch([]string{"short.", big, "tail."}, 2000)

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if batches[1] != big {
		t.Errorf("oversized sentence must form its own batch")
	}
}

func TestBatch_RunesNotBytes(t *testing.T) {
	umlauts := strings.Repeat("ä", 10)
	batches := chunker.Batch([]string{umlauts, umlauts}, 21)
	if len(batches) != 1 {
		t.Errorf("21 code points fit in 21, got %d batches", len(batches))
	}
}

func TestBatch_Unlimited(t *testing.T) {
	batches := chunker.Batch([]string{sentence(5000), sentence(5000)}, 0)
	if len(batches) != 1 {
		t.Errorf("expected 1 batch when maxChars=0, got %d", len(batches))
	}
}

func TestBatch_Empty(t *testing.T) {
	if batches := chunker.Batch(nil, 2000); len(batches) != 0 {
		t.Errorf("expected no batches, got %q", batches)
	}
}

func TestBatch_Property(t *testing.T) {
	const budget = 2000
	cfg := &quick.Config{MaxCount: 200, Rand: rand.New(rand.NewSource(7))}

	property := func(lengths []uint16) bool {
		in := make([]string, len(lengths))
		for i, l := range lengths {
			in[i] = sentence(int(l % 3000))
		}

		batches := chunker.Batch(in, budget)

		var out []string
		for _, b := range batches {
			parts := strings.Split(b, " ")
			if chunker.Len(b) > budget && len(parts) != 1 {
				return false
			}
			out = append(out, parts...)
		}
		if len(out) != len(in) {
			return false
		}
		for i := range in {
			if out[i] != in[i] {
				return false
			}
		}
		return true
	}
	if err := quick.Check(property, cfg); err != nil {
		t.Error(err)
	}
}
