package shared

import (
	"bytes"
	"sort"
	"testing"

	"github.com/charmbracelet/log"
)

func TestGenerateID(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := GenerateID()
		if id == "" {
			t.Fatal("expected non-empty ID")
		}
		if seen[id] {
			t.Fatalf("expected unique IDs, got duplicate %s", id)
		}
		seen[id] = true
	}
}

func TestShuffle(t *testing.T) {
	t.Run("Preserves Elements", func(t *testing.T) {
		in := []int{1, 2, 3, 4, 5, 6, 7, 8}
		out := Shuffle(in)

		if len(out) != len(in) {
			t.Fatalf("expected %d elements, got %d", len(in), len(out))
		}

		sorted := make([]int, len(out))
		copy(sorted, out)
		sort.Ints(sorted)
		for i, v := range sorted {
			if v != i+1 {
				t.Fatalf("expected same multiset after shuffle, got %v", out)
			}
		}
	})

	t.Run("Does Not Mutate Input", func(t *testing.T) {
		in := []string{"a", "b", "c", "d"}
		Shuffle(in)

		for i, v := range []string{"a", "b", "c", "d"} {
			if in[i] != v {
				t.Fatalf("expected input untouched, got %v", in)
			}
		}
	})

	t.Run("Empty Input", func(t *testing.T) {
		if out := Shuffle([]int{}); len(out) != 0 {
			t.Errorf("expected empty output, got %v", out)
		}
	})
}

func TestLogger(t *testing.T) {
	t.Run("NewLogger Writes To Writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello")

		if buf.Len() == 0 {
			t.Error("expected log output")
		}
	})

	t.Run("WithLogger Adds Context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "service", "spotify")
		logger.Info("hello")

		if !bytes.Contains(buf.Bytes(), []byte("spotify")) {
			t.Errorf("expected context key in output, got %s", buf.String())
		}
	})

	t.Run("SetLogLevel Filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.ErrorLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected info suppressed at error level, got %s", buf.String())
		}
	})
}
