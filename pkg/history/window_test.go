package history

import (
	"fmt"
	"strings"
	"testing"

	"github.com/askframe/askframe/pkg/result"
)

func interaction(i int) Interaction {
	return Interaction{
		ID:       fmt.Sprintf("intr_%03d", i),
		Question: fmt.Sprintf("question %d", i),
		Script:   fmt.Sprintf("result = %d", i),
		Success:  true,
	}
}

func TestWindowAppendWithinCapacity(t *testing.T) {
	w := NewWindow(5)
	for i := 0; i < 3; i++ {
		w.Append(interaction(i))
	}
	if w.Len() != 3 {
		t.Fatalf("len = %d, want 3", w.Len())
	}
	all := w.Interactions()
	for i, it := range all {
		if it.Question != fmt.Sprintf("question %d", i) {
			t.Errorf("entry %d = %q, out of order", i, it.Question)
		}
	}
}

func TestWindowEvictsOldest(t *testing.T) {
	const capacity = 5
	w := NewWindow(capacity)
	for i := 0; i < capacity+3; i++ {
		w.Append(interaction(i))
	}
	if w.Len() != capacity {
		t.Fatalf("len = %d, want %d", w.Len(), capacity)
	}
	all := w.Interactions()
	// Entries 0..2 were evicted; 3..7 remain in chronological order.
	for i, it := range all {
		want := fmt.Sprintf("question %d", i+3)
		if it.Question != want {
			t.Errorf("entry %d = %q, want %q", i, it.Question, want)
		}
	}
}

func TestWindowManyWraps(t *testing.T) {
	w := NewWindow(4)
	for i := 0; i < 103; i++ {
		w.Append(interaction(i))
	}
	all := w.Interactions()
	if len(all) != 4 {
		t.Fatalf("len = %d, want 4", len(all))
	}
	if all[0].Question != "question 99" || all[3].Question != "question 102" {
		t.Errorf("window = [%s .. %s], want questions 99..102", all[0].Question, all[3].Question)
	}
}

func TestWindowRecent(t *testing.T) {
	w := NewWindow(10)
	for i := 0; i < 6; i++ {
		w.Append(interaction(i))
	}

	recent := w.Recent(3)
	if len(recent) != 3 {
		t.Fatalf("recent len = %d, want 3", len(recent))
	}
	// Most recent three, oldest of them first.
	for i, s := range recent {
		want := fmt.Sprintf("question %d", i+3)
		if s.Question != want {
			t.Errorf("recent[%d] = %q, want %q", i, s.Question, want)
		}
	}
}

func TestWindowRecentFewerThanLookback(t *testing.T) {
	w := NewWindow(10)
	w.Append(interaction(0))
	if got := len(w.Recent(3)); got != 1 {
		t.Errorf("recent len = %d, want 1", got)
	}
	if got := w.Recent(0); got != nil {
		t.Errorf("recent(0) = %v, want nil", got)
	}
}

func TestWindowRecentSummaries(t *testing.T) {
	w := NewWindow(10)

	env := result.Encode(int64(60), result.DefaultLimits())
	w.Append(Interaction{
		Question: "total sales?",
		Script:   `result = sum(df["amount"])`,
		Success:  true,
		Envelope: &env,
	})
	w.Append(Interaction{
		Question: "broken one",
		Script:   "result = x",
		Error:    "name \"x\" is not defined",
	})

	recent := w.Recent(3)
	if recent[0].ResultSummary != "Numeric value: 60" {
		t.Errorf("summary = %q", recent[0].ResultSummary)
	}
	if !strings.HasPrefix(recent[1].ResultSummary, "Error: ") {
		t.Errorf("error summary = %q", recent[1].ResultSummary)
	}
}

func TestWindowScriptExcerptBounded(t *testing.T) {
	w := NewWindow(10)
	long := strings.Repeat("x = 1\n", 100)
	w.Append(Interaction{Question: "q", Script: long})

	s := w.Recent(1)[0]
	if len(s.ScriptExcerpt) > scriptExcerptLen+3 {
		t.Errorf("excerpt len = %d, want at most %d plus marker", len(s.ScriptExcerpt), scriptExcerptLen)
	}
	if !strings.HasSuffix(s.ScriptExcerpt, "...") {
		t.Errorf("excerpt %q should end with marker", s.ScriptExcerpt)
	}
}

func TestWindowClear(t *testing.T) {
	w := NewWindow(5)
	for i := 0; i < 5; i++ {
		w.Append(interaction(i))
	}
	w.Clear()
	if w.Len() != 0 {
		t.Fatalf("len after clear = %d", w.Len())
	}
	w.Append(interaction(9))
	all := w.Interactions()
	if len(all) != 1 || all[0].Question != "question 9" {
		t.Errorf("window after clear = %v", all)
	}
}

func TestWindowZeroCapacityDefaults(t *testing.T) {
	w := NewWindow(0)
	if w.Capacity() != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", w.Capacity(), DefaultCapacity)
	}
}
