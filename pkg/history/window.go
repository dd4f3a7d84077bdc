// Package history keeps the per-session conversation context: a bounded,
// insertion-ordered window of prior interactions, and the derived
// summaries surfaced to the script generator on follow-up questions.
package history

import (
	"sync"
	"time"

	"github.com/askframe/askframe/pkg/result"
	"github.com/askframe/askframe/pkg/script"
)

// scriptExcerptLen caps how much of a prior script is surfaced in context.
const scriptExcerptLen = 200

// Interaction records one completed pipeline run. Immutable once appended;
// partial or in-flight interactions are never visible in a window.
type Interaction struct {
	ID             string           `json:"id"`
	Question       string           `json:"question"`
	Script         string           `json:"script"`
	Verdict        script.Verdict   `json:"verdict"`
	Success        bool             `json:"success"`
	Envelope       *result.Envelope `json:"envelope,omitempty"`
	Interpretation string           `json:"interpretation,omitempty"`
	Error          string           `json:"error,omitempty"`
	Elapsed        time.Duration    `json:"elapsed"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Summary is the prompt-facing reduction of an Interaction: the question,
// a script excerpt, and a short result description. Full results are
// never carried into prompts.
type Summary struct {
	Question      string
	ScriptExcerpt string
	ResultSummary string
}

// Window is a fixed-capacity FIFO ring of Interactions. Appending beyond
// capacity evicts the oldest entry; order is strictly insertion order.
//
// The window synchronizes its own state, but callers wanting a defined
// interleaving of appends within one session must serialize requests
// themselves.
type Window struct {
	mu    sync.Mutex
	buf   []Interaction
	head  int // index of the oldest entry
	count int
}

// DefaultCapacity is used when a Window is created with no capacity.
const DefaultCapacity = 10

// NewWindow creates a Window holding at most capacity interactions.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{buf: make([]Interaction, capacity)}
}

// Capacity returns the maximum number of retained interactions.
func (w *Window) Capacity() int { return len(w.buf) }

// Len returns the current number of retained interactions.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Append inserts an interaction at the tail, evicting the oldest entry
// once capacity is exceeded.
func (w *Window) Append(it Interaction) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = it
		w.count++
		return
	}
	w.buf[w.head] = it
	w.head = (w.head + 1) % len(w.buf)
}

// Interactions returns the retained interactions in chronological order.
func (w *Window) Interactions() []Interaction {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Interaction, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// Recent returns summaries of at most lookback of the most recent
// interactions, in chronological order.
func (w *Window) Recent(lookback int) []Summary {
	if lookback <= 0 {
		return nil
	}
	all := w.Interactions()
	if lookback < len(all) {
		all = all[len(all)-lookback:]
	}
	out := make([]Summary, len(all))
	for i, it := range all {
		out[i] = summarize(it)
	}
	return out
}

// Clear discards all retained interactions.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.head = 0
	w.count = 0
}

func summarize(it Interaction) Summary {
	s := Summary{
		Question:      it.Question,
		ScriptExcerpt: excerpt(it.Script, scriptExcerptLen),
	}
	switch {
	case it.Error != "":
		s.ResultSummary = "Error: " + it.Error
	case it.Envelope != nil:
		s.ResultSummary = result.Summarize(*it.Envelope)
	default:
		s.ResultSummary = "No result"
	}
	return s
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
