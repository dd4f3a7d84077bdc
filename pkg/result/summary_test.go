package result

import (
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{
			name: "numeric scalar",
			env:  Encode(int64(60), DefaultLimits()),
			want: "Numeric value: 60",
		},
		{
			name: "boolean scalar",
			env:  Encode(true, DefaultLimits()),
			want: "Boolean value: true",
		},
		{
			name: "string scalar",
			env:  Encode("hello", DefaultLimits()),
			want: "String: hello",
		},
		{
			name: "series",
			env:  Encode(Pairs{{Key: "a", Value: int64(1)}, {Key: "b", Value: int64(2)}}, DefaultLimits()),
			want: "Series with 2 values",
		},
		{
			name: "array",
			env:  Encode([]any{int64(1), int64(2), int64(3)}, DefaultLimits()),
			want: "Array with 3 values",
		},
		{
			name: "none",
			env:  Encode(nil, DefaultLimits()),
			want: "Value: None",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.env); got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeTable(t *testing.T) {
	env := Encode(makeTable(t, 7), DefaultLimits())
	got := Summarize(env)
	if !strings.Contains(got, "7 rows") || !strings.Contains(got, "2 columns") {
		t.Errorf("Summarize() = %q, want shape mention", got)
	}
	if !strings.Contains(got, "id") || !strings.Contains(got, "name") {
		t.Errorf("Summarize() = %q, want column names", got)
	}
}

func TestDescribeTable(t *testing.T) {
	env := Encode(makeTable(t, 3), DefaultLimits())
	got := Describe(env)
	if !strings.Contains(got, "Table with shape [3 x 2]") {
		t.Errorf("Describe() = %q, want shape header", got)
	}
	if !strings.Contains(got, "id | name") {
		t.Errorf("Describe() = %q, want column row", got)
	}
	// All three rows plus header and column line.
	if lines := strings.Count(got, "\n"); lines != 4 {
		t.Errorf("Describe() has %d newlines, want 4:\n%s", lines, got)
	}
}

func TestDescribeTruncatedTableMentionsSample(t *testing.T) {
	env := Encode(makeTable(t, 25), Limits{MaxRows: 10, MaxChars: 10000})
	got := Describe(env)
	if !strings.Contains(got, "showing first 10 rows") {
		t.Errorf("Describe() = %q, want truncation note", got)
	}
}

func TestFallbackExplanation(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{
			name: "scalar",
			env:  Encode(int64(42), DefaultLimits()),
			want: "The calculated result is: 42",
		},
		{
			name: "table",
			env:  Encode(makeTable(t, 5), DefaultLimits()),
			want: "Analysis completed successfully. The result is a table with 5 rows and 2 columns.",
		},
		{
			name: "series",
			env:  Encode(Pairs{{Key: "a", Value: int64(1)}}, DefaultLimits()),
			want: "Analysis completed successfully. The result is a series with 1 values.",
		},
		{
			name: "array",
			env:  Encode([]any{int64(1), int64(2)}, DefaultLimits()),
			want: "Analysis completed successfully. The result is an array with 2 values.",
		},
		{
			name: "opaque",
			env:  Encode(nil, DefaultLimits()),
			want: "Analysis completed successfully. The results are shown above.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FallbackExplanation(tt.env); got != tt.want {
				t.Errorf("FallbackExplanation() = %q, want %q", got, tt.want)
			}
		})
	}
}
