package api

import (
	"time"

	"github.com/askframe/askframe/pkg/dataset"
	"github.com/askframe/askframe/pkg/result"
)

// AnalyzeRequest asks a question about a session's dataset.
type AnalyzeRequest struct {
	Question string `json:"question"`
}

// AnalysisError describes a failed pipeline run in the closed taxonomy
// exposed to callers: validation_failed, execution_failed, or timeout.
type AnalysisError struct {
	Category string `json:"category"`
	Detail   string `json:"detail"`
}

// AnalyzeResponse is the complete answer to one analysis request. Error
// and Envelope are mutually exclusive; Script is present whenever a
// script was generated, even on failed runs.
type AnalyzeResponse struct {
	InteractionID string           `json:"interaction_id"`
	Question      string           `json:"question"`
	Script        string           `json:"script,omitempty"`
	Envelope      *result.Envelope `json:"result,omitempty"`
	Explanation   string           `json:"explanation,omitempty"`
	Error         *AnalysisError   `json:"error,omitempty"`
	ElapsedMillis int64            `json:"elapsed_ms"`
}

// CreateSessionRequest ingests a dataset and opens a session around it.
// Rows are row-oriented records; Columns fixes the column order.
type CreateSessionRequest struct {
	Name    string           `json:"name"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// SessionInfo describes a session without its data.
type SessionInfo struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"created_at"`
	RowCount  int                  `json:"row_count"`
	Schema    []dataset.ColumnSpec `json:"schema"`
}

// CreateSessionResponse confirms session creation with a data profile.
type CreateSessionResponse struct {
	SessionID  string               `json:"session_id"`
	Name       string               `json:"name"`
	RowCount   int                  `json:"row_count"`
	Schema     []dataset.ColumnSpec `json:"schema"`
	Sample     []map[string]any     `json:"sample"`
	NullCounts map[string]int       `json:"null_counts,omitempty"`
}

// SessionList enumerates sessions.
type SessionList struct {
	Sessions []SessionInfo `json:"sessions"`
	Total    int           `json:"total"`
}
