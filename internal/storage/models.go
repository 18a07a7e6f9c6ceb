// Package storage persists run history to a local SQLite database. History
// is a convenience layer: the pipeline works identically with it disabled,
// and a store that fails to open is logged and skipped, never fatal.
package storage

import (
	"time"

	"github.com/google/uuid"
)

// Run is one complete document analysis: which file was processed, how many
// products it yielded and when it ran.
type Run struct {
	ID           uuid.UUID
	SourcePath   string
	ProductCount int
	FoundCount   int
	KitCount     int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// RunAnalysis is the stored summary of one product's analysis within a run.
// Free-text details and suggestions live in the exported report, not here.
type RunAnalysis struct {
	RunID          uuid.UUID
	ProductName    string
	ProductCode    string
	Category       string
	Found          bool
	AvgPrice       float64
	MarginPercent  float64
	OverallScore   float64
	Recommendation string
}
