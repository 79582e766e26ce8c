package internal

import "time"

// Run is one correction run over an input document.
type Run struct {
	ID         string    `json:"id"`
	InputFile  string    `json:"input_file"`
	OutputFile string    `json:"output_file"`
	Language   string    `json:"language"`
	StartedAt  time.Time `json:"started_at"`
}

// RunStats counts what a run did.
type RunStats struct {
	Chunks    int `json:"chunks"`
	Batches   int `json:"batches"`
	Cached    int `json:"cached"`
	Corrected int `json:"corrected"`
}

const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)
