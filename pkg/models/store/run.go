package store

import "time"

// RunResult is one persisted row: one rule's outcome in one project root
// during one engine run.
type RunResult struct {
	RunID       string
	ProjectRoot string
	Rule        string
	Status      string
	// Level is nil when no failing level was recorded.
	Level     *int
	Failure   string
	Error     string
	CreatedAt time.Time
}
