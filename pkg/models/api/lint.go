package api

import "time"

// LintRequest is the web API's lint invocation body.
type LintRequest struct {
	Roots      []string       `json:"roots,omitempty"`
	Configs    map[string]any `json:"configs"`
	ErrorLevel string         `json:"error_level,omitempty"`
	Fix        bool           `json:"fix,omitempty"`
}

// RuleResult is one rule's outcome in one project root.
type RuleResult struct {
	Rule      string   `json:"rule"`
	DependsOn []string `json:"depends_on,omitempty"`
	Status    string   `json:"status"`
	Level     *int     `json:"level,omitempty"`
	LevelName string   `json:"level_name,omitempty"`
	Failure   any      `json:"failure,omitempty"`
	Error     string   `json:"error,omitempty"`
	Fixable   bool     `json:"fixable,omitempty"`
}

// RootResult groups the rule outcomes of one project root.
type RootResult struct {
	Root    string                `json:"root"`
	Results map[string]RuleResult `json:"results"`
}

// LintResponse is the web API's lint invocation reply.
type LintResponse struct {
	RunID string       `json:"run_id"`
	Roots []RootResult `json:"roots"`
}

// RunRecord is one persisted history row.
type RunRecord struct {
	RunID       string    `json:"run_id"`
	ProjectRoot string    `json:"project_root"`
	Rule        string    `json:"rule"`
	Status      string    `json:"status"`
	Level       *int      `json:"level,omitempty"`
	Failure     string    `json:"failure,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
