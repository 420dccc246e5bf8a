package domain

import "context"

// FetchInput is what a rule's fetch step receives: the project root under
// evaluation and the values produced by the rule's settled dependencies.
type FetchInput struct {
	Root string
	Deps map[string]any
}

// CheckInput is what a rule's evaluate step receives on every level visit.
// Fetched carries the facts gathered once per execution; Config carries the
// current level's policy thresholds.
type CheckInput struct {
	Root    string
	Fetched any
	Config  map[string]any
	Deps    map[string]any
}

// FixInput is what a rule's fix step receives: the worst failing level's
// config, the fetched facts and the recorded failure.
type FixInput struct {
	Root    string
	Fetched any
	Config  map[string]any
	Failure *Failure
}

type (
	FetchFunc    func(ctx context.Context, in FetchInput) (any, error)
	EvaluateFunc func(ctx context.Context, in CheckInput) (any, error)
	FixFunc      func(ctx context.Context, in FixInput) error
)

// Rule is one named check. Evaluate is mandatory; Fetch gathers facts once
// per execution, Fix repairs the worst recorded violation on demand.
type Rule struct {
	Name      string
	Evaluate  EvaluateFunc
	Fetch     FetchFunc
	Fix       FixFunc
	DependsOn []string
}

// LevelConfig binds one severity level to its policy config. A rule's
// normalized configuration is an ascending-by-level sequence of these.
type LevelConfig struct {
	Level  Level
	Config map[string]any
}

// RunStatus is the terminal state of one rule in one project root.
type RunStatus string

const (
	RunOK       RunStatus = "ok"
	RunFailed   RunStatus = "failed"
	RunCrashed  RunStatus = "crashed"
	RunSkipped  RunStatus = "skipped"
	RunDisabled RunStatus = "disabled"
)

// FixThunk is a deferred corrective action bound to the worst failing
// level's config. It is constructed after the cascade settles and invoked
// on demand, never eagerly.
type FixThunk func(ctx context.Context) error

// RuleExecution is the terminal report for one rule in one project root.
// It is created exactly once when the rule's cascade settles and never
// mutated afterwards; concurrent evaluations of the same rule across roots
// each get their own record.
type RuleExecution struct {
	Rule      string
	DependsOn []string
	Status    RunStatus

	// Level is the worst failing level recorded by the cascade; zero when
	// no level failed.
	Level   Level
	Failure *Failure
	Fix     FixThunk

	// Result is the rule's fetched value, the value dependents consume.
	Result any

	// Err is set on fatal settlement. Level/Result still reflect whatever
	// was recorded before the abort.
	Err error
}
