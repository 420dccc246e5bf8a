// Package scheduler runs a set of named tasks honoring dependsOn edges and
// per-task control levels. It is the dependency-graph collaborator of the
// rule engine: the engine hands it one task per rule and reshapes the
// settled results.
package scheduler

import (
	"context"
	"fmt"
)

// Control modifies how a task's outcome propagates to its dependents.
type Control int

const (
	// ControlNone: a crash skips dependents, a plain failure is transparent.
	ControlNone Control = 0
	// ControlIgnore: the task's failure or crash is invisible to dependents.
	ControlIgnore Control = -1
	// ControlSkipIf: dependents are skipped only if the task failed.
	ControlSkipIf Control = -2
	// ControlSkip: dependents are always skipped, even on success.
	ControlSkip Control = -3
	// ControlDisabled: the task is not run at all and counts as explicitly
	// failed for its dependents.
	ControlDisabled Control = -4
)

// Report is what a task body hands back on normal settlement. Failed marks
// a recoverable rule failure, which is distinct from the error return that
// marks a crash.
type Report struct {
	Value  any
	Failed bool
}

// RunFunc is one task body. It receives the settled results of the task's
// declared dependencies, keyed by task name.
type RunFunc func(ctx context.Context, deps map[string]Result) (Report, error)

// Task is one node of the graph.
type Task struct {
	Run       RunFunc
	DependsOn []string
	Control   Control
}

// Status is the terminal state of one task.
type Status int

const (
	StatusOK Status = iota
	StatusFailed
	StatusCrashed
	StatusSkipped
	StatusDisabled
)

// Result is one task's settled outcome. Value is kept even on a crash so
// partially recorded state stays visible to the caller.
type Result struct {
	Value  any
	Err    error
	Status Status
}

// Executor settles a whole task graph. Each task's Run is invoked at most
// once, only after all of its dependencies have settled.
type Executor interface {
	Execute(ctx context.Context, tasks map[string]Task) (map[string]Result, error)
}

type graphExecutor struct{}

// NewExecutor returns the default dependency-ordered executor. Ready tasks
// run concurrently; settlement order between independent tasks is not
// guaranteed.
func NewExecutor() Executor {
	return &graphExecutor{}
}

// Validate checks the graph shape without running anything: every dependsOn
// edge must name a known task and the graph must be acyclic.
func Validate(tasks map[string]Task) error {
	indegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	for name, task := range tasks {
		indegree[name] += 0
		for _, dep := range task.DependsOn {
			if _, ok := tasks[dep]; !ok {
				return fmt.Errorf("task %q depends on unknown task %q", name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	queue := make([]string, 0, len(tasks))
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	seen := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		seen++
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if seen != len(tasks) {
		return fmt.Errorf("dependency cycle among tasks")
	}
	return nil
}

type settlement struct {
	name string
	res  Result
}

func (e *graphExecutor) Execute(ctx context.Context, tasks map[string]Task) (map[string]Result, error) {
	if err := Validate(tasks); err != nil {
		return nil, err
	}

	indegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	for name, task := range tasks {
		indegree[name] = len(task.DependsOn)
		for _, dep := range task.DependsOn {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	results := make(map[string]Result, len(tasks))
	done := make(chan settlement)
	running := 0

	// launch runs one task body in its own goroutine with a snapshot of its
	// settled dependencies. The main loop owns the results map, so the
	// snapshot is taken before the goroutine starts.
	launch := func(name string) {
		task := tasks[name]
		deps := make(map[string]Result, len(task.DependsOn))
		for _, dep := range task.DependsOn {
			deps[dep] = results[dep]
		}
		running++
		go func() {
			done <- settlement{name: name, res: runTask(ctx, task, deps)}
		}()
	}

	// settle records a result without running the task and returns the
	// dependents that became ready.
	var ready []string
	settle := func(name string, res Result) {
		results[name] = res
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}

	for len(ready) > 0 || running > 0 {
		for len(ready) > 0 {
			name := ready[0]
			ready = ready[1:]

			task := tasks[name]
			if task.Control == ControlDisabled {
				settle(name, Result{Status: StatusDisabled})
				continue
			}
			if blocker, blocked := skippedBy(tasks, task, results); blocked {
				settle(name, Result{
					Status: StatusSkipped,
					Err:    fmt.Errorf("skipped: dependency %q did not allow dependents to run", blocker),
				})
				continue
			}
			launch(name)
		}

		if running > 0 {
			s := <-done
			running--
			settle(s.name, s.res)
		}
	}

	return results, nil
}

// skippedBy decides whether a task must be skipped given its settled
// dependencies, applying each dependency's declared control level.
func skippedBy(tasks map[string]Task, task Task, results map[string]Result) (string, bool) {
	for _, dep := range task.DependsOn {
		res := results[dep]
		if tasks[dep].Control == ControlIgnore {
			continue
		}
		switch tasks[dep].Control {
		case ControlSkip:
			return dep, true
		case ControlSkipIf:
			if res.Status == StatusFailed || res.Status == StatusCrashed || res.Status == StatusDisabled {
				return dep, true
			}
		}
		// A crashed or disabled dependency always blocks, a skipped one
		// propagates; a plain recorded failure is transparent.
		switch res.Status {
		case StatusCrashed, StatusDisabled, StatusSkipped:
			return dep, true
		}
	}
	return "", false
}

func runTask(ctx context.Context, task Task, deps map[string]Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("task panicked: %v", r), Status: StatusCrashed}
		}
	}()

	report, err := task.Run(ctx, deps)
	if err != nil {
		return Result{Value: report.Value, Err: err, Status: StatusCrashed}
	}
	if report.Failed {
		return Result{Value: report.Value, Status: StatusFailed}
	}
	return Result{Value: report.Value, Status: StatusOK}
}
