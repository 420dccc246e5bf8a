package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/piranna/projectlint/pkg/models/domain"
	"github.com/piranna/projectlint/pkg/services/scheduler"
)

// ErrorLevel selects which returned errors the cascade may catch as
// recoverable failures.
type ErrorLevel string

const (
	// ErrorLevelFailure: only domain.Failure errors are recoverable.
	ErrorLevelFailure ErrorLevel = "failure"
	// ErrorLevelError widens catchability to every returned error. Panics
	// stay fatal in both modes.
	ErrorLevelError ErrorLevel = "error"
)

// bindRule turns one rule plus its normalized level list into a scheduler
// task body for one project root. Each invocation produces a fresh
// execution record; nothing is shared across roots.
func bindRule(root string, rule domain.Rule, levels []domain.LevelConfig, mode ErrorLevel) scheduler.RunFunc {
	return func(ctx context.Context, deps map[string]scheduler.Result) (scheduler.Report, error) {
		exec, err := runCascade(ctx, root, rule, levels, mode, unwrapDeps(deps))
		return scheduler.Report{Value: exec, Failed: exec.Failure != nil}, err
	}
}

// unwrapDeps exposes each dependency's produced value (its fetched result)
// to the depending rule, not its execution record.
func unwrapDeps(deps map[string]scheduler.Result) map[string]any {
	out := make(map[string]any, len(deps))
	for name, res := range deps {
		if exec, ok := res.Value.(*domain.RuleExecution); ok {
			out[name] = exec.Result
			continue
		}
		out[name] = res.Value
	}
	return out
}

// runCascade executes one rule against one project root: fetch once, then
// visit failing levels in ascending order, keeping the worst recorded
// failure. The returned execution stays meaningful on a fatal abort; the
// error return tells the scheduler the rule crashed.
func runCascade(
	ctx context.Context,
	root string,
	rule domain.Rule,
	levels []domain.LevelConfig,
	mode ErrorLevel,
	deps map[string]any,
) (*domain.RuleExecution, error) {
	exec := &domain.RuleExecution{
		Rule:      rule.Name,
		DependsOn: rule.DependsOn,
		Status:    domain.RunOK,
	}

	fetched, err := runFetch(ctx, rule, domain.FetchInput{Root: root, Deps: deps})
	if err != nil {
		exec.Status = domain.RunCrashed
		exec.Err = err
		return exec, err
	}
	exec.Result = fetched

	var fixConfig map[string]any
	for _, lc := range levels {
		// Control levels configure dependent-execution behavior; there is
		// no threshold to check the facts against.
		if !lc.Level.Failing() {
			continue
		}

		outcome, err := runEvaluate(ctx, rule, domain.CheckInput{
			Root:    root,
			Fetched: fetched,
			Config:  lc.Config,
			Deps:    deps,
		})

		failure, fatal := classify(outcome, err, mode)
		if fatal != nil {
			exec.Status = domain.RunCrashed
			exec.Err = fatal
			return exec, fatal
		}
		if failure == nil {
			continue
		}

		// Levels are visited ascending, so overwriting keeps the most
		// severe violated level.
		exec.Level = lc.Level
		exec.Failure = failure
		exec.Status = domain.RunFailed
		fixConfig = lc.Config
	}

	if exec.Failure != nil && rule.Fix != nil {
		in := domain.FixInput{
			Root:    root,
			Fetched: fetched,
			Config:  fixConfig,
			Failure: exec.Failure,
		}
		exec.Fix = func(ctx context.Context) error {
			return runFix(ctx, rule, in)
		}
	}

	return exec, nil
}

// classify sorts one level's settled outcome into success (nil, nil),
// recoverable failure or fatal error.
func classify(outcome any, err error, mode ErrorLevel) (*domain.Failure, error) {
	if err != nil {
		var pe *panicError
		if errors.As(err, &pe) {
			return nil, err
		}
		var failure *domain.Failure
		if errors.As(err, &failure) {
			return failure, nil
		}
		if mode == ErrorLevelError {
			return domain.NewFailure(err.Error(), err), nil
		}
		return nil, err
	}
	if payload := failurePayload(outcome); payload != nil {
		return domain.NewFailure("check did not pass", payload), nil
	}
	return nil, nil
}

// failurePayload reports a returned (not thrown) violation: a non-empty
// slice or a non-empty map. Everything else counts as success.
func failurePayload(outcome any) any {
	if outcome == nil {
		return nil
	}
	v := reflect.ValueOf(outcome)
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		if v.Len() > 0 {
			return outcome
		}
	}
	return nil
}

func runFetch(ctx context.Context, rule domain.Rule, in domain.FetchInput) (fetched any, err error) {
	if rule.Fetch == nil {
		return nil, nil
	}
	defer recoverAsError(rule.Name, "fetch", &err)
	return rule.Fetch(ctx, in)
}

func runEvaluate(ctx context.Context, rule domain.Rule, in domain.CheckInput) (outcome any, err error) {
	defer recoverAsError(rule.Name, "evaluate", &err)
	return rule.Evaluate(ctx, in)
}

func runFix(ctx context.Context, rule domain.Rule, in domain.FixInput) (err error) {
	defer recoverAsError(rule.Name, "fix", &err)
	return rule.Fix(ctx, in)
}

// panicError marks an error as originating from a panic so that classify
// never downgrades it to a recoverable failure, regardless of mode.
type panicError struct {
	rule string
	step string
	val  any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("rule %q: %s panicked: %v", e.rule, e.step, e.val)
}

func recoverAsError(rule, step string, err *error) {
	if r := recover(); r != nil {
		*err = &panicError{rule: rule, step: step, val: r}
	}
}
