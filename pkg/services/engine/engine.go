// Package engine evaluates a named rule set against one or more project
// roots. Each rule's configuration is normalized into an ascending level
// list, each rule is bound to a cascading evaluation and handed to the
// dependency-graph scheduler, and settled outcomes are aggregated per root.
package engine

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/piranna/projectlint/pkg/models/domain"
	"github.com/piranna/projectlint/pkg/services/config"
	"github.com/piranna/projectlint/pkg/services/scheduler"
)

// Options tune one engine invocation.
type Options struct {
	// ErrorLevel selects the catchable error class; empty means "failure".
	ErrorLevel ErrorLevel
	// ProjectRoot lists the roots to evaluate; empty means the current
	// working directory.
	ProjectRoot []string
	// Fix auto-invokes constructed fix thunks once a root settles.
	Fix bool
}

// RootResults maps rule name to its execution record for one project root.
type RootResults map[string]domain.RuleExecution

// Results maps project root to its per-rule records.
type Results map[string]RootResults

// Engine runs rule sets. The scheduler collaborator decides dependency
// ordering; the optional resolver supplies configs when the caller passes
// none.
type Engine struct {
	executor scheduler.Executor
	resolver config.Resolver
}

// New builds an engine around a scheduler. resolver may be nil; running
// without configs then fails with a ConfigError.
func New(executor scheduler.Executor, resolver config.Resolver) *Engine {
	return &Engine{executor: executor, resolver: resolver}
}

// Run evaluates every rule against every requested project root.
//
// Configuration problems (missing rules or configs, unknown severity names,
// malformed configs, unknown dependency names, cycles, a bad ErrorLevel)
// are reported synchronously before any rule starts. Per-rule failures and
// crashes never surface here; they are recorded on the individual
// executions. One root's crash never aborts a sibling root.
func (e *Engine) Run(
	ctx context.Context,
	rules map[string]domain.Rule,
	configs map[string]any,
	opts Options,
) (Results, error) {
	mode, err := resolveErrorLevel(opts.ErrorLevel)
	if err != nil {
		return nil, err
	}
	if err := validateRules(rules); err != nil {
		return nil, err
	}

	roots, err := resolveRoots(opts.ProjectRoot)
	if err != nil {
		return nil, err
	}

	perRoot, err := e.resolveConfigs(ctx, rules, configs, roots)
	if err != nil {
		return nil, err
	}

	// The graph shape is root-independent; validate it once up front so
	// cycles and unknown names halt the call before any rule runs.
	if err := scheduler.Validate(taskShapes(rules)); err != nil {
		return nil, domain.NewConfigError("%v", err)
	}

	results := make(Results, len(roots))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, root := range roots {
		wg.Add(1)
		go func(root string) {
			defer wg.Done()
			rootResults := e.runRoot(ctx, root, rules, perRoot[root], mode, opts.Fix)
			mu.Lock()
			results[root] = rootResults
			mu.Unlock()
		}(root)
	}
	wg.Wait()

	return results, nil
}

// resolveConfigs normalizes every rule's raw config up front, per root.
// Explicit configs apply to all roots; otherwise the resolver supplies one
// raw config set per root.
func (e *Engine) resolveConfigs(
	ctx context.Context,
	rules map[string]domain.Rule,
	configs map[string]any,
	roots []string,
) (map[string]map[string]config.Normalized, error) {
	perRoot := make(map[string]map[string]config.Normalized, len(roots))

	if len(configs) > 0 {
		shared, err := normalizeAll(rules, configs)
		if err != nil {
			return nil, err
		}
		for _, root := range roots {
			perRoot[root] = shared
		}
		return perRoot, nil
	}

	if e.resolver == nil {
		return nil, domain.NewConfigError("missing rule configs and no config resolver configured")
	}
	for _, root := range roots {
		raw, err := e.resolver.Resolve(ctx, root)
		if err != nil {
			return nil, err
		}
		normalized, err := normalizeAll(rules, raw)
		if err != nil {
			return nil, err
		}
		perRoot[root] = normalized
	}
	return perRoot, nil
}

func normalizeAll(rules map[string]domain.Rule, configs map[string]any) (map[string]config.Normalized, error) {
	normalized := make(map[string]config.Normalized, len(rules))
	for name := range rules {
		raw, ok := configs[name]
		if !ok {
			return nil, domain.NewConfigError("missing config for rule %q", name)
		}
		n, err := config.Normalize(raw)
		if err != nil {
			return nil, domain.NewConfigError("rule %q: %v", name, err)
		}
		normalized[name] = n
	}
	return normalized, nil
}

// runRoot settles the whole rule set for one project root and reshapes the
// scheduler results into execution records.
func (e *Engine) runRoot(
	ctx context.Context,
	root string,
	rules map[string]domain.Rule,
	normalized map[string]config.Normalized,
	mode ErrorLevel,
	autoFix bool,
) RootResults {
	logger := zerolog.Ctx(ctx).With().Str("project_root", root).Logger()
	ctx = logger.WithContext(ctx)

	tasks := make(map[string]scheduler.Task, len(rules))
	for name, rule := range rules {
		n := normalized[name]
		tasks[name] = scheduler.Task{
			Run:       bindRule(root, rule, n.Levels, mode),
			DependsOn: rule.DependsOn,
			Control:   controlOf(n.Levels),
		}
	}

	settled, err := e.executor.Execute(ctx, tasks)
	if err != nil {
		// The graph was validated before any root started, so this only
		// fires on a misbehaving executor implementation.
		logger.Error().Err(err).Msg("scheduler rejected the rule set")
		return RootResults{}
	}

	results := make(RootResults, len(settled))
	for name, res := range settled {
		exec := reshape(name, rules[name], res)
		if autoFix && exec.Fix != nil && exec.Err == nil {
			if fixErr := exec.Fix(ctx); fixErr != nil {
				logger.Error().Err(fixErr).Str("rule", name).Msg("fix failed")
				exec.Err = fixErr
			}
		}
		results[name] = exec
	}
	return results
}

// reshape converts one scheduler result into the public record. Skipped and
// disabled rules never produced an execution, so a synthetic record carries
// their status.
func reshape(name string, rule domain.Rule, res scheduler.Result) domain.RuleExecution {
	if exec, ok := res.Value.(*domain.RuleExecution); ok && exec != nil {
		out := *exec
		out.Err = res.Err
		return out
	}
	exec := domain.RuleExecution{
		Rule:      name,
		DependsOn: rule.DependsOn,
		Err:       res.Err,
	}
	switch res.Status {
	case scheduler.StatusSkipped:
		exec.Status = domain.RunSkipped
	case scheduler.StatusDisabled:
		exec.Status = domain.RunDisabled
	case scheduler.StatusCrashed:
		exec.Status = domain.RunCrashed
	default:
		exec.Status = domain.RunOK
	}
	return exec
}

// controlOf picks the strongest control level the rule's config declares;
// disabled beats skip beats skipIf beats ignore.
func controlOf(levels []domain.LevelConfig) scheduler.Control {
	control := scheduler.ControlNone
	for _, lc := range levels {
		if lc.Level.Control() && scheduler.Control(lc.Level) < control {
			control = scheduler.Control(lc.Level)
		}
	}
	return control
}

func taskShapes(rules map[string]domain.Rule) map[string]scheduler.Task {
	shapes := make(map[string]scheduler.Task, len(rules))
	for name, rule := range rules {
		shapes[name] = scheduler.Task{DependsOn: rule.DependsOn}
	}
	return shapes
}

func resolveErrorLevel(level ErrorLevel) (ErrorLevel, error) {
	switch level {
	case "":
		return ErrorLevelFailure, nil
	case ErrorLevelFailure, ErrorLevelError:
		return level, nil
	default:
		return "", domain.NewConfigError("unknown error level %q", level)
	}
}

func validateRules(rules map[string]domain.Rule) error {
	if len(rules) == 0 {
		return domain.NewConfigError("no rules given")
	}
	for name, rule := range rules {
		if rule.Evaluate == nil {
			return domain.NewConfigError("rule %q has no evaluate function", name)
		}
	}
	return nil
}

// resolveRoots defaults to the working directory and deduplicates while
// preserving first-seen order.
func resolveRoots(roots []string) ([]string, error) {
	if len(roots) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		return []string{cwd}, nil
	}

	seen := make(map[string]struct{}, len(roots))
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		if _, dup := seen[root]; dup {
			continue
		}
		seen[root] = struct{}{}
		out = append(out, root)
	}
	return out, nil
}
