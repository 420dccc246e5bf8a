package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piranna/projectlint/pkg/models/domain"
)

// columnsRule mirrors the line-length policy: fetch produces the measured
// width, evaluate compares it against the level's "columns" threshold.
func columnsRule(used int, fixed *map[string]any) domain.Rule {
	rule := domain.Rule{
		Name: "columns",
		Fetch: func(context.Context, domain.FetchInput) (any, error) {
			return used, nil
		},
		Evaluate: func(_ context.Context, in domain.CheckInput) (any, error) {
			limit := in.Config["columns"].(int)
			if in.Fetched.(int) > limit {
				return nil, domain.Failuref("%d columns used, limit is %d", in.Fetched, limit)
			}
			return nil, nil
		},
	}
	if fixed != nil {
		rule.Fix = func(_ context.Context, in domain.FixInput) error {
			*fixed = in.Config
			return nil
		}
	}
	return rule
}

func columnLevels() []domain.LevelConfig {
	return []domain.LevelConfig{
		{Level: domain.LevelWarn, Config: map[string]any{"columns": 80}},
		{Level: domain.LevelError, Config: map[string]any{"columns": 100}},
	}
}

func TestRunCascade_WorstLevelWins(t *testing.T) {
	exec, err := runCascade(context.Background(), ".", columnsRule(101, nil), columnLevels(), ErrorLevelFailure, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelError, exec.Level)
	assert.NotNil(t, exec.Failure)
	assert.Equal(t, domain.RunFailed, exec.Status)
}

func TestRunCascade_OnlyLowerLevelFails(t *testing.T) {
	exec, err := runCascade(context.Background(), ".", columnsRule(100, nil), columnLevels(), ErrorLevelFailure, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelWarn, exec.Level)
	assert.NotNil(t, exec.Failure)
}

func TestRunCascade_NoFailure(t *testing.T) {
	exec, err := runCascade(context.Background(), ".", columnsRule(79, nil), columnLevels(), ErrorLevelFailure, nil)
	require.NoError(t, err)
	assert.Zero(t, exec.Level)
	assert.Nil(t, exec.Failure)
	assert.Nil(t, exec.Fix)
	assert.Equal(t, domain.RunOK, exec.Status)
}

func TestRunCascade_FixBoundToWorstLevelConfig(t *testing.T) {
	cases := []struct {
		name    string
		used    int
		wantCfg map[string]any
	}{
		{"both levels violated", 101, map[string]any{"columns": 100}},
		{"only warn violated", 100, map[string]any{"columns": 80}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var fixed map[string]any
			exec, err := runCascade(context.Background(), ".", columnsRule(tc.used, &fixed), columnLevels(), ErrorLevelFailure, nil)
			require.NoError(t, err)
			require.NotNil(t, exec.Fix)

			// The thunk is deferred: nothing ran yet.
			assert.Nil(t, fixed)
			require.NoError(t, exec.Fix(context.Background()))
			assert.Equal(t, tc.wantCfg, fixed)
		})
	}
}

func TestRunCascade_FetchedValueIsTheResult(t *testing.T) {
	exec, err := runCascade(context.Background(), ".", columnsRule(101, nil), columnLevels(), ErrorLevelFailure, nil)
	require.NoError(t, err)
	assert.Equal(t, 101, exec.Result, "dependents consume the fetched value even on failure")
}

func TestRunCascade_FetchErrorAbortsBeforeLevels(t *testing.T) {
	evaluated := false
	rule := domain.Rule{
		Name: "broken-fetch",
		Fetch: func(context.Context, domain.FetchInput) (any, error) {
			return nil, errors.New("fetch exploded")
		},
		Evaluate: func(context.Context, domain.CheckInput) (any, error) {
			evaluated = true
			return nil, nil
		},
		Fix: func(context.Context, domain.FixInput) error { return nil },
	}

	exec, err := runCascade(context.Background(), ".", rule, columnLevels(), ErrorLevelFailure, nil)
	require.Error(t, err)
	assert.False(t, evaluated, "no level may be evaluated after a fetch error")
	assert.Nil(t, exec.Fix, "no fix may be constructed after a fetch error")
	assert.Equal(t, domain.RunCrashed, exec.Status)
}

func TestRunCascade_FatalAbortsRemainingLevels(t *testing.T) {
	visits := 0
	rule := domain.Rule{
		Name: "fatal-mid-cascade",
		Evaluate: func(_ context.Context, in domain.CheckInput) (any, error) {
			visits++
			if in.Config["boom"] == true {
				return nil, errors.New("programming error")
			}
			return nil, domain.Failuref("failed at this level")
		},
		Fix: func(context.Context, domain.FixInput) error { return nil },
	}
	levels := []domain.LevelConfig{
		{Level: domain.LevelWarn, Config: map[string]any{}},
		{Level: domain.LevelError, Config: map[string]any{"boom": true}},
		{Level: domain.LevelCritical, Config: map[string]any{}},
	}

	exec, err := runCascade(context.Background(), ".", rule, levels, ErrorLevelFailure, nil)
	require.Error(t, err)
	assert.Equal(t, 2, visits, "the cascade must stop at the fatal level")
	assert.Nil(t, exec.Fix)

	// The lower-level recoverable failure recorded before the abort stays
	// visible on the rejected execution.
	assert.Equal(t, domain.LevelWarn, exec.Level)
	assert.NotNil(t, exec.Failure)
	assert.Equal(t, domain.RunCrashed, exec.Status)
}

func TestClassify_ErrorLevelModes(t *testing.T) {
	plain := errors.New("plain error")

	t.Run("failure mode treats plain errors as fatal", func(t *testing.T) {
		failure, fatal := classify(nil, plain, ErrorLevelFailure)
		assert.Nil(t, failure)
		assert.Equal(t, plain, fatal)
	})

	t.Run("error mode widens catchability", func(t *testing.T) {
		failure, fatal := classify(nil, plain, ErrorLevelError)
		assert.NoError(t, fatal)
		require.NotNil(t, failure)
		assert.Equal(t, "plain error", failure.Message)
	})

	t.Run("domain failures are recoverable in both modes", func(t *testing.T) {
		f := domain.Failuref("did not pass")
		for _, mode := range []ErrorLevel{ErrorLevelFailure, ErrorLevelError} {
			failure, fatal := classify(nil, f, mode)
			assert.NoError(t, fatal)
			assert.Equal(t, f, failure)
		}
	})

	t.Run("panics stay fatal in both modes", func(t *testing.T) {
		pe := &panicError{rule: "r", step: "evaluate", val: "kaboom"}
		for _, mode := range []ErrorLevel{ErrorLevelFailure, ErrorLevelError} {
			failure, fatal := classify(nil, pe, mode)
			assert.Nil(t, failure)
			assert.Error(t, fatal)
		}
	})
}

func TestClassify_ReturnedPayloads(t *testing.T) {
	t.Run("non-empty slice fails", func(t *testing.T) {
		failure, fatal := classify([]string{"offender"}, nil, ErrorLevelFailure)
		assert.NoError(t, fatal)
		require.NotNil(t, failure)
		assert.Equal(t, []string{"offender"}, failure.Payload)
	})

	t.Run("non-empty map fails", func(t *testing.T) {
		failure, _ := classify(map[string]int{"f.go": 101}, nil, ErrorLevelFailure)
		assert.NotNil(t, failure)
	})

	t.Run("empty composites succeed", func(t *testing.T) {
		for _, outcome := range []any{nil, []string{}, map[string]int{}} {
			failure, fatal := classify(outcome, nil, ErrorLevelFailure)
			assert.Nil(t, failure)
			assert.NoError(t, fatal)
		}
	})
}

func TestRunCascade_PanicInEvaluateIsFatal(t *testing.T) {
	rule := domain.Rule{
		Name: "panicky",
		Evaluate: func(context.Context, domain.CheckInput) (any, error) {
			panic("kaboom")
		},
	}

	_, err := runCascade(context.Background(), ".", rule,
		[]domain.LevelConfig{{Level: domain.LevelWarn}}, ErrorLevelError, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, "kaboom")
}

func TestRunCascade_ControlLevelsNotEvaluated(t *testing.T) {
	var seen []map[string]any
	rule := domain.Rule{
		Name: "controlled",
		Evaluate: func(_ context.Context, in domain.CheckInput) (any, error) {
			seen = append(seen, in.Config)
			return nil, nil
		},
	}
	levels := []domain.LevelConfig{
		{Level: domain.LevelSkipIf},
		{Level: domain.LevelWarn, Config: map[string]any{"columns": 80}},
	}

	_, err := runCascade(context.Background(), ".", rule, levels, ErrorLevelFailure, nil)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, map[string]any{"columns": 80}, seen[0])
}
