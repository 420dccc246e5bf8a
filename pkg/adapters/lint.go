package adapters

import (
	"time"

	"github.com/piranna/projectlint/pkg/models/api"
	"github.com/piranna/projectlint/pkg/models/domain"
	"github.com/piranna/projectlint/pkg/models/store"
	"github.com/piranna/projectlint/pkg/services/engine"
)

func MapRuleExecutionDomainToApi(exec domain.RuleExecution) api.RuleResult {
	out := api.RuleResult{
		Rule:      exec.Rule,
		DependsOn: exec.DependsOn,
		Status:    string(exec.Status),
		Fixable:   exec.Fix != nil,
	}
	if exec.Level != 0 {
		level := int(exec.Level)
		out.Level = &level
		out.LevelName = exec.Level.String()
	}
	if exec.Failure != nil {
		out.Failure = exec.Failure.Payload
		if out.Failure == nil {
			out.Failure = exec.Failure.Message
		}
	}
	if exec.Err != nil {
		out.Error = exec.Err.Error()
	}
	return out
}

func MapResultsDomainToApi(runID string, results engine.Results) api.LintResponse {
	resp := api.LintResponse{RunID: runID}
	for root, rootResults := range results {
		rr := api.RootResult{Root: root, Results: make(map[string]api.RuleResult, len(rootResults))}
		for name, exec := range rootResults {
			rr.Results[name] = MapRuleExecutionDomainToApi(exec)
		}
		resp.Roots = append(resp.Roots, rr)
	}
	return resp
}

func MapResultsDomainToStore(runID string, results engine.Results, at time.Time) []store.RunResult {
	var rows []store.RunResult
	for root, rootResults := range results {
		for name, exec := range rootResults {
			row := store.RunResult{
				RunID:       runID,
				ProjectRoot: root,
				Rule:        name,
				Status:      string(exec.Status),
				CreatedAt:   at,
			}
			if exec.Level != 0 {
				level := int(exec.Level)
				row.Level = &level
			}
			if exec.Failure != nil {
				row.Failure = exec.Failure.Message
			}
			if exec.Err != nil {
				row.Error = exec.Err.Error()
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func MapRunResultStoreToApi(r store.RunResult) api.RunRecord {
	return api.RunRecord{
		RunID:       r.RunID,
		ProjectRoot: r.ProjectRoot,
		Rule:        r.Rule,
		Status:      r.Status,
		Level:       r.Level,
		Failure:     r.Failure,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
	}
}
