package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/piranna/projectlint/pkg/adapters"
	"github.com/piranna/projectlint/pkg/models/domain"
	"github.com/piranna/projectlint/pkg/runtime/terminal/export"
	"github.com/piranna/projectlint/pkg/services/engine"
	"github.com/piranna/projectlint/pkg/services/rules"
	"github.com/piranna/projectlint/pkg/store/duckdb"
	"github.com/piranna/projectlint/pkg/store/duckdb/history"
)

type RunCmd struct {
	configInline string
	errorLevel   string
	fix          bool
	historyPath  string
	registry     rules.Registry
	engine       *engine.Engine
	reporter     *export.Reporter
}

// NewRunCmd evaluates the registered rules against the given project roots.
// Configs come from --config (inline YAML) or from each root's rc file.
func NewRunCmd(registry rules.Registry, eng *engine.Engine, reporter *export.Reporter) *cobra.Command {
	rc := &RunCmd{registry: registry, engine: eng, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "run [roots...]",
		Short: "Evaluate the rule set against one or more project roots",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.configInline, "config", "", "Inline YAML rule configs (overrides rc files)")
	cmd.Flags().StringVar(&rc.errorLevel, "error-level", "failure",
		"Which thrown errors the cascade may catch: failure or error")
	cmd.Flags().BoolVar(&rc.fix, "fix", false, "Auto-invoke fixes for the worst violated level")
	cmd.Flags().StringVar(&rc.historyPath, "history", "", "DuckDB file to record this run in")

	return cmd
}

func (rc *RunCmd) run(cmd *cobra.Command, args []string) error {
	var configs map[string]any
	if rc.configInline != "" {
		if err := yaml.Unmarshal([]byte(rc.configInline), &configs); err != nil {
			return fmt.Errorf("failed to parse --config: %w", err)
		}
	}

	results, err := rc.engine.Run(cmd.Context(), rc.registry.All(), configs, engine.Options{
		ErrorLevel:  engine.ErrorLevel(rc.errorLevel),
		ProjectRoot: args,
		Fix:         rc.fix,
	})
	if err != nil {
		return err
	}

	if rc.historyPath != "" {
		if err := rc.record(cmd, results); err != nil {
			return err
		}
	}

	if err := rc.reporter.Handle(results); err != nil {
		return err
	}

	if worst := worstLevel(results); worst >= domain.LevelError {
		return fmt.Errorf("lint failed at level %s", worst)
	}
	return nil
}

func (rc *RunCmd) record(cmd *cobra.Command, results engine.Results) error {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: rc.historyPath})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	store, err := history.NewStore(db)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(cmd.Context(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	ctx := duckdb.WithTransaction(cmd.Context(), tx)

	runID := uuid.NewString()
	rows := adapters.MapResultsDomainToStore(runID, results, time.Now().UTC())
	if err := store.Add(ctx, rows); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to record run %s: %w", runID, err)
	}
	return tx.Commit()
}

func worstLevel(results engine.Results) domain.Level {
	var worst domain.Level
	for _, rootResults := range results {
		for _, exec := range rootResults {
			if exec.Level > worst {
				worst = exec.Level
			}
			if exec.Err != nil && worst < domain.LevelCritical {
				worst = domain.LevelCritical
			}
		}
	}
	return worst
}
