package terminal

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/piranna/projectlint/pkg/runtime/terminal/commands"
	"github.com/piranna/projectlint/pkg/runtime/terminal/export"
	"github.com/piranna/projectlint/pkg/services/engine"
	"github.com/piranna/projectlint/pkg/services/rules"
)

// CLI represents the command-line interface
type CLI struct {
	registry rules.Registry
	engine   *engine.Engine
	reporter *export.Reporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Registry rules.Registry
	Engine   *engine.Engine
	Output   io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		registry: opts.Registry,
		engine:   opts.Engine,
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projectlint",
		Short: "Project-level rule evaluation",
	}

	cmd.AddCommand(commands.NewRunCmd(cli.registry, cli.engine, cli.reporter))
	cmd.AddCommand(commands.NewRulesCmd(cli.registry))

	return cmd
}
