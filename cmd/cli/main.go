package main

import (
	"fmt"
	"os"

	"github.com/piranna/projectlint/pkg/runtime/terminal"
	"github.com/piranna/projectlint/pkg/services/config"
	"github.com/piranna/projectlint/pkg/services/engine"
	"github.com/piranna/projectlint/pkg/services/rules"
	"github.com/piranna/projectlint/pkg/services/scheduler"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Registry: rules.DefaultRegistry(),
		Engine:   engine.New(scheduler.NewExecutor(), config.NewFileResolver()),
		Output:   os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
