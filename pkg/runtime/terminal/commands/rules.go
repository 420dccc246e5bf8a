package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piranna/projectlint/pkg/services/rules"
)

// NewRulesCmd lists the registered rules.
func NewRulesCmd(registry rules.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the registered rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range registry.List() {
				rule, err := registry.Create(name)
				if err != nil {
					return err
				}
				if len(rule.DependsOn) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (depends on: %v)\n", name, rule.DependsOn)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
