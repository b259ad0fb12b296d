package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"automation-platform/api/services/workflow"
)

func newNodeTypesCommand(load configLoader) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "node-types",
		Short: "List the registered node types and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := load(cmd); err != nil {
				return err
			}

			// Definitions do not depend on collaborators being configured.
			registry, err := workflow.NewBuiltinRegistry(workflow.Dependencies{})
			if err != nil {
				return err
			}
			defs := registry.List()

			if asJSON {
				out, err := json.MarshalIndent(map[string]any{"nodeTypes": defs}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tALIASES\tPARAMETERS")
			for _, def := range defs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Name, strings.Join(def.Aliases, ", "), describeParams(def.Parameters))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print definitions as JSON")

	return cmd
}

func describeParams(specs []workflow.ParamSpec) string {
	parts := make([]string, 0, len(specs))
	for _, p := range specs {
		s := p.Name + ":" + string(p.Type)
		if p.Required {
			s += "*"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
