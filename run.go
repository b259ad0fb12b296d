package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"automation-platform/api/services/workflow"
)

func newRunCommand(load configLoader) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "run <workflow.json>",
		Short: "Execute a workflow file and print the report",
		Long: `Execute a workflow file locally. The file holds either an execute request
({"workflow": {...}, "parameters": {...}}) or a bare workflow. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			req, err := readExecuteRequest(args[0])
			if err != nil {
				return err
			}
			overrides, err := parseParams(params)
			if err != nil {
				return err
			}
			if req.Parameters == nil {
				req.Parameters = map[string]any{}
			}
			for k, v := range overrides {
				req.Parameters[k] = v
			}

			c, err := newContainer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := c.engine.Run(cmd.Context(), &req.Workflow, req.Parameters)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !report.Success {
				return errors.New(report.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Global parameter as key=value; JSON values are decoded")

	return cmd
}

func readExecuteRequest(path string) (*workflow.ExecuteRequest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open workflow: %w", err)
		}
		defer f.Close()
		r = f
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}

	var req workflow.ExecuteRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	if len(req.Workflow.Nodes) == 0 {
		var wf workflow.Workflow
		if err := json.Unmarshal(raw, &wf); err == nil && len(wf.Nodes) > 0 {
			req.Workflow = wf
		}
	}
	return &req, nil
}

// parseParams turns key=value pairs into parameters. Values that parse as
// JSON keep their type so "50" becomes a number and "true" a boolean.
func parseParams(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			out[key] = decoded
		} else {
			out[key] = value
		}
	}
	return out, nil
}
