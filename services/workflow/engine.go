package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SuccessPolicy decides the workflow-level success flag.
type SuccessPolicy string

const (
	// SuccessAny reports success when at least one node succeeded.
	SuccessAny SuccessPolicy = "any"
	// SuccessAll reports success only when every attempted node succeeded.
	SuccessAll SuccessPolicy = "all"
)

// ParseSuccessPolicy validates a policy name from configuration.
func ParseSuccessPolicy(s string) (SuccessPolicy, error) {
	switch SuccessPolicy(s) {
	case SuccessAny, SuccessAll:
		return SuccessPolicy(s), nil
	case "":
		return SuccessAny, nil
	default:
		return "", fmt.Errorf("unknown success policy %q", s)
	}
}

// Engine runs a workflow's nodes in declaration order.
type Engine struct {
	registry    *Registry
	executor    *Executor
	policy      SuccessPolicy
	nodeTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithSuccessPolicy sets how the overall success flag is computed.
func WithSuccessPolicy(p SuccessPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithNodeTimeout bounds each node's execution.
func WithNodeTimeout(d time.Duration) Option {
	return func(e *Engine) { e.nodeTimeout = d }
}

// NewEngine creates an Engine with the given registry.
func NewEngine(registry *Registry, opts ...Option) *Engine {
	e := &Engine{registry: registry, policy: SuccessAny}
	for _, opt := range opts {
		opt(e)
	}
	e.executor = NewExecutor(registry, e.nodeTimeout)
	return e
}

// Registry returns the registry the engine dispatches through.
func (e *Engine) Registry() *Registry { return e.registry }

// Run executes wf strictly sequentially. Only structural problems with the
// workflow are returned as errors; node outcomes are data in the report.
// A fatal node failure stops the run and the report holds the results of
// every node attempted so far.
func (e *Engine) Run(ctx context.Context, wf *Workflow, globals map[string]any) (*Report, error) {
	if err := validateWorkflow(wf); err != nil {
		return nil, err
	}

	startTime := time.Now()
	report := &Report{
		ExecutionID:  uuid.New().String(),
		Status:       RunRunning,
		WorkflowName: wf.Name,
	}

	log.Info().Str("execution_id", report.ExecutionID).Str("workflow", wf.Name).Int("nodes", len(wf.Nodes)).Msg("Starting workflow execution")

	results := make([]ExecutionResult, 0, len(wf.Nodes))
	abortedAt := ""

	for _, node := range wf.Nodes {
		params := ResolveParameters(globals, node.Data, node.Parameters)
		res := e.executor.Execute(ctx, node, params)
		results = append(results, res)

		if res.Critical && !res.Success {
			abortedAt = node.ID
			break
		}
	}

	report.ExecutionResults = results
	report.Summary = summarize(results)
	report.Success = e.succeeded(report.Summary)

	if abortedAt != "" {
		report.Status = RunAborted
		report.Message = fmt.Sprintf("Workflow aborted at node %s after a critical failure", abortedAt)
	} else {
		report.Status = RunCompleted
		if report.Summary.FailedNodes == 0 {
			report.Message = "Workflow executed successfully"
		} else {
			report.Message = fmt.Sprintf("Workflow completed with %d failed node(s)", report.Summary.FailedNodes)
		}
	}

	endTime := time.Now()
	report.StartTime = startTime.UTC().Format(time.RFC3339)
	report.EndTime = endTime.UTC().Format(time.RFC3339)
	report.TotalDuration = endTime.Sub(startTime).Milliseconds()
	report.Timestamp = report.EndTime

	log.Info().
		Str("execution_id", report.ExecutionID).
		Str("status", string(report.Status)).
		Bool("success", report.Success).
		Int("successful", report.Summary.SuccessfulNodes).
		Int("failed", report.Summary.FailedNodes).
		Msg("Workflow execution finished")

	return report, nil
}

func (e *Engine) succeeded(s Summary) bool {
	if e.policy == SuccessAll {
		return s.TotalNodes > 0 && s.FailedNodes == 0
	}
	return s.SuccessfulNodes > 0
}

func summarize(results []ExecutionResult) Summary {
	s := Summary{TotalNodes: len(results)}
	for _, r := range results {
		switch {
		case r.Success:
			s.SuccessfulNodes++
			if r.Skipped {
				s.SkippedNodes++
			}
		default:
			s.FailedNodes++
		}
	}
	return s
}

func validateWorkflow(wf *Workflow) error {
	if wf == nil || len(wf.Nodes) == 0 {
		return configErr("validate workflow", ErrNoNodes)
	}

	seen := make(map[string]bool, len(wf.Nodes))
	for i, node := range wf.Nodes {
		if node.ID == "" {
			return configErr("validate workflow", fmt.Errorf("%w: node at index %d has no id", ErrInvalidWorkflow, i))
		}
		if seen[node.ID] {
			return configErr("validate workflow", fmt.Errorf("%w: duplicate node id %q", ErrInvalidWorkflow, node.ID))
		}
		seen[node.ID] = true
	}
	return nil
}
