package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Executor runs exactly one node and normalizes its outcome.
type Executor struct {
	registry *Registry
	timeout  time.Duration
}

// NewExecutor creates an executor dispatching through registry. A zero
// timeout means the handler may run as long as the caller's context allows.
// Node types marked Unbounded ignore the timeout.
func NewExecutor(registry *Registry, timeout time.Duration) *Executor {
	return &Executor{registry: registry, timeout: timeout}
}

type invocation struct {
	out Output
	err error
}

// Execute dispatches node to its handler with the resolved parameters. It
// never returns an error: unknown types become skips, handler errors and
// panics become failed results.
func (e *Executor) Execute(ctx context.Context, node Node, params Params) ExecutionResult {
	start := time.Now()
	result := ExecutionResult{NodeID: node.ID, NodeType: node.Type}

	entry, ok := e.registry.lookup(node.Type)
	if !ok {
		log.Info().Str("node_id", node.ID).Str("node_type", node.Type).Msg("Skipping node with unknown type")
		result.Success = true
		result.Skipped = true
		result.Result = map[string]any{"skipped": true, "reason": "unknown node type"}
		result.Message = fmt.Sprintf("Node type %q is not registered, skipped", node.Type)
		result.Duration = time.Since(start).Milliseconds()
		return result
	}

	params = canonicalOptions(entry.def, migrateLegacy(params, entry.def.Legacy))

	timeout := e.timeout
	if entry.def.Unbounded {
		timeout = 0
	}

	var out Output
	err := validateParams(entry.schema, params)
	if err == nil {
		out, err = invoke(ctx, entry.nodeType, params, timeout)
	}
	result.Duration = time.Since(start).Milliseconds()

	if err != nil {
		result.Success = false
		result.Error = err.Error()
		result.Critical = IsFatal(err)
		result.Message = fmt.Sprintf("Node %s (%s) failed: %s", node.ID, entry.def.Name, err.Error())

		ev := log.Warn()
		if result.Critical {
			ev = log.Error()
		}
		ev.Err(err).Str("node_id", node.ID).Str("node_type", node.Type).Bool("critical", result.Critical).Msg("Node failed")
		return result
	}

	result.Success = true
	result.Result = out.Data
	result.Message = out.Message
	if result.Message == "" {
		result.Message = fmt.Sprintf("Node %s (%s) completed", node.ID, entry.def.Name)
	}
	return result
}

// invoke runs the handler on its own goroutine so that a deadline or a
// cancelled context ends the node even when the handler ignores ctx.
func invoke(ctx context.Context, nt NodeType, params Params, timeout time.Duration) (Output, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan invocation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invocation{err: fmt.Errorf("handler panicked: %v", r)}
			}
		}()
		out, err := nt.Execute(ctx, params)
		done <- invocation{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) && timeout > 0 {
			return Output{}, fmt.Errorf("node timed out after %s: %w", timeout, res.err)
		}
		return res.out, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && timeout > 0 {
			return Output{}, fmt.Errorf("node timed out after %s", timeout)
		}
		return Output{}, fmt.Errorf("node cancelled: %w", ctx.Err())
	}
}
