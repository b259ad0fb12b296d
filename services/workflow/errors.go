package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoNodes           = errors.New("workflow has no nodes")
	ErrInvalidWorkflow   = errors.New("invalid workflow")
	ErrDuplicateNodeType = errors.New("node type already registered")
)

// ConfigError is a structural problem detected before any node runs, or a
// registration conflict detected at startup.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(op string, err error) error {
	return &ConfigError{Op: op, Err: err}
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// NodeError is returned by handlers. Fatal errors stop the remaining pipeline.
type NodeError struct {
	Fatal   bool
	Missing []string
	Err     error
}

func (e *NodeError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required parameters: "+strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, "; ")
}

func (e *NodeError) Unwrap() error { return e.Err }

// MissingParameters returns a fatal error naming the absent fields.
func MissingParameters(fields ...string) error {
	return &NodeError{Fatal: true, Missing: fields}
}

// Fatal marks err as fatal for the workflow.
func Fatal(err error) error {
	return &NodeError{Fatal: true, Err: err}
}

// Fatalf formats a fatal error.
func Fatalf(format string, args ...any) error {
	return Fatal(fmt.Errorf(format, args...))
}

// IsFatal reports whether err should abort the workflow.
func IsFatal(err error) bool {
	var ne *NodeError
	return errors.As(err, &ne) && ne.Fatal
}
