package workflow

// Workflow is an ordered pipeline of nodes submitted for a single execution.
type Workflow struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name"`
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections,omitempty"`
}

// Node represents a single step in a workflow.
type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Position   *Position      `json:"position,omitempty"`
}

// Position holds x/y coordinates for rendering the node on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Connection is a source -> target link drawn in the builder.
// Execution order comes from Workflow.Nodes; connections are never consulted.
type Connection struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Label        string `json:"label,omitempty"`
}

// ExecuteRequest is the JSON body accepted by the execute endpoint.
type ExecuteRequest struct {
	Workflow   Workflow       `json:"workflow"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ExecutionResult is the normalized outcome of running one node.
type ExecutionResult struct {
	NodeID   string `json:"nodeId"`
	NodeType string `json:"nodeType"`
	Success  bool   `json:"success"`
	Result   any    `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message"`
	Critical bool   `json:"critical,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Duration int64  `json:"duration"`
}

// Summary counts the node outcomes of one run.
type Summary struct {
	TotalNodes      int `json:"totalNodes"`
	SuccessfulNodes int `json:"successfulNodes"`
	FailedNodes     int `json:"failedNodes"`
	SkippedNodes    int `json:"skippedNodes"`
}

// RunStatus is the terminal state of a workflow run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// Report is the top-level response returned after executing a workflow.
type Report struct {
	ExecutionID      string            `json:"executionId"`
	Success          bool              `json:"success"`
	Status           RunStatus         `json:"status"`
	Message          string            `json:"message"`
	WorkflowName     string            `json:"workflowName"`
	ExecutionResults []ExecutionResult `json:"executionResults"`
	Summary          Summary           `json:"summary"`
	StartTime        string            `json:"startTime"`
	EndTime          string            `json:"endTime"`
	TotalDuration    int64             `json:"totalDuration"`
	Timestamp        string            `json:"timestamp"`
}
