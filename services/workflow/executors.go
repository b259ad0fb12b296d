package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Built-in node type names.
const (
	TypeEmail       = "email"
	TypeHTTPRequest = "http-request"
	TypeDelay       = "delay"
	TypeLog         = "log"
	TypeDatabase    = "database"
	TypeGenerate    = "generate"
)

// Dependencies are the external collaborators used by the built-in nodes.
// Nil collaborators make the nodes that need them fail non-fatally.
type Dependencies struct {
	Mail        MailSender
	DefaultFrom string
	HTTP        HTTPClient
	Store       Store
	Generator   ContentGenerator
	Logger      *zerolog.Logger
}

// RegisterBuiltins registers every built-in node type on reg.
func RegisterBuiltins(reg *Registry, deps Dependencies) error {
	httpClient := deps.HTTP
	if httpClient == nil {
		httpClient = NewOutboundClient()
	}
	logger := log.Logger
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	builtins := []NodeType{
		&EmailNode{sender: deps.Mail, defaultFrom: deps.DefaultFrom},
		&HTTPRequestNode{client: httpClient},
		&DelayNode{},
		&LogNode{logger: logger},
		&DatabaseNode{store: deps.Store},
		&GenerateNode{generator: deps.Generator},
	}
	for _, nt := range builtins {
		if err := reg.Register(nt); err != nil {
			return err
		}
	}
	return nil
}

// NewBuiltinRegistry creates a registry populated with all built-in node types.
func NewBuiltinRegistry(deps Dependencies) (*Registry, error) {
	reg := NewRegistry()
	if err := RegisterBuiltins(reg, deps); err != nil {
		return nil, err
	}
	return reg, nil
}

// EmailNode handles the "email" node type. It delegates delivery to a MailSender.
type EmailNode struct {
	sender      MailSender
	defaultFrom string
}

type emailConfig struct {
	Recipient  string `param:"recipient"`
	Subject    string `param:"subject"`
	Content    string `param:"content"`
	From       string `param:"from"`
	SenderName string `param:"sender_name"`
	HTML       bool   `param:"html"`
}

func (n *EmailNode) Definition() Definition {
	return Definition{
		Name:        TypeEmail,
		Label:       "Send Email",
		Description: "Send an email through the configured mail sender",
		Aliases:     []string{"EmailSend", "send-email"},
		Parameters: []ParamSpec{
			{Name: "recipient", Type: ParamString, Required: true, Description: "Recipient address"},
			{Name: "subject", Type: ParamString, Required: true},
			{Name: "content", Type: ParamString, Required: true, Description: "Message body"},
			{Name: "from", Type: ParamString, Description: "Sender address"},
			{Name: "sender_name", Type: ParamString, Description: "Display name for the sender"},
			{Name: "html", Type: ParamBoolean, Description: "Send content as HTML"},
		},
		Legacy: map[string]string{"to": "recipient", "body": "content", "text": "content"},
	}
}

func (n *EmailNode) Execute(ctx context.Context, params Params) (Output, error) {
	def := n.Definition()
	if err := requireParams(def, migrateLegacy(params, def.Legacy)); err != nil {
		return Output{}, err
	}

	cfg, err := decodeConfig(params, emailConfig{From: n.defaultFrom}, def.Legacy)
	if err != nil {
		return Output{}, err
	}
	if n.sender == nil {
		return Output{}, errors.New("mail sender is not configured")
	}

	from := cfg.From
	if cfg.SenderName != "" && from != "" && !strings.Contains(from, "<") {
		from = fmt.Sprintf("%s <%s>", cfg.SenderName, from)
	}

	receipt, err := n.sender.Send(ctx, MailMessage{
		Recipient: cfg.Recipient,
		Subject:   cfg.Subject,
		Content:   cfg.Content,
		From:      from,
		HTML:      cfg.HTML,
	})
	if err != nil {
		return Output{}, fmt.Errorf("send email: %w", err)
	}

	return Output{
		Message: fmt.Sprintf("Email sent to %s", cfg.Recipient),
		Data: map[string]any{
			"messageId": receipt.MessageID,
			"recipient": cfg.Recipient,
			"subject":   cfg.Subject,
		},
	}, nil
}

// HTTPRequestNode handles the "http-request" node type.
type HTTPRequestNode struct {
	client HTTPClient
}

type httpRequestConfig struct {
	URL     string            `param:"url"`
	Method  string            `param:"method"`
	Headers map[string]string `param:"headers"`
	Body    any               `param:"body"`
}

var httpMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"}

func (n *HTTPRequestNode) Definition() Definition {
	return Definition{
		Name:        TypeHTTPRequest,
		Label:       "HTTP Request",
		Description: "Call an external HTTP endpoint",
		Aliases:     []string{"HttpRequest", "api-call"},
		Parameters: []ParamSpec{
			{Name: "url", Type: ParamString, Required: true},
			{Name: "method", Type: ParamString, Options: httpMethods, Default: "GET"},
			{Name: "headers", Type: ParamObject},
			{Name: "body", Type: ParamAny, Description: "Request body; non-string values are sent as JSON"},
		},
		Legacy: map[string]string{"endpoint": "url", "payload": "body"},
	}
}

func (n *HTTPRequestNode) Execute(ctx context.Context, params Params) (Output, error) {
	def := n.Definition()
	if err := requireParams(def, migrateLegacy(params, def.Legacy)); err != nil {
		return Output{}, err
	}

	cfg, err := decodeConfig(params, httpRequestConfig{Method: "GET"}, def.Legacy)
	if err != nil {
		return Output{}, err
	}

	method := strings.ToUpper(cfg.Method)
	if !slices.Contains(httpMethods, method) {
		return Output{}, Fatalf("unsupported method %q", cfg.Method)
	}

	resp, err := n.client.Do(ctx, HTTPRequest{
		URL:     cfg.URL,
		Method:  method,
		Headers: cfg.Headers,
		Body:    cfg.Body,
	})
	if err != nil {
		return Output{}, fmt.Errorf("request failed: %w", err)
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return Output{}, fmt.Errorf("%s %s returned status %d %s", method, cfg.URL, resp.Status, resp.StatusText)
	}

	return Output{
		Message: fmt.Sprintf("%s %s returned %d", method, cfg.URL, resp.Status),
		Data: map[string]any{
			"status":     resp.Status,
			"statusText": resp.StatusText,
			"response":   resp.Response,
		},
	}, nil
}

// DelayNode handles the "delay" node type. It waits for the configured
// duration or until ctx is done.
type DelayNode struct{}

type delayConfig struct {
	Duration *int64 `param:"duration"`
}

const defaultDelayMillis = 1000

func (n *DelayNode) Definition() Definition {
	return Definition{
		Name:        TypeDelay,
		Label:       "Delay",
		Description: "Pause the workflow for a number of milliseconds",
		Aliases:     []string{"Delay", "wait"},
		Parameters: []ParamSpec{
			{Name: "duration", Type: ParamNumber, Default: defaultDelayMillis, Description: "Milliseconds to wait"},
		},
		Legacy:    map[string]string{"ms": "duration", "delay": "duration"},
		Unbounded: true,
	}
}

func (n *DelayNode) Execute(ctx context.Context, params Params) (Output, error) {
	cfg, err := decodeConfig(params, delayConfig{}, n.Definition().Legacy)
	if err != nil {
		return Output{}, err
	}

	// Only an absent duration takes the default; an explicit 0 does not wait.
	ms := int64(defaultDelayMillis)
	if cfg.Duration != nil {
		ms = *cfg.Duration
	}
	if ms < 0 {
		return Output{}, Fatalf("duration must not be negative, got %d", ms)
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return Output{}, ctx.Err()
	}

	return Output{
		Message: fmt.Sprintf("Waited %dms", ms),
		Data:    map[string]any{"delayed": ms},
	}, nil
}

// LogNode handles the "log" node type. It always succeeds.
type LogNode struct {
	logger zerolog.Logger
}

var logLevels = []string{"debug", "info", "warn", "error"}

type logConfig struct {
	Message string `param:"message"`
	Level   string `param:"level"`
}

func (n *LogNode) Definition() Definition {
	return Definition{
		Name:        TypeLog,
		Label:       "Log",
		Description: "Write a message to the execution log",
		Aliases:     []string{"Log", "console"},
		Parameters: []ParamSpec{
			{Name: "message", Type: ParamAny, Default: "Log node executed"},
			{Name: "level", Type: ParamAny, Default: "info", Description: "debug, info, warn or error; anything else logs at info"},
		},
	}
}

func (n *LogNode) Execute(_ context.Context, params Params) (Output, error) {
	cfg, err := decodeConfig(params, logConfig{Message: "Log node executed", Level: "info"}, nil)
	if err != nil {
		cfg = logConfig{Message: fmt.Sprint(params["message"]), Level: "info"}
	}

	level := zerolog.InfoLevel
	if name := strings.ToLower(strings.TrimSpace(cfg.Level)); slices.Contains(logLevels, name) {
		level, _ = zerolog.ParseLevel(name)
	}

	n.logger.WithLevel(level).Str("source", "workflow").Msg(cfg.Message)

	return Output{
		Message: cfg.Message,
		Data: map[string]any{
			"message":  cfg.Message,
			"level":    level.String(),
			"loggedAt": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// DatabaseNode handles the "database" node type against the persistence Store.
type DatabaseNode struct {
	store Store
}

type databaseConfig struct {
	Operation string `param:"operation"`
	Query     string `param:"query"`
	Args      []any  `param:"args"`
}

var databaseOperations = []string{"select", "query", "insert", "update", "delete", "execute"}

func (n *DatabaseNode) Definition() Definition {
	return Definition{
		Name:        TypeDatabase,
		Label:       "Database",
		Description: "Run a query against the persistence store",
		Aliases:     []string{"db", "sql"},
		Parameters: []ParamSpec{
			{Name: "operation", Type: ParamString, Required: true, Options: databaseOperations},
			{Name: "query", Type: ParamString, Required: true},
			{Name: "args", Type: ParamArray, Description: "Positional query arguments"},
		},
		Legacy: map[string]string{"sql": "query", "values": "args"},
	}
}

func (n *DatabaseNode) Execute(ctx context.Context, params Params) (Output, error) {
	def := n.Definition()
	if err := requireParams(def, migrateLegacy(params, def.Legacy)); err != nil {
		return Output{}, err
	}

	cfg, err := decodeConfig(params, databaseConfig{}, def.Legacy)
	if err != nil {
		return Output{}, err
	}

	op := strings.ToLower(cfg.Operation)
	if !slices.Contains(databaseOperations, op) {
		return Output{}, Fatalf("unsupported operation %q", cfg.Operation)
	}
	if n.store == nil {
		return Output{}, errors.New("persistence store is not configured")
	}

	if op == "select" || op == "query" {
		rows, err := n.store.Query(ctx, cfg.Query, cfg.Args...)
		if err != nil {
			return Output{}, fmt.Errorf("%s failed: %w", op, err)
		}
		return Output{
			Message: fmt.Sprintf("Query returned %d row(s)", len(rows)),
			Data:    map[string]any{"rows": rows, "rowCount": len(rows)},
		}, nil
	}

	affected, err := n.store.Exec(ctx, cfg.Query, cfg.Args...)
	if err != nil {
		return Output{}, fmt.Errorf("%s failed: %w", op, err)
	}
	return Output{
		Message: fmt.Sprintf("%s affected %d row(s)", op, affected),
		Data:    map[string]any{"rowsAffected": affected},
	}, nil
}

// GenerateNode handles the "generate" node type using a ContentGenerator.
type GenerateNode struct {
	generator ContentGenerator
}

type generateConfig struct {
	Prompt    string `param:"prompt"`
	System    string `param:"system"`
	Model     string `param:"model"`
	MaxTokens int    `param:"max_tokens"`
}

func (n *GenerateNode) Definition() Definition {
	return Definition{
		Name:        TypeGenerate,
		Label:       "Generate Content",
		Description: "Generate text with the configured language model",
		Aliases:     []string{"ai-generate", "llm", "chat"},
		Parameters: []ParamSpec{
			{Name: "prompt", Type: ParamString, Required: true},
			{Name: "system", Type: ParamString, Description: "System instructions"},
			{Name: "model", Type: ParamString},
			{Name: "max_tokens", Type: ParamNumber},
		},
		Legacy: map[string]string{"input": "prompt"},
	}
}

func (n *GenerateNode) Execute(ctx context.Context, params Params) (Output, error) {
	def := n.Definition()
	if err := requireParams(def, migrateLegacy(params, def.Legacy)); err != nil {
		return Output{}, err
	}

	cfg, err := decodeConfig(params, generateConfig{}, def.Legacy)
	if err != nil {
		return Output{}, err
	}
	if n.generator == nil {
		return Output{}, errors.New("content generator is not configured")
	}

	resp, err := n.generator.Generate(ctx, GenerateRequest{
		Prompt:    cfg.Prompt,
		System:    cfg.System,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return Output{}, fmt.Errorf("generate content: %w", err)
	}

	return Output{
		Message: fmt.Sprintf("Generated %d characters", len(resp.Content)),
		Data:    map[string]any{"content": resp.Content, "model": resp.Model},
	}, nil
}
