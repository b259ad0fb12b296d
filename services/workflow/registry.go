package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ParamType is the declared type of a node parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamObject  ParamType = "object"
	ParamArray   ParamType = "array"
	ParamAny     ParamType = "any"
)

// ParamSpec describes one parameter accepted by a node type.
type ParamSpec struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
	Options     []string  `json:"options,omitempty"`
	Default     any       `json:"default,omitempty"`
}

// Definition is the descriptive metadata of a node type.
type Definition struct {
	Name        string      `json:"name"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	Aliases     []string    `json:"aliases,omitempty"`
	Parameters  []ParamSpec `json:"parameters"`

	// Legacy maps historical parameter keys to their canonical names.
	Legacy map[string]string `json:"-"`

	// Unbounded node types are exempt from the executor's per-node timeout.
	// They still stop when the caller's context is cancelled.
	Unbounded bool `json:"-"`
}

// Output is what a handler produces on success.
type Output struct {
	Data    any
	Message string
}

// NodeType is the executable behavior bound to a node type name.
type NodeType interface {
	Definition() Definition
	Execute(ctx context.Context, params Params) (Output, error)
}

type registeredType struct {
	nodeType NodeType
	def      Definition
	schema   *jsonschema.Schema
}

// Registry maps node type names and aliases to handlers. It is populated at
// startup and only read afterwards.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*registeredType
	index map[string]*registeredType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*registeredType),
		index: make(map[string]*registeredType),
	}
}

// normalizeType is the single place where node type strings are folded so
// "EmailSend", "emailsend" and " EMAILSEND " resolve to the same entry.
func normalizeType(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a handler under its name and aliases.
func (r *Registry) Register(nt NodeType) error {
	if nt == nil {
		return configErr("register", errors.New("node type cannot be nil"))
	}

	def := nt.Definition()
	name := normalizeType(def.Name)
	if name == "" {
		return configErr("register", errors.New("node type name cannot be empty"))
	}

	schema, err := compileSchema(def)
	if err != nil {
		return configErr("register "+def.Name, err)
	}

	keys := append([]string{def.Name}, def.Aliases...)

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		nk := normalizeType(k)
		if nk == "" || seen[nk] {
			continue
		}
		seen[nk] = true
		if existing, ok := r.index[nk]; ok {
			return configErr("register "+def.Name, fmt.Errorf("%w: %q (held by %q)", ErrDuplicateNodeType, k, existing.def.Name))
		}
	}

	entry := &registeredType{nodeType: nt, def: def, schema: schema}
	r.types[name] = entry
	for k := range seen {
		r.index[k] = entry
	}
	return nil
}

// MustRegister is Register for startup code that cannot recover.
func (r *Registry) MustRegister(nt NodeType) {
	if err := r.Register(nt); err != nil {
		panic(err)
	}
}

// Get looks up a handler by name or alias.
func (r *Registry) Get(name string) (NodeType, bool) {
	entry, ok := r.lookup(name)
	if !ok {
		return nil, false
	}
	return entry.nodeType, true
}

func (r *Registry) lookup(name string) (*registeredType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.index[normalizeType(name)]
	return entry, ok
}

// List returns the definitions of all registered node types sorted by name.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.types))
	for _, entry := range r.types {
		defs = append(defs, entry.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
