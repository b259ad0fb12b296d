package workflow

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var schemaPrinter = message.NewPrinter(language.English)

// schemaDocument renders a definition's parameters as a JSON Schema object.
// Numbers and booleans also accept strings since form inputs arrive as text
// and decodeConfig converts them.
func schemaDocument(def Definition) map[string]any {
	props := make(map[string]any, len(def.Parameters))
	required := []string{}

	for _, p := range def.Parameters {
		prop := map[string]any{}
		switch p.Type {
		case ParamString:
			prop["type"] = "string"
		case ParamNumber:
			prop["type"] = []string{"number", "string"}
		case ParamBoolean:
			prop["type"] = []string{"boolean", "string"}
		case ParamObject:
			prop["type"] = "object"
		case ParamArray:
			prop["type"] = "array"
		}
		if len(p.Options) > 0 {
			prop["enum"] = p.Options
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func compileSchema(def Definition) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schemaDocument(def))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	url := "node-" + normalizeType(def.Name) + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// validateParams checks resolved parameters against a compiled schema. Every
// violation is fatal: the node is misconfigured and retrying cannot help.
func validateParams(schema *jsonschema.Schema, params Params) error {
	raw, err := json.Marshal(pruneEmpty(params))
	if err != nil {
		return Fatalf("parameters are not serializable: %v", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return Fatalf("parameters are not valid json: %v", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return Fatal(err)
	}

	var missing, problems []string
	collectCauses(ve, &missing, &problems)

	ne := &NodeError{Fatal: true, Missing: missing}
	if len(problems) > 0 {
		ne.Err = errors.New(strings.Join(problems, "; "))
	}
	if len(missing) == 0 && ne.Err == nil {
		ne.Err = err
	}
	return ne
}

func collectCauses(ve *jsonschema.ValidationError, missing, problems *[]string) {
	if len(ve.Causes) == 0 {
		if req, ok := ve.ErrorKind.(*kind.Required); ok {
			*missing = append(*missing, req.Missing...)
			return
		}
		field := strings.Join(ve.InstanceLocation, ".")
		*problems = append(*problems, strings.TrimSpace(field+" "+ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}

	for _, cause := range ve.Causes {
		collectCauses(cause, missing, problems)
	}
}

// pruneEmpty drops nil values and blank strings so that a required field
// sent as "" is reported as missing.
func pruneEmpty(params Params) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		out[k] = v
	}
	return out
}
