package workflow

import (
	"fmt"
	"strings"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
)

// Params is the effective parameter set handed to a handler.
type Params map[string]any

// ResolveParameters merges the parameter sources of one node. Precedence from
// lowest to highest is global < data < parameters. The merge is shallow and a
// nil value never replaces a value from a lower source.
func ResolveParameters(global, data, parameters map[string]any) Params {
	out := make(Params, len(global)+len(data)+len(parameters))
	for _, src := range []map[string]any{global, data, parameters} {
		for k, v := range src {
			if v == nil {
				continue
			}
			out[k] = v
		}
	}
	return out
}

// String returns the value under key when it is a non-blank string.
func (p Params) String(key string) (string, bool) {
	s, ok := p[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Missing returns the required parameters of def that are absent or blank.
func (p Params) Missing(def Definition) []string {
	var missing []string
	for _, spec := range def.Parameters {
		if !spec.Required {
			continue
		}
		v, ok := p[spec.Name]
		if !ok || v == nil {
			missing = append(missing, spec.Name)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, spec.Name)
		}
	}
	return missing
}

// requireParams fails fatally when any required parameter of def is missing.
func requireParams(def Definition, p Params) error {
	if missing := p.Missing(def); len(missing) > 0 {
		return MissingParameters(missing...)
	}
	return nil
}

// migrateLegacy copies values stored under historical keys to their canonical
// key. The canonical key always wins when both are present.
func migrateLegacy(p Params, legacy map[string]string) Params {
	if len(legacy) == 0 {
		return p
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for old, canonical := range legacy {
		v, ok := out[old]
		if !ok || v == nil {
			continue
		}
		if cur, exists := out[canonical]; !exists || cur == nil {
			out[canonical] = v
		}
	}
	return out
}

// canonicalOptions rewrites string values of enumerated parameters to the
// declared spelling when they differ only in case, so "post" matches "POST".
func canonicalOptions(def Definition, p Params) Params {
	var out Params
	for _, spec := range def.Parameters {
		s, ok := p[spec.Name].(string)
		if !ok || len(spec.Options) == 0 {
			continue
		}
		v := strings.TrimSpace(s)
		for _, opt := range spec.Options {
			if opt != s && strings.EqualFold(opt, v) {
				if out == nil {
					out = make(Params, len(p))
					for k, val := range p {
						out[k] = val
					}
				}
				out[spec.Name] = opt
				break
			}
		}
	}
	if out == nil {
		return p
	}
	return out
}

// decodeConfig maps loose parameters onto a typed configuration struct.
// Legacy keys are migrated first, values are weakly typed ("50" decodes into
// an int) and zero fields are filled from defaults.
func decodeConfig[T any](p Params, defaults T, legacy map[string]string) (T, error) {
	var cfg T

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "param",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, fmt.Errorf("create decoder: %w", err)
	}

	if err := dec.Decode(map[string]any(migrateLegacy(p, legacy))); err != nil {
		return cfg, Fatalf("invalid parameters: %v", err)
	}

	if err := mergo.Merge(&cfg, defaults); err != nil {
		return cfg, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}
