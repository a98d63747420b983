package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ConfigValidator validates widget parameters against their schema.
type ConfigValidator interface {
	Validate(def WidgetDefinition, params map[string]any) error
}

// JSONSchemaValidator compiles widget schemas and validates parameter maps.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate ensures the provided parameters satisfy the widget schema.
func (v *JSONSchemaValidator) Validate(def WidgetDefinition, params map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	var payload map[string]any
	if params == nil {
		payload = map[string]any{}
	} else {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("dashboard: marshal params for %s: %w", def.Code, err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("dashboard: normalize params for %s: %w", def.Code, err)
		}
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("dashboard: parameters for %s failed validation: %w", def.Code, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(def WidgetDefinition) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[def.Code]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", def.Code, err)
	}
	compiler := jsonschema.NewCompiler()
	name := def.Code + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", def.Code, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", def.Code, err)
	}
	v.mu.Lock()
	v.compiled[def.Code] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// DefaultParams returns the schema defaults rendered as form values.
func DefaultParams(def WidgetDefinition) map[string]string {
	out := map[string]string{}
	for name, prop := range schemaProperties(def) {
		if v, ok := prop["default"]; ok {
			out[name] = fmt.Sprint(v)
		}
	}
	return out
}

// ParamNames lists schema property names in a stable order.
func ParamNames(def WidgetDefinition) []string {
	props := schemaProperties(def)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CoerceParams converts raw form values into typed parameters. Empty values
// fall back to the schema default; integers that do not parse are kept as
// strings so schema validation reports them.
func CoerceParams(def WidgetDefinition, raw map[string]string) map[string]any {
	out := map[string]any{}
	for name, prop := range schemaProperties(def) {
		value := strings.TrimSpace(raw[name])
		if value == "" {
			if d, ok := prop["default"]; ok {
				out[name] = d
			}
			continue
		}
		switch prop["type"] {
		case "integer":
			if n, err := strconv.Atoi(value); err == nil {
				out[name] = n
				continue
			}
			out[name] = value
		default:
			out[name] = value
		}
	}
	return out
}

func schemaProperties(def WidgetDefinition) map[string]map[string]any {
	out := map[string]map[string]any{}
	props, _ := def.Schema["properties"].(map[string]any)
	for name, raw := range props {
		if prop, ok := raw.(map[string]any); ok {
			out[name] = prop
		}
	}
	return out
}
