package panel

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current entity manifest format version.
	ManifestVersion = manifestVersionV1
)

//go:embed entities.yaml
var embeddedManifest []byte

// NumberKind selects the numeric parser applied to a field.
type NumberKind string

const (
	NumberFloat NumberKind = "float"
	NumberInt   NumberKind = "int"
)

// InputKind is the form control used for a field.
type InputKind string

const (
	InputText   InputKind = "text"
	InputNumber InputKind = "number"
)

// Field is a form field rendered in the create or edit row.
type Field struct {
	Name  string    `json:"name"`
	Input InputKind `json:"input"`
}

// EntityConfig declares everything the generic panel needs to manage one table.
type EntityConfig struct {
	Code         string                `json:"code" yaml:"code"`
	Label        string                `json:"label" yaml:"label"`
	Noun         string                `json:"noun" yaml:"noun"`
	ListPath     string                `json:"list_path" yaml:"list_path"`
	ResourcePath string                `json:"resource_path" yaml:"resource_path"`
	PrimaryKey   string                `json:"primary_key" yaml:"primary_key"`
	Confirm      string                `json:"confirm,omitempty" yaml:"confirm,omitempty"`
	Creatable    []string              `json:"creatable" yaml:"creatable"`
	Editable     []string              `json:"editable" yaml:"editable"`
	Display      []string              `json:"display" yaml:"display"`
	ReadOnly     []string              `json:"read_only,omitempty" yaml:"read_only,omitempty"`
	Numeric      map[string]NumberKind `json:"numeric,omitempty" yaml:"numeric,omitempty"`
}

// Title is the panel heading, e.g. "PRODUCT Table".
func (c EntityConfig) Title() string {
	return c.Label + " Table"
}

// ConfirmPrompt renders the delete confirmation question for id.
func (c EntityConfig) ConfirmPrompt(id string) string {
	prompt := c.Confirm
	if prompt == "" {
		prompt = "Delete " + strings.ToUpper(c.Noun) + " with ID={id}?"
	}
	return strings.ReplaceAll(prompt, "{id}", id)
}

// CreateFields lists the create-row form fields.
func (c EntityConfig) CreateFields() []Field {
	return c.fields(c.Creatable)
}

// EditFields lists the inline edit form fields.
func (c EntityConfig) EditFields() []Field {
	return c.fields(c.Editable)
}

// IsEditable reports whether column is rendered as an input while editing.
func (c EntityConfig) IsEditable(column string) bool {
	return slices.Contains(c.Editable, column)
}

func (c EntityConfig) fields(names []string) []Field {
	out := make([]Field, len(names))
	for i, name := range names {
		input := InputText
		if _, ok := c.Numeric[name]; ok {
			input = InputNumber
		}
		out[i] = Field{Name: name, Input: input}
	}
	return out
}

// Validate checks the structural rules every panel relies on.
func (c EntityConfig) Validate() error {
	switch {
	case c.Code == "":
		return fmt.Errorf("panel: entity code is required")
	case c.ListPath == "" || c.ResourcePath == "":
		return fmt.Errorf("panel: entity %s requires list_path and resource_path", c.Code)
	case c.PrimaryKey == "":
		return fmt.Errorf("panel: entity %s requires primary_key", c.Code)
	case !slices.Contains(c.Display, c.PrimaryKey):
		return fmt.Errorf("panel: entity %s must display its primary key %s", c.Code, c.PrimaryKey)
	}
	for _, field := range c.Editable {
		if field == c.PrimaryKey {
			return fmt.Errorf("panel: entity %s primary key %s cannot be editable", c.Code, field)
		}
		if slices.Contains(c.ReadOnly, field) {
			return fmt.Errorf("panel: entity %s read-only field %s cannot be editable", c.Code, field)
		}
		if !slices.Contains(c.Display, field) {
			return fmt.Errorf("panel: entity %s editable field %s is not displayed", c.Code, field)
		}
	}
	for _, field := range c.Creatable {
		if slices.Contains(c.ReadOnly, field) {
			return fmt.Errorf("panel: entity %s read-only field %s cannot be created", c.Code, field)
		}
	}
	for field, kind := range c.Numeric {
		if kind != NumberFloat && kind != NumberInt {
			return fmt.Errorf("panel: entity %s field %s has unknown numeric kind %q", c.Code, field, kind)
		}
		if !slices.Contains(c.Creatable, field) && !slices.Contains(c.Editable, field) {
			return fmt.Errorf("panel: entity %s numeric field %s is never submitted", c.Code, field)
		}
	}
	return nil
}

// Manifest is the YAML document listing entity configurations.
type Manifest struct {
	Version  string         `json:"version" yaml:"version"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Entities []EntityConfig `json:"entities" yaml:"entities"`
	Source   string         `json:"-" yaml:"-"`
}

// Validate ensures the manifest is usable.
func (m *Manifest) Validate() error {
	if m.Version != manifestVersionV1 {
		return fmt.Errorf("panel: unsupported manifest version %q", m.Version)
	}
	if len(m.Entities) == 0 {
		return fmt.Errorf("panel: manifest declares no entities")
	}
	seen := make(map[string]struct{}, len(m.Entities))
	for _, entity := range m.Entities {
		if err := entity.Validate(); err != nil {
			return err
		}
		if _, dup := seen[entity.Code]; dup {
			return fmt.Errorf("panel: manifest duplicates entity code %s", entity.Code)
		}
		seen[entity.Code] = struct{}{}
	}
	return nil
}

// DefaultManifest returns the ten built-in Neushop entities.
func DefaultManifest() *Manifest {
	doc, err := DecodeManifest(bytes.NewReader(embeddedManifest))
	if err != nil {
		panic(fmt.Errorf("panel: embedded manifest: %w", err))
	}
	doc.Source = "embedded"
	return doc
}

// ReadManifest loads an entity manifest from disk.
func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("panel: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("panel: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc Manifest
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("panel: manifest is empty")
		}
		return nil, fmt.Errorf("panel: parse manifest: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
