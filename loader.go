package scanfmt

import (
	"fmt"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

///////////////////////////////////////////////////////////////////////////////
// Definition documents
///////////////////////////////////////////////////////////////////////////////

// DefinitionFormat selects the encoding of a definitions document.
type DefinitionFormat int

const (
	DefinitionsJSON DefinitionFormat = iota
	DefinitionsYAML
)

// A definitions document declares record and variant types in bulk:
//
//	types:
//	  - name: Point
//	    kind: record
//	    format: "({x}, {y})"
//	    fields:
//	      - {name: x, type: i32}
//	      - {name: y, type: i32}
//	  - name: Command
//	    kind: variant
//	    variants:
//	      - {tag: Quit, format: "quit"}
//	      - tag: Move
//	        format: "move to {p}"
//	        fields: [{name: p, type: Point}]
//
// Fields may carry a literal "default" instead of a type. Types are
// registered in document order, so later entries can reference earlier
// ones.
type definitionDoc struct {
	Types []definitionType `yaml:"types"`
}

type definitionType struct {
	Name     string              `yaml:"name"`
	Kind     string              `yaml:"kind"`
	Format   string              `yaml:"format"`
	Fields   []definitionField   `yaml:"fields"`
	Variants []definitionVariant `yaml:"variants"`
}

type definitionField struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default any    `yaml:"default"`
}

type definitionVariant struct {
	Tag    string            `yaml:"tag"`
	Format string            `yaml:"format"`
	Fields []definitionField `yaml:"fields"`
}

// RegisterDefinitions registers every type declared in a JSON or YAML
// definitions document. Registration stops at the first failing type;
// earlier types stay registered.
func (r *Registry) RegisterDefinitions(doc []byte, format DefinitionFormat) error {
	var parsed definitionDoc
	var err error
	switch format {
	case DefinitionsJSON:
		parsed, err = parseJSONDefinitions(doc)
	case DefinitionsYAML:
		err = yaml.Unmarshal(doc, &parsed)
	default:
		err = fmt.Errorf("unknown definition format %d", format)
	}
	if err != nil {
		return fmt.Errorf("parsing definitions document: %w", err)
	}

	for _, t := range parsed.Types {
		if err := r.registerDefinition(t); err != nil {
			return fmt.Errorf("registering type %q from definitions: %w", t.Name, err)
		}
	}
	return nil
}

func (r *Registry) registerDefinition(t definitionType) error {
	switch t.Kind {
	case "record":
		return r.RegisterRecord(t.Name, fieldSpecs(t.Fields), t.Format)
	case "variant":
		specs := make([]VariantSpec, len(t.Variants))
		for i, v := range t.Variants {
			specs[i] = VariantSpec{Tag: v.Tag, Fields: fieldSpecs(v.Fields), Format: v.Format}
		}
		return r.RegisterVariant(t.Name, specs)
	default:
		return fmt.Errorf(`%w: kind must be "record" or "variant", got %q`, ErrFieldTable, t.Kind)
	}
}

// fieldSpecs converts declared fields to FieldSpecs. A document default
// is a literal value, captured as a constant default function.
func fieldSpecs(fields []definitionField) []FieldSpec {
	specs := make([]FieldSpec, len(fields))
	for i, f := range fields {
		specs[i] = FieldSpec{Name: f.Name, Type: f.Type}
		if f.Default != nil {
			v := f.Default
			specs[i].Default = func() any { return v }
		}
	}
	return specs
}

// parseJSONDefinitions decodes a JSON definitions document. JSON
// numbers decode as float64, matching encoding/json defaults.
func parseJSONDefinitions(doc []byte) (definitionDoc, error) {
	if !gjson.ValidBytes(doc) {
		return definitionDoc{}, fmt.Errorf("invalid JSON")
	}
	var parsed definitionDoc
	root := gjson.ParseBytes(doc)
	for _, t := range root.Get("types").Array() {
		dt := definitionType{
			Name:   t.Get("name").String(),
			Kind:   t.Get("kind").String(),
			Format: t.Get("format").String(),
			Fields: jsonFields(t.Get("fields")),
		}
		for _, v := range t.Get("variants").Array() {
			dt.Variants = append(dt.Variants, definitionVariant{
				Tag:    v.Get("tag").String(),
				Format: v.Get("format").String(),
				Fields: jsonFields(v.Get("fields")),
			})
		}
		parsed.Types = append(parsed.Types, dt)
	}
	return parsed, nil
}

func jsonFields(arr gjson.Result) []definitionField {
	var fields []definitionField
	for _, f := range arr.Array() {
		df := definitionField{
			Name: f.Get("name").String(),
			Type: f.Get("type").String(),
		}
		if d := f.Get("default"); d.Exists() {
			df.Default = d.Value()
		}
		fields = append(fields, df)
	}
	return fields
}
