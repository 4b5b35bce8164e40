package scratch

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

//go:embed schema.json
var projectSchema string

const schemaURL = "schema://project.json"

// Validator checks project documents against the embedded schema
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the project schema
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	compiler.Formats["semver"] = isSemver

	// The schema is self-contained; refuse anything that would need loading.
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("external $ref not allowed: %s", url)
	}

	if err := compiler.AddResource(schemaURL, strings.NewReader(projectSchema)); err != nil {
		return nil, fmt.Errorf("schema load failed: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("schema compilation failed: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks p's serialized form
func (v *Validator) Validate(p *Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("project marshal failed: %w", err)
	}
	return v.ValidateJSON(data)
}

// ValidateJSON checks an already serialized project document
func (v *Validator) ValidateJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("project decode failed: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return convertValidationError(err)
	}
	return nil
}

// SchemaError reports the innermost schema violations of a document
type SchemaError struct {
	Violations []Violation
}

// Violation is one failed keyword at one location of the document
type Violation struct {
	Location string // JSON pointer into the document
	Message  string
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Location, v.Message)
	}
	return "invalid project document: " + strings.Join(parts, "; ")
}

func convertValidationError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	out := &SchemaError{}
	collectLeaves(ve, out)
	return out
}

func collectLeaves(ve *jsonschema.ValidationError, out *SchemaError) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out.Violations = append(out.Violations, Violation{Location: loc, Message: ve.Message})
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

func isSemver(v any) bool {
	s, ok := v.(string)
	if !ok {
		return true // type keyword reports non-strings
	}
	return semver.IsValid("v" + s)
}
