package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Request schema names.
const (
	schemaTaskCreate   = "task-create"
	schemaTaskUpdate   = "task-update"
	schemaAuthRegister = "auth-register"
	schemaAuthLogin    = "auth-login"
)

// errInvalidBody is returned when the request body is not JSON.
var errInvalidBody = errors.New("invalid request body")

// fieldMessages overrides the generic schema messages, keyed by
// "<field>/<keyword>".
var fieldMessages = map[string]string{
	"title/required":        "Task title is required",
	"title/minLength":       "Task title is required",
	"title/maxLength":       "Title cannot exceed 200 characters",
	"description/maxLength": "Description cannot exceed 2000 characters",
	"dueDate/required":      "Due date is required",
	"dueDate/minLength":     "Due date is required",
	"priority/enum":         "Priority must be one of: low, medium, high",
	"status/enum":           "Status must be one of: pending, completed",
	"name/required":         "Name is required",
	"name/minLength":        "Name is required",
	"email/required":        "Email is required",
	"email/minLength":       "Email is required",
	"password/required":     "Password is required",
	"password/minLength":    "Password is required",
}

// Validator checks request bodies against the embedded JSON schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		if err := compiler.AddResource(entry.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", entry.Name(), err)
		}
		names = append(names, entry.Name())
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[strings.TrimSuffix(name, ".json")] = schema
	}
	return v, nil
}

// Decode validates body against the named schema and, when it passes,
// decodes it into dst. Unknown properties are ignored.
//
// It returns errInvalidBody for malformed JSON, and the list of field
// problems (nil error) when the body breaks the schema.
func (v *Validator) Decode(name string, body []byte, dst any) ([]FieldError, error) {
	schema, ok := v.schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errInvalidBody
	}

	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("validate %s: %w", name, err)
		}
		return collectFieldErrors(schema, doc, ve), nil
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return nil, errInvalidBody
	}
	return nil, nil
}

func collectFieldErrors(schema *jsonschema.Schema, doc any, ve *jsonschema.ValidationError) []FieldError {
	var out []FieldError
	seen := make(map[string]bool)
	add := func(field, keyword, fallback string) {
		key := field + "/" + keyword
		if seen[key] {
			return
		}
		seen[key] = true
		msg, ok := fieldMessages[key]
		if !ok {
			msg = fallback
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, cause := range e.Causes {
				walk(cause)
			}
			return
		}

		keyword := path.Base(e.KeywordLocation)
		if keyword == "required" {
			// One error covers every missing property.
			for _, field := range missingProperties(schema, doc) {
				add(field, keyword, "Required")
			}
			return
		}
		field := strings.TrimPrefix(e.InstanceLocation, "/")
		add(field, keyword, e.Message)
	}
	walk(ve)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func missingProperties(schema *jsonschema.Schema, doc any) []string {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	var missing []string
	for _, name := range schema.Required {
		if _, present := obj[name]; !present {
			missing = append(missing, name)
		}
	}
	return missing
}
