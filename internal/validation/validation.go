// Package validation checks domain records against embedded JSON Schemas and
// reports field-level failures.
package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nholik/admin-state/internal/reducer"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names of the embedded record schemas.
const (
	SchemaPackage = "package.json"
	SchemaProduct = "product.json"
)

// Validator validates records against one compiled schema.
type Validator struct {
	name    string
	schema  *jsonschema.Schema
	printer *message.Printer
}

// New compiles the embedded schema called name. Messages are rendered for tag.
func New(name string, tag language.Tag) (*Validator, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	return &Validator{
		name:    name,
		schema:  schema,
		printer: message.NewPrinter(tag),
	}, nil
}

// MustNew is New for the embedded schemas, which are known to compile.
func MustNew(name string) *Validator {
	v, err := New(name, language.English)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks record and returns one FieldError per failing location. A nil
// result means the record passed.
func (v *Validator) Validate(record any) []reducer.FieldError {
	encoded, err := json.Marshal(record)
	if err != nil {
		return []reducer.FieldError{{Field: "/", Message: fmt.Sprintf("encode record: %v", err)}}
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return []reducer.FieldError{{Field: "/", Message: fmt.Sprintf("decode record: %v", err)}}
	}

	err = v.schema.Validate(instance)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []reducer.FieldError{{Field: "/", Message: err.Error()}}
	}

	fields := make([]reducer.FieldError, 0)
	v.collect(validationErr, &fields)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Field < fields[j].Field
	})
	return fields
}

func (v *Validator) collect(err *jsonschema.ValidationError, out *[]reducer.FieldError) {
	if len(err.Causes) == 0 {
		*out = append(*out, reducer.FieldError{
			Field:   "/" + strings.Join(err.InstanceLocation, "/"),
			Message: err.ErrorKind.LocalizedString(v.printer),
		})
		return
	}
	for _, cause := range err.Causes {
		v.collect(cause, out)
	}
}
