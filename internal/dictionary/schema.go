package dictionary

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://github.com/roach88/mnemo/schema/dictionary.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Schema returns the compiled dictionary schema.
func Schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// SchemaSource returns the embedded schema document.
func SchemaSource() string {
	return schemaJSON
}

// checkSchema validates a decoded tree against the dictionary schema.
func checkSchema(tree any) error {
	schema, err := Schema()
	if err != nil {
		return err
	}
	return schema.Validate(tree)
}

// schemaLeaves flattens a validation error into its innermost causes.
func schemaLeaves(err error) []*jsonschema.ValidationError {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil
	}
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, schemaLeaves(c)...)
	}
	return out
}

// pointerToPath turns a JSON pointer such as "/l/a/>>/0" into the edge
// sequence "la".
func pointerToPath(ptr string) string {
	var b strings.Builder
	for _, seg := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if seg == ">>" {
			break
		}
		if len([]rune(seg)) == 1 {
			b.WriteString(seg)
		}
	}
	return b.String()
}
