// Package schema validates HTTP request bodies against embedded JSON schemas.
package schema

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	executeSchemaName = "execute-request.schema.json"
	parseSchemaName   = "parse-request.schema.json"
)

//go:embed *.schema.json
var schemaFS embed.FS

var (
	executeSchema *jsonschema.Schema
	parseSchema   *jsonschema.Schema
	compileOnce   sync.Once
	compileErr    error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		for _, name := range []string{executeSchemaName, parseSchemaName} {
			data, err := schemaFS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		var err error
		executeSchema, err = compiler.Compile(executeSchemaName)
		if err != nil {
			compileErr = fmt.Errorf("compile %s: %w", executeSchemaName, err)
			return
		}
		parseSchema, err = compiler.Compile(parseSchemaName)
		if err != nil {
			compileErr = fmt.Errorf("compile %s: %w", parseSchemaName, err)
			return
		}
	})

	return compileErr
}

// ValidateExecute validates the body of an execute request
func ValidateExecute(data []byte) error {
	return validate(data, func() *jsonschema.Schema { return executeSchema }, "execute request")
}

// ValidateParse validates the body of a parse request
func ValidateParse(data []byte) error {
	return validate(data, func() *jsonschema.Schema { return parseSchema }, "parse request")
}

func validate(data []byte, schema func() *jsonschema.Schema, what string) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema().Validate(v); err != nil {
		return fmt.Errorf("%s validation failed: %w", what, err)
	}
	return nil
}
