package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const maxJsonBody = 1 << 20

const answerSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "minLength": 1},
    "document_id": {"type": "string"},
    "limit": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`

const aggregateSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["field", "operation"],
  "properties": {
    "document_id": {"type": "string"},
    "field": {"type": "string", "minLength": 1},
    "operation": {"enum": ["max", "min", "sum", "average", "median", "count"]},
    "filter": {
      "type": "object",
      "additionalProperties": {"type": ["string", "number", "boolean", "null"]}
    }
  },
  "additionalProperties": false
}`

var (
	answerRequestSchema    = mustCompile("answer-request.json", answerSchema)
	aggregateRequestSchema = mustCompile("aggregate-request.json", aggregateSchema)
)

func mustCompile(url string, schema string) *jsonschema.Schema {
	var schemaDoc interface{}
	if err := json.Unmarshal([]byte(schema), &schemaDoc); err != nil {
		panic(fmt.Sprintf("schema %s: %v", url, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, schemaDoc); err != nil {
		panic(fmt.Sprintf("schema %s: %v", url, err))
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", url, err))
	}
	return compiled
}

// decodeValidated reads a JSON body, checks it against schema and decodes it into dst.
func decodeValidated(r *http.Request, schema *jsonschema.Schema, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJsonBody))
	if err != nil {
		return fmt.Errorf("could not read body: %w", err)
	}

	var instance interface{}
	if err := json.Unmarshal(body, &instance); err != nil {
		return fmt.Errorf("body is not valid JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return errors.New(schemaMessage(validationErr))
		}
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	return dec.Decode(dst)
}

// schemaMessage flattens the innermost causes into one line.
func schemaMessage(validationErr *jsonschema.ValidationError) string {
	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			path := "$"
			if len(e.InstanceLocation) > 0 {
				path = "$." + strings.Join(e.InstanceLocation, ".")
			}
			msgs = append(msgs, path+": "+e.Error())
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return strings.Join(msgs, "; ")
}
