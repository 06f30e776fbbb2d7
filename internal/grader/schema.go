package grader

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const scoreSchemaName = "answer-score"

// scoreSchemaDefinition is the JSON shape the grader must return.
var scoreSchemaDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"score":   map[string]any{"type": "integer", "minimum": 0, "maximum": 5},
		"comment": map[string]any{"type": "string"},
	},
	"required":             []any{"score", "comment"},
	"additionalProperties": false,
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func scoreSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		raw, err := json.Marshal(scoreSchemaDefinition)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		url := fmt.Sprintf("schema://%s.json", scoreSchemaName)
		if err := c.AddResource(url, parsed); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(url)
	})
	return compiledSchema, compileErr
}

// validateReply checks raw grader output against the score schema and decodes
// it. A malformed reply is a grading failure, never a panic or a trusted parse.
func validateReply(raw []byte) (GradeResult, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return GradeResult{}, &ErrInvalidReply{Raw: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	schema, err := scoreSchema()
	if err != nil {
		return GradeResult{}, &ErrInvalidReply{Raw: raw, Err: err}
	}
	if err := schema.Validate(parsed); err != nil {
		return GradeResult{}, &ErrInvalidReply{Raw: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	var result GradeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return GradeResult{}, &ErrInvalidReply{Raw: raw, Err: err}
	}

	return result, nil
}
