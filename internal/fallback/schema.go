package fallback

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Shape names accepted by ValidateShape.
const (
	ShapeUser        = "user"
	ShapeUserList    = "user_list"
	ShapeSubmissions = "submission_list"
	ShapeAck         = "ack"
)

var nullableString = map[string]any{"type": []any{"string", "null"}}
var nullableNumber = map[string]any{"type": []any{"number", "null"}}

var userSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "username"},
	"properties": map[string]any{
		"id":       map[string]any{"type": "integer"},
		"username": map[string]any{"type": "string", "minLength": 1},
		"role":     map[string]any{"enum": []any{"student", "teacher"}},
		"year":     map[string]any{"type": []any{"integer", "null"}},
	},
}

var assignmentSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "title", "due_date"},
	"properties": map[string]any{
		"id":              map[string]any{"type": "integer"},
		"title":           map[string]any{"type": "string"},
		"description":     nullableString,
		"due_date":        map[string]any{"type": "string", "minLength": 10},
		"submission_type": map[string]any{"enum": []any{"text", "multiple_choice", "file"}},
		"question":        nullableString,
		"choices": map[string]any{
			"type":  []any{"string", "array", "null"},
			"items": map[string]any{"type": "string"},
		},
		"weight":    map[string]any{"type": []any{"number", "null"}, "minimum": 0, "maximum": 100},
		"max_score": nullableNumber,
	},
}

var submissionSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "assignment_id", "student_id", "status", "assignment"},
	"properties": map[string]any{
		"id":              map[string]any{"type": "integer"},
		"assignment_id":   map[string]any{"type": "integer"},
		"student_id":      map[string]any{"type": "integer"},
		"status":          map[string]any{"enum": []any{"pending", "submitted", "graded"}},
		"submitted_at":    nullableString,
		"score":           nullableNumber,
		"max_score":       nullableNumber,
		"teacher_note":    nullableString,
		"student_note":    nullableString,
		"answer_text":     nullableString,
		"selected_choice": map[string]any{"type": []any{"integer", "null"}, "minimum": 0},
		"file_name":       nullableString,
		"assignment":      assignmentSchema,
	},
}

var shapes = map[string]any{
	ShapeUser:        userSchema,
	ShapeUserList:    map[string]any{"type": "array", "items": userSchema},
	ShapeSubmissions: map[string]any{"type": "array", "items": submissionSchema},
	ShapeAck: map[string]any{
		"type":       "object",
		"required":   []any{"message"},
		"properties": map[string]any{"message": map[string]any{"type": "string"}},
	},
}

// schemaCache caches compiled shapes by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// ValidateShape checks raw against the named endpoint shape. It is used for the
// built-in fixtures and by the probe command against live responses.
func ValidateShape(name string, raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	compiled, err := compiledShape(name)
	if err != nil {
		return err
	}
	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("%s shape mismatch: %w", name, err)
	}
	return nil
}

func compiledShape(name string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}
	def, ok := shapes[name]
	if !ok {
		return nil, fmt.Errorf("unknown shape %q", name)
	}

	// The compiler wants plain decoded JSON values.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal shape %s: %w", name, err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse shape %s: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://gradebook/%s.json", name)
	if err := c.AddResource(url, defParsed); err != nil {
		return nil, fmt.Errorf("add shape %s: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile shape %s: %w", name, err)
	}
	schemaCache.Store(name, compiled)
	return compiled, nil
}
