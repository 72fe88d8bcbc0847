package workflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/tramite-io/tramite/pkg/models"
)

// Per-kind JSON schemas for the node payloads. Struct-tag validation covers
// required top-level fields; these catch shape mistakes inside the per-kind
// payloads coming from the graph editor.
var nodeSchemas = map[models.NodeKind]map[string]any{
	models.NodeKindDepartment: {
		"type": "object",
		"properties": map[string]any{
			"department": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"department_id": map[string]any{"type": "string", "minLength": 1},
				},
				"required": []any{"department_id"},
			},
		},
	},
	models.NodeKindApproval: {
		"type": "object",
		"properties": map[string]any{
			"approval": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"approver_user_ids": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"approver_group_id": map[string]any{"type": "string"},
				},
			},
		},
	},
	models.NodeKindEnd: {
		"type": "object",
	},
}

// validateNodeSchema checks a node's serialized form against the schema of
// its kind.
func validateNodeSchema(node *models.StepNode) error {
	schema, ok := nodeSchemas[node.Kind]
	if !ok {
		return &GraphConfigurationError{
			NodeKey: node.Key,
			Err:     fmt.Errorf("unknown node kind %q", node.Kind),
		}
	}

	raw, err := json.Marshal(node)
	if err != nil {
		return &GraphConfigurationError{NodeKey: node.Key, Err: err}
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &GraphConfigurationError{NodeKey: node.Key, Err: err}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return &GraphConfigurationError{NodeKey: node.Key, Err: err}
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			details = append(details, resultError.String())
		}

		return &GraphConfigurationError{
			NodeKey: node.Key,
			Err:     fmt.Errorf("schema validation failed: %s", strings.Join(details, "; ")),
		}
	}

	return nil
}
