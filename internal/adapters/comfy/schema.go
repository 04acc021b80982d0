package comfy

import "comfyrun/internal/core/schema"

// historyEntrySchema describes one prompt entry of GET /history/{id}.
// Only the fields the poller reads are constrained.
var historyEntrySchema = schema.MustCompile("history_entry.json", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"status": map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				"completed":  map[string]any{"type": "boolean"},
				"status_str": map[string]any{"type": "string"},
				"messages":   map[string]any{"type": "array"},
			},
		},
		"outputs": map[string]any{
			"type":                 []any{"object", "null"},
			"additionalProperties": map[string]any{"type": "object"},
		},
	},
})

// promptResponseSchema describes a successful POST /prompt response.
var promptResponseSchema = schema.MustCompile("prompt_response.json", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"prompt_id":   map[string]any{"type": "string"},
		"number":      map[string]any{"type": "number"},
		"node_errors": map[string]any{"type": "object"},
	},
})
