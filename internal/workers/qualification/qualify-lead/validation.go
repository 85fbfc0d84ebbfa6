// internal/workers/qualification/qualify-lead/validation.go
package qualifylead

import "qualification-workers/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["organizationId"],
	"properties": {
		"organizationId": {"type": "string", "minLength": 1},
		"contactId":      {"type": "string"},
		"leadId":         {"type": "string"},
		"emailThreadId":  {"type": "string"},
		"source":         {"type": "string", "maxLength": 100},
		"responses": {
			"type": "object",
			"properties": {
				"budget":        {"type": ["string", "number", "null"]},
				"timeline":      {"type": ["string", "null"]},
				"decisionMaker": {"type": ["string", "null"]},
				"motivation":    {"type": ["string", "null"]},
				"urgency":       {"type": ["string", "null"]},
				"preApproved":   {"type": ["string", "boolean", "null"]},
				"location":      {"type": ["string", "null"]},
				"propertyType":  {"type": ["string", "null"]}
			}
		}
	}
}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}
