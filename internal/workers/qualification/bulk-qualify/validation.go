// internal/workers/qualification/bulk-qualify/validation.go
package bulkqualify

import "qualification-workers/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["organizationId"],
	"properties": {
		"organizationId": {"type": "string", "minLength": 1},
		"leadIds": {
			"type": ["array", "null"],
			"items": {"type": "string", "minLength": 1}
		},
		"contactIds": {
			"type": ["array", "null"],
			"items": {"type": "string", "minLength": 1}
		}
	}
}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}
