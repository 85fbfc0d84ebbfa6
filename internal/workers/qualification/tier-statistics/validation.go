// internal/workers/qualification/tier-statistics/validation.go
package tierstatistics

import "qualification-workers/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["organizationId"],
	"properties": {
		"organizationId": {"type": "string", "minLength": 1}
	}
}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}
