// internal/workers/qualification/auto-qualify-email/validation.go
package autoqualifyemail

import "qualification-workers/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["organizationId", "emailThreadId"],
	"properties": {
		"organizationId": {"type": "string", "minLength": 1},
		"emailThreadId":  {"type": "string", "minLength": 1}
	}
}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}
