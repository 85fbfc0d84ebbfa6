// internal/workers/qualification/qualification-form/validation.go
package qualificationform

import "qualification-workers/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"organizationId": {"type": "string"}
	}
}`)

func GetInputSchema() *validation.Schema {
	return inputSchema
}
