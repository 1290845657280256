package resolvestatus

import "siba-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"propertyId": {
				Type:        "number",
				Description: "Property to resolve compliance status for",
			},
			"propertyIds": {
				Type:        "array",
				Description: "Batch of properties for bulk status resolution",
				Items:       &validation.Property{Type: "number"},
			},
		},
	}
}
