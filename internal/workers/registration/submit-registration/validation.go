package submitregistration

import "siba-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"propertyId": {
				Type:        "number",
				Description: "Identifier of the property the reservations belong to",
			},
			"reservationData": {
				Type:        "object",
				Description: "Single raw reservation payload to register",
			},
			"reservations": {
				Type:        "array",
				Description: "Batch of raw reservation payloads to register",
				Items: &validation.Property{
					Type: "object",
				},
			},
		},
		Required:             []string{"propertyId"},
		AdditionalProperties: true,
	}
}
