package validateregistration

import "siba-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"propertyId"},
		Properties: map[string]validation.Property{
			"propertyId": {
				Type:        "number",
				Description: "Property the registration belongs to",
			},
			"reservationData": {
				Type:        "object",
				Description: "Raw reservation payload to validate",
			},
			"reservations": {
				Type:        "array",
				Description: "Batch of raw reservation payloads",
				Items:       &validation.Property{Type: "object"},
			},
		},
	}
}
