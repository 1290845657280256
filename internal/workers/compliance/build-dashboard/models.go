package builddashboard

import "siba-workers/internal/models"

// Input is empty today; the dashboard always covers the whole fleet.
type Input struct{}

type Output struct {
	Dashboard models.Dashboard `json:"sibaDashboard"`
}
