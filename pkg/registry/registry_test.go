package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)

	require.Len(t, reg.Activities, 4)

	taskTypes := make(map[string]string)
	for _, activity := range reg.Activities {
		taskTypes[activity.ID] = activity.TaskType
	}

	assert.Equal(t, "siba.status.resolve", taskTypes["resolve-status"])
	assert.Equal(t, "siba.dashboard.build", taskTypes["build-dashboard"])
	assert.Equal(t, "siba.registration.validate", taskTypes["validate-registration"])
	assert.Equal(t, "siba.registration.submit", taskTypes["submit-registration"])
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry("does-not-exist.json")
	assert.Error(t, err)
}
