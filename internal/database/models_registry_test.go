package database

import (
	"testing"

	modelspkg "sanctum/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesPartnership(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.Partnership); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include Partnership")
}
