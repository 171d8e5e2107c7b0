package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sanctum/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHiveRepository_Integration(t *testing.T) {
	repo := NewHiveRepository(testDB)
	ctx := context.Background()

	owner := uuid.New()
	slug := fmt.Sprintf("focus-room-%d", time.Now().UnixNano())
	hive := &models.Hive{
		ID:          uuid.New(),
		Slug:        slug,
		OwnerUserID: owner,
		Visibility:  models.VisibilityPublic,
		MaxMembers:  25,
	}

	t.Run("Create rejects an invalid slug", func(t *testing.T) {
		bad := &models.Hive{ID: uuid.New(), Slug: "a", OwnerUserID: owner}
		err := repo.Create(ctx, bad)
		assert.Error(t, err)
	})

	t.Run("Create and GetBySlug", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, hive))

		found, err := repo.GetBySlug(ctx, slug)
		require.NoError(t, err)
		assert.Equal(t, hive.ID, found.ID)
	})

	t.Run("AddMembership and CountMembers", func(t *testing.T) {
		memberID := uuid.New()
		err := repo.AddMembership(ctx, &models.Membership{
			ID:     uuid.New(),
			HiveID: hive.ID,
			UserID: memberID,
			Role:   models.MembershipMember,
		})
		require.NoError(t, err)

		count, err := repo.CountMembers(ctx, hive.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("ListPublic includes the hive", func(t *testing.T) {
		hives, err := repo.ListPublic(ctx, 50, 0)
		assert.NoError(t, err)
		found := false
		for _, h := range hives {
			if h.ID == hive.ID {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, hive.ID))
		_, err := repo.GetByID(ctx, hive.ID)
		assert.Error(t, err)
	})
}
